package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/httpapi"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the auto-fit HTTP API and metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Cfg.Server.Addr
			}

			sync, _ := cmd.Flags().GetBool("sync")
			if sync {
				if err := syncRoster(app, os.Stdout); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			api := httpapi.New(ctx, app.Scheduler, app.Database, app.Layout, app.Logger)
			server := &http.Server{
				Addr:              addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				app.Logger.Info("HTTP server listening", zap.String("addr", addr))
				serveErr <- server.ListenAndServe()
			}()

			select {
			case err := <-serveErr:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server failed: %w", err)
				}
			case <-ctx.Done():
				app.Logger.Info("Shutting down HTTP server")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down http server: %w", err)
			}

			// Runs started over HTTP share ctx, so they observe the cancellation and stop
			api.Wait()
			app.Logger.Info("HTTP server stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")
	cmd.Flags().Bool("sync", false, "Sync caregivers from the roster API before serving")

	return cmd
}
