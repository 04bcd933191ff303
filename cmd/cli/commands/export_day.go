package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/core/services"
)

// ExportDayCmd creates the exportDay command
func ExportDayCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exportDay <date> <file.xlsx>",
		Short: "Export a day's schedule as a spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			date, err := app.ParseDate(args[0])
			if err != nil {
				return err
			}

			view, err := services.DaySchedule(app.Ctx, app.Database, app.Layout, app.Logger, date)
			if err != nil {
				return err
			}

			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[1], err)
			}
			defer func() {
				if closeErr := f.Close(); closeErr != nil && err == nil {
					err = fmt.Errorf("failed to close %s: %w", args[1], closeErr)
				}
			}()

			if err := services.ExportDay(view, f); err != nil {
				return err
			}

			app.Logger.Info("Exported day", zap.String("file", args[1]), zap.Int("filled", view.FilledSlots()))
			fmt.Printf("\n✓ Wrote %s (%d filled, %d unfilled)\n\n", args[1], view.FilledSlots(), view.UnfilledSlots())
			return nil
		},
	}
}
