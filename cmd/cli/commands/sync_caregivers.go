package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/caregiver-rota/pkg/core/services"
)

// SyncCaregiversCmd creates the syncCaregivers command
func SyncCaregiversCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "syncCaregivers",
		Short: "Fetch the caregiver roster from the roster API and store it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncRoster(app, os.Stdout)
		},
	}
}

func syncRoster(app *AppContext, out io.Writer) error {
	result, err := services.SyncCaregivers(app.Ctx, app.Database, app.RosterClient, app.Logger, app.Cfg.Roster.Pages)
	if err != nil {
		return err
	}

	if result.FetchErr != nil {
		fmt.Fprintf(out, "⚠️  Roster API unavailable, using the local roster: %v\n", result.FetchErr)
	}
	fmt.Fprintf(out, "✓ Synced %d caregivers from %d pages (%d in roster)\n", result.Upserted, result.PagesFetched, result.Total)
	return nil
}
