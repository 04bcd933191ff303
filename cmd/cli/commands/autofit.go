package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/caregiver-rota/pkg/core/errs"
	"github.com/jakechorley/caregiver-rota/pkg/core/services"
)

// AutoFitCmd creates the autofit command
func AutoFitCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autofit <date>",
		Short: "Fill the free room slots of a day with the best-scoring caregivers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := app.ParseDate(args[0])
			if err != nil {
				return err
			}

			sync, _ := cmd.Flags().GetBool("sync")
			if sync {
				if err := syncRoster(app, os.Stdout); err != nil {
					return err
				}
			}

			result, err := services.AutoFit(app.Ctx, app.Scheduler, app.Database, app.Layout, app.Logger, date)
			if errors.Is(err, errs.ErrStore) {
				fmt.Println("\n✗ Auto-fit stopped on a store error. Appointments committed before the error are kept.")
			}
			if err != nil {
				return err
			}

			if !result.Open {
				fmt.Printf("\n%s is closed, nothing to fit.\n\n", result.Date.Format("Monday 2 January 2006"))
				return nil
			}

			fmt.Printf("\n✓ Auto-fit committed %d appointments\n", len(result.Committed))
			if len(result.IneligibleCaregivers) > 0 {
				fmt.Printf("Reached the weekly limit: %v\n", result.IneligibleCaregivers)
			}

			return printDay(os.Stdout, result.Day)
		},
	}

	cmd.Flags().Bool("sync", false, "Sync caregivers from the roster API before fitting")

	return cmd
}
