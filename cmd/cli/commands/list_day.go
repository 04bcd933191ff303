package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jakechorley/caregiver-rota/pkg/core/services"
)

// ListDayCmd creates the listDay command
func ListDayCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listDay <date>",
		Short: "Show the hour by room schedule for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := app.ParseDate(args[0])
			if err != nil {
				return err
			}

			view, err := services.DaySchedule(app.Ctx, app.Database, app.Layout, app.Logger, date)
			if err != nil {
				return err
			}

			return printDay(os.Stdout, view)
		},
	}
}

// printDay renders a DayView as an aligned table
func printDay(out io.Writer, view *services.DayView) error {
	fmt.Fprintf(out, "\n%s\n\n", view.Date.Format("Monday 2 January 2006"))

	if !view.Open {
		fmt.Fprintln(out, "Closed")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "Hour")
	for _, room := range view.Rooms {
		fmt.Fprintf(tw, "\tRoom %d", room)
	}
	fmt.Fprintln(tw)

	for _, row := range view.Rows {
		fmt.Fprint(tw, row.Slot.Format("15:04"))
		for _, cell := range row.Cells {
			text := "-"
			if cell.Filled() {
				text = cell.CaregiverName
			}
			fmt.Fprintf(tw, "\t%s", text)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	filled := view.FilledSlots()
	total := filled + view.UnfilledSlots()
	fmt.Fprintf(out, "\n%sFilled: %d/%d%s\n", coverageColor(filled, total), filled, total, colorReset)
	if len(view.Outside) > 0 {
		fmt.Fprintf(out, "⚠️  %d appointments fall outside today's working hours or rooms\n", len(view.Outside))
	}
	fmt.Fprintln(out)
	return nil
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
)

// coverageColor is green for a fully staffed day, yellow when at least half the
// slots are filled and red otherwise
func coverageColor(filled, total int) string {
	switch {
	case filled >= total:
		return colorGreen
	case filled*2 >= total:
		return colorYellow
	default:
		return colorRed
	}
}
