package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/services"
	"github.com/jakechorley/care-shifts/pkg/db"
)

// ViewShiftCmd creates the viewShift command
func ViewShiftCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "viewShift <shift_id>",
		Short: "Show a shift and any feedback left on it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			shift, err := services.ViewShift(app.Ctx, app.Database, app.Logger, actor, args[0])
			if err != nil {
				return err
			}
			feedback, err := services.ListFeedback(app.Ctx, app.Database, actor, shift.ID)
			if err != nil {
				return err
			}

			fmt.Println()
			printShift(shift, app.Location)
			for _, f := range feedback {
				fmt.Printf("Feedback:     %d/5 from %s", f.Rating, f.ManagerID)
				if f.Comment != nil {
					fmt.Printf(" - %q", *f.Comment)
				}
				fmt.Println()
			}
			fmt.Println()
			return nil
		},
	}
}

// ListShiftsCmd creates the listShifts command
func ListShiftsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listShifts",
		Short: "List shifts, optionally filtered by staff, care home, status and date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}

			var filter db.ShiftFilter
			filter.StaffID, _ = cmd.Flags().GetString("staff")
			filter.CareHomeID, _ = cmd.Flags().GetString("care-home")
			statuses, _ := cmd.Flags().GetStringSlice("status")
			for _, s := range statuses {
				st, err := model.ParseStatus(s)
				if err != nil {
					return err
				}
				filter.Statuses = append(filter.Statuses, st)
			}
			if from, _ := cmd.Flags().GetString("from"); from != "" {
				if filter.From, err = parseDate(from, app.Location); err != nil {
					return err
				}
			}
			if until, _ := cmd.Flags().GetString("until"); until != "" {
				if filter.Until, err = parseDate(until, app.Location); err != nil {
					return err
				}
			}

			shifts, err := services.ListShifts(app.Ctx, app.Database, app.Logger, actor, filter)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d shifts:\n\n", len(shifts))
			for i := range shifts {
				fmt.Printf("  %s\n", shiftLine(&shifts[i], app.Location))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("staff", "", "Only shifts assigned to this staff profile ID")
	cmd.Flags().String("care-home", "", "Only shifts at this care home ID")
	cmd.Flags().StringSlice("status", nil, "Only shifts in these statuses (repeatable or comma separated)")
	cmd.Flags().String("from", "", "Only shifts ending after this date (YYYY-MM-DD)")
	cmd.Flags().String("until", "", "Only shifts starting before this date (YYYY-MM-DD)")

	return cmd
}

// ListStaffCmd creates the listStaff command
func ListStaffCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listStaff",
		Short: "List staff members available for assignment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			staff, err := services.ListAvailableStaff(app.Ctx, app.Database, app.Logger, actor)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d available staff:\n\n", len(staff))
			for _, p := range staff {
				fmt.Printf("- %s (%s) - %s\n", p.FullName, p.ID, p.Email)
			}
			fmt.Println()
			return nil
		},
	}
}
