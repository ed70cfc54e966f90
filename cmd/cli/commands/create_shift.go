package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/care-shifts/internal/config"
	"github.com/jakechorley/care-shifts/pkg/core/services"
)

// CreateShiftCmd creates the createShift command
func CreateShiftCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createShift <care_home_id> <start> <end>",
		Short: "Create a shift at a care home, optionally assigned to a staff member",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			start, err := parseTime(args[1], app.Location)
			if err != nil {
				return err
			}
			end, err := parseTime(args[2], app.Location)
			if err != nil {
				return err
			}
			staffID, _ := cmd.Flags().GetString("staff")
			key, _ := cmd.Flags().GetString("key")

			shift, err := services.CreateShift(app.Ctx, app.Database, app.Clock, app.Logger, actor, services.CreateShiftRequest{
				CareHomeID:     args[0],
				StaffID:        staffID,
				StartTime:      start,
				EndTime:        end,
				IdempotencyKey: key,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Shift created successfully!\n\n")
			printShift(shift, app.Location)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("staff", "", "Staff profile ID to assign on creation")
	cmd.Flags().String("key", "", "Idempotency key; retrying with the same key returns the original shift")

	return cmd
}

// CreateRecurringShiftsCmd creates the createRecurringShifts command
func CreateRecurringShiftsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "createRecurringShifts <template> <from> <until>",
		Short: "Create open shifts from a configured template between two dates (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			cfgTmpl, ok := app.Cfg.Template(args[0])
			if !ok {
				return fmt.Errorf("no shift template named %q in config", args[0])
			}
			tmpl, err := shiftTemplate(cfgTmpl)
			if err != nil {
				return err
			}
			from, err := parseDate(args[1], app.Location)
			if err != nil {
				return err
			}
			until, err := parseDate(args[2], app.Location)
			if err != nil {
				return err
			}

			created, failures, err := services.CreateRecurringShifts(app.Ctx, app.Database, app.Clock, app.Logger, actor, tmpl, app.Location, from, until)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Recurring shifts processed for template %s\n\n", tmpl.Name)
			if len(created) > 0 {
				fmt.Printf("%d shifts:\n", len(created))
				for i := range created {
					fmt.Printf("  %s\n", shiftLine(&created[i], app.Location))
				}
				fmt.Println()
			}
			if len(failures) > 0 {
				fmt.Printf("⚠️  Failed to create %d shifts:\n", len(failures))
				for _, f := range failures {
					fmt.Printf("  ✗ %s: %s\n", f.StartTime.In(app.Location).Format(displayLayout), f.Error)
				}
				fmt.Println()
			}
			if len(created) == 0 && len(failures) == 0 {
				fmt.Println("No upcoming occurrences in that range.")
			}
			return nil
		},
	}
}

// shiftTemplate converts a configured template into the services form
func shiftTemplate(t config.ShiftTemplate) (services.ShiftTemplate, error) {
	offset, err := t.StartOffset()
	if err != nil {
		return services.ShiftTemplate{}, fmt.Errorf("template %s: %w", t.Name, err)
	}
	length, err := t.Length()
	if err != nil {
		return services.ShiftTemplate{}, fmt.Errorf("template %s: %w", t.Name, err)
	}
	return services.ShiftTemplate{
		Name:        t.Name,
		CareHomeID:  t.CareHomeID,
		RRule:       t.RRule,
		StartOffset: offset,
		Length:      length,
	}, nil
}
