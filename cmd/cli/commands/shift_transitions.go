package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/services"
	"github.com/jakechorley/care-shifts/pkg/db"
	"github.com/jakechorley/care-shifts/pkg/utils/clock"
)

type transitionFunc func(ctx context.Context, store db.ShiftStore, clk clock.Clock, logger *zap.Logger, actor *model.Profile, shiftID string) (*model.Shift, error)

func transitionCmd(app *AppContext, use, short, done string, fn transitionFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <shift_id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			shift, err := fn(app.Ctx, app.Database, app.Clock, app.Logger, actor, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ %s\n\n", done)
			printShift(shift, app.Location)
			fmt.Println()
			return nil
		},
	}
}

// StartShiftCmd creates the startShift command
func StartShiftCmd(app *AppContext) *cobra.Command {
	return transitionCmd(app, "startShift", "Check in to a shift assigned to you", "Checked in", services.StartShift)
}

// CompleteShiftCmd creates the completeShift command
func CompleteShiftCmd(app *AppContext) *cobra.Command {
	return transitionCmd(app, "completeShift", "Check out of a shift you are working", "Checked out", services.CompleteShift)
}

// CancelShiftCmd creates the cancelShift command
func CancelShiftCmd(app *AppContext) *cobra.Command {
	return transitionCmd(app, "cancelShift", "Cancel a shift that has not finished", "Shift cancelled", services.CancelShift)
}

// AssignStaffCmd creates the assignStaff command
func AssignStaffCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "assignStaff <shift_id> <staff_id>",
		Short: "Assign an open shift to a staff member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			shift, err := services.AssignStaff(app.Ctx, app.Database, app.Clock, app.Logger, actor, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Staff assigned\n\n")
			printShift(shift, app.Location)
			fmt.Println()
			return nil
		},
	}
}

// RescheduleShiftCmd creates the rescheduleShift command
func RescheduleShiftCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescheduleShift <shift_id> <start> <end>",
		Short: "Move an open or assigned shift to a new time",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			var start, end time.Time
			if start, err = parseTime(args[1], app.Location); err != nil {
				return err
			}
			if end, err = parseTime(args[2], app.Location); err != nil {
				return err
			}
			shift, err := services.RescheduleShift(app.Ctx, app.Database, app.Clock, app.Logger, actor, args[0], start, end)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Shift rescheduled\n\n")
			printShift(shift, app.Location)
			fmt.Println()
			return nil
		},
	}
}
