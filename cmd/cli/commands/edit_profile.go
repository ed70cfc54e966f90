package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jakechorley/care-shifts/pkg/core/model"
	"github.com/jakechorley/care-shifts/pkg/core/services"
)

// EditProfileCmd creates the editProfile command
func EditProfileCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "editProfile [profile_id]",
		Short: "Update a profile (defaults to your own); --role needs admin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			ownerID := actor.ID
			if len(args) > 0 {
				ownerID = args[0]
			}

			var update model.ProfileUpdate
			flags := cmd.Flags()
			if flags.Changed("name") {
				v, _ := flags.GetString("name")
				update.FullName = &v
			}
			if flags.Changed("email") {
				v, _ := flags.GetString("email")
				update.Email = &v
			}
			if flags.Changed("phone") {
				v, _ := flags.GetString("phone")
				update.Phone = &v
			}
			if flags.Changed("available") {
				v, _ := flags.GetBool("available")
				update.IsAvailable = &v
			}
			if flags.Changed("role") {
				v, _ := flags.GetString("role")
				role, err := model.ParseRole(v)
				if err != nil {
					return err
				}
				update.Role = &role
			}

			profile, err := services.EditProfile(app.Ctx, app.Database, app.Logger, actor, ownerID, update)
			if err != nil {
				return err
			}
			if profile.ID == actor.ID {
				app.Actor = profile
			}

			fmt.Printf("\n✓ Profile updated\n\n")
			printProfile(profile)
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("name", "", "Full name")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("phone", "", "Phone number (empty to clear)")
	cmd.Flags().Bool("available", true, "Whether the staff member can be assigned shifts")
	cmd.Flags().String("role", "", "Role: staff, manager or admin")

	return cmd
}

// LeaveFeedbackCmd creates the leaveFeedback command
func LeaveFeedbackCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "leaveFeedback <shift_id> <rating> [comment]",
		Short: "Rate a completed shift from 1 to 5",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("rating must be a number: %w", err)
			}
			comment := ""
			if len(args) > 2 {
				comment = args[2]
			}

			feedback, err := services.LeaveFeedback(app.Ctx, app.Database, app.Logger, actor, args[0], rating, comment)
			if err != nil {
				return err
			}
			fmt.Printf("\n✓ Feedback recorded (%d/5) for shift %s\n\n", feedback.Rating, feedback.ShiftID)
			return nil
		},
	}
}
