package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/care-shifts/pkg/core/services"
)

// Login verifies a session token and resolves the caller's profile,
// creating it on first use
func (a *AppContext) Login(token string) error {
	id, err := a.Verifier.ParseToken(token)
	if err != nil {
		return err
	}
	profile, err := services.EnsureProfile(a.Ctx, a.Database, a.Logger, id)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	a.Actor = profile
	a.Logger.Info("Logged in", zap.String("profile_id", profile.ID), zap.String("role", string(profile.Role)))
	return nil
}

// LoginCmd creates the login command, used to switch user inside an interactive session
func LoginCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Log in with a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Login(args[0]); err != nil {
				return err
			}
			fmt.Printf("\n✓ Logged in as %s (%s)\n\n", app.Actor.FullName, app.Actor.Role)
			return nil
		},
	}
}

// WhoAmICmd creates the whoami command
func WhoAmICmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			fmt.Println()
			printProfile(actor)
			fmt.Println()
			return nil
		},
	}
}
