package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/care-shifts/pkg/core/identity"
	"github.com/jakechorley/care-shifts/pkg/core/model"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Migrator == nil {
				fmt.Println("\nThe memory store has no schema, nothing to migrate.")
				return nil
			}
			applied, err := app.Migrator.RunMigrations(app.Ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Println("\n✓ Database schema is up to date")
				return nil
			}
			fmt.Printf("\n✓ Applied %d migrations:\n", len(applied))
			for _, f := range applied {
				fmt.Printf("  - %s\n", f)
			}
			fmt.Println()
			return nil
		},
	}
}

// IssueTokenCmd creates the issueToken command. It signs with the configured
// secret, so it only makes sense for local environments.
func IssueTokenCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issueToken <subject> <email>",
		Short: "Sign a session token for local testing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl, _ := cmd.Flags().GetDuration("ttl")
			token, err := identity.IssueToken(app.Cfg.Identity.JWTSecret, model.Identity{ID: args[0], Email: args[1]}, app.Cfg.Identity.Issuer, app.Cfg.Identity.Audience, ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().Duration("ttl", 12*time.Hour, "Token lifetime")

	return cmd
}
