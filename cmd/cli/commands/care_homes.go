package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/care-shifts/pkg/core/services"
)

// CareHomesCmd creates the careHomes command
func CareHomesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "careHomes",
		Short: "List care homes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			homes, err := services.ListCareHomes(app.Ctx, app.Database, actor)
			if err != nil {
				return err
			}

			fmt.Printf("\nFound %d care homes:\n\n", len(homes))
			for _, h := range homes {
				fmt.Printf("- %s (%s) - %s\n", h.Name, h.ID, h.Address)
			}
			fmt.Println()
			return nil
		},
	}
}

// AddCareHomeCmd creates the addCareHome command
func AddCareHomeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addCareHome <name> <address>",
		Short: "Register a care home (admin only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.RequireActor()
			if err != nil {
				return err
			}
			lat, _ := cmd.Flags().GetFloat64("lat")
			lng, _ := cmd.Flags().GetFloat64("lng")
			radius, _ := cmd.Flags().GetInt("radius")

			home, err := services.AddCareHome(app.Ctx, app.Database, app.Logger, actor, services.AddCareHomeRequest{
				Name:           args[0],
				Address:        args[1],
				Latitude:       lat,
				Longitude:      lng,
				GeofenceRadius: radius,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Care home added\n\n")
			fmt.Printf("Care Home ID: %s\n", home.ID)
			fmt.Printf("Name:         %s\n", home.Name)
			fmt.Printf("Address:      %s\n\n", home.Address)
			return nil
		},
	}

	cmd.Flags().Float64("lat", 0, "Latitude")
	cmd.Flags().Float64("lng", 0, "Longitude")
	cmd.Flags().Int("radius", 100, "Geofence radius in metres")

	return cmd
}
