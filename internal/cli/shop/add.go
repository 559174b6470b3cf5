package shop

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
	"noodlemap/pkg/models"
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new shop",
	Long:  "Create a shop you own. Requires the shop-owner role.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, _ := cmd.Flags().GetString("address")
		if address == "" {
			return fmt.Errorf("--address is required")
		}
		city, _ := cmd.Flags().GetString("city")
		phone, _ := cmd.Flags().GetString("phone")
		hours, _ := cmd.Flags().GetString("hours")
		description, _ := cmd.Flags().GetString("description")
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")

		apiClient, sess := client.New()
		if !sess.IsAuthenticated() {
			return fmt.Errorf("not logged in; run 'noodlemap auth login'")
		}

		created, err := apiClient.CreateShop(context.Background(), models.ShopRequest{
			Name:         args[0],
			Address:      address,
			City:         city,
			Phone:        phone,
			OpeningHours: hours,
			Description:  description,
			Latitude:     lat,
			Longitude:    lng,
		})
		if err != nil {
			return fmt.Errorf("failed to create shop: %w", err)
		}

		fmt.Printf("✓ Shop %q registered as #%d.\n", created.Name, created.ID)
		return nil
	},
}

func init() {
	addCmd.Flags().String("address", "", "Street address (required)")
	addCmd.Flags().String("city", "", "City")
	addCmd.Flags().String("phone", "", "Phone number")
	addCmd.Flags().String("hours", "", "Opening hours")
	addCmd.Flags().String("description", "", "Short description")
	addCmd.Flags().Float64("lat", 0, "Latitude")
	addCmd.Flags().Float64("lng", 0, "Longitude")
	ShopCmd.AddCommand(addCmd)
}
