package shop

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
	"noodlemap/pkg/models"
)

var editCmd = &cobra.Command{
	Use:   "edit <shop-id>",
	Short: "Edit a shop you own",
	Long:  "Update shop fields; flags left unset keep their current values.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid shop id %q", args[0])
		}

		apiClient, sess := client.New()
		if !sess.IsAuthenticated() {
			return fmt.Errorf("not logged in; run 'noodlemap auth login'")
		}

		current, err := apiClient.GetShop(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to fetch shop: %w", err)
		}

		req := models.ShopRequest{
			Name:         current.Name,
			Address:      current.Address,
			City:         current.City,
			Phone:        current.Phone,
			OpeningHours: current.OpeningHours,
			Description:  current.Description,
			Latitude:     current.Latitude,
			Longitude:    current.Longitude,
		}
		if cmd.Flags().Changed("name") {
			req.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("address") {
			req.Address, _ = cmd.Flags().GetString("address")
		}
		if cmd.Flags().Changed("city") {
			req.City, _ = cmd.Flags().GetString("city")
		}
		if cmd.Flags().Changed("phone") {
			req.Phone, _ = cmd.Flags().GetString("phone")
		}
		if cmd.Flags().Changed("hours") {
			req.OpeningHours, _ = cmd.Flags().GetString("hours")
		}
		if cmd.Flags().Changed("description") {
			req.Description, _ = cmd.Flags().GetString("description")
		}
		if cmd.Flags().Changed("lat") {
			req.Latitude, _ = cmd.Flags().GetFloat64("lat")
		}
		if cmd.Flags().Changed("lng") {
			req.Longitude, _ = cmd.Flags().GetFloat64("lng")
		}

		updated, err := apiClient.UpdateShop(context.Background(), id, req)
		if err != nil {
			return fmt.Errorf("failed to update shop: %w", err)
		}

		fmt.Printf("✓ Shop %q (#%d) updated.\n", updated.Name, updated.ID)
		return nil
	},
}

func init() {
	editCmd.Flags().String("name", "", "Shop name")
	editCmd.Flags().String("address", "", "Street address")
	editCmd.Flags().String("city", "", "City")
	editCmd.Flags().String("phone", "", "Phone number")
	editCmd.Flags().String("hours", "", "Opening hours")
	editCmd.Flags().String("description", "", "Short description")
	editCmd.Flags().Float64("lat", 0, "Latitude")
	editCmd.Flags().Float64("lng", 0, "Longitude")
	ShopCmd.AddCommand(editCmd)
}
