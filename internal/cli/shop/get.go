package shop

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
)

var getCmd = &cobra.Command{
	Use:   "get <shop-id>",
	Short: "Show one shop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid shop id %q", args[0])
		}

		apiClient, _ := client.New()
		s, err := apiClient.GetShop(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to fetch shop: %w", err)
		}

		fmt.Printf("%s (#%d)\n", s.Name, s.ID)
		fmt.Printf("  Rating:   %.1f avg / %.1f weighted, %d reviews\n", s.AverageRating, s.WeightedRating, s.ReviewCount)
		fmt.Printf("  Address:  %s\n", s.Address)
		if s.City != "" {
			fmt.Printf("  City:     %s\n", s.City)
		}
		if s.Phone != "" {
			fmt.Printf("  Phone:    %s\n", s.Phone)
		}
		if s.OpeningHours != "" {
			fmt.Printf("  Hours:    %s\n", s.OpeningHours)
		}
		fmt.Printf("  Location: %.5f, %.5f\n", s.Latitude, s.Longitude)
		if s.Description != "" {
			fmt.Printf("  About:    %s\n", s.Description)
		}
		if s.Owner != nil {
			fmt.Printf("  Owner:    %s\n", s.Owner.Username)
		}
		return nil
	},
}

func init() {
	ShopCmd.AddCommand(getCmd)
}
