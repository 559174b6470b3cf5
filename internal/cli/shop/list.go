package shop

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
	"noodlemap/internal/client/api"
	"noodlemap/pkg/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List noodle shops",
	Long:  "Page through the shop directory, optionally filtered by city and reordered",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		city, _ := cmd.Flags().GetString("city")
		sortBy, _ := cmd.Flags().GetString("sort")

		spec := models.DefaultSort
		switch strings.ToLower(sortBy) {
		case "", "newest":
		case "rating":
			spec = models.SortSpec{By: models.SortByWeightedRating, Dir: models.SortDesc}
		case "average":
			spec = models.SortSpec{By: models.SortByAverageRating, Dir: models.SortDesc}
		case "reviews":
			spec = models.SortSpec{By: models.SortByReviewCount, Dir: models.SortDesc}
		default:
			return fmt.Errorf("unknown sort %q (newest, rating, average, reviews)", sortBy)
		}

		apiClient, _ := client.New()
		result, err := apiClient.ListShops(context.Background(), api.ShopListQuery{
			Page: page,
			Size: size,
			Sort: spec,
			City: city,
		})
		if err != nil {
			return fmt.Errorf("failed to list shops: %w", err)
		}

		if len(result.Content) == 0 {
			fmt.Println("No shops found.")
			return nil
		}

		for _, s := range result.Content {
			fmt.Printf("#%-5d %-36s %.1f★ (%d reviews)\n", s.ID, s.Name, s.AverageRating, s.ReviewCount)
			addr := s.Address
			if s.City != "" {
				addr += ", " + s.City
			}
			fmt.Printf("       %s\n", addr)
		}
		fmt.Printf("\nPage %d/%d • %d shops total\n", result.PageNo+1, result.TotalPages, result.TotalElements)
		return nil
	},
}

func init() {
	listCmd.Flags().Int("page", 0, "Page index, starting at 0")
	listCmd.Flags().Int("size", 12, "Page size")
	listCmd.Flags().String("city", "", "Filter by city")
	listCmd.Flags().String("sort", "newest", "Sort order: newest, rating, average, reviews")
	ShopCmd.AddCommand(listCmd)
}
