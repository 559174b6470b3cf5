package review

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
	"noodlemap/pkg/models"
)

var listCmd = &cobra.Command{
	Use:   "list <shop-id>",
	Short: "List reviews for a shop",
	Long:  "Page through a shop's top-level reviews; --replies expands each review's replies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shopID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid shop id %q", args[0])
		}

		page, _ := cmd.Flags().GetInt("page")
		size, _ := cmd.Flags().GetInt("size")
		withReplies, _ := cmd.Flags().GetBool("replies")
		sortBy, _ := cmd.Flags().GetString("sort")

		spec := models.DefaultSort
		switch strings.ToLower(sortBy) {
		case "", "newest":
		case "oldest":
			spec = models.SortSpec{By: models.SortByCreatedAt, Dir: models.SortAsc}
		case "best":
			spec = models.SortSpec{By: models.SortByRating, Dir: models.SortDesc}
		case "worst":
			spec = models.SortSpec{By: models.SortByRating, Dir: models.SortAsc}
		default:
			return fmt.Errorf("unknown sort %q (newest, oldest, best, worst)", sortBy)
		}

		apiClient, _ := client.New()
		ctx := context.Background()

		result, err := apiClient.ListShopReviews(ctx, shopID, page, size, spec)
		if err != nil {
			return fmt.Errorf("failed to list reviews: %w", err)
		}

		if len(result.Content) == 0 {
			fmt.Println("No reviews yet.")
			return nil
		}

		for _, r := range result.Content {
			printReview(r, "")
			if !withReplies || r.ReplyCount == 0 {
				continue
			}
			replies, err := apiClient.ListReplies(ctx, r.ID)
			if err != nil {
				fmt.Printf("    (failed to load replies: %v)\n", err)
				continue
			}
			for _, reply := range replies {
				printReview(reply, "    ")
			}
		}
		fmt.Printf("\nPage %d/%d • %d reviews total\n", result.PageNo+1, result.TotalPages, result.TotalElements)
		return nil
	},
}

func printReview(r models.Review, indent string) {
	stars := ""
	if r.Rating != nil {
		stars = " " + strings.Repeat("★", *r.Rating)
	}
	fmt.Printf("%s[%d] %s%s • %s\n", indent, r.ID, r.User.Username, stars, r.CreatedAt.Format("Jan 2, 2006"))
	fmt.Printf("%s    %s\n", indent, r.Content)
	if indent == "" && r.ReplyCount > 0 {
		fmt.Printf("    (%d replies)\n", r.ReplyCount)
	}
}

func init() {
	listCmd.Flags().Int("page", 0, "Page index, starting at 0")
	listCmd.Flags().Int("size", 5, "Page size")
	listCmd.Flags().Bool("replies", false, "Expand replies under each review")
	listCmd.Flags().String("sort", "newest", "Sort order: newest, oldest, best, worst")
	ReviewCmd.AddCommand(listCmd)
}
