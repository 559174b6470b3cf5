package shop

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
	"noodlemap/internal/client/api"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the shops you own",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiClient, sess := client.New()
		if !sess.IsAuthenticated() {
			return fmt.Errorf("not logged in; run 'noodlemap auth login'")
		}
		me := sess.Identity()

		// ownership is checked against the live listing, not the token: a
		// shop created after login is not in the credential's claims yet
		found := 0
		for page := 0; ; page++ {
			result, err := apiClient.ListShops(context.Background(), api.ShopListQuery{
				Page: page,
				Size: 100,
			})
			if err != nil {
				return fmt.Errorf("failed to list shops: %w", err)
			}
			for _, s := range result.Content {
				if s.Owner == nil || s.Owner.ID != me.ID {
					continue
				}
				found++
				fmt.Printf("#%-5d %-36s %.1f★ (%d reviews)\n", s.ID, s.Name, s.AverageRating, s.ReviewCount)
			}
			if !result.HasNext() {
				break
			}
		}

		if found == 0 {
			fmt.Println("You do not own any shops yet. Register one with 'noodlemap shop add'.")
		}
		return nil
	},
}

func init() {
	ShopCmd.AddCommand(mineCmd)
}
