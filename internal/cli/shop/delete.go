package shop

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <shop-id>",
	Short: "Delete a shop you own",
	Long:  "Remove a shop and every review under it.",
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

		s, err := apiClient.GetShop(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to fetch shop: %w", err)
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			fmt.Printf("Delete %q and all its reviews? [y/N]: ", s.Name)
			var answer string
			fmt.Scanln(&answer)
			if strings.ToLower(answer) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		if err := apiClient.DeleteShop(context.Background(), id); err != nil {
			return fmt.Errorf("failed to delete shop: %w", err)
		}

		fmt.Printf("✓ Shop %q (#%d) deleted.\n", s.Name, s.ID)
		return nil
	},
}

func init() {
	deleteCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	ShopCmd.AddCommand(deleteCmd)
}
