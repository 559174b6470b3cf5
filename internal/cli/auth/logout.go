package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the saved credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, sess := client.New()
		if !sess.IsAuthenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		sess.Logout()
		fmt.Println("✓ Logged out.")
		return nil
	},
}

func init() {
	AuthCmd.AddCommand(logoutCmd)
}
