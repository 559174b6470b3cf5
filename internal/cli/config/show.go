package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"noodlemap/internal/cli/client"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the server connection settings and login status",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Noodlemap Configuration:")
		fmt.Println("")
		fmt.Printf("Server:\n")
		fmt.Printf("  Host: %s\n", viper.GetString("server.host"))
		fmt.Printf("  Port: %d\n", viper.GetInt("server.port"))
		fmt.Printf("  URL:  %s\n", client.BaseURL())
		fmt.Println("")

		_, sess := client.New()
		if id := sess.Identity(); id != nil {
			fmt.Printf("User:\n")
			fmt.Printf("  Username: %s\n", id.Username)
			fmt.Printf("  Roles:    %v\n", id.Roles.List())
			fmt.Printf("  Status:   ✓ Logged in\n")
		} else {
			fmt.Printf("User: Not logged in\n")
			fmt.Printf("  Run 'noodlemap auth login' to authenticate\n")
		}
	},
}

func init() {
	ConfigCmd.AddCommand(showCmd)
}
