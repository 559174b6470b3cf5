package auth

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"noodlemap/internal/cli/client"
	"noodlemap/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login to noodlemap",
	Long:  "Authenticate with your username and password; the credential is saved for later commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")

		if username == "" {
			fmt.Print("Username: ")
			fmt.Scanln(&username)
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		_, sess := client.New()
		result := sess.Login(context.Background(), username, string(password))
		if !result.Success {
			return fmt.Errorf("login failed: %s", result.Message)
		}

		fmt.Println("✓ Login successful!")
		fmt.Printf("  Welcome back, %s!\n", result.Identity.Username)
		fmt.Printf("  Credential saved to: %s\n", session.DefaultCredentialsPath())
		return nil
	},
}

func init() {
	loginCmd.Flags().String("username", "", "Username")
	AuthCmd.AddCommand(loginCmd)
}
