package auth

import (
	"context"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"noodlemap/internal/cli/client"
	"noodlemap/pkg/models"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a noodlemap account",
	Long:  "Register a new account and log straight in",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		shopOwner, _ := cmd.Flags().GetBool("shop-owner")

		if username == "" {
			fmt.Print("Username: ")
			fmt.Scanln(&username)
		}
		if email == "" {
			fmt.Print("Email: ")
			fmt.Scanln(&email)
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		confirm, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if string(password) != string(confirm) {
			return fmt.Errorf("passwords do not match")
		}

		apiClient, sess := client.New()
		resp, err := apiClient.Register(context.Background(), models.RegisterRequest{
			Username:  username,
			Email:     email,
			Password:  string(password),
			ShopOwner: shopOwner,
		})
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}

		result := sess.AdoptToken(resp.Token)
		if !result.Success {
			return fmt.Errorf("registration succeeded but login failed: %s", result.Message)
		}

		fmt.Println("✓ Account created!")
		fmt.Printf("  Welcome, %s!\n", result.Identity.Username)
		if shopOwner {
			fmt.Println("  Your account can list shops.")
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().String("username", "", "Username")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().Bool("shop-owner", false, "Register as a shop owner")
	AuthCmd.AddCommand(registerCmd)
}
