// Package cli wires the noodlemap command-line interface.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"noodlemap/internal/cli/auth"
	"noodlemap/internal/cli/config"
	"noodlemap/internal/cli/review"
	"noodlemap/internal/cli/shop"
)

var rootCmd = &cobra.Command{
	Use:   "noodlemap",
	Short: "Noodle shop directory CLI",
	Long:  "Browse noodle shops, read and write reviews, and manage your account from the terminal",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("host", "", "server host")
	rootCmd.PersistentFlags().Int("port", 0, "server port")
	_ = viper.BindPFlag("server.host", rootCmd.PersistentFlags().Lookup("host"))
	_ = viper.BindPFlag("server.port", rootCmd.PersistentFlags().Lookup("port"))

	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(shop.ShopCmd)
	rootCmd.AddCommand(review.ReviewCmd)
	rootCmd.AddCommand(config.ConfigCmd)
}

// initConfig reads in config file and environment variables
func initConfig() {
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)

	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(home, ".noodlemap"))
	}
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("NOODLEMAP")
	viper.AutomaticEnv()

	// Missing config file is fine, defaults apply
	_ = viper.ReadInConfig()
}
