package shop

import "github.com/spf13/cobra"

var ShopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Shop directory commands",
	Long:  "List, inspect, and manage noodle shops",
}
