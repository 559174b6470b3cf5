package review

import "github.com/spf13/cobra"

var ReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review commands",
	Long:  "Read and write shop reviews and replies",
}
