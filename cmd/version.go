package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information for imfpipe",
	Long:  `Show version information for imfpipe`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("imfpipe\n  Version:\t%v\n  Build date:\t%v\n", version, buildDate)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
