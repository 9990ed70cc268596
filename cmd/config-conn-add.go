package cmd

import (
	"github.com/spf13/cobra"
)

var configConnAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new connection",
	Long:  `Store a named connection (Snowflake database or AWS S3 bucket) for use by the pipe command and the load actions.`,
}

func initConnAdd() {
	configConnCmd.AddCommand(configConnAddCmd)
}
