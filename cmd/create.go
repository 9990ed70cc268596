package cmd

import (
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate warehouse DDL",
	Long: `Generate DDL for the following:

- Snowflake STAGE
- Snowflake CREATE TABLE for the indicator values target
`,
}

func init() {
	rootCmd.AddCommand(createCmd)
}
