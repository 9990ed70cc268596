package cmd

import (
	"github.com/imfpipe/imfpipe/actions"
	"github.com/spf13/cobra"
)

var createTableCfg = actions.CreateTableConfig{}

var tableCmd = &cobra.Command{
	Use:   "table " + argsDefinitionTxt,
	Short: "Create the indicator values target table",
	Long: `Create the indicator values target table

The table holds one row per (indicator, country, year) with the value and an
ingestion timestamp. Optionally create the <table>_STAGING twin used by
'load stream' actions.
`,
	Args: getConnectionArgsFunc(&createTableCfg.SourceString, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		createTableCfg.StackDumpOnPanic = stackDumpOnPanic
		createTableCfg.Connections = getConnectionHandler()
		return actions.RunCreateTable(&createTableCfg)
	},
}

func init() {
	createCmd.AddCommand(tableCmd)
	tableCmd.Flags().SortFlags = false
	switches.addFlag(tableCmd, &createTableCfg.WithStagingTable, "with-staging", "", false, "")
	switches.addFlag(tableCmd, &createTableCfg.ExecuteDDL, "execute-ddl", "", false, "")
	switches.addFlag(tableCmd, &createTableCfg.LogLevel, "log-level", "error", false, "")
}
