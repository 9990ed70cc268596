package cmd

import (
	"fmt"

	"github.com/imfpipe/imfpipe/actions"
	"github.com/imfpipe/imfpipe/constants"
	"github.com/spf13/cobra"
)

var fetchCfg = actions.FetchConfig{}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch indicator values from the IMF DataMapper API and print them to STDOUT",
	Long: `Fetch indicator values from the IMF DataMapper API and print them to STDOUT

Values are flattened to one CSV row per (indicator, country, year). No target
connection is required, which makes this useful to preview what a load action
would write.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fetchCfg.StackDumpOnPanic = stackDumpOnPanic
		return actions.RunFetch(&fetchCfg)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().SortFlags = false
	switches.addFlag(fetchCmd, &fetchCfg.ApiBaseUrl, "api-url", constants.ImfApiBaseUrl, false, "")
	switches.addFlag(fetchCmd, &fetchCfg.Dataset, "dataset", constants.ImfApiDatasetDefault, false, "")
	switches.addFlag(fetchCmd, &fetchCfg.IndicatorCodesCsv, "indicators", "", false, "")
	switches.addFlag(fetchCmd, &fetchCfg.ApiTimeoutSeconds, "api-timeout", fmt.Sprintf("%v", constants.ImfApiTimeoutSeconds), false, "")
	switches.addFlag(fetchCmd, &fetchCfg.YearFrom, "year-from", "0", false, "")
	switches.addFlag(fetchCmd, &fetchCfg.YearTo, "year-to", "0", false, "")
	switches.addFlag(fetchCmd, &fetchCfg.AbortAfterNumRecords, "abort-after", "0", false, "")
	switches.addFlag(fetchCmd, &fetchCfg.LogLevel, "log-level", "error", false, "")
}
