package cmd

import (
	"fmt"

	"github.com/imfpipe/imfpipe/actions"
	"github.com/imfpipe/imfpipe/constants"
	"github.com/spf13/cobra"
)

var loadSnapCfg = actions.LoadConfig{}
var loadStageCfg = actions.LoadConfig{}
var loadStreamCfg = actions.LoadConfig{}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load IMF DataMapper indicator data into a target database",
	Long: fmt.Sprintf(`Load IMF DataMapper indicator data into a target database

Indicator values are flattened to one row per (indicator, country, year) and
written to the target table with an ingestion timestamp.

Supported target connection types:

%v
`, actions.GetSupportedLoadConnectionTypes()),
}

var loadSnapCmd = &cobra.Command{
	Use:   "snapshot " + argsDefinitionTxt,
	Short: "Load a full snapshot straight into the target table",
	Long: `Load a full snapshot straight into the target table

Rows are batch-inserted over the target connection. Unless the append flag is
set, the target table is truncated first, so readers may see the table part
loaded while the action runs. Use 'load stream' for an atomic cut-over.
`,
	Args: getConnectionArgsFunc(&loadSnapCfg.TargetString, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runLoadSnap()
	},
}

var loadStageCmd = &cobra.Command{
	Use:   "stage " + argsDefinitionTxt,
	Short: "Load via gzip CSV files staged in S3 and COPY INTO",
	Long: `Load via gzip CSV files staged in S3 and COPY INTO

Rows are written to gzip CSV files, uploaded to the S3 bucket backing the
named external stage, then loaded with COPY INTO. Create a compatible stage
first using 'create stage'.
`,
	Args: getConnectionArgsFunc(&loadStageCfg.TargetString, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runLoadStage()
	},
}

var loadStreamCmd = &cobra.Command{
	Use:   "stream " + argsDefinitionTxt,
	Short: "Load into a staging table and swap it with the target",
	Long: `Load into a staging table and swap it with the target

Rows are appended to <table>_STAGING, which is created from the target if
missing. Once the appended row count is visible in the staging table it is
swapped with the target using ALTER TABLE SWAP, so readers always see either
the old or the new contents and never a part-loaded table.
`,
	Args: getConnectionArgsFunc(&loadStreamCfg.TargetString, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runLoadStream()
	},
}

func runLoadSnap() error {
	loadSnapCfg.StackDumpOnPanic = stackDumpOnPanic
	loadSnapCfg.Connections = getConnectionHandler()
	targetType, err := loadSnapCfg.Connections.GetConnectionType(loadSnapCfg.TargetString.GetConnectionName())
	if err != nil {
		return err
	}
	return actions.ActionLauncher(&loadSnapCfg, actions.GetLoadSnapAction, targetType)
}

func runLoadStage() error {
	loadStageCfg.StackDumpOnPanic = stackDumpOnPanic
	loadStageCfg.Connections = getConnectionHandler()
	targetType, err := loadStageCfg.Connections.GetConnectionType(loadStageCfg.TargetString.GetConnectionName())
	if err != nil {
		return err
	}
	return actions.ActionLauncher(&loadStageCfg, actions.GetLoadStageAction, targetType)
}

func runLoadStream() error {
	loadStreamCfg.StackDumpOnPanic = stackDumpOnPanic
	loadStreamCfg.Connections = getConnectionHandler()
	targetType, err := loadStreamCfg.Connections.GetConnectionType(loadStreamCfg.TargetString.GetConnectionName())
	if err != nil {
		return err
	}
	return actions.ActionLauncher(&loadStreamCfg, actions.GetLoadStreamAction, targetType)
}

// addApiFlags registers the DataMapper API source flags shared by the load subcommands.
func addApiFlags(c *cobra.Command, cfg *actions.LoadConfig) {
	switches.addFlag(c, &cfg.ApiBaseUrl, "api-url", constants.ImfApiBaseUrl, false, "")
	switches.addFlag(c, &cfg.Dataset, "dataset", constants.ImfApiDatasetDefault, false, "")
	switches.addFlag(c, &cfg.IndicatorCodesCsv, "indicators", "", false, "")
	switches.addFlag(c, &cfg.ApiTimeoutSeconds, "api-timeout", fmt.Sprintf("%v", constants.ImfApiTimeoutSeconds), false, "")
	switches.addFlag(c, &cfg.YearFrom, "year-from", "0", false, "")
	switches.addFlag(c, &cfg.YearTo, "year-to", "0", false, "")
}

// addCommonLoadFlags registers the flags shared by all load subcommands.
func addCommonLoadFlags(c *cobra.Command, cfg *actions.LoadConfig) {
	switches.addFlag(c, &cfg.RepeatInterval, "repeat", "0", false, "")
	switches.addFlag(c, &cfg.ExportConfigType, "output", "", false, "")
	switches.addFlag(c, &cfg.ExportIncludeConnections, "include-connections", "", false, "")
	switches.addFlag(c, &cfg.LogLevel, "log-level", "warn", false, "")
	switches.addFlag(c, &cfg.StatsDumpFrequencySeconds, "stats", "5", false, "")
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.AddCommand(loadSnapCmd)
	loadCmd.AddCommand(loadStageCmd)
	loadCmd.AddCommand(loadStreamCmd)
	// Snapshot
	loadSnapCmd.Flags().SortFlags = false
	addApiFlags(loadSnapCmd, &loadSnapCfg)
	switches.addFlag(loadSnapCmd, &loadSnapCfg.AppendTarget, "append", "", false, "")
	switches.addFlag(loadSnapCmd, &loadSnapCfg.CommitBatchSize, "commit-batch-size", "", false, "")
	addCommonLoadFlags(loadSnapCmd, &loadSnapCfg)
	// Stage
	loadStageCmd.Flags().SortFlags = false
	addApiFlags(loadStageCmd, &loadStageCfg)
	switches.addFlag(loadStageCmd, &loadStageCfg.SnowStageName, "stage", "", true, "")
	switches.addFlag(loadStageCmd, &loadStageCfg.BucketName, "s3-bucket", "", true, "")
	switches.addFlag(loadStageCmd, &loadStageCfg.BucketPrefix, "s3-prefix", "", false, "")
	switches.addFlag(loadStageCmd, &loadStageCfg.BucketRegion, "s3-region", "", true, "")
	switches.addFlag(loadStageCmd, &loadStageCfg.CsvFileNamePrefix, "csv-prefix", "", false, "")
	switches.addFlag(loadStageCmd, &loadStageCfg.CsvMaxFileRows, "csv-rows", "", false, "")
	switches.addFlag(loadStageCmd, &loadStageCfg.CsvMaxFileBytes, "csv-bytes", "", false, "")
	switches.addFlag(loadStageCmd, &loadStageCfg.AppendTarget, "append", "", false, "")
	addCommonLoadFlags(loadStageCmd, &loadStageCfg)
	// Stream
	loadStreamCmd.Flags().SortFlags = false
	addApiFlags(loadStreamCmd, &loadStreamCfg)
	switches.addFlag(loadStreamCmd, &loadStreamCfg.CommitBatchSize, "commit-batch-size", "", false, "")
	switches.addFlag(loadStreamCmd, &loadStreamCfg.VerifyMaxAttempts, "verify-attempts", "0", false, "")
	switches.addFlag(loadStreamCmd, &loadStreamCfg.VerifySleepSeconds, "verify-sleep", "0", false, "")
	addCommonLoadFlags(loadStreamCmd, &loadStreamCfg)
}
