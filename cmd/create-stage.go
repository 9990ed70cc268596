package cmd

import (
	"github.com/imfpipe/imfpipe/actions"
	"github.com/spf13/cobra"
)

var createStageCfg = actions.CreateStageConfig{}

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Generate DDL for a Snowflake external STAGE over an AWS S3 bucket",
	Long: `Generate the DDL for a Snowflake external STAGE pointing to an AWS S3 bucket,
ready for use by the 'load stage' and 'load stream' actions. Optionally run the
DDL against the target connection.
`,
	Args: getConnectionArgsFunc(&createStageCfg.SourceString, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		createStageCfg.StackDumpOnPanic = stackDumpOnPanic
		createStageCfg.Connections = getConnectionHandler()
		return actions.RunCreateStage(&createStageCfg)
	},
}

func init() {
	createCmd.AddCommand(stageCmd)
	stageCmd.Flags().SortFlags = false
	switches.addFlag(stageCmd, &createStageCfg.StageName, "stage", "", true, "")
	switches.addFlag(stageCmd, &createStageCfg.S3Url, "s3-url", "", true, "")
	switches.addFlag(stageCmd, &createStageCfg.S3Key, "s3-key", "", false, "")
	switches.addFlag(stageCmd, &createStageCfg.S3Secret, "s3-secret", "", false, "")
	switches.addFlag(stageCmd, &createStageCfg.ExecuteDDL, "execute-ddl", "", false, "")
	switches.addFlag(stageCmd, &createStageCfg.LogLevel, "log-level", "error", false, "")
}
