package cmd

import (
	"net"

	"github.com/imfpipe/imfpipe/actions"
	"github.com/spf13/cobra"
)

var pipeConfig = actions.PipeConfig{
	LogLevel:         "info",
	TransformFile:    "",
	WithWebService:   false,
	StackDumpOnPanic: false,
}

var pipeCmd = &cobra.Command{
	Use:   "pipe",
	Short: "Execute a transform described in a YAML or JSON file",
	Long: `Execute a transform described in a YAML or JSON file,
optionally running a web server so progress and health can be monitored remotely.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeConfig.Connections = getConnectionLoader()
		pipeConfig.StackDumpOnPanic = stackDumpOnPanic
		return actions.RunPipeFromFile(&pipeConfig, &serveConfig)
	},
}

func init() {
	rootCmd.AddCommand(pipeCmd)
	pipeCmd.Flags().SortFlags = false
	switches.addFlag(pipeCmd, &pipeConfig.TransformFile, "file", "", true, "")
	_ = pipeCmd.MarkFlagFilename("file", "json", "yaml")
	switches.addFlag(pipeCmd, &pipeConfig.WithWebService, "web-service", "", false, "")
	// The monitoring server shares its config with the serve command.
	pipeCmd.Flags().IPVarP(&serveConfig.Addr, "address", "a", net.IP{0, 0, 0, 0}, "Address to listen on")
	switches.addFlag(pipeCmd, &serveConfig.Port, "port", "8080", false, "")
	switches.addFlag(pipeCmd, &pipeConfig.LogLevel, "log-level", "info", false, "")
	switches.addFlag(pipeCmd, &pipeConfig.StatsDumpFrequencySeconds, "stats", "5", false, "")
}
