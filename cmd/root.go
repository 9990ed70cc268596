package cmd

import (
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2020-01-02T03:04+0500"
	osArch           = "darwin"
	stackDumpOnPanic bool
	silenceUsage     bool
)

var rootCmd = &cobra.Command{
	Use: "imfpipe",
	Long: `
imfpipe streams macroeconomic indicator data from the IMF DataMapper API into
Snowflake. Use the pre-canned load actions for direct, staged or swap-based
loads, fetch indicator values to STDOUT, or write your own pipes in YAML or
JSON and run them with the pipe action. Start an HTTP server to expose
functionality via a RESTful API.`,
}

func init() {
	// General setup.
	cobra.EnableCommandSorting = false
	// Global flags.
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute dispatches to Cobra or, when 12 factor mode is enabled, runs the
// action described by the environment. Called once by main.main().
func Execute() {
	if !twelveFactorMode {
		// Both Execute paths print their own errors before we exit.
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if lambdaMode {
		lambda.Start(func() error { return execute12FactorMode(twelveFactorActions) })
		return
	}
	if err := execute12FactorMode(twelveFactorActions); err != nil {
		os.Exit(1)
	}
}
