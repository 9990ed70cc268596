package cmd

import (
	"fmt"

	"github.com/imfpipe/imfpipe/config"
	"github.com/spf13/cobra"
)

var defaultCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Manage default flag values",
	Long: fmt.Sprintf(`Manage default flag values applied to commands.

Defaults live in %q`, config.Main.FullPath),
}

func init() {
	configCmd.AddCommand(defaultCmd)
}
