package cmd

import (
	"fmt"

	"github.com/imfpipe/imfpipe/config"
	"github.com/spf13/cobra"
)

var configConnCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage stored connection details",
	Long: fmt.Sprintf(`Manage the logical connections used by pipes and the load actions.

Connections live in %q`, config.Connections.FullPath),
}

func init() {
	configCmd.AddCommand(configConnCmd)
	configCmd.Flags().SortFlags = false
	initConnAdd()
	initConnList()
	initConnRemove()
	// TODO: initConnImport()
}
