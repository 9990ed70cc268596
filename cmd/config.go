package cmd

import (
	"fmt"

	"github.com/imfpipe/imfpipe/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stored connections and flag defaults",
	Long: fmt.Sprintf(`Manage local configuration:

- connections live in %q
- default flag values live in %q
`, config.Connections.FullPath, config.Main.FullPath),
}

func init() {
	rootCmd.AddCommand(configCmd)
}
