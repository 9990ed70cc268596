package cmd

import (
	"fmt"

	"github.com/imfpipe/imfpipe/config"
	"github.com/spf13/cobra"
)

var configDefaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored flag defaults",
	Long: fmt.Sprintf(`Print all default flag values stored in %q to STDOUT`,
		config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := config.Main.GetAllKeys()
		if err != nil {
			return err
		}
		var val string
		for _, k := range keys {
			if err := config.Main.Get(k, &val); err != nil {
				return err
			}
			fmt.Printf("%v=%v\n", k, val)
		}
		return nil
	},
}

func init() {
	defaultCmd.AddCommand(configDefaultListCmd)
}
