package cmd

import (
	"fmt"
	"sort"

	"github.com/imfpipe/imfpipe/config"
	"github.com/imfpipe/imfpipe/rdbms/shared"
	"github.com/spf13/cobra"
)

var configConnListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored connections",
	Long: fmt.Sprintf(`Print all connections stored in %q to STDOUT`,
		config.Connections.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := config.Connections.GetAllKeys()
		if err != nil {
			return err
		}
		sort.Strings(keys)
		for _, k := range keys {
			conn := shared.ConnectionDetails{}
			if err := config.Connections.Get(k, &conn); err != nil {
				return err
			}
			fmt.Printf("%v:\n%v\n", k, conn)
		}
		return nil
	},
}

func initConnList() {
	configConnCmd.AddCommand(configConnListCmd)
}
