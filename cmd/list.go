package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored bundle files",
	Long:  `List shows the locations of all bundle files in the configured storage.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := newRuntime(ctx, false)
		if err != nil {
			return err
		}
		defer rt.close()

		locations, err := rt.engine.ListBundles(ctx)
		if err != nil {
			return err
		}
		return rt.printer.PrintBundleList(locations)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
