package cmd

import (
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup <tenant-id>",
	Short: "Snapshot a tenant's full entity graph into a bundle file",
	Long: `Backup reads every entity owned by the tenant (users, categories,
content, replies, reactions, badges and polls) and writes a single
self-contained, checksummed bundle file. The run is all-or-nothing: if
any entity cannot be read, no file is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := newRuntime(ctx, true)
		if err != nil {
			return err
		}
		defer rt.close()

		report, err := rt.engine.Backup(ctx, args[0])
		return finishReport(rt, report, err)
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
