package cmd

import (
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <bundle-path> [target-tenant-id]",
	Short: "Replay a bundle file into a tenant",
	Long: `Restore loads a bundle file, verifies its checksum and replays its
contents into a target tenant. Without a target tenant id the bundle's
original tenant is recreated; restoring over a tenant that still
exists is refused to avoid duplicating every post. With an explicit
target id the tenant is created when absent and reused when present.

Users, categories and badges merge by natural key. Content, replies,
reactions and polls are created fresh with all cross-references
remapped to the ids assigned in the target tenant. Rows whose parent
failed to restore are skipped and reported, never written dangling.

Compression and encryption are detected from the file suffix; pass
--encrypt to be prompted for the passphrase of an encrypted bundle.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := newRuntime(ctx, true)
		if err != nil {
			return err
		}
		defer rt.close()

		targetTenantID := ""
		if len(args) == 2 {
			targetTenantID = args[1]
		}

		report, err := rt.engine.Restore(ctx, args[0], targetTenantID)
		return finishReport(rt, report, err)
	},
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}
