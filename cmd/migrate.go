package cmd

import (
	"forum-tenant-sync/internal/engine"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <source-tenant-id> <target-tenant-id> [kinds]",
	Short: "Copy entities between two live tenants",
	Long: `Migrate copies selected entity kinds from one existing tenant to
another. Both tenants must already exist. Kinds is a comma-separated
subset of content, users and categories; all three are migrated when
omitted.

Users merge by email and categories by name. Migrated content is
re-homed by author email: when the target tenant has no user with the
source author's email, a minimal member account is provisioned so the
post keeps its byline.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kindList := ""
		if len(args) == 3 {
			kindList = args[2]
		}
		kinds, err := engine.ParseMigrateKinds(kindList)
		if err != nil {
			return err
		}

		rt, err := newRuntime(ctx, true)
		if err != nil {
			return err
		}
		defer rt.close()

		report, err := rt.engine.Migrate(ctx, args[0], args[1], kinds)
		return finishReport(rt, report, err)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
