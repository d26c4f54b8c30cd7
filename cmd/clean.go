package cmd

import (
	"os"

	"forum-tenant-sync/internal/display"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Quarantine and delete rows whose tenant no longer exists",
	Long: `Clean scans every tenant-scoped table for rows referencing a tenant
that no longer exists, writes everything it finds to a quarantine
bundle file, and then deletes the rows, children before parents. The
quarantine file is written before any deletion; if it cannot be
written nothing is deleted.

Deletion is destructive, so clean asks for confirmation unless
--auto-approve is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := newRuntime(ctx, true)
		if err != nil {
			return err
		}
		defer rt.close()

		if !viper.GetBool("auto_approve") {
			confirmed, err := display.Confirm(os.Stdin, os.Stderr, rt.colors,
				"Orphaned rows will be quarantined and permanently deleted. Continue?")
			if err != nil {
				return err
			}
			if !confirmed {
				rt.logger.Info("Clean cancelled")
				return nil
			}
		}

		report, err := rt.engine.Clean(ctx)
		return finishReport(rt, report, err)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
