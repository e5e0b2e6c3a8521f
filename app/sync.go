package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omero-admin/omero-auth/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:    "sync <username>...",
	Short:  "Provision or refresh accounts from the LDAP directory",
	Args:   cobra.MinimumNArgs(1),
	PreRun: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New(&cfg)
		if err != nil {
			return err
		}

		for _, username := range args {
			id, errSync := d.SyncUser(username)
			if errSync != nil {
				return fmt.Errorf("failed to sync %q: %w", username, errSync)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: id %d\n", username, id)
		}

		return nil
	},
}
