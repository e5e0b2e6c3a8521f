package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/omero-admin/omero-auth/internal/daemon"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(hashCmd)
}

var hashCmd = &cobra.Command{
	Use:    "hash <user-id> <password>",
	Short:  "Print the stored digest for a user id and clear text",
	Args:   cobra.ExactArgs(2), //nolint:mnd
	PreRun: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q: %w", args[0], err)
		}

		d, err := daemon.New(&cfg)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), d.HashPassword(userID, args[1]))

		return nil
	},
}
