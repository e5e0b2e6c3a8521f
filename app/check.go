package app

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omero-admin/omero-auth/internal/daemon"
	"github.com/omero-admin/omero-auth/internal/password"
)

// ErrLoginFailed is the uniform answer for any rejected login. Internal
// branches must not leak into the message.
var ErrLoginFailed = errors.New("login failed")

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:    "check <username>",
	Short:  "Verify a password read from stdin against the provider chain",
	Args:   cobra.ExactArgs(1),
	PreRun: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password from stdin: %w", err)
		}

		given := strings.TrimRight(line, "\r\n")

		d, err := daemon.New(&cfg)
		if err != nil {
			return err
		}

		decision, err := d.CheckPassword(args[0], given)
		if err != nil {
			var mismatch *password.DNMismatchError
			if errors.As(err, &mismatch) {
				return err
			}

			fmt.Fprintln(os.Stderr, "login failed")

			return ErrLoginFailed
		}

		if decision != password.Allow {
			fmt.Fprintln(os.Stderr, "login failed")

			return ErrLoginFailed
		}

		fmt.Fprintln(cmd.OutOrStdout(), "ok")

		return nil
	},
}
