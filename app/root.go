// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/omero-admin/omero-auth/internal/config"
	"github.com/omero-admin/omero-auth/internal/logger"
)

var (
	configPath string // Path to the configuration directory

	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "omero-auth",
		Short: "omero-auth verifies logins and synchronizes directory accounts",
		Long: `omero-auth is the authentication and role-provisioning service for the
image-management platform: it verifies passwords across the configured
providers (flat file, local store, LDAP directory) and synchronizes
directory users and their groups into the local database.`,
		Args: cobra.OnlyValidArgs,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration directory")
}

// loadConfig reads the configuration and initializes logging. It is used
// as PreRun by every subcommand.
func loadConfig(_ *cobra.Command, _ []string) {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		panic(err)
	}

	if err = logger.Init(cfg.Log); err != nil {
		panic(err)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
