// Package commands implements the radiusauth CLI's cobra command tree.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kulaginds/go-radius-client/internal/config"
	"github.com/kulaginds/go-radius-client/internal/logging"
)

var (
	// cfgPath is the YAML configuration file, overlaid with RADIUSAUTH_
	// environment variable overrides (internal/config).
	cfgPath string

	// cfg is populated in PersistentPreRunE once cfgPath is known.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "radiusauth",
	Short: "CLI client for RADIUS authentication (PAP, CHAP-MD5, MS-CHAP v1/v2)",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logging.SetLevelFromString(cfg.Log.Level)
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to radiusauth YAML config file")

	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(changePasswordCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
