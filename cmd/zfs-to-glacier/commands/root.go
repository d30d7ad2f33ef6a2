// Package commands implements the zfs-to-glacier CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Flags holds the global flags shared by every subcommand.
var Flags struct {
	ConfigPath string
	Verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "zfs-to-glacier",
	Short: "Replicate ZFS snapshots to an S3-compatible object store",
	Long: `zfs-to-glacier computes which local ZFS snapshots are missing from a
remote bucket according to a set of retention policies, then streams the
missing ones up as full or incremental backups.

Use "zfs-to-glacier [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&Flags.ConfigPath, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/zfs-to-glacier/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&Flags.Verbose, "verbose", "v", false, "Enable verbose logging and zfs send -v")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
