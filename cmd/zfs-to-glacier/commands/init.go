package commands

import (
	"fmt"

	"github.com/andaag/zfs-to-glacier/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			path string
			err  error
		)
		if Flags.ConfigPath != "" {
			path = Flags.ConfigPath
			err = config.InitConfigToPath(path, initForce)
		} else {
			path, err = config.InitConfig(initForce)
		}
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}

		fmt.Printf("Configuration file created at: %s\n", path)
		fmt.Println("Edit it to set your bucket(s) and retention policies, then run:")
		fmt.Printf("  zfs-to-glacier plan --config %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}
