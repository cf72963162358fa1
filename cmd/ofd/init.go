package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/config"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the .ofd state directory in the current checkout",
	Long: `Create the .ofd state directory in the current working directory,
along with a starter config.yaml. The directory holds the staging
database and log file, and marks the checkout root for other commands.

Example usage:
  cd open-filament-database
  ofd init`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		stateDir := filepath.Join(cwd, config.StateDirName)
		if _, err := os.Stat(stateDir); err == nil {
			return fmt.Errorf("already initialized: %s exists", stateDir)
		}
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", stateDir, err)
		}

		starter := &config.Config{
			DataDir:   filepath.Join(cwd, "data"),
			StoresDir: filepath.Join(cwd, "stores"),
			StateDir:  stateDir,
			LogLevel:  "info",
			Port:      8090,
		}
		if err := config.WriteDefault(filepath.Join(stateDir, "config.yaml"), starter); err != nil {
			return err
		}

		fmt.Printf("%s Initialized %s\n", ui.RenderPass("✓"), stateDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
