package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/charspec/packages/core/config"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initPath  string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a charspec.yaml with the default settings",
	Long: `Write a configuration file holding every default setting, ready to edit.

Examples:
  charspec init
  charspec init --path ci/charspec.yaml
  charspec init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")
	initCmd.Flags().StringVar(&initPath, "path", "", "File to write (default ./charspec.yaml)")
}

func initCommand(cmd *cobra.Command, args []string) error {
	configFile := initPath
	if configFile == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		configFile = filepath.Join(cwd, config.ConfigFilenames[0])
	}

	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile)
		}
	}

	if err := config.DefaultConfig().SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)
	return nil
}
