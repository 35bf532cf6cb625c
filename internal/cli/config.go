package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/kpalette/internal/config"
)

// ConfigCmd returns the config command and its subcommands.
func ConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the kpalette configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", a.configPath)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check config file: %w", err)
			}
			if err := config.Default().Save(a.configPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file and environment)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeJSON(cmd.OutOrStdout(), a.cfg)
		},
	}

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.configPath)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd, pathCmd)
	return cmd
}
