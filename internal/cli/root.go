// Package cli provides the command-line interface for kpalette.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/kpalette/internal/config"
	"github.com/jmylchreest/kpalette/internal/version"
)

// app carries state shared by every subcommand once the root command has parsed its flags.
type app struct {
	configPath string
	verbose    bool
	quiet      bool

	cfg    config.Config
	logger hclog.Logger
}

// NewRootCmd builds the kpalette command tree.
func NewRootCmd() *cobra.Command {
	a := &app{logger: hclog.NewNullLogger()}

	rootCmd := &cobra.Command{
		Use:   "kpalette",
		Short: "Extract dominant colour palettes from images",
		Long: `kpalette clusters the pixels of an image with seeded k-means and reports the
dominant colours ranked by how much of the image they cover.

Clustering can run in RGB, HSL or CIELAB space. Selected colours can be
written out as a JSON list and as a copy of the image with a colour bar
appended, and every extraction can be recorded in a local catalog.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: $KPALETTE_CONFIG or <config dir>/kpalette/config.json)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(
		ExtractCmd(a),
		CatalogCmd(a),
		ConfigCmd(a),
		VersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// init resolves the logger and the effective configuration.
func (a *app) init(cmd *cobra.Command) error {
	a.logger = newLogger(cmd.ErrOrStderr(), a.verbose, a.quiet)

	path := a.configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return err
		}
		path = p
	}
	a.configPath = path

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger.Debug("configuration loaded", "path", path, "clusters", cfg.Clusters, "space", cfg.Space,
		"seed_mode", cfg.SeedMode)
	return nil
}

// VersionCmd returns the version command.
func VersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), version.GetInfo())
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")

	return cmd
}
