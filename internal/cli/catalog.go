package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/kpalette/internal/catalog"
)

// CatalogCmd returns the catalog command and its subcommands.
func CatalogCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse palettes recorded with extract --catalog",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "catalog database (default from config)")

	open := func() (*catalog.Store, error) {
		cfg := a.cfg
		if dbPath != "" {
			cfg.Catalog = dbPath
		}
		return openCatalog(cfg)
	}

	cmd.AddCommand(
		catalogListCmd(open),
		catalogShowCmd(open),
		catalogDeleteCmd(a, open),
	)
	return cmd
}

type storeOpener func() (*catalog.Store, error)

func catalogListCmd(open storeOpener) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded palettes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == formatJSON {
				if entries == nil {
					entries = []catalog.Summary{}
				}
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No palettes recorded.")
				return nil
			}

			table := NewTable([]string{"ID", "SOURCE", "SPACE", "K", "SEED", "CREATED"})
			table.SetColumnMaxWidth(1, 60)
			for _, e := range entries {
				table.AddRow([]string{
					strconv.FormatInt(e.ID, 10),
					e.Source,
					string(e.Space),
					strconv.Itoa(e.Clusters),
					strconv.FormatInt(e.Seed, 10),
					e.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprint(out, table.Render())
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, json")

	return cmd
}

func catalogShowCmd(open storeOpener) *cobra.Command {
	var (
		format  string
		preview bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the colours of a recorded palette",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := validateFormat(format); err != nil {
				return err
			}

			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == formatJSON {
				return writeJSON(out, entry)
			}

			if !cmd.Flags().Changed("preview") {
				preview = isTerminal(out)
			}
			ext := entry.Result
			fmt.Fprintf(out, "%s (%s, k=%d, seed=%d, %dx%d)\n", entry.Source, ext.Space, ext.Clusters,
				ext.Seed, ext.Width, ext.Height)
			fmt.Fprint(out, renderRecords(ext.Records, format, preview))
			if len(entry.Selected) > 0 {
				fmt.Fprintf(out, "selected ranks: %v\n", entry.Selected)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "output format: table, hex, rgb, json")
	cmd.Flags().BoolVarP(&preview, "preview", "p", false, "show colour swatches (default: on when stdout is a terminal)")

	return cmd
}

func catalogDeleteCmd(a *app, open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded palette",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			a.logger.Info("palette deleted", "id", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid palette id %q", s)
	}
	return id, nil
}
