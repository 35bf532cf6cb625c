package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/kpalette/internal/catalog"
	"github.com/jmylchreest/kpalette/internal/colour"
	"github.com/jmylchreest/kpalette/internal/compression"
	"github.com/jmylchreest/kpalette/internal/config"
	"github.com/jmylchreest/kpalette/internal/image"
	"github.com/jmylchreest/kpalette/internal/seed"
)

// extractOptions holds the extract command flags.
type extractOptions struct {
	clusters      int
	space         string
	seedMode      string
	seed          int64
	maxIterations int
	maxDimension  int
	format        string
	preview       bool
	cacheDir      string
	saveCatalog   bool

	selection selectionOptions
}

// selectionOptions picks which ranked colours are written as artifacts.
type selectionOptions struct {
	indices   []int
	hexes     []string
	all       bool
	outputDir string
	barHeight int
}

func (s selectionOptions) active() bool {
	return s.all || len(s.indices) > 0 || len(s.hexes) > 0
}

// selectionFlags returns the flag set shared by commands that write palette artifacts.
func selectionFlags(s *selectionOptions) *pflag.FlagSet {
	fs := pflag.NewFlagSet("selection", pflag.ContinueOnError)
	fs.IntSliceVar(&s.indices, "select", nil, "ranks of colours to write, in order (e.g. 0,2)")
	fs.StringSliceVar(&s.hexes, "select-hex", nil, "hex codes of colours to write, in order (e.g. '#FF0000')")
	fs.BoolVar(&s.all, "select-all", false, "write every extracted colour")
	fs.StringVarP(&s.outputDir, "output-dir", "o", ".", "directory for color_palette.json and color_palette.png")
	fs.IntVar(&s.barHeight, "bar-height", 0, "height of the colour bar in pixels (default from config)")
	return fs
}

// ExtractCmd returns the extract command.
func ExtractCmd(a *app) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract <image|directory|url>",
		Short: "Extract a colour palette from an image",
		Long: `Extract the dominant colours of an image with seeded k-means clustering.

Colours are reported ranked by weight, the share of pixels in each cluster,
together with their dispersion and score. The same image, settings and seed
always give the same palette.

Supported formats: JPEG, PNG, GIF, WebP and AVIF, optionally xz-compressed.
A directory extracts every supported image in it. HTTPS URLs are downloaded.

Examples:
  # Five colours in RGB space
  kpalette extract wallpaper.jpg

  # Eight colours clustered in CIELAB space, as JSON
  kpalette extract -k 8 -s lab -f json wallpaper.jpg

  # Write the two most dominant colours as a palette image and JSON list
  kpalette extract --select 0,1 -o out/ wallpaper.jpg

  # Record the extraction in the catalog
  kpalette extract --catalog wallpaper.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), cmd, a, &opts, args[0])
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.clusters, "clusters", "k", 0, "number of colours to extract (default from config)")
	f.StringVarP(&opts.space, "space", "s", "", "colour space for clustering: rgb, hsl, lab (default from config)")
	f.StringVar(&opts.seedMode, "seed-mode", "", "seed mode: manual, content, filepath, random (default from config)")
	f.Int64Var(&opts.seed, "seed", seed.DefaultValue, "seed for manual mode")
	f.IntVar(&opts.maxIterations, "max-iterations", 0, "k-means iteration cap (default from config)")
	f.IntVar(&opts.maxDimension, "max-dimension", 0, "downscale images so neither side exceeds this before clustering (0 keeps full size)")
	f.StringVarP(&opts.format, "format", "f", formatTable, "output format: table, hex, rgb, json")
	f.BoolVarP(&opts.preview, "preview", "p", false, "show colour swatches (default: on when stdout is a terminal)")
	f.StringVar(&opts.cacheDir, "cache-dir", "", "cache downloaded images in this directory")
	f.BoolVar(&opts.saveCatalog, "catalog", false, "record the extraction in the palette catalog")
	f.AddFlagSet(selectionFlags(&opts.selection))

	cmd.MarkFlagsMutuallyExclusive("select", "select-hex", "select-all")

	return cmd
}

// resolve merges flags that were set explicitly over the loaded configuration.
func (o *extractOptions) resolve(flags *pflag.FlagSet, cfg config.Config) (config.Config, error) {
	if flags.Changed("clusters") {
		cfg.Clusters = o.clusters
	}
	if flags.Changed("space") {
		cfg.Space = o.space
	}
	if flags.Changed("seed-mode") {
		cfg.SeedMode = o.seedMode
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
		if !flags.Changed("seed-mode") {
			cfg.SeedMode = string(seed.ModeManual)
		}
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = o.maxIterations
	}
	if flags.Changed("max-dimension") {
		cfg.MaxDimension = o.maxDimension
	}
	if flags.Changed("bar-height") {
		cfg.BarHeight = o.selection.barHeight
	}
	if flags.Changed("cache-dir") {
		cfg.CacheDir = o.cacheDir
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// extractResult is the JSON document emitted for one image.
type extractResult struct {
	Source     string             `json:"source"`
	Extraction *colour.Extraction `json:"extraction"`
	Selected   []colour.RGB       `json:"selected,omitempty"`
	JSONPath   string             `json:"json_path,omitempty"`
	PNGPath    string             `json:"png_path,omitempty"`
	CatalogID  int64              `json:"catalog_id,omitempty"`
}

func runExtract(ctx context.Context, cmd *cobra.Command, a *app, opts *extractOptions, target string) error {
	if err := validateFormat(opts.format); err != nil {
		return err
	}
	cfg, err := opts.resolve(cmd.Flags(), a.cfg)
	if err != nil {
		return err
	}

	if err := image.ValidateImagePath(target); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}
	paths, err := image.ResolveImagePaths(target)
	if err != nil {
		return err
	}

	var store *catalog.Store
	if opts.saveCatalog {
		store, err = openCatalog(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	var loaderOpts []image.SmartLoaderOption
	if cfg.CacheDir != "" {
		loaderOpts = append(loaderOpts, image.WithCacheDir(cfg.CacheDir))
	}
	loader := image.NewSmartLoader(loaderOpts...)

	out := cmd.OutOrStdout()
	preview := opts.preview
	if !cmd.Flags().Changed("preview") {
		preview = opts.format != formatJSON && isTerminal(out)
	}
	showProgress := !a.quiet && isTerminal(cmd.ErrOrStderr())

	batch := len(paths) > 1
	dirNames := batchDirNames(paths)
	var results []extractResult
	for i, path := range paths {
		outputDir := opts.selection.outputDir
		if batch {
			outputDir = filepath.Join(outputDir, dirNames[i])
		}

		res, err := extractOne(ctx, a, cfg, opts, extractJob{
			path:      path,
			loader:    loader,
			outputDir: outputDir,
			store:     store,
			progress:  showProgress,
			stderr:    cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if opts.format == formatJSON {
			results = append(results, *res)
			continue
		}
		if batch {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s\n", path)
		}
		fmt.Fprint(out, renderRecords(res.Extraction.Records, opts.format, preview))
	}

	if opts.format == formatJSON {
		if !batch {
			return writeJSON(out, results[0])
		}
		return writeJSON(out, results)
	}
	return nil
}

type extractJob struct {
	path      string
	loader    image.Loader
	outputDir string
	store     *catalog.Store
	progress  bool
	stderr    io.Writer
}

func extractOne(ctx context.Context, a *app, cfg config.Config, opts *extractOptions, job extractJob) (*extractResult, error) {
	logger := a.logger.With("source", job.path)

	img, err := job.loader.Load(ctx, job.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	bounds := img.Bounds()
	logger.Debug("image loaded", "width", bounds.Dx(), "height", bounds.Dy())

	analysed := image.Downscale(img, cfg.MaxDimension)
	if analysed.Bounds() != bounds {
		logger.Debug("image downscaled", "width", analysed.Bounds().Dx(), "height", analysed.Bounds().Dy())
	}

	mode, err := seed.ParseMode(cfg.SeedMode)
	if err != nil {
		return nil, err
	}
	seedValue, err := seed.Calculate(analysed, job.path, seed.Config{Mode: mode, Value: cfg.Seed})
	if err != nil {
		return nil, err
	}
	space, err := colour.ParseSpace(cfg.Space)
	if err != nil {
		return nil, err
	}

	extractorOpts := []colour.ExtractorOption{colour.WithLogger(logger)}
	var line *progressLine
	if job.progress {
		line = newProgressLine(job.stderr, filepath.Base(job.path))
		extractorOpts = append(extractorOpts, colour.WithProgress(line.update))
	}

	extractor, err := colour.NewExtractor(colour.ExtractorConfig{
		Space:         space,
		ColorCount:    cfg.Clusters,
		Seed:          seedValue,
		MaxIterations: cfg.MaxIterations,
		ProgressStep:  cfg.ProgressStep,
	}, extractorOpts...)
	if err != nil {
		return nil, err
	}

	ext, err := extractor.Extract(ctx, analysed)
	if line != nil {
		line.done()
	}
	if err != nil {
		return nil, err
	}

	res := &extractResult{Source: job.path, Extraction: ext}

	var ranks []int
	if opts.selection.active() {
		palette, r, err := selectRecords(ext.Records, opts.selection)
		if err != nil {
			return nil, err
		}
		ranks = r

		artifact, err := colour.Compose(img, palette.Colors(), colour.ComposeOptions{BarHeight: cfg.BarHeight})
		if err != nil {
			return nil, err
		}
		res.JSONPath, res.PNGPath, err = artifact.WriteFiles(job.outputDir)
		if err != nil {
			return nil, err
		}
		res.Selected = palette.Colors()
		logger.Info("palette written", "colors", palette.ToHex(), "json", res.JSONPath, "png", res.PNGPath)
	}

	if job.store != nil {
		id, err := job.store.Save(ctx, job.path, ext, ranks)
		if err != nil {
			return nil, fmt.Errorf("failed to save to catalog: %w", err)
		}
		res.CatalogID = id
		logger.Info("saved to catalog", "id", id)
	}

	return res, nil
}

// selectRecords resolves the selection flags to a palette and the ranks it was drawn from.
func selectRecords(records []colour.ColorRecord, s selectionOptions) (*colour.Palette, []int, error) {
	switch {
	case s.all:
		ranks := make([]int, len(records))
		for i := range ranks {
			ranks[i] = i
		}
		palette, err := colour.Select(records, ranks)
		return palette, ranks, err

	case len(s.hexes) > 0:
		colors := make([]colour.RGB, len(s.hexes))
		for i, h := range s.hexes {
			c, err := colour.ParseHex(h)
			if err != nil {
				return nil, nil, err
			}
			colors[i] = c
		}
		palette, err := colour.SelectColors(records, colors)
		if err != nil {
			return nil, nil, err
		}
		ranks := make([]int, 0, palette.Len())
		for _, picked := range palette.Records {
			for rank, r := range records {
				if r.Index == picked.Index {
					ranks = append(ranks, rank)
					break
				}
			}
		}
		return palette, ranks, nil

	case len(s.indices) > 0:
		palette, err := colour.Select(records, s.indices)
		return palette, s.indices, err
	}

	return nil, nil, colour.ErrNoColorsSelected
}

func openCatalog(cfg config.Config) (*catalog.Store, error) {
	path := cfg.Catalog
	if path == "" {
		p, err := config.DefaultCatalogPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	store, err := catalog.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	return store, nil
}

// sourceBaseName returns the file name of path without image and compression extensions.
func sourceBaseName(path string) string {
	name := compression.TrimExt(filepath.Base(path))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if name == "" {
		return "image"
	}
	return name
}

// batchDirNames picks a distinct output directory name for each path. Paths that share a
// stem keep their extensions (a.png and a.jpg become a_png and a_jpg).
func batchDirNames(paths []string) []string {
	stems := make([]string, len(paths))
	seen := make(map[string]int, len(paths))
	for i, path := range paths {
		stems[i] = sourceBaseName(path)
		seen[stems[i]]++
	}

	used := make(map[string]bool, len(paths))
	names := make([]string, len(paths))
	for i, path := range paths {
		name := stems[i]
		if seen[name] > 1 {
			name = strings.ReplaceAll(filepath.Base(path), ".", "_")
		}
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s-%d", name, n)
		}
		used[candidate] = true
		names[i] = candidate
	}
	return names
}
