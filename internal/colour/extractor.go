package colour

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Stage identifies a step of the extraction pipeline in progress notifications.
type Stage string

const (
	// StageProject is the per-pixel colour-space projection.
	StageProject Stage = "project"

	// StageCluster is the k-means run.
	StageCluster Stage = "cluster"

	// StageSummarize is the per-cluster statistics pass.
	StageSummarize Stage = "summarize"
)

// Progress is a single progress notification. Done never decreases within a stage.
type Progress struct {
	Stage Stage
	Done  int
	Total int
}

// ProgressFunc receives progress notifications.
type ProgressFunc func(Progress)

// ExtractorConfig holds configuration for palette extraction.
type ExtractorConfig struct {
	Space         Space
	ColorCount    int
	Seed          int64
	MaxIterations int
	ProgressStep  int
	Workers       int
}

// DefaultExtractorConfig returns the default extractor configuration.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Space:         SpaceRGB,
		ColorCount:    5,
		Seed:          DefaultSeed,
		MaxIterations: DefaultMaxIterations,
		ProgressStep:  DefaultProgressStep,
	}
}

// Validate validates the extractor configuration.
// The upper bound of ColorCount depends on the image and is checked at extraction time.
func (c ExtractorConfig) Validate() error {
	if !c.Space.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedColorSpace, c.Space)
	}
	if c.ColorCount < 1 {
		return fmt.Errorf("%w: color count must be at least 1, got %d", ErrInvalidClusterCount, c.ColorCount)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max iterations cannot be negative, got %d", c.MaxIterations)
	}
	return nil
}

// Extraction is the ranked result of running the pipeline over one image.
type Extraction struct {
	Space      Space         `json:"space"`
	Clusters   int           `json:"clusters"`
	Seed       int64         `json:"seed"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Iterations int           `json:"iterations"`
	Converged  bool          `json:"converged"`
	Records    []ColorRecord `json:"records"`
}

// Extractor runs project, cluster, summarize and sort for a single image.
type Extractor struct {
	config   ExtractorConfig
	logger   hclog.Logger
	progress ProgressFunc
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger used for pipeline diagnostics.
func WithLogger(logger hclog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) ExtractorOption {
	return func(e *Extractor) {
		e.progress = fn
	}
}

// NewExtractor creates an Extractor after validating cfg.
func NewExtractor(cfg ExtractorConfig, opts ...ExtractorOption) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Extractor{
		config: cfg,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() ExtractorConfig {
	return e.config
}

// Extract clusters the pixels of img and returns records sorted by descending weight.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (*Extraction, error) {
	cfg := e.config
	start := time.Now()

	matrix, err := Project(ctx, img, cfg.Space, ProjectOptions{
		Progress:     e.stageProgress(StageProject),
		ProgressStep: cfg.ProgressStep,
		Workers:      cfg.Workers,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Debug("projected image", "space", cfg.Space, "width", matrix.Width, "height", matrix.Height,
		"elapsed", time.Since(start))

	engine := NewClusterEngine(
		WithMaxIterations(cfg.MaxIterations),
		WithWorkers(cfg.Workers),
		WithIterationHook(func(iteration, changed int) {
			e.logger.Trace("k-means iteration", "iteration", iteration, "changed", changed)
		}),
	)

	clusterStart := time.Now()
	e.emit(StageCluster, 0, cfg.ColorCount)
	clustering, err := engine.Cluster(ctx, matrix, cfg.ColorCount, cfg.Seed)
	if err != nil {
		return nil, err
	}
	e.emit(StageCluster, cfg.ColorCount, cfg.ColorCount)
	e.logger.Debug("clustered pixels", "k", cfg.ColorCount, "seed", cfg.Seed,
		"iterations", clustering.Iterations, "converged", clustering.Converged,
		"elapsed", time.Since(clusterStart))

	records, err := Summarize(matrix, clustering, SummarizeOptions{
		Progress: e.stageProgress(StageSummarize),
	})
	if err != nil {
		return nil, err
	}
	SortByWeight(records)

	e.logger.Info("extracted palette", "colors", len(records), "space", cfg.Space, "elapsed", time.Since(start))

	return &Extraction{
		Space:      cfg.Space,
		Clusters:   cfg.ColorCount,
		Seed:       cfg.Seed,
		Width:      matrix.Width,
		Height:     matrix.Height,
		Iterations: clustering.Iterations,
		Converged:  clustering.Converged,
		Records:    records,
	}, nil
}

func (e *Extractor) stageProgress(stage Stage) func(done, total int) {
	if e.progress == nil {
		return nil
	}
	return func(done, total int) {
		e.progress(Progress{Stage: stage, Done: done, Total: total})
	}
}

func (e *Extractor) emit(stage Stage, done, total int) {
	if e.progress != nil {
		e.progress(Progress{Stage: stage, Done: done, Total: total})
	}
}
