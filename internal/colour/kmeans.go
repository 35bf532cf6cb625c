package colour

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxIterations caps the number of Lloyd iterations.
	DefaultMaxIterations = 300

	// DefaultSeed is the seed used when the caller does not supply one.
	DefaultSeed int64 = 42

	assignChunk = 8192
)

// Clustering is the result of a k-means run.
type Clustering struct {
	// Labels holds the cluster index of every matrix row.
	Labels []int

	// Centroids holds one centroid per cluster, in the matrix's space.
	Centroids []Vector

	// Iterations is the number of assignment passes performed.
	Iterations int

	// Converged is false when the iteration cap was reached first.
	Converged bool
}

// K returns the number of clusters.
func (c *Clustering) K() int {
	return len(c.Centroids)
}

// Counts returns the number of rows assigned to each cluster.
func (c *Clustering) Counts() []int {
	counts := make([]int, len(c.Centroids))
	for _, l := range c.Labels {
		counts[l]++
	}
	return counts
}

// ClusterEngine implements seeded k-means (Lloyd's algorithm with k-means++ seeding).
// Identical (matrix, k, seed) inputs always produce identical results.
type ClusterEngine struct {
	maxIterations int
	workers       int
	onIteration   func(iteration, changed int)
}

// ClusterOption configures a ClusterEngine.
type ClusterOption func(*ClusterEngine)

// WithMaxIterations sets the iteration cap. Values below 1 keep the default.
func WithMaxIterations(n int) ClusterOption {
	return func(e *ClusterEngine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithWorkers bounds the goroutines used for the assignment step.
func WithWorkers(n int) ClusterOption {
	return func(e *ClusterEngine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithIterationHook registers a callback invoked after each assignment pass.
func WithIterationHook(fn func(iteration, changed int)) ClusterOption {
	return func(e *ClusterEngine) {
		e.onIteration = fn
	}
}

// NewClusterEngine creates a ClusterEngine with default settings.
func NewClusterEngine(opts ...ClusterOption) *ClusterEngine {
	e := &ClusterEngine{
		maxIterations: DefaultMaxIterations,
		workers:       runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cluster partitions the matrix rows into k clusters.
//
// Clusters that lose all their points keep their previous centroid. When the
// iteration cap is reached the labels are recomputed against the final centroids.
func (e *ClusterEngine) Cluster(ctx context.Context, m *FeatureMatrix, k int, seed int64) (*Clustering, error) {
	if m == nil || m.Len() == 0 {
		return nil, fmt.Errorf("%w: feature matrix has no rows", ErrEmptyImage)
	}
	n := m.Len()
	if k < 1 || k > n {
		return nil, fmt.Errorf("%w: k=%d, must be between 1 and %d", ErrInvalidClusterCount, k, n)
	}

	// #nosec G404 -- deterministic seeding is required, not cryptographic randomness
	rng := rand.New(rand.NewSource(seed))
	centroids := e.initializeCentroidsKMeansPlusPlus(m.Rows, k, rng)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	result := &Clustering{Labels: labels, Centroids: centroids}

	for iter := 0; iter < e.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("clustering cancelled after %d iterations: %w", iter, err)
		}

		changed, err := e.assign(ctx, m.Rows, centroids, labels)
		if err != nil {
			return nil, err
		}
		result.Iterations++
		if e.onIteration != nil {
			e.onIteration(iter+1, changed)
		}

		if changed == 0 {
			result.Converged = true
			return result, nil
		}

		recalculateCentroids(m.Rows, labels, centroids)
	}

	// The cap was hit right after a centroid update; realign labels with it.
	if _, err := e.assign(ctx, m.Rows, centroids, labels); err != nil {
		return nil, err
	}

	return result, nil
}

// initializeCentroidsKMeansPlusPlus picks k starting centroids using k-means++.
// When every remaining point coincides with an existing centroid the last centroid
// is duplicated; that cluster receives no points since ties go to the lowest index.
func (e *ClusterEngine) initializeCentroidsKMeansPlusPlus(points []Vector, k int, rng *rand.Rand) []Vector {
	centroids := make([]Vector, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	minDist := make([]float64, len(points))
	for i, p := range points {
		minDist[i] = p.distanceSq(centroids[0])
	}

	for len(centroids) < k {
		total := 0.0
		for _, d := range minDist {
			total += d
		}

		if total == 0 {
			centroids = append(centroids, centroids[len(centroids)-1])
			continue
		}

		target := rng.Float64() * total
		chosen := -1
		cumulative := 0.0
		for i, d := range minDist {
			if d == 0 {
				continue
			}
			cumulative += d
			chosen = i
			if cumulative >= target {
				break
			}
		}

		next := points[chosen]
		centroids = append(centroids, next)
		for i, p := range points {
			if d := p.distanceSq(next); d < minDist[i] {
				minDist[i] = d
			}
		}
	}

	return centroids
}

// assign labels every point with its nearest centroid and returns how many labels changed.
func (e *ClusterEngine) assign(ctx context.Context, points []Vector, centroids []Vector, labels []int) (int, error) {
	var changed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for start := 0; start < len(points); start += assignChunk {
		start := start
		end := min(start+assignChunk, len(points))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			local := 0
			for i := start; i < end; i++ {
				nearest := findNearestCentroid(points[i], centroids)
				if labels[i] != nearest {
					labels[i] = nearest
					local++
				}
			}
			changed.Add(int64(local))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("assigning points to centroids: %w", err)
	}

	return int(changed.Load()), nil
}

// findNearestCentroid finds the index of the nearest centroid to a point.
// Ties resolve to the lowest index.
func findNearestCentroid(point Vector, centroids []Vector) int {
	minDist := math.MaxFloat64
	nearest := 0

	for i, centroid := range centroids {
		dist := point.distanceSq(centroid)
		if dist < minDist {
			minDist = dist
			nearest = i
		}
	}

	return nearest
}

// recalculateCentroids moves each centroid to the mean of its assigned points.
// Sums run in row order so results do not depend on scheduling.
func recalculateCentroids(points []Vector, labels []int, centroids []Vector) {
	k := len(centroids)
	sums := make([]Vector, k)
	counts := make([]int, k)

	for i, p := range points {
		c := labels[i]
		sums[c][0] += p[0]
		sums[c][1] += p[1]
		sums[c][2] += p[2]
		counts[c]++
	}

	for i := range k {
		if counts[i] == 0 {
			continue
		}
		n := float64(counts[i])
		centroids[i] = Vector{sums[i][0] / n, sums[i][1] / n, sums[i][2] / n}
	}
}
