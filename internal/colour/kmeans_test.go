package colour

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

func matrixOf(space Space, rows ...Vector) *FeatureMatrix {
	return &FeatureMatrix{Space: space, Width: len(rows), Height: 1, Rows: rows}
}

func noisyMatrix(n int, seed int64) *FeatureMatrix {
	// #nosec G404 -- test data
	rng := rand.New(rand.NewSource(seed))
	rows := make([]Vector, n)
	centres := []Vector{{30, 30, 30}, {200, 40, 40}, {40, 200, 90}, {220, 220, 220}}
	for i := range rows {
		c := centres[i%len(centres)]
		rows[i] = Vector{c[0] + rng.NormFloat64()*8, c[1] + rng.NormFloat64()*8, c[2] + rng.NormFloat64()*8}
	}
	return matrixOf(SpaceRGB, rows...)
}

func TestClusterTwoTightGroups(t *testing.T) {
	m := matrixOf(SpaceRGB, Vector{255, 0, 0}, Vector{255, 0, 0}, Vector{0, 0, 255}, Vector{0, 0, 255})

	c, err := NewClusterEngine().Cluster(context.Background(), m, 2, DefaultSeed)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}

	if !c.Converged {
		t.Error("expected convergence")
	}
	if c.Labels[0] != c.Labels[1] || c.Labels[2] != c.Labels[3] || c.Labels[0] == c.Labels[2] {
		t.Errorf("unexpected labels: %v", c.Labels)
	}
	if c.Centroids[c.Labels[0]] != (Vector{255, 0, 0}) || c.Centroids[c.Labels[2]] != (Vector{0, 0, 255}) {
		t.Errorf("unexpected centroids: %v", c.Centroids)
	}
}

func TestClusterIsDeterministic(t *testing.T) {
	m := noisyMatrix(5000, 7)
	engine := NewClusterEngine(WithWorkers(8))

	first, err := engine.Cluster(context.Background(), m, 4, 42)
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 3; run++ {
		again, err := NewClusterEngine(WithWorkers(run+1)).Cluster(context.Background(), m, 4, 42)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first.Labels, again.Labels) {
			t.Fatalf("run %d: labels differ", run)
		}
		if !reflect.DeepEqual(first.Centroids, again.Centroids) {
			t.Fatalf("run %d: centroids differ: %v vs %v", run, first.Centroids, again.Centroids)
		}
	}
}

func TestClusterFindsSeparatedCentres(t *testing.T) {
	m := noisyMatrix(4000, 3)
	c, err := NewClusterEngine().Cluster(context.Background(), m, 4, 1)
	if err != nil {
		t.Fatal(err)
	}

	counts := c.Counts()
	for i, n := range counts {
		if n != 1000 {
			t.Errorf("cluster %d has %d points, want 1000", i, n)
		}
	}
}

func TestClusterDuplicatePointsLeaveEmptyCluster(t *testing.T) {
	m := matrixOf(SpaceRGB, Vector{255, 0, 0}, Vector{255, 0, 0}, Vector{0, 0, 255}, Vector{0, 0, 255})

	c, err := NewClusterEngine().Cluster(context.Background(), m, 3, DefaultSeed)
	if err != nil {
		t.Fatalf("Cluster returned error: %v", err)
	}
	if c.K() != 3 {
		t.Fatalf("expected 3 centroids, got %d", c.K())
	}

	empty := 0
	for _, n := range c.Counts() {
		if n == 0 {
			empty++
		}
	}
	if empty != 1 {
		t.Errorf("expected exactly one empty cluster, counts=%v", c.Counts())
	}
}

func TestClusterSinglePoint(t *testing.T) {
	m := matrixOf(SpaceLab, Vector{50, 10, -20})
	c, err := NewClusterEngine().Cluster(context.Background(), m, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.Centroids[0] != (Vector{50, 10, -20}) || c.Labels[0] != 0 {
		t.Errorf("unexpected result: %+v", c)
	}
}

func TestClusterInvalidK(t *testing.T) {
	m := matrixOf(SpaceRGB, Vector{1, 2, 3}, Vector{4, 5, 6})
	engine := NewClusterEngine()

	for _, k := range []int{0, -1, 3} {
		if _, err := engine.Cluster(context.Background(), m, k, 1); !errors.Is(err, ErrInvalidClusterCount) {
			t.Errorf("k=%d: expected ErrInvalidClusterCount, got %v", k, err)
		}
	}
	if _, err := engine.Cluster(context.Background(), matrixOf(SpaceRGB), 1, 1); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("expected ErrEmptyImage for empty matrix, got %v", err)
	}
}

func TestClusterIterationCap(t *testing.T) {
	m := noisyMatrix(2000, 11)
	var iterations []int
	engine := NewClusterEngine(
		WithMaxIterations(1),
		WithIterationHook(func(iteration, _ int) { iterations = append(iterations, iteration) }),
	)

	c, err := engine.Cluster(context.Background(), m, 4, 5)
	if err != nil {
		t.Fatal(err)
	}
	if c.Iterations != 1 || c.Converged {
		t.Errorf("expected one unconverged iteration, got %d (converged=%v)", c.Iterations, c.Converged)
	}
	if !reflect.DeepEqual(iterations, []int{1}) {
		t.Errorf("unexpected hook calls: %v", iterations)
	}

	for i, row := range m.Rows {
		if c.Labels[i] != findNearestCentroid(row, c.Centroids) {
			t.Fatalf("label %d is not aligned with final centroids", i)
		}
	}
}

func TestClusterCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClusterEngine().Cluster(ctx, noisyMatrix(100, 1), 2, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
