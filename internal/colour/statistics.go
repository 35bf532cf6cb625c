package colour

import (
	"fmt"
	"slices"
)

// ScoreScale is the numerator constant of the cluster score.
const ScoreScale = 255.0

// ColorRecord describes one cluster of an extraction.
type ColorRecord struct {
	// Index is the cluster index assigned by the clustering engine.
	Index int `json:"index"`

	// Count is the number of pixels assigned to the cluster.
	Count int `json:"count"`

	// Centroid is the cluster centre in the analysis space.
	Centroid Vector `json:"centroid"`

	// RGB is the centroid converted back to 8-bit sRGB.
	RGB RGB `json:"rgb"`

	// Weight is the fraction of all pixels in the cluster.
	Weight float64 `json:"weight"`

	// Dispersion is the mean distance from members to the centroid, in the analysis space.
	Dispersion float64 `json:"dispersion"`

	// Score is Weight*255/(1+Dispersion).
	Score float64 `json:"score"`
}

// Score combines prevalence and compactness. It grows with weight and shrinks with dispersion.
func Score(weight, dispersion float64) float64 {
	return weight * ScoreScale / (1 + dispersion)
}

// SummarizeOptions configures Summarize.
type SummarizeOptions struct {
	// Progress receives the number of clusters summarised so far and K.
	Progress func(done, total int)
}

// Summarize computes weight, dispersion, score and RGB for every cluster, in cluster index order.
// Empty clusters get zero weight and zero dispersion.
func Summarize(m *FeatureMatrix, c *Clustering, opts SummarizeOptions) ([]ColorRecord, error) {
	if m == nil || m.Len() == 0 {
		return nil, fmt.Errorf("%w: feature matrix has no rows", ErrEmptyImage)
	}
	if c == nil || len(c.Labels) != m.Len() {
		return nil, fmt.Errorf("labels do not match feature matrix: got %d, want %d", labelCount(c), m.Len())
	}
	k := c.K()
	if k < 1 {
		return nil, fmt.Errorf("%w: clustering has no centroids", ErrInvalidClusterCount)
	}

	distSums := make([]float64, k)
	for i, row := range m.Rows {
		l := c.Labels[i]
		if l < 0 || l >= k {
			return nil, fmt.Errorf("label %d at row %d is outside [0,%d)", l, i, k)
		}
		distSums[l] += row.Distance(c.Centroids[l])
	}
	counts := c.Counts()

	n := float64(m.Len())
	records := make([]ColorRecord, k)
	for i := range k {
		rgb, err := FromVector(c.Centroids[i], m.Space)
		if err != nil {
			return nil, err
		}

		weight := float64(counts[i]) / n
		dispersion := 0.0
		if counts[i] > 0 {
			dispersion = distSums[i] / float64(counts[i])
		}

		records[i] = ColorRecord{
			Index:      i,
			Count:      counts[i],
			Centroid:   c.Centroids[i],
			RGB:        rgb,
			Weight:     weight,
			Dispersion: dispersion,
			Score:      Score(weight, dispersion),
		}

		if opts.Progress != nil {
			opts.Progress(i+1, k)
		}
	}

	return records, nil
}

// SortByWeight orders records by descending weight. Equal weights keep ascending cluster index.
func SortByWeight(records []ColorRecord) {
	slices.SortStableFunc(records, func(a, b ColorRecord) int {
		switch {
		case a.Weight > b.Weight:
			return -1
		case a.Weight < b.Weight:
			return 1
		}
		return a.Index - b.Index
	})
}

func labelCount(c *Clustering) int {
	if c == nil {
		return 0
	}
	return len(c.Labels)
}
