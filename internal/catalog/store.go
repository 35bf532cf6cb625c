package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/kpalette/internal/colour"
)

// ErrNotFound is returned when a palette id does not exist in the catalog.
var ErrNotFound = errors.New("palette not found")

// Entry is a stored extraction together with its catalog metadata.
type Entry struct {
	ID        int64              `json:"id"`
	Source    string             `json:"source"`
	CreatedAt time.Time          `json:"created_at"`
	Selected  []int              `json:"selected,omitempty"`
	Result    *colour.Extraction `json:"result"`
}

// Summary is a catalog row without its swatches.
type Summary struct {
	ID        int64        `json:"id"`
	Source    string       `json:"source"`
	Space     colour.Space `json:"space"`
	Clusters  int          `json:"clusters"`
	Seed      int64        `json:"seed"`
	CreatedAt time.Time    `json:"created_at"`
}

// Store persists extractions.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the catalog at path and applies pending migrations.
func Open(path string) (*Store, error) {
	database, err := open(path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(database); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{db: database, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save records an extraction taken from source. selected holds the ranks
// (positions in ext.Records) the user picked, if any.
func (s *Store) Save(ctx context.Context, source string, ext *colour.Extraction, selected []int) (int64, error) {
	if ext == nil {
		return 0, fmt.Errorf("extraction cannot be nil")
	}

	picked := make(map[int]bool, len(selected))
	for _, rank := range selected {
		if rank < 0 || rank >= len(ext.Records) {
			return 0, fmt.Errorf("selected rank %d out of range [0,%d)", rank, len(ext.Records))
		}
		picked[rank] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO palettes(source, space, clusters, seed, width, height, iterations, converged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		source, string(ext.Space), ext.Clusters, ext.Seed, ext.Width, ext.Height,
		ext.Iterations, boolToInt(ext.Converged), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert palette: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("palette id: %w", err)
	}

	for rank, r := range ext.Records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO swatches(palette_id, rank, cluster, r, g, b, pixel_count, weight, dispersion, score, selected,
				centroid_0, centroid_1, centroid_2)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, rank, r.Index, r.RGB.R, r.RGB.G, r.RGB.B, r.Count,
			r.Weight, r.Dispersion, r.Score, boolToInt(picked[rank]),
			r.Centroid[0], r.Centroid[1], r.Centroid[2],
		); err != nil {
			return 0, fmt.Errorf("insert swatch %d: %w", rank, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit palette: %w", err)
	}
	return id, nil
}

// List returns every stored palette, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, space, clusters, seed, created_at
		FROM palettes ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list palettes: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			space   string
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Source, &space, &sum.Clusters, &sum.Seed, &created); err != nil {
			return nil, fmt.Errorf("scan palette: %w", err)
		}
		sum.Space = colour.Space(space)
		sum.CreatedAt, err = parseTime(created)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate palettes: %w", err)
	}
	return out, nil
}

// Get loads a stored palette with its swatches in rank order.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	var (
		space     string
		created   string
		converged int
	)
	entry := &Entry{ID: id, Result: &colour.Extraction{}}
	ext := entry.Result

	err := s.db.QueryRowContext(ctx, `
		SELECT source, space, clusters, seed, width, height, iterations, converged, created_at
		FROM palettes WHERE id = ?`, id,
	).Scan(&entry.Source, &space, &ext.Clusters, &ext.Seed, &ext.Width, &ext.Height,
		&ext.Iterations, &converged, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load palette %d: %w", id, err)
	}
	ext.Space = colour.Space(space)
	ext.Converged = converged != 0
	if entry.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, cluster, r, g, b, pixel_count, weight, dispersion, score, selected,
			centroid_0, centroid_1, centroid_2
		FROM swatches WHERE palette_id = ? ORDER BY rank`, id)
	if err != nil {
		return nil, fmt.Errorf("load swatches for %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rank, selected int
			rec            colour.ColorRecord
			c0, c1, c2     sql.NullFloat64
		)
		if err := rows.Scan(&rank, &rec.Index, &rec.RGB.R, &rec.RGB.G, &rec.RGB.B, &rec.Count,
			&rec.Weight, &rec.Dispersion, &rec.Score, &selected, &c0, &c1, &c2); err != nil {
			return nil, fmt.Errorf("scan swatch: %w", err)
		}
		if c0.Valid && c1.Valid && c2.Valid {
			rec.Centroid = colour.Vector{c0.Float64, c1.Float64, c2.Float64}
		} else {
			// Rows from before centroids were stored: re-project the rounded RGB.
			rec.Centroid, err = colour.ToVector(rec.RGB, ext.Space)
			if err != nil {
				return nil, err
			}
		}
		ext.Records = append(ext.Records, rec)
		if selected != 0 {
			entry.Selected = append(entry.Selected, rank)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swatches: %w", err)
	}

	return entry, nil
}

// Delete removes a stored palette and its swatches.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM palettes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete palette %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete palette %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created_at %q: %w", v, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
