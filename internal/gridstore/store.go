// Package gridstore keeps grid snapshots and zone mismatch reports in a
// SQLite database. The schema is managed by embedded migrations.
package gridstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/cornergrid/internal/grid3d"
	"github.com/banshee-data/cornergrid/internal/gridio"
	"github.com/banshee-data/cornergrid/internal/monitoring"
	"github.com/banshee-data/cornergrid/internal/timeutil"
)

// ErrNotFound is returned when a snapshot or report does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite backed snapshot store. It is safe for concurrent use.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
	log   monitoring.Sink
	codec gridio.Codec
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for record timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithSink routes store diagnostics to sink.
func WithSink(sink monitoring.Sink) Option {
	return func(s *Store) { s.log = monitoring.OrDiscard(sink) }
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string, opts ...Option) (*Store, error) {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	codec, err := gridio.CodecFor(gridio.FormatSnapshot)
	if err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, clock: timeutil.RealClock{}, log: monitoring.Discard, codec: codec}
	for _, o := range opts {
		o(s)
	}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot describes a stored grid without its geometry.
type Snapshot struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Source     string            `json:"source"`
	NCol       int               `json:"ncol"`
	NRow       int               `json:"nrow"`
	NLay       int               `json:"nlay"`
	NActive    int               `json:"nactive"`
	Geometrics grid3d.Geometrics `json:"geometrics"`
	CreatedAt  time.Time         `json:"created_at"`
}

// SaveGrid stores a snapshot of g with its geometry summary.
func (s *Store) SaveGrid(ctx context.Context, g *grid3d.Grid) (Snapshot, error) {
	start := s.clock.Now()
	var blob bytes.Buffer
	if err := s.codec.Encode(&blob, g.Snapshot()); err != nil {
		return Snapshot{}, fmt.Errorf("encode grid %q: %w", g.Name(), err)
	}
	// An all inactive grid has no active geometry to summarise.
	geo, err := g.Geometrics(g.NActive() == 0, true)
	if err != nil {
		return Snapshot{}, fmt.Errorf("geometrics of grid %q: %w", g.Name(), err)
	}
	geoJSON, err := json.Marshal(geo)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal geometrics: %w", err)
	}

	ncol, nrow, nlay := g.Dimensions()
	snap := Snapshot{
		ID:         uuid.NewString(),
		Name:       g.Name(),
		Source:     g.Source(),
		NCol:       ncol,
		NRow:       nrow,
		NLay:       nlay,
		NActive:    g.NActive(),
		Geometrics: geo,
		CreatedAt:  start.UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grid_snapshots (
			snapshot_id, name, source, ncol, nrow, nlay, nactive, geometrics, grid_blob, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, snap.Source, ncol, nrow, nlay, snap.NActive,
		string(geoJSON), blob.Bytes(), snap.CreatedAt.UnixNano(),
	)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	s.log.Diagf("stored grid %q as %s: %d bytes in %v", snap.Name, snap.ID, blob.Len(), s.clock.Since(start))
	return snap, nil
}

// LoadGrid rebuilds the grid stored under id.
func (s *Store) LoadGrid(ctx context.Context, id string, opts ...grid3d.Option) (*grid3d.Grid, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT grid_blob FROM grid_snapshots WHERE snapshot_id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", id, err)
	}
	d, err := s.codec.Decode(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", id, err)
	}
	return grid3d.FromImport(d, append([]grid3d.Option{grid3d.WithSink(s.log)}, opts...)...)
}

// GetSnapshot returns the description of the snapshot stored under id.
func (s *Store) GetSnapshot(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT snapshot_id, name, source, ncol, nrow, nlay, nactive, geometrics, created_at
		FROM grid_snapshots WHERE snapshot_id = ?`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	return snap, err
}

// ListSnapshots returns the stored snapshots, newest first. A non-empty
// name restricts the list to grids of that name.
func (s *Store) ListSnapshots(ctx context.Context, name string) ([]Snapshot, error) {
	query := `
		SELECT snapshot_id, name, source, ncol, nrow, nlay, nactive, geometrics, created_at
		FROM grid_snapshots`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// DeleteSnapshot removes a snapshot and its reports.
func (s *Store) DeleteSnapshot(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM zone_mismatch_reports WHERE snapshot_id = ?`, id); err != nil {
		return fmt.Errorf("delete reports of %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM grid_snapshots WHERE snapshot_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("snapshot %s: %w", id, ErrNotFound)
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(r scanner) (Snapshot, error) {
	var (
		snap    Snapshot
		geoJSON string
		created int64
	)
	if err := r.Scan(&snap.ID, &snap.Name, &snap.Source, &snap.NCol, &snap.NRow, &snap.NLay,
		&snap.NActive, &geoJSON, &created); err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(geoJSON), &snap.Geometrics); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s geometrics: %w", snap.ID, err)
	}
	snap.CreatedAt = time.Unix(0, created).UTC()
	return snap, nil
}
