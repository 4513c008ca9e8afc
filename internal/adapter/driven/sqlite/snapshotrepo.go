package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
	"github.com/ericfisherdev/coviddash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SnapshotStore = (*SnapshotRepo)(nil)

// fetchedAtLayout has fixed-width fractional seconds so fetched_at sorts
// lexicographically in time order.
const fetchedAtLayout = "2006-01-02T15:04:05.000000000Z"

// SnapshotRepo is the SQLite implementation of the SnapshotStore port interface.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new SnapshotRepo backed by the given DB.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save inserts a snapshot. A zero FetchedAt is stamped with the current time.
func (r *SnapshotRepo) Save(ctx context.Context, snap model.Snapshot) (int64, error) {
	if snap.Source == "" {
		return 0, errors.New("save snapshot: empty source")
	}
	fetchedAt := snap.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	const query = `INSERT INTO snapshots (source, query_key, body, fetched_at) VALUES (?, ?, ?, ?)`
	res, err := r.db.Writer.ExecContext(ctx, query,
		snap.Source, snap.Key, snap.Body, fetchedAt.UTC().Format(fetchedAtLayout))
	if err != nil {
		return 0, fmt.Errorf("save snapshot %s/%s: %w", snap.Source, snap.Key, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}
	return id, nil
}

// Latest returns the newest snapshot for source and key, or nil if none exists.
func (r *SnapshotRepo) Latest(ctx context.Context, source, key string) (*model.Snapshot, error) {
	const query = `
		SELECT id, source, query_key, body, length(body), fetched_at
		FROM snapshots
		WHERE source = ? AND query_key = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT 1`

	row := r.db.Reader.QueryRowContext(ctx, query, source, key)
	snap, err := scanSnapshot(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot %s/%s: %w", source, key, err)
	}
	return snap, nil
}

// Prune keeps the newest keep snapshots for source and key and deletes the rest.
func (r *SnapshotRepo) Prune(ctx context.Context, source, key string, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("prune snapshots: keep must be at least 1, got %d", keep)
	}

	const query = `
		DELETE FROM snapshots
		WHERE source = ? AND query_key = ?
		  AND id NOT IN (
			SELECT id FROM snapshots
			WHERE source = ? AND query_key = ?
			ORDER BY fetched_at DESC, id DESC
			LIMIT ?
		  )`

	res, err := r.db.Writer.ExecContext(ctx, query, source, key, source, key, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots %s/%s: %w", source, key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruned rows: %w", err)
	}
	return n, nil
}

// ListLatest returns the newest snapshot of every source/key pair, ordered by
// source then key. Bodies are omitted; Size reports their length.
func (r *SnapshotRepo) ListLatest(ctx context.Context) ([]model.Snapshot, error) {
	const query = `
		SELECT s.id, s.source, s.query_key, NULL, length(s.body), s.fetched_at
		FROM snapshots s
		WHERE s.id = (
			SELECT s2.id FROM snapshots s2
			WHERE s2.source = s.source AND s2.query_key = s.query_key
			ORDER BY s2.fetched_at DESC, s2.id DESC
			LIMIT 1
		)
		ORDER BY s.source, s.query_key`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []model.Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snaps, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner, withBody bool) (*model.Snapshot, error) {
	var snap model.Snapshot
	var body []byte
	var fetchedAt string

	if err := s.Scan(&snap.ID, &snap.Source, &snap.Key, &body, &snap.Size, &fetchedAt); err != nil {
		return nil, err
	}
	if withBody {
		snap.Body = body
	}

	var err error
	snap.FetchedAt, err = parseTime(fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at: %w", err)
	}
	return &snap, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		fetchedAtLayout,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
