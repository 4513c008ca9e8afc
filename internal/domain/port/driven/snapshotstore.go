package driven

import (
	"context"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// SnapshotStore persists raw upstream responses.
type SnapshotStore interface {
	// Save stores a new snapshot and returns its ID.
	Save(ctx context.Context, snap model.Snapshot) (int64, error)
	// Latest returns the most recent snapshot for source and key.
	// Returns nil, nil if none exists.
	Latest(ctx context.Context, source, key string) (*model.Snapshot, error)
	// Prune deletes all but the newest keep snapshots for source and key and
	// returns the number of rows removed.
	Prune(ctx context.Context, source, key string, keep int) (int64, error)
	// ListLatest returns the newest snapshot per source and key without bodies.
	ListLatest(ctx context.Context) ([]model.Snapshot, error)
}
