package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// FreshnessTier classifies stored data by its age relative to the snapshot TTL.
type FreshnessTier int

const (
	// TierFresh is younger than the TTL; it is served without a live fetch.
	TierFresh FreshnessTier = iota
	// TierAging is older than the TTL but younger than four TTLs.
	TierAging
	// TierStale is older than four TTLs.
	TierStale
	// TierMissing means nothing has been stored yet.
	TierMissing
)

// String returns a human-readable name for the tier.
func (t FreshnessTier) String() string {
	switch t {
	case TierFresh:
		return "fresh"
	case TierAging:
		return "aging"
	case TierStale:
		return "stale"
	case TierMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// classifyFreshness determines the tier of data fetched at fetchedAt.
// A zero fetchedAt is TierMissing; a non-positive ttl treats all data as aging.
func classifyFreshness(fetchedAt, now time.Time, ttl time.Duration) FreshnessTier {
	if fetchedAt.IsZero() {
		return TierMissing
	}
	if ttl <= 0 {
		return TierAging
	}

	age := now.Sub(fetchedAt)
	switch {
	case age < ttl:
		return TierFresh
	case age < 4*ttl:
		return TierAging
	default:
		return TierStale
	}
}

// SnapshotInfo is an exported view of the newest stored response of one
// source/key pair.
type SnapshotInfo struct {
	Source    string
	Key       string
	FetchedAt time.Time
	Age       time.Duration
	Size      int
	Tier      FreshnessTier
}

// Snapshots lists the newest snapshot of every source/key pair with its
// freshness tier.
func (s *DashboardService) Snapshots(ctx context.Context) ([]SnapshotInfo, error) {
	snaps, err := s.snapshots.ListLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	now := s.now()
	out := make([]SnapshotInfo, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snapshotInfo(snap, now, s.cfg.SnapshotTTL))
	}
	return out, nil
}

func snapshotInfo(snap model.Snapshot, now time.Time, ttl time.Duration) SnapshotInfo {
	return SnapshotInfo{
		Source:    snap.Source,
		Key:       snap.Key,
		FetchedAt: snap.FetchedAt,
		Age:       snap.Age(now).Round(time.Second),
		Size:      snap.Size,
		Tier:      classifyFreshness(snap.FetchedAt, now, ttl),
	}
}
