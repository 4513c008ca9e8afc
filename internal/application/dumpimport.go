package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/coviddash/internal/domain/flatten"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// ImportDump stores dumped responses as snapshots of the country report and
// the daily history, so an offline dashboard can serve them. A response is
// skipped when its body is empty or a snapshot at least as new is already
// stored. It returns the number of snapshots saved.
func (s *DashboardService) ImportDump(ctx context.Context, d model.Dump) (int, error) {
	targets := []struct {
		source, key string
		body        []byte
		writtenAt   time.Time
	}{
		{model.SourceCSSE, model.CountryQuery(s.cfg.RegionName, s.cfg.ISO).Key(), d.CSSE, d.CSSEWrittenAt},
		{model.SourceVaccovid, s.cfg.ISO, d.Vaccovid, d.VaccovidWrittenAt},
	}

	imported := 0
	for _, t := range targets {
		if len(t.body) == 0 {
			continue
		}
		if _, err := flatten.Decode(t.body); err != nil {
			return imported, fmt.Errorf("%s dump: %w", t.source, err)
		}

		at := t.writtenAt
		if at.IsZero() {
			at = s.now()
		}

		latest, err := s.snapshots.Latest(ctx, t.source, t.key)
		if err != nil {
			return imported, fmt.Errorf("looking up %s snapshot: %w", t.source, err)
		}
		if latest != nil && !latest.FetchedAt.Before(at) {
			slog.Debug("dump older than stored snapshot", "source", t.source, "key", t.key)
			continue
		}

		if _, err := s.snapshots.Save(ctx, model.Snapshot{
			Source:    t.source,
			Key:       t.key,
			Body:      t.body,
			FetchedAt: at,
		}); err != nil {
			return imported, fmt.Errorf("saving %s dump: %w", t.source, err)
		}
		if _, err := s.snapshots.Prune(ctx, t.source, t.key, s.cfg.Retention); err != nil {
			return imported, fmt.Errorf("pruning %s snapshots: %w", t.source, err)
		}
		imported++
	}
	return imported, nil
}
