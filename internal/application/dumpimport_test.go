package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/coviddash/internal/application"
	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

func TestImportDump_ServesOfflineDashboard(t *testing.T) {
	f := newFixture()
	f.cfg.Offline = true
	svc := f.service()
	writtenAt := time.Date(2022, 3, 16, 12, 0, 0, 0, time.UTC)

	n, err := svc.ImportDump(context.Background(), model.Dump{
		CSSE:              []byte(countryReport),
		CSSEWrittenAt:     writtenAt,
		Vaccovid:          []byte(dailyHistory),
		VaccovidWrittenAt: writtenAt,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{5, 5}, f.snapshots.prunes)

	coords, err := svc.MapCoordinates(context.Background())
	require.NoError(t, err)
	assert.Len(t, coords, 2)

	series, err := svc.DailySeries(context.Background(), model.MetricTotalCases)
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())

	assert.Equal(t, 0, f.csse.callCount())
	assert.Equal(t, 0, f.daily.calls)

	snaps, err := svc.Snapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	for _, s := range snaps {
		assert.True(t, writtenAt.Equal(s.FetchedAt), s.Source)
	}
}

func TestImportDump_SkipsOlderDumpAndEmptyBodies(t *testing.T) {
	f := newFixture()
	stored := time.Date(2022, 3, 20, 0, 0, 0, 0, time.UTC)
	f.snapshots.seed(model.SourceVaccovid, "USA", dailyHistory, stored)
	svc := f.service()

	n, err := svc.ImportDump(context.Background(), model.Dump{
		Vaccovid:          []byte(`[]`),
		VaccovidWrittenAt: stored.Add(-time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, f.snapshots.count(model.SourceVaccovid))
	assert.Equal(t, 0, f.snapshots.count(model.SourceCSSE))
}

func TestImportDump_Errors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		f := newFixture()

		_, err := f.service().ImportDump(context.Background(), model.Dump{CSSE: []byte(`{"data":[]} trailing`)})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "csse dump")
		assert.Equal(t, 0, f.snapshots.count(model.SourceCSSE))
	})

	t.Run("save failure", func(t *testing.T) {
		f := newFixture()
		f.snapshots.saveErr = errors.New("disk full")

		_, err := f.service().ImportDump(context.Background(), model.Dump{Vaccovid: []byte(dailyHistory)})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
	})
}

func TestImportDump_EmptyDump(t *testing.T) {
	f := newFixture()

	n, err := f.service().ImportDump(context.Background(), model.Dump{})

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.snapshots.prunes)
}

func TestImportDump_OfflineWithoutDumpHasNoData(t *testing.T) {
	f := newFixture()
	f.cfg.Offline = true
	svc := f.service()

	_, err := svc.ImportDump(context.Background(), model.Dump{Vaccovid: []byte(dailyHistory)})
	require.NoError(t, err)

	_, err = svc.MapCoordinates(context.Background())
	assert.ErrorIs(t, err, application.ErrNoSnapshot)
}
