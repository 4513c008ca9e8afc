package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

var baseTime = time.Date(2022, 3, 14, 12, 0, 0, 0, time.UTC)

func saveSnapshot(t *testing.T, repo *SnapshotRepo, source, key, body string, at time.Time) int64 {
	t.Helper()
	id, err := repo.Save(context.Background(), model.Snapshot{
		Source:    source,
		Key:       key,
		Body:      []byte(body),
		FetchedAt: at,
	})
	require.NoError(t, err)
	return id
}

func TestSnapshotRepo_SaveAndLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)

	saveSnapshot(t, repo, model.SourceCSSE, "q=US Florida", `{"data":[1]}`, baseTime)
	id := saveSnapshot(t, repo, model.SourceCSSE, "q=US Florida", `{"data":[2]}`, baseTime.Add(time.Minute))
	saveSnapshot(t, repo, model.SourceCSSE, "q=US Texas", `{"data":[3]}`, baseTime.Add(time.Hour))

	snap, err := repo.Latest(context.Background(), model.SourceCSSE, "q=US Florida")

	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, `{"data":[2]}`, string(snap.Body))
	assert.Equal(t, len(`{"data":[2]}`), snap.Size)
	assert.True(t, snap.FetchedAt.Equal(baseTime.Add(time.Minute)))
}

func TestSnapshotRepo_LatestMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)

	snap, err := repo.Latest(context.Background(), model.SourceVaccovid, "USA")

	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSnapshotRepo_OrdersByTimeNotInsertOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)

	saveSnapshot(t, repo, model.SourceVaccovid, "USA", "new", baseTime.Add(500*time.Millisecond))
	saveSnapshot(t, repo, model.SourceVaccovid, "USA", "old", baseTime)

	snap, err := repo.Latest(context.Background(), model.SourceVaccovid, "USA")

	require.NoError(t, err)
	assert.Equal(t, "new", string(snap.Body))
}

func TestSnapshotRepo_SaveStampsZeroTime(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)
	before := time.Now().Add(-time.Second)

	_, err := repo.Save(context.Background(), model.Snapshot{Source: model.SourceStocks, Key: "k", Body: []byte("{}")})
	require.NoError(t, err)

	snap, err := repo.Latest(context.Background(), model.SourceStocks, "k")
	require.NoError(t, err)
	assert.True(t, snap.FetchedAt.After(before))
}

func TestSnapshotRepo_SaveRequiresSource(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)

	_, err := repo.Save(context.Background(), model.Snapshot{Key: "k"})

	assert.Error(t, err)
}

func TestSnapshotRepo_Prune(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)
	ctx := context.Background()

	for i := range 5 {
		saveSnapshot(t, repo, model.SourceCSSE, "k", "body", baseTime.Add(time.Duration(i)*time.Minute))
	}
	saveSnapshot(t, repo, model.SourceCSSE, "other", "body", baseTime)

	removed, err := repo.Prune(ctx, model.SourceCSSE, "k", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	var remaining int
	require.NoError(t, db.Reader.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshots WHERE source = ? AND query_key = ?`, model.SourceCSSE, "k").Scan(&remaining))
	assert.Equal(t, 2, remaining)

	snap, err := repo.Latest(ctx, model.SourceCSSE, "other")
	require.NoError(t, err)
	assert.NotNil(t, snap, "other keys are untouched")

	latest, err := repo.Latest(ctx, model.SourceCSSE, "k")
	require.NoError(t, err)
	assert.True(t, latest.FetchedAt.Equal(baseTime.Add(4*time.Minute)))
}

func TestSnapshotRepo_PruneRejectsZeroKeep(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)

	_, err := repo.Prune(context.Background(), model.SourceCSSE, "k", 0)

	assert.Error(t, err)
}

func TestSnapshotRepo_ListLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)

	saveSnapshot(t, repo, model.SourceVaccovid, "USA", "[1]", baseTime)
	saveSnapshot(t, repo, model.SourceCSSE, "b", "old", baseTime)
	saveSnapshot(t, repo, model.SourceCSSE, "b", "newer", baseTime.Add(time.Minute))
	saveSnapshot(t, repo, model.SourceCSSE, "a", "x", baseTime)

	snaps, err := repo.ListLatest(context.Background())

	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "a", snaps[0].Key)
	assert.Equal(t, "b", snaps[1].Key)
	assert.Equal(t, len("newer"), snaps[1].Size)
	assert.Nil(t, snaps[1].Body)
	assert.Equal(t, model.SourceVaccovid, snaps[2].Source)
}

func TestSnapshotRepo_ListLatestEmpty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSnapshotRepo(db)

	snaps, err := repo.ListLatest(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, snaps)
	assert.Empty(t, snaps)
}

func TestParseTime(t *testing.T) {
	tests := []string{
		"2022-03-14T12:00:00.000000000Z",
		"2022-03-14T12:00:00Z",
		"2022-03-14 12:00:00",
	}
	for _, s := range tests {
		got, err := parseTime(s)
		require.NoError(t, err, s)
		assert.True(t, got.Equal(baseTime), s)
	}

	_, err := parseTime("14/03/2022")
	assert.Error(t, err)
}
