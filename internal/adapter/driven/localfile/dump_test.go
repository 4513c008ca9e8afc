package localfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDumpFile_ThenReadDump(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")

	path, err := WriteDumpFile(dir, CSSEDumpFile, []byte(`{"data":[{"region":{"province":"Florida"}}]}`))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CSSEDumpFile), path)

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(written), "\n  \"data\": [")

	modTime := time.Date(2022, 3, 16, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, modTime, modTime))

	d, err := ReadDump(dir)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"region":{"province":"Florida"}}]}`, string(d.CSSE))
	assert.True(t, modTime.Equal(d.CSSEWrittenAt))
	assert.Empty(t, d.Vaccovid, "missing file leaves the body empty")
	assert.True(t, d.VaccovidWrittenAt.IsZero())
	assert.False(t, d.Empty())
}

func TestReadDump_EmptyDir(t *testing.T) {
	d, err := ReadDump(t.TempDir())

	require.NoError(t, err)
	assert.True(t, d.Empty())
}

func TestWriteDumpFile_RejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()

	_, err := WriteDumpFile(dir, VaccovidDumpFile, []byte(`[{"date":`))

	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, VaccovidDumpFile))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
