package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/coviddash/internal/adapter/driven/localfile"
)

func TestDump_RoundTripsThroughReadDump(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, dump(dir, localfile.VaccovidDumpFile, []byte(`[{"date":"2022-03-16","new_cases":30000}]`)))

	d, err := localfile.ReadDump(dir)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"date":"2022-03-16","new_cases":30000}]`, string(d.Vaccovid))
	assert.Empty(t, d.CSSE)
}

func TestDump_RejectsTrailingData(t *testing.T) {
	dir := t.TempDir()

	err := dump(dir, localfile.CSSEDumpFile, []byte(`{"data":[]} <html>`))

	require.Error(t, err)
	assert.Contains(t, err.Error(), localfile.CSSEDumpFile)
	_, statErr := os.Stat(filepath.Join(dir, localfile.CSSEDumpFile))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
