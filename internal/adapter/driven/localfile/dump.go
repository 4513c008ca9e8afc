package localfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

// Dump file names inside the dump directory.
const (
	CSSEDumpFile     = "csse_data.json"
	VaccovidDumpFile = "vaccovid_data.json"
)

// WriteDumpFile writes body, indented, to name inside dir and returns the
// full path. body must be a single JSON document.
func WriteDumpFile(dir, name string, body []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return "", fmt.Errorf("indenting %s: %w", name, err)
	}
	buf.WriteByte('\n')

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating dump dir: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ReadDump reads both dump files from dir. Missing files leave their body
// empty; the write time is the file's modification time.
func ReadDump(dir string) (model.Dump, error) {
	var d model.Dump
	var err error
	if d.CSSE, d.CSSEWrittenAt, err = readDumpFile(filepath.Join(dir, CSSEDumpFile)); err != nil {
		return model.Dump{}, err
	}
	if d.Vaccovid, d.VaccovidWrittenAt, err = readDumpFile(filepath.Join(dir, VaccovidDumpFile)); err != nil {
		return model.Dump{}, err
	}
	return d, nil
}

func readDumpFile(path string) ([]byte, time.Time, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("checking %s: %w", path, err)
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return body, info.ModTime(), nil
}
