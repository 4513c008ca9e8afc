// Package localfile reads and writes the local files of the dashboard: per-API
// credential files, the list of US states and dumped upstream responses.
package localfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrBlankKey is returned when a credential file has no api_key value.
var ErrBlankKey = errors.New("api_key is empty")

type credentialFile struct {
	APIKey string `json:"api_key"`
}

// LoadAPIKey reads a JSON credential file of the form {"api_key": "..."}.
// A missing file returns an error wrapping fs.ErrNotExist.
func LoadAPIKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading credential file: %w", err)
	}

	var cf credentialFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return "", fmt.Errorf("parsing credential file %s: %w", path, err)
	}

	key := strings.TrimSpace(cf.APIKey)
	if key == "" {
		return "", fmt.Errorf("credential file %s: %w", path, ErrBlankKey)
	}
	return key, nil
}

// LoadAPIKeys reads the credential file of every service in files. Services
// whose file does not exist are left out; any other failure is returned.
func LoadAPIKeys(files map[string]string) (map[string]string, error) {
	keys := make(map[string]string, len(files))
	for service, path := range files {
		if path == "" {
			continue
		}
		key, err := LoadAPIKey(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s key: %w", service, err)
		}
		keys[service] = key
	}
	return keys, nil
}
