// Package fallback provides the offline result dataset used when the remote search
// is unavailable, the client-side filter over it, and a local suggestions index.
package fallback

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/yowyob/internal/models"
)

//go:embed dataset.json
var bundled []byte

// Dataset holds the fallback records. It is safe for concurrent use and can be
// reloaded from disk while searches read it.
type Dataset struct {
	mu      sync.RWMutex
	records []models.SearchResult
	path    string
}

// Bundled returns the dataset shipped with the binary.
func Bundled() (*Dataset, error) {
	records, err := decode(bundled, ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to decode bundled dataset: %w", err)
	}
	return &Dataset{records: records}, nil
}

// Open loads the dataset at path (.json, .yaml or .yml). An empty path returns the bundled dataset.
func Open(path string) (*Dataset, error) {
	if path == "" {
		return Bundled()
	}
	d := &Dataset{path: path}
	if err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// NewDataset wraps records in a Dataset. Useful for tests and custom sources.
func NewDataset(records []models.SearchResult) *Dataset {
	return &Dataset{records: append([]models.SearchResult(nil), records...)}
}

// Path returns the file the dataset was loaded from, or "" when bundled.
func (d *Dataset) Path() string {
	return d.path
}

// Reload re-reads the dataset file. On error the previous records are kept.
func (d *Dataset) Reload() error {
	if d.path == "" {
		return nil
	}
	data, err := os.ReadFile(d.path)
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}
	records, err := decode(data, strings.ToLower(filepath.Ext(d.path)))
	if err != nil {
		return fmt.Errorf("failed to parse dataset %s: %w", d.path, err)
	}
	d.mu.Lock()
	d.records = records
	d.mu.Unlock()
	return nil
}

// Records returns a copy of the current records.
func (d *Dataset) Records() []models.SearchResult {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.SearchResult(nil), d.records...)
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

func decode(data []byte, ext string) ([]models.SearchResult, error) {
	var records []models.SearchResult
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, err
		}
	}
	return records, nil
}
