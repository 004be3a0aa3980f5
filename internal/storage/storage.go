package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Record is the marker file content
type Record struct {
	Booked int64 `json:"booked"` // Unix milliseconds
}

// BookedAt returns the recorded time
func (r Record) BookedAt() time.Time {
	return time.UnixMilli(r.Booked).UTC()
}

// Marker handles the completion marker file
type Marker struct {
	path string
}

// New creates a Marker for path, expanding a leading ~/ and creating the
// parent directory if needed.
func New(path string) (*Marker, error) {
	if path == "" {
		return nil, fmt.Errorf("marker path is required")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating marker directory: %w", err)
		}
	}

	return &Marker{path: path}, nil
}

// Path returns the marker file path
func (m *Marker) Path() string {
	return m.path
}

// Exists reports whether the marker file is present. Content is not inspected.
func (m *Marker) Exists() (bool, error) {
	_, err := os.Stat(m.path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("checking marker: %w", err)
}

// Save writes the marker recording t
func (m *Marker) Save(t time.Time) error {
	data, err := json.Marshal(Record{Booked: t.UnixMilli()})
	if err != nil {
		return fmt.Errorf("encoding marker: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}

	return nil
}

// Load reads the marker record. It is only used for reporting.
func (m *Marker) Load() (*Record, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("reading marker: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing marker: %w", err)
	}

	return &rec, nil
}
