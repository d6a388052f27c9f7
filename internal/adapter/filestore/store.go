package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
)

var (
	// ErrExists is returned by Write when the artifact is already on disk.
	ErrExists = domain.ErrArtifactExists
	// ErrNotFound is returned by Read when no artifact exists for the pair.
	ErrNotFound = errors.New("artifact not found")
)

// Store persists one JSON artifact per (region, month) under a root
// directory. Artifacts are create-once: Write never replaces a file.
type Store struct {
	root string
}

// New creates a Store rooted at dir. The directory is created lazily.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the output root directory.
func (s *Store) Root() string {
	return s.root
}

// CheckReadiness reports whether the output root exists and is a directory.
func (s *Store) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("output root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output root %s is not a directory", s.root)
	}
	return nil
}

// Path is the deterministic artifact location {root}/{region}/{YYYY-MM}.json.
func (s *Store) Path(region string, month domain.MonthKey) string {
	return filepath.Join(s.root, region, month.String()+".json")
}

// Exists reports whether the artifact for the pair is on disk.
func (s *Store) Exists(region string, month domain.MonthKey) (bool, error) {
	_, err := os.Stat(s.Path(region, month))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat artifact: %w", err)
}

// Write stores samples as pretty-printed JSON. The file is staged in the
// region directory and hard-linked into place, so readers never see a
// partial artifact and an existing one is never overwritten.
func (s *Store) Write(region string, month domain.MonthKey, samples []domain.Sample) (string, error) {
	dir := filepath.Join(s.root, region)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create region dir: %w", err)
	}

	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode samples: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+month.String()+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // staging file; the link is what persists

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return "", fmt.Errorf("chmod temp file: %w", err)
	}

	path := s.Path(region, month)
	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return path, ErrExists
		}
		return "", fmt.Errorf("link artifact: %w", err)
	}
	return path, nil
}

// Read loads the samples of one artifact.
func (s *Store) Read(region string, month domain.MonthKey) ([]domain.Sample, error) {
	data, err := os.ReadFile(s.Path(region, month))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var samples []domain.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("decode artifact %s/%s: %w", region, month, err)
	}
	return samples, nil
}

// Months lists the months with an artifact for region, oldest first.
// A region with no directory yet has no months.
func (s *Store) Months(region string) ([]domain.MonthKey, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, region))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list region dir: %w", err)
	}

	var months []domain.MonthKey
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok || e.IsDir() {
			continue
		}
		m, err := domain.ParseMonthKey(name)
		if err != nil {
			continue
		}
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months, nil
}
