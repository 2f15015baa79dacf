// Package gallery keeps the posters generated on this machine in a JSON file.
// It is a single-user cache: there is no locking across processes, no
// deduplication and no validation of stored entries.
package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreambig/dreambig-sg/internal/catalog"
	"github.com/dreambig/dreambig-sg/internal/types"
)

// DefaultBadge is used when the career is not in the catalog or is empty.
const DefaultBadge = "Hero"

// NewPoster builds a gallery entry for a generated image.
func NewPoster(imageURL string, data types.PosterData, now time.Time) types.GeneratedPoster {
	badge := catalog.CareerDisplayName(data.Career)
	if badge == "" {
		badge = DefaultBadge
	}

	return types.GeneratedPoster{
		ID:        uuid.NewString(),
		ImageURL:  imageURL,
		Data:      data,
		CreatedAt: now.UTC().Format(time.RFC3339),
		Badges:    []string{badge},
	}
}

// Store is a flat list of posters persisted as a JSON array.
type Store struct {
	path string

	mu      sync.Mutex
	posters []types.GeneratedPoster
	loaded  bool
}

// NewStore returns a store backed by path. Nothing is read until Load.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath is the gallery file under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "dreambig", "gallery.json"), nil
}

// Load reads the gallery file. A missing file is an empty gallery.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.posters = nil
		s.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read gallery %s: %w", s.path, err)
	}

	var posters []types.GeneratedPoster
	if len(data) > 0 {
		if err := json.Unmarshal(data, &posters); err != nil {
			return fmt.Errorf("failed to parse gallery %s: %w", s.path, err)
		}
	}
	s.posters = posters
	s.loaded = true
	return nil
}

// Add appends poster and writes the whole gallery back to disk.
func (s *Store) Add(poster types.GeneratedPoster) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		if err := s.load(); err != nil {
			return err
		}
	}

	posters := append(append([]types.GeneratedPoster(nil), s.posters...), poster)
	if err := s.write(posters); err != nil {
		return err
	}
	s.posters = posters
	return nil
}

// List returns the posters in insertion order.
func (s *Store) List() []types.GeneratedPoster {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.GeneratedPoster(nil), s.posters...)
}

func (s *Store) write(posters []types.GeneratedPoster) error {
	jsonBytes, err := json.MarshalIndent(posters, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal gallery: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create gallery directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write gallery: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace gallery: %w", err)
	}
	return nil
}
