// Package store persists strategy state to disk so a restarted quoter can
// resume tracking the orders it already has resting.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"quoter-go/quoter"
)

// ErrNotFound is returned when no state has been saved for the pair.
var ErrNotFound = errors.New("no saved state")

// FileStore keeps one JSON document per (trader, market) pair under Dir.
type FileStore struct {
	Dir string
}

// New creates the directory if needed and returns a store rooted there.
func New(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) path(trader, market string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s_%s.json", trader, market))
}

// Load reads the saved state for (trader, market).
func (s *FileStore) Load(trader, market string) (quoter.State, error) {
	var st quoter.State
	raw, err := os.ReadFile(s.path(trader, market))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, ErrNotFound
		}
		return st, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("decode state: %w", err)
	}
	if st.Trader != trader || st.Market != market {
		return st, fmt.Errorf("state file is for (%s, %s), wanted (%s, %s)",
			st.Trader, st.Market, trader, market)
	}
	return st, nil
}

// Save writes st atomically: full write to a temp file in the same
// directory, then rename over the target. A crash mid-save leaves the
// previous snapshot intact.
func (s *FileStore) Save(st quoter.State) error {
	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	target := s.path(st.Trader, st.Market)
	tmp, err := os.CreateTemp(s.Dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
