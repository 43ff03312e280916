package file

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/domain"
)

// Store keeps each key as a JSON file in a data directory.
// It implements domain.Watcher so writes from other processes can be observed.
type Store struct {
	dir string
	mu  sync.RWMutex

	// writes made by this store while a watcher runs, so it can ignore its own events
	selfWrites map[string]int
	watchers   int
}

// NewStore creates the data directory if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir, selfWrites: make(map[string]int)}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Set writes to a temp file and renames it over the target so readers never see a partial file
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", key, err)
	}

	if s.watchers > 0 {
		s.selfWrites[target]++
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

// consumeSelfWrite reports whether an event on target was caused by our own Set
func (s *Store) consumeSelfWrite(target string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.selfWrites[target] == 0 {
		return false
	}
	s.selfWrites[target]--
	return true
}

// Watch calls onChange whenever another process replaces or edits the file behind key.
// The directory is watched rather than the file because Set swaps the inode on every write.
func (s *Store) Watch(ctx context.Context, key string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	s.mu.Lock()
	s.watchers++
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.watchers--
		if s.watchers == 0 {
			s.selfWrites = make(map[string]int)
		}
		s.mu.Unlock()
	}()

	target := s.path(key)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(target) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// a rename produces a Create on the target; our own writes are skipped
			if event.Has(fsnotify.Create) && s.consumeSelfWrite(target) {
				continue
			}
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("dir", s.dir).Msg("file watcher error")
		}
	}
}
