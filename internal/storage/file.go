package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const fileExt = ".json"

// FileStore keeps one file per key in a directory. Writes go through a
// temporary file and a rename so a reader never sees a partial value.
type FileStore struct {
	dir string

	mu sync.Mutex
	// last bytes this store wrote per key; nil entry means deleted
	written map[string][]byte

	debounce time.Duration
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{
		dir:      dir,
		written:  make(map[string][]byte),
		debounce: 150 * time.Millisecond,
	}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}

	s.written[key] = append([]byte{}, value...)
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	s.written[key] = nil
	return nil
}

func (s *FileStore) Close() error { return nil }

// Watch reports keys changed on disk by someone other than this store until
// ctx is cancelled. Bursts of events for one key are collapsed.
func (s *FileStore) Watch(ctx context.Context, fn func(key string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	go s.watchLoop(ctx, w, fn)
	return nil
}

func (s *FileStore) watchLoop(ctx context.Context, w *fsnotify.Watcher, fn func(key string)) {
	defer w.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(s.debounce / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if key, ok := keyFromPath(event.Name); ok {
				pending[key] = time.Now()
			}

		case _, ok := <-w.Errors:
			if !ok {
				return
			}

		case now := <-ticker.C:
			for key, at := range pending {
				if now.Sub(at) < s.debounce {
					continue
				}
				delete(pending, key)
				if s.isOwnWrite(key) {
					continue
				}
				fn(key)
			}
		}
	}
}

// isOwnWrite reports whether the file for key holds exactly what this store last wrote.
func (s *FileStore) isOwnWrite(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.written[key]
	if !ok {
		return false
	}
	current, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return last == nil
	}
	if err != nil || last == nil {
		return false
	}
	return bytes.Equal(current, last)
}

func keyFromPath(name string) (string, bool) {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, fileExt) {
		return "", false
	}
	key := strings.TrimSuffix(base, fileExt)
	return key, checkKey(key) == nil
}
