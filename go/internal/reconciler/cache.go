package reconciler

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// Cache holds the client's last known end timestamp.
type Cache interface {
	Load() (int64, bool)
	Store(endTimestamp int64) error
	Clear() error
}

const defaultCachePath = "~/.cache/countdown/state.toml"

// DefaultCachePath returns the default cache file path.
func DefaultCachePath() string {
	return defaultCachePath
}

type cachedView struct {
	CountdownEnd *int64 `toml:"countdown_end"`
}

// FileCache stores the view as a TOML file.
type FileCache struct {
	path string
}

// NewFileCache creates a cache at path; "~" expands to the home directory.
func NewFileCache(path string) *FileCache {
	if strings.TrimSpace(path) == "" {
		path = defaultCachePath
	}
	return &FileCache{path: path}
}

// Load returns the cached timestamp. Missing or unreadable files read as empty.
func (c *FileCache) Load() (int64, bool) {
	resolved, err := expandPath(c.path)
	if err != nil {
		return 0, false
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Debug().Err(err).Str("path", resolved).Msg("countdown cache unreadable")
		}
		return 0, false
	}

	var view cachedView
	if err := toml.Unmarshal(data, &view); err != nil || view.CountdownEnd == nil {
		return 0, false // Graceful degradation
	}
	return *view.CountdownEnd, true
}

// Store replaces the cached timestamp.
func (c *FileCache) Store(endTimestamp int64) error {
	resolved, err := expandPath(c.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	data, err := toml.Marshal(cachedView{CountdownEnd: &endTimestamp})
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := atomic.WriteFile(resolved, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}

// Clear removes the cache file.
func (c *FileCache) Clear() error {
	resolved, err := expandPath(c.path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if err := os.Remove(resolved); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu  sync.Mutex
	end int64
	ok  bool
}

func (m *MemoryCache) Load() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.end, m.ok
}

func (m *MemoryCache) Store(endTimestamp int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.end, m.ok = endTimestamp, true
	return nil
}

func (m *MemoryCache) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.end, m.ok = 0, false
	return nil
}
