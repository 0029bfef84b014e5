package store

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dshills/folio/internal/folioerr"
)

// Store is a durable key to string map.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// Inspector is implemented by stores that can report and drop their contents.
type Inspector interface {
	Stats() (Stats, error)
	Clear() error
}

// Stats describes the contents of a store.
type Stats struct {
	Backend    string   `json:"backend"`
	Location   string   `json:"location,omitempty"`
	Entries    int      `json:"entries"`
	TotalBytes int64    `json:"totalBytes"`
	Keys       []string `json:"keys,omitempty"`
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates a store for the named backend. For the file backend location is
// a directory, for sqlite a database file inside that directory. An empty
// location uses the default cache directory.
func Open(backend, location string) (Store, error) {
	if backend != BackendMemory && location == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		location = d
	}
	switch backend {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		return NewFile(location)
	case BackendSQLite:
		if err := os.MkdirAll(location, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
		return OpenSQLite(filepath.Join(location, "folio.db"))
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}

// Close releases the store if it holds resources.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SetBestEffort writes value and logs instead of returning a failure.
func SetBestEffort(s Store, logger *slog.Logger, key, value string) bool {
	if err := s.Set(key, value); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("Skipping cache persistence",
			slog.String("key", key),
			slog.Any("error", fmt.Errorf("%w: %w", folioerr.ErrStoreWriteFailed, err)))
		return false
	}
	return true
}

// HashKey creates a SHA-256 hash of the given key.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// DefaultDir returns the platform cache directory for folio.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "folio"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "folio"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "folio", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "folio", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "folio"), nil
	}
}
