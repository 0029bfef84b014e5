package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// entry is the on-disk form of one key.
type entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// File stores each key as a JSON file named by the hash of the key.
type File struct {
	dir string
}

// NewFile creates a file store rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &File{dir: dir}, nil
}

// Get returns ("", false) for a missing or unreadable entry.
func (f *File) Get(key string) (string, bool) {
	data, err := os.ReadFile(f.entryPath(key))
	if err != nil {
		return "", false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return "", false
	}
	if e.Key != key {
		return "", false
	}
	return e.Value, true
}

// Set replaces the entry for key. The write goes through a temp file and a
// rename so readers never observe a partial value.
func (f *File) Set(key, value string) error {
	data, err := json.Marshal(entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	tmp, err := os.CreateTemp(f.dir, ".entry-*")
	if err != nil {
		return fmt.Errorf("creating temp entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing cache entry: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.entryPath(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing cache entry: %w", err)
	}
	return nil
}

func (f *File) Remove(key string) error {
	if err := os.Remove(f.entryPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache entry: %w", err)
	}
	return nil
}

// Clear removes all cache entries.
func (f *File) Clear() error {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			os.Remove(filepath.Join(f.dir, e.Name()))
		}
	}
	return nil
}

// Stats returns information about the cache directory.
func (f *File) Stats() (Stats, error) {
	stats := Stats{Backend: BackendFile, Location: f.dir}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		data, err := os.ReadFile(filepath.Join(f.dir, e.Name()))
		if err != nil {
			continue
		}
		var ent entry
		if err := json.Unmarshal(data, &ent); err != nil {
			continue
		}
		stats.Keys = append(stats.Keys, ent.Key)
	}
	slices.Sort(stats.Keys)
	return stats, nil
}

// Dir returns the cache directory path.
func (f *File) Dir() string {
	return f.dir
}

func (f *File) entryPath(key string) string {
	return filepath.Join(f.dir, HashKey(key)+".json")
}
