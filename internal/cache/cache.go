// Package cache persists raw search index text on disk, zstd-compressed,
// keyed by crate name and version. Index files run to several megabytes for
// big crates, so they are never stored uncompressed.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/rsdocs/docseek/internal/config"
)

func indexCachePath(name, version string) string {
	return filepath.Join(config.IndexCacheDir(), name+"_"+version+".js.zst")
}

// SaveIndex compresses and saves raw search index text to disk.
func SaveIndex(raw, name, version string) error {
	dir := config.IndexCacheDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating index cache dir: %w", err)
	}

	f, err := os.Create(indexCachePath(name, version))
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := io.WriteString(w, raw); err != nil {
		w.Close()
		return fmt.Errorf("writing compressed index: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// LoadIndex loads and decompresses cached search index text from disk.
func LoadIndex(name, version string) (string, error) {
	f, err := os.Open(indexCachePath(name, version))
	if err != nil {
		return "", fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompressing cached index: %w", err)
	}
	return string(raw), nil
}

// HasIndex checks whether a cached index file exists on disk.
func HasIndex(name, version string) bool {
	_, err := os.Stat(indexCachePath(name, version))
	return err == nil
}

// Clear removes every cached index file.
func Clear() error {
	if err := os.RemoveAll(config.IndexCacheDir()); err != nil {
		return fmt.Errorf("removing index cache dir: %w", err)
	}
	return nil
}
