// Package archive backs up the cache database before destructive
// operations.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ArchiveCache copies the cache database at cachePath into an archive
// directory next to it, named with a timestamp, and returns the archive
// path. A missing cache file is an error.
func ArchiveCache(cachePath string) (string, error) {
	if _, err := os.Stat(cachePath); os.IsNotExist(err) {
		return "", fmt.Errorf("cache database does not exist: %s", cachePath)
	}

	archiveDir := filepath.Join(filepath.Dir(cachePath), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("cache-%s.db", timestamp))

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("cache-%s.db", timestamp))
	}

	if err := copyFile(cachePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive cache database: %w", err)
	}
	return archivePath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
