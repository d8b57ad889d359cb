// Package archive moves a record store out of the way so the next run
// starts with an empty database while old translations stay on disk.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SQLite sidecar files that belong to a database
var sidecars = []string{"-journal", "-wal", "-shm"}

// ArchiveStore moves the database at dbPath (and its sidecar files) to
// archive/<name>-<timestamp><ext> next to it and returns the new path
func ArchiveStore(dbPath string) (string, error) {
	// Check if the database exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("record store does not exist: %s", dbPath)
	}

	archiveDir := filepath.Join(filepath.Dir(dbPath), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := filepath.Ext(dbPath)
	name := strings.TrimSuffix(filepath.Base(dbPath), ext)

	timestamp := time.Now().Format("20060102-150405")
	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", name, timestamp, ext))

	// Two archives within one second
	if _, err := os.Stat(archivePath); err == nil {
		timestamp = time.Now().Format("20060102-150405.000000")
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", name, timestamp, ext))
	}

	if err := os.Rename(dbPath, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive record store: %w", err)
	}

	for _, suffix := range sidecars {
		if _, err := os.Stat(dbPath + suffix); err == nil {
			if err := os.Rename(dbPath+suffix, archivePath+suffix); err != nil {
				return archivePath, fmt.Errorf("failed to archive %s: %w", filepath.Base(dbPath+suffix), err)
			}
		}
	}

	return archivePath, nil
}
