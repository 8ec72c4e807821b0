package storage

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotExt is the file extension of similarity-matrix snapshots.
const SnapshotExt = ".sim"

// SnapshotPath returns where the similarity matrix of version is kept under dir.
// Returns "" when dir is empty (snapshots disabled).
func SnapshotPath(dir, version string) string {
	if dir == "" || version == "" {
		return ""
	}
	return filepath.Join(dir, version+SnapshotExt)
}

// PruneSnapshots deletes snapshot files in dir whose version is not in keep.
// Returns the number of files removed. A missing dir is not an error.
func PruneSnapshots(dir string, keep []string) (int, error) {
	if dir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	wanted := make(map[string]bool, len(keep))
	for _, v := range keep {
		wanted[v] = true
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, SnapshotExt) {
			continue
		}
		if wanted[strings.TrimSuffix(name, SnapshotExt)] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// DiskUsageBytes returns the total size in bytes of the given files or directories.
// Missing paths contribute 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return 0, err
		}
	}
	return total, nil
}
