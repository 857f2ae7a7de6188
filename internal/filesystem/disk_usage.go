package filesystem

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// GetDirSize returns the summed size of all regular files below a
// directory. Directories that cannot be read count as zero.
func (f *Handler) GetDirSize(dir string) int64 {
	entries, err := f.osHandler.ReadDir(dir)
	if err != nil {
		return 0
	}

	var size int64

	for _, entry := range entries {
		if entry.IsDir() {
			size += f.GetDirSize(filepath.Join(dir, entry.Name()))

			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.Mode().IsRegular() {
			size += info.Size()
		}
	}

	return size
}

// FreeSpace returns the space available to unprivileged users on the
// filesystem holding path.
func (f *Handler) FreeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := f.unixHandler.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("(fs-freespace) failed to statfs: %w", err)
	}

	return uint64(stat.Bavail) * uint64(stat.Bsize), nil //nolint:gosec
}
