package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
)

// DeleteDirsAndFiles deletes the files within a directory and, if
// recursive, all of its subdirectories. With deleteRoot the directory itself
// is removed as well (or, for a file path, the file). It is best-effort and
// continues past elements that fail to be removed.
func (f *Handler) DeleteDirsAndFiles(path string, recursive, deleteRoot bool) Result {
	var res Result

	info, err := f.osHandler.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.success()

			return res
		}
		res.fail(fmt.Errorf("(fs-delete) failed to lstat: %w", err))

		return res
	}

	if !info.IsDir() {
		if deleteRoot {
			f.remove(path, &res)
		}

		return res
	}

	entries, err := f.osHandler.ReadDir(path)
	if err != nil {
		res.fail(fmt.Errorf("(fs-delete) failed to readdir: %w", err))
	} else {
		for _, entry := range entries {
			child := filepath.Join(path, entry.Name())

			if entry.IsDir() {
				if recursive {
					res.merge(f.DeleteDirsAndFiles(child, true, true))
				}

				continue
			}

			f.remove(child, &res)
		}
	}

	if deleteRoot {
		f.remove(path, &res)
	}

	return res
}

func (f *Handler) remove(path string, res *Result) {
	if err := f.osHandler.Remove(path); err != nil {
		slog.Warn("Failure removing filesystem element (skipped)",
			"path", path,
			"err", err,
		)
		res.fail(fmt.Errorf("(fs-delete) failed to remove %s: %w", path, err))

		return
	}

	res.success()
}
