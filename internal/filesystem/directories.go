package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// CopyDirToDir copies a directory, including itself, into a target
// directory.
func (f *Handler) CopyDirToDir(source, targetDir string, filter Filter, label string) Result {
	return f.dirToDir(Operation{
		Source:    source,
		Target:    targetDir,
		CreateDir: true,
		Filter:    filter,
		Label:     label,
	})
}

// MoveDirToDir moves a directory, including itself, into a target directory.
// A rename of the entire directory is attempted first, a recursive copy with
// a following removal of the source is the fallback.
func (f *Handler) MoveDirToDir(source, targetDir string, filter Filter, label string) Result {
	return f.dirToDir(Operation{
		Source:    source,
		Target:    targetDir,
		Move:      true,
		CreateDir: true,
		Filter:    filter,
		Label:     label,
	})
}

// CopyDirContentsToDir copies (or moves) only the contents of a directory
// into a target directory.
func (f *Handler) CopyDirContentsToDir(source, targetDir string, move bool, filter Filter, label string) Result {
	return f.dirToDir(Operation{
		Source: source,
		Target: targetDir,
		Move:   move,
		Filter: filter,
		Label:  label,
	})
}

func (f *Handler) dirToDir(op Operation) Result {
	var res Result

	info, err := f.osHandler.Stat(op.Source)
	if err != nil {
		res.fail(fmt.Errorf("(fs-dirtodir) failed to stat src: %w", err))

		return res
	}

	if !info.IsDir() {
		return f.fileToDir(op)
	}

	if !op.accepts(op.Source, info) {
		res.filter()

		return res
	}

	targetPath := op.Target
	if op.CreateDir {
		targetPath = filepath.Join(op.Target, filepath.Base(op.Source))
	}

	canonicalSource := f.canonicalPath(op.Source)
	canonicalTarget := f.canonicalPath(targetPath)

	if canonicalSource == canonicalTarget {
		slog.Debug("Skipped copy of directory onto itself",
			"path", op.Source,
			"label", op.Label,
		)
		res.success()

		return res
	}

	if strings.HasPrefix(canonicalTarget, canonicalSource+string(filepath.Separator)) {
		res.fail(fmt.Errorf("(fs-dirtodir) %w: %s", ErrTargetInsideSource, targetPath))

		return res
	}

	if op.Move && op.CreateDir {
		if _, err := f.osHandler.Stat(targetPath); errors.Is(err, fs.ErrNotExist) {
			if err := f.EnsureDirectory(op.Target); err != nil {
				res.fail(fmt.Errorf("(fs-dirtodir) failed to ensure target dir: %w", err))

				return res
			}

			err := f.osHandler.Rename(op.Source, targetPath)
			if err == nil {
				res.success()

				return res
			}
			logRenameFallback(op, targetPath, err)
		}
	}

	if err := f.EnsureDirectory(targetPath); err != nil {
		res.fail(fmt.Errorf("(fs-dirtodir) failed to ensure target dir: %w", err))

		return res
	}

	entries, err := f.osHandler.ReadDir(op.Source)
	if err != nil {
		res.fail(fmt.Errorf("(fs-dirtodir) failed to readdir: %w", err))

		return res
	}

	var children Result
	for _, entry := range entries {
		childOp := op
		childOp.Source = filepath.Join(op.Source, entry.Name())
		childOp.Target = targetPath
		childOp.CreateDir = true

		if entry.IsDir() {
			children.merge(f.dirToDir(childOp))
		} else {
			children.merge(f.fileToDir(childOp))
		}
	}
	res.merge(children)

	if op.Move && children.OK() {
		if children.Filtered > 0 {
			slog.Debug("Kept source directory of move with filtered contents",
				"path", op.Source,
				"label", op.Label,
			)

			return res
		}

		if del := f.DeleteDirsAndFiles(op.Source, true, true); !del.OK() {
			res.fail(fmt.Errorf("(fs-dirtodir) failed to remove src after move: %w", del.Err()))
		}
	}

	return res
}

// EnsureDirectory makes sure that a directory and all its parents exist. It
// walks upwards until an existing ancestor is found and then creates the
// missing directories top-down.
func (f *Handler) EnsureDirectory(path string) error {
	current := filepath.Clean(path)

	var missing []string

	for {
		info, err := f.osHandler.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return fmt.Errorf("(fs-ensuredir) %w: %s", ErrNotDirectory, current)
			}

			break
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, unix.ENOTDIR) {
			return fmt.Errorf("(fs-ensuredir) failed to stat %s: %w", current, err)
		}

		missing = append(missing, current)

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	for i := len(missing) - 1; i >= 0; i-- {
		if err := f.unixHandler.Mkdir(missing[i], dirPerms); err != nil && !errors.Is(err, unix.EEXIST) {
			return fmt.Errorf("(fs-ensuredir) failed to mkdir %s: %w", missing[i], err)
		}
	}

	return nil
}
