package filesystem

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/desertwitch/vfszip/internal/streams"
	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

// CopyFileToDir copies a file into a target directory, which is created if
// missing. A directory source is handled as by [Handler.CopyDirToDir].
func (f *Handler) CopyFileToDir(source, targetDir string, filter Filter, label string) Result {
	return f.fileToDir(Operation{
		Source: source,
		Target: targetDir,
		Filter: filter,
		Label:  label,
	})
}

// MoveFileToDir moves a file into a target directory, which is created if
// missing. A rename is attempted first, a copy with a following removal of
// the source is the fallback (e.g. when crossing filesystems). A directory
// source is handled as by [Handler.MoveDirToDir].
func (f *Handler) MoveFileToDir(source, targetDir string, filter Filter, label string) Result {
	return f.fileToDir(Operation{
		Source: source,
		Target: targetDir,
		Move:   true,
		Filter: filter,
		Label:  label,
	})
}

func (f *Handler) fileToDir(op Operation) Result {
	var res Result

	info, err := f.osHandler.Stat(op.Source)
	if err != nil {
		res.fail(fmt.Errorf("(fs-filetodir) failed to stat src: %w", err))

		return res
	}

	if info.IsDir() {
		op.CreateDir = true

		return f.dirToDir(op)
	}

	if !op.accepts(op.Source, info) {
		res.filter()

		return res
	}

	if err := f.EnsureDirectory(op.Target); err != nil {
		res.fail(fmt.Errorf("(fs-filetodir) failed to ensure target dir: %w", err))

		return res
	}

	targetPath := filepath.Join(op.Target, filepath.Base(op.Source))

	if f.isSamePath(op.Source, targetPath) {
		// Some platforms truncate a file that is copied onto itself.
		slog.Debug("Skipped copy of file onto itself",
			"path", op.Source,
			"label", op.Label,
		)
		res.success()

		return res
	}

	if op.Move {
		err := f.osHandler.Rename(op.Source, targetPath)
		if err == nil {
			res.success()

			return res
		}
		logRenameFallback(op, targetPath, err)
	}

	if err := f.copyFile(op.Source, targetPath, info.Mode().Perm()); err != nil {
		res.fail(fmt.Errorf("(fs-filetodir) failed to copy %s: %w", op.Source, err))

		return res
	}

	if op.Move {
		if err := f.osHandler.Remove(op.Source); err != nil {
			res.fail(fmt.Errorf("(fs-filetodir) failed to remove src after move: %w", err))

			return res
		}
	}

	res.success()

	return res
}

// copyFile copies src to dst by way of a temporary sibling of dst. Only a
// verified copy replaces dst, so an existing dst is never left half-written.
func (f *Handler) copyFile(src, dst string, perm os.FileMode) error {
	var transferComplete bool

	srcFile, err := f.osHandler.Open(src)
	if err != nil {
		return fmt.Errorf("(fs-copyfile) failed to open src: %w", err)
	}
	defer srcFile.Close()

	tmpPath := dst + tmpSuffix
	defer func() {
		if !transferComplete {
			f.osHandler.Remove(tmpPath) //nolint:errcheck
		}
	}()

	dstFile, err := f.osHandler.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("(fs-copyfile) failed to open dst: %w", err)
	}
	defer dstFile.Close()

	srcHasher := blake3.New()
	if _, err := streams.Copy(dstFile, io.TeeReader(srcFile, srcHasher)); err != nil {
		return fmt.Errorf("(fs-copyfile) failed to copy: %w", err)
	}

	if err := dstFile.Sync(); err != nil {
		return fmt.Errorf("(fs-copyfile) failed to sync dst: %w", err)
	}

	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("(fs-copyfile) failed to close dst: %w", err)
	}

	dstChecksum, err := f.checksum(tmpPath)
	if err != nil {
		return fmt.Errorf("(fs-copyfile) failed to hash dst: %w", err)
	}

	srcChecksum := hex.EncodeToString(srcHasher.Sum(nil))
	if srcChecksum != dstChecksum {
		return fmt.Errorf("(fs-copyfile) %w: %s (src) != %s (dst)", ErrHashMismatch, srcChecksum, dstChecksum)
	}

	if err := f.osHandler.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("(fs-copyfile) failed to rename tmp to dst: %w", err)
	}

	transferComplete = true

	return nil
}

func (f *Handler) checksum(path string) (string, error) {
	file, err := f.osHandler.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := streams.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// canonicalPath returns the absolute path with all symbolic links resolved.
// For a path that does not exist, the deepest existing parent is resolved.
func (f *Handler) canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	if resolved, err := f.osHandler.EvalSymlinks(abs); err == nil {
		return resolved
	}

	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}

	return filepath.Join(f.canonicalPath(parent), filepath.Base(abs))
}

func (f *Handler) isSamePath(a, b string) bool {
	return f.canonicalPath(a) == f.canonicalPath(b)
}

func logRenameFallback(op Operation, target string, err error) {
	reason := "rename failed"
	if errors.Is(err, unix.EXDEV) {
		reason = "cross-device"
	}

	slog.Debug("Falling back to copy for move:",
		"path", op.Source,
		"target", target,
		"reason", reason,
		"label", op.Label,
		"err", err,
	)
}
