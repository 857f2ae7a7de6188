package localfs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/desertwitch/vfszip/internal/vfs"
)

// File is a leaf of a local tree.
type File struct {
	node
}

func (f *File) Delete() error {
	if err := f.tree.osHandler.Remove(f.abs()); err != nil {
		return fmt.Errorf("(localfs-delete) failed to remove %s: %w", f.Path(), err)
	}

	return f.removeSidecars()
}

func (f *File) Rename(newName string) error {
	if err := f.rename(newName); err != nil {
		return err
	}

	f.rel = filepath.Join(filepath.Dir(f.rel), newName)

	return nil
}

func (f *File) Size() int64 {
	info, err := f.tree.osHandler.Stat(f.abs())
	if err != nil {
		return 0
	}

	return info.Size()
}

// InputStream returns the opened file, which also serves random access.
func (f *File) InputStream() (io.ReadCloser, error) {
	file, err := f.tree.osHandler.Open(f.abs())
	if err != nil {
		return nil, fmt.Errorf("(localfs-read) failed to open: %w", err)
	}

	return file, nil
}

func (f *File) OutputStream(append bool) (io.WriteCloser, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	file, err := f.tree.osHandler.OpenFile(f.abs(), flags, filePerms)
	if err != nil {
		return nil, fmt.Errorf("(localfs-write) failed to open: %w", err)
	}

	return file, nil
}

// Versions returns the versioning capability, or nil if the tree has no
// versions root.
func (f *File) Versions() vfs.Versions {
	if f.tree.opts.VersionsRoot == "" {
		return nil
	}

	return &versions{file: f}
}
