// Package archive implements the ZIP engine of the module. It creates
// archives from virtual file trees and extracts archives back onto them,
// with a fast path for extracting directly onto local disk.
package archive

import (
	"os"

	"github.com/desertwitch/vfszip/internal/vfs"
)

const (
	// MetadataPrefix marks the reserved archive path of resource fork
	// metadata, which is never extracted and never written.
	MetadataPrefix = "__MACOSX/"

	filePerms = 0o644

	opZip    = "zip"
	opUnzip  = "unzip"
	opFast   = "xxunzip"
	opLocked = "locked"
)

// osProvider defines operating system methods needed for archiving.
type osProvider interface {
	CreateTemp(dir, pattern string) (*os.File, error)
	Open(name string) (*os.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Remove(name string) error
}

// fsProvider defines tree operations needed for archiving.
type fsProvider interface {
	EnsureDirectory(path string) error
}

// UnzipOptions are the options of an extraction onto a virtual tree.
type UnzipOptions struct {
	// Identity is the acting user, whom new items are attributed to.
	// It can be nil.
	Identity *vfs.Identity

	// Versioning commits entries as new versions of existing versioned
	// leaves instead of replacing them.
	Versioning bool
}

// Handler is the principal implementation for the archiving operations.
type Handler struct {
	osHandler osProvider
	fsHandler fsProvider
}

// NewHandler returns a pointer to a new [Handler].
func NewHandler(osHandler osProvider, fsHandler fsProvider) *Handler {
	return &Handler{
		osHandler: osHandler,
		fsHandler: fsHandler,
	}
}
