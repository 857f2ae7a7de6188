// Package filesystem implements the recursive copy, move, size and delete
// operations on the local filesystem.
package filesystem

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

const (
	// tmpSuffix is appended to the target path of a file copy until the
	// transfer was verified and the file is renamed to its final name.
	tmpSuffix = ".vfszip"

	dirPerms = 0o755
)

// osProvider defines operating system methods needed for tree operations.
type osProvider interface {
	EvalSymlinks(path string) (string, error)
	Lstat(name string) (os.FileInfo, error)
	Open(name string) (*os.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	ReadDir(name string) ([]os.DirEntry, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
}

// unixProvider defines Unix operating system methods needed for tree
// operations.
type unixProvider interface {
	Mkdir(path string, mode uint32) error
	Statfs(path string, buf *unix.Statfs_t) error
}

// Filter decides whether a file or directory is processed. Returning false
// vetoes the element, which is counted as filtered and never as a failure.
type Filter func(path string, info os.FileInfo) bool

// Operation describes a single copy or move request. It is constructed per
// call and never persisted.
type Operation struct {
	// Source is the path of the file or directory to process.
	Source string

	// Target is the directory the source is copied or moved into.
	Target string

	// Move requests the source to be absent after a successful operation.
	Move bool

	// CreateDir decides if a source directory becomes a new child of the
	// target (true), or if only its contents are transplanted (false).
	CreateDir bool

	// Filter can veto elements, nil accepts all.
	Filter Filter

	// Label is used to identify the operation in diagnostics.
	Label string
}

func (op Operation) accepts(path string, info os.FileInfo) bool {
	if op.Filter == nil {
		return true
	}

	return op.Filter(path, info)
}

// Result is the best-effort aggregate of a recursive operation. Failures
// of single elements are recorded, but do not stop the processing of their
// siblings.
type Result struct {
	Succeeded int
	Filtered  int
	Failed    int
	Errs      []error
}

// OK reports whether no element of the operation has failed.
func (r Result) OK() bool {
	return r.Failed == 0
}

// Err returns all recorded failures joined into one error, or nil.
func (r Result) Err() error {
	return errors.Join(r.Errs...)
}

func (r *Result) success() {
	r.Succeeded++
}

func (r *Result) filter() {
	r.Filtered++
}

func (r *Result) fail(err error) {
	r.Failed++
	r.Errs = append(r.Errs, err)
}

func (r *Result) merge(other Result) {
	r.Succeeded += other.Succeeded
	r.Filtered += other.Filtered
	r.Failed += other.Failed
	r.Errs = append(r.Errs, other.Errs...)
}

// Handler is the principal implementation for the local tree operations.
type Handler struct {
	osHandler   osProvider
	unixHandler unixProvider
}

// NewHandler returns a pointer to a new [Handler].
func NewHandler(osHandler osProvider, unixHandler unixProvider) *Handler {
	return &Handler{
		osHandler:   osHandler,
		unixHandler: unixHandler,
	}
}
