// Package vfs defines the virtual file tree the archiving engine operates
// on. A tree consists of containers (directory-like) and leaves (file-like),
// optional features such as versioning or metadata are exposed as separate
// capability interfaces which are queried at runtime.
package vfs

import (
	"io"
	"time"
)

// Item is any node of a virtual file tree.
type Item interface {
	// Name is the name of the item within its parent container.
	Name() string

	// Path is the slash-separated path of the item from the tree root,
	// which itself has the path "/".
	Path() string

	// Parent returns the container holding the item, or nil for the root.
	Parent() Container

	LastModified() time.Time
	Delete() error
	Rename(newName string) error
}

// Container is an [Item] that holds uniquely named children.
type Container interface {
	Item

	// Resolve returns the child of the given name, or nil if none exists.
	Resolve(name string) Item

	// Items returns the children in a stable order.
	Items() []Item

	// CreateChildContainer creates a new child container. An existing item
	// of the same name results in an [ErrExists].
	CreateChildContainer(name string) (Container, error)

	// CreateChildLeaf creates a new empty child leaf. An existing leaf of the
	// same name is replaced by the new one, an existing container of the
	// same name results in an [ErrExists].
	CreateChildLeaf(name string) (Leaf, error)
}

// Leaf is an [Item] that holds byte content.
type Leaf interface {
	Item

	Size() int64
	InputStream() (io.ReadCloser, error)

	// OutputStream returns a sink for new content, which either replaces
	// or extends the existing content. The content is only guaranteed to be
	// committed once the sink was closed.
	OutputStream(append bool) (io.WriteCloser, error)
}

// Identity is the acting user of an operation.
type Identity struct {
	Name string
}

// Revision describes a prior content snapshot of a versioned leaf.
type Revision struct {
	ID      string    `yaml:"id"`
	Author  string    `yaml:"author,omitempty"`
	Comment string    `yaml:"comment,omitempty"`
	Created time.Time `yaml:"created"`
	Size    int64     `yaml:"size"`
}

// Versions is the versioning capability of a leaf.
type Versions interface {
	IsVersioned() bool

	// AddVersion keeps the current content as a new [Revision] and replaces
	// it with the content read from src.
	AddVersion(actor *Identity, comment string, src io.Reader) error

	// Revisions returns the kept snapshots, oldest first.
	Revisions() []Revision
}

// Versionable is implemented by leaves that can have [Versions].
type Versionable interface {
	Versions() Versions
}

// MetaInfo is the author metadata capability of an item. Changes are only
// persisted with Write.
type MetaInfo interface {
	Author() string
	SetAuthor(name string)
	Write() error
}

// MetaTagged is implemented by items that can carry a [MetaInfo].
type MetaTagged interface {
	MetaInfo() MetaInfo
}

// LocalBacked is implemented by items that live directly on local disk.
type LocalBacked interface {
	LocalPath() string
}

// SidecarKeeper is implemented by disk backed items whose tree keeps
// metadata or versions next to the plain files, which a write that
// bypasses the tree would leave stale.
type SidecarKeeper interface {
	KeepsSidecars() bool
}

// LockChecker reports whether an item is locked against the actor. An admin
// can be allowed to bypass locks held by others.
type LockChecker interface {
	IsLocked(item Item, actor *Identity, isAdmin bool) bool
}

// LockFunc adapts a function to a [LockChecker].
type LockFunc func(item Item, actor *Identity, isAdmin bool) bool

// IsLocked calls f(item, actor, isAdmin).
func (f LockFunc) IsLocked(item Item, actor *Identity, isAdmin bool) bool {
	return f(item, actor, isAdmin)
}
