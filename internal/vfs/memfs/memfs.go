// Package memfs implements an in-memory virtual file tree. Children keep
// their insertion order, leaves can optionally be versioned and all items
// can optionally carry author metadata.
package memfs

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/desertwitch/vfszip/internal/vfs"
	"github.com/google/uuid"
)

// Options configure the capabilities of a new tree.
type Options struct {
	// Versioning enables the [vfs.Versions] capability on all leaves.
	Versioning bool

	// Metadata enables the [vfs.MetaInfo] capability on all items.
	Metadata bool

	// Clock returns the current time, [time.Now] if nil.
	Clock func() time.Time
}

type tree struct {
	sync.Mutex
	opts Options
}

func (t *tree) now() time.Time {
	if t.opts.Clock != nil {
		return t.opts.Clock()
	}

	return time.Now()
}

type node struct {
	tree     *tree
	name     string
	parent   *Dir
	modified time.Time
	meta     *metaInfo
}

// New returns the root container of a new, empty tree.
func New(opts Options) *Dir {
	t := &tree{opts: opts}

	return &Dir{node: newNode(t, "", nil)}
}

func newNode(t *tree, name string, parent *Dir) node {
	n := node{
		tree:     t,
		name:     name,
		parent:   parent,
		modified: t.now(),
	}
	if t.opts.Metadata {
		n.meta = &metaInfo{tree: t}
	}

	return n
}

func (n *node) Name() string {
	n.tree.Lock()
	defer n.tree.Unlock()

	return n.name
}

func (n *node) Path() string {
	n.tree.Lock()
	defer n.tree.Unlock()

	return n.path()
}

func (n *node) path() string {
	if n.parent == nil {
		return "/"
	}

	return vfs.JoinPath(n.parent.path(), n.name)
}

func (n *node) Parent() vfs.Container {
	n.tree.Lock()
	defer n.tree.Unlock()

	if n.parent == nil {
		return nil
	}

	return n.parent
}

func (n *node) LastModified() time.Time {
	n.tree.Lock()
	defer n.tree.Unlock()

	return n.modified
}

// MetaInfo returns the metadata of the item, or nil if the tree was created
// without metadata.
func (n *node) MetaInfo() vfs.MetaInfo {
	if n.meta == nil {
		return nil
	}

	return n.meta
}

func (n *node) detach(self vfs.Item) error {
	if n.parent == nil {
		if n.name == "" {
			return fmt.Errorf("(memfs-delete) %w", vfs.ErrRoot)
		}

		return fmt.Errorf("(memfs-delete) %w: %s", vfs.ErrDetached, n.name)
	}

	n.parent.children = slices.DeleteFunc(n.parent.children, func(child vfs.Item) bool {
		return child == self
	})
	n.parent.modified = n.tree.now()
	n.parent = nil

	return nil
}

func (n *node) rename(newName string) error {
	if err := vfs.CheckName(newName); err != nil {
		return err
	}

	if n.parent == nil {
		return fmt.Errorf("(memfs-rename) %w", vfs.ErrRoot)
	}

	if newName == n.name {
		return nil
	}

	if n.parent.lookup(newName) != nil {
		return fmt.Errorf("(memfs-rename) %w: %s", vfs.ErrExists, vfs.JoinPath(n.parent.path(), newName))
	}

	n.name = newName
	n.modified = n.tree.now()

	return nil
}

// Dir is a container of an in-memory tree.
type Dir struct {
	node
	children []vfs.Item
}

func (d *Dir) Delete() error {
	d.tree.Lock()
	defer d.tree.Unlock()

	return d.detach(d)
}

func (d *Dir) Rename(newName string) error {
	d.tree.Lock()
	defer d.tree.Unlock()

	return d.rename(newName)
}

func (d *Dir) Resolve(name string) vfs.Item {
	d.tree.Lock()
	defer d.tree.Unlock()

	return d.lookup(name)
}

func (d *Dir) lookup(name string) vfs.Item {
	for _, child := range d.children {
		if childName(child) == name {
			return child
		}
	}

	return nil
}

func (d *Dir) Items() []vfs.Item {
	d.tree.Lock()
	defer d.tree.Unlock()

	return slices.Clone(d.children)
}

func (d *Dir) CreateChildContainer(name string) (vfs.Container, error) {
	if err := vfs.CheckName(name); err != nil {
		return nil, err
	}

	d.tree.Lock()
	defer d.tree.Unlock()

	if d.lookup(name) != nil {
		return nil, fmt.Errorf("(memfs-mkdir) %w: %s", vfs.ErrExists, vfs.JoinPath(d.path(), name))
	}

	child := &Dir{node: newNode(d.tree, name, d)}
	d.children = append(d.children, child)
	d.modified = child.modified

	return child, nil
}

func (d *Dir) CreateChildLeaf(name string) (vfs.Leaf, error) {
	if err := vfs.CheckName(name); err != nil {
		return nil, err
	}

	d.tree.Lock()
	defer d.tree.Unlock()

	switch existing := d.lookup(name).(type) {
	case nil:
	case *File:
		if err := existing.detach(existing); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("(memfs-create) %w: %s", vfs.ErrExists, vfs.JoinPath(d.path(), name))
	}

	child := &File{node: newNode(d.tree, name, d)}
	d.children = append(d.children, child)
	d.modified = child.modified

	return child, nil
}

// File is a leaf of an in-memory tree.
type File struct {
	node
	data      []byte
	revisions []revision
}

type revision struct {
	vfs.Revision
	data []byte
}

func (f *File) Delete() error {
	f.tree.Lock()
	defer f.tree.Unlock()

	return f.detach(f)
}

func (f *File) Rename(newName string) error {
	f.tree.Lock()
	defer f.tree.Unlock()

	return f.rename(newName)
}

func (f *File) Size() int64 {
	f.tree.Lock()
	defer f.tree.Unlock()

	return int64(len(f.data))
}

// Bytes returns a copy of the current content.
func (f *File) Bytes() []byte {
	f.tree.Lock()
	defer f.tree.Unlock()

	return bytes.Clone(f.data)
}

func (f *File) InputStream() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Bytes())), nil
}

func (f *File) OutputStream(append bool) (io.WriteCloser, error) {
	return &writer{file: f, append: append}, nil
}

// Versions returns the versioning capability, or nil if the tree was
// created without versioning.
func (f *File) Versions() vfs.Versions {
	if !f.tree.opts.Versioning {
		return nil
	}

	return (*versions)(f)
}

type writer struct {
	file   *File
	append bool
	buf    bytes.Buffer
	closed bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}

	return w.buf.Write(p)
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	f := w.file
	f.tree.Lock()
	defer f.tree.Unlock()

	if w.append {
		f.data = append(f.data, w.buf.Bytes()...)
	} else {
		f.data = bytes.Clone(w.buf.Bytes())
	}
	f.modified = f.tree.now()

	return nil
}

type versions File

func (v *versions) IsVersioned() bool {
	return v.tree.opts.Versioning
}

func (v *versions) AddVersion(actor *vfs.Identity, comment string, src io.Reader) error {
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("(memfs-version) failed to read new content: %w", err)
	}

	v.tree.Lock()
	defer v.tree.Unlock()

	rev := revision{
		Revision: vfs.Revision{
			ID:      uuid.NewString(),
			Comment: comment,
			Created: v.tree.now(),
			Size:    int64(len(v.data)),
		},
		data: v.data,
	}
	if actor != nil {
		rev.Author = actor.Name
	}

	v.revisions = append(v.revisions, rev)
	v.data = data
	v.modified = rev.Created

	return nil
}

func (v *versions) Revisions() []vfs.Revision {
	v.tree.Lock()
	defer v.tree.Unlock()

	revs := make([]vfs.Revision, 0, len(v.revisions))
	for _, rev := range v.revisions {
		revs = append(revs, rev.Revision)
	}

	return revs
}

// RevisionBytes returns the content kept for a revision.
func (f *File) RevisionBytes(id string) ([]byte, bool) {
	f.tree.Lock()
	defer f.tree.Unlock()

	for _, rev := range f.revisions {
		if rev.ID == id {
			return bytes.Clone(rev.data), true
		}
	}

	return nil, false
}

type metaInfo struct {
	tree    *tree
	pending string
	author  string
}

func (m *metaInfo) Author() string {
	m.tree.Lock()
	defer m.tree.Unlock()

	return m.author
}

func (m *metaInfo) SetAuthor(name string) {
	m.tree.Lock()
	defer m.tree.Unlock()

	m.pending = name
}

func (m *metaInfo) Write() error {
	m.tree.Lock()
	defer m.tree.Unlock()

	m.author = m.pending

	return nil
}

func childName(item vfs.Item) string {
	switch c := item.(type) {
	case *Dir:
		return c.name
	case *File:
		return c.name
	}

	return ""
}
