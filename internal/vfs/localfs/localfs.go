// Package localfs implements a virtual file tree on top of a local
// directory. Author metadata is kept in YAML sidecar files below a separate
// metadata root, prior leaf contents below a separate versions root. Either
// capability is disabled when its root is not configured.
package localfs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/desertwitch/vfszip/internal/filesystem"
	"github.com/desertwitch/vfszip/internal/schema"
	"github.com/desertwitch/vfszip/internal/vfs"
	"golang.org/x/sys/unix"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644

	metaSuffix   = ".meta.yml"
	tmpSuffix    = ".vfszip"
	manifestName = "versions.yml"
)

// osProvider defines operating system methods needed for the tree.
type osProvider interface {
	Lstat(name string) (os.FileInfo, error)
	Mkdir(name string, perm os.FileMode) error
	Open(name string) (*os.File, error)
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	ReadDir(name string) ([]os.DirEntry, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
}

// fsProvider defines tree operations needed for the tree.
type fsProvider interface {
	DeleteDirsAndFiles(path string, recursive, deleteRoot bool) filesystem.Result
	EnsureDirectory(path string) error
	MoveFileToDir(source, targetDir string, filter filesystem.Filter, label string) filesystem.Result
}

// Options configure the optional capabilities of a tree.
type Options struct {
	// MetaRoot is the directory holding the metadata sidecars.
	MetaRoot string

	// VersionsRoot is the directory holding the prior leaf contents.
	VersionsRoot string
}

type tree struct {
	root      string
	opts      Options
	osHandler osProvider
	fsHandler fsProvider
}

// New returns the root container of a tree on the existing directory root,
// operating on the real operating system.
func New(root string, opts Options) (*Dir, error) {
	osHandler := &schema.OS{}

	return NewWithHandlers(root, opts, osHandler, filesystem.NewHandler(osHandler, &schema.Unix{}))
}

// NewWithHandlers is as [New], but with the given providers.
func NewWithHandlers(root string, opts Options, osHandler osProvider, fsHandler fsProvider) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("(localfs-new) failed to get abs path: %w", err)
	}

	info, err := osHandler.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("(localfs-new) failed to stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("(localfs-new) %w: %s", vfs.ErrNotContainer, abs)
	}

	t := &tree{
		root:      abs,
		opts:      opts,
		osHandler: osHandler,
		fsHandler: fsHandler,
	}

	return &Dir{node{tree: t}}, nil
}

// node is an item addressed by its path relative to the tree root, using
// the separator of the operating system. The root has an empty path.
type node struct {
	tree *tree
	rel  string
}

func (n node) Name() string {
	if n.rel == "" {
		return ""
	}

	return filepath.Base(n.rel)
}

func (n node) Path() string {
	return "/" + filepath.ToSlash(n.rel)
}

func (n node) Parent() vfs.Container {
	if n.rel == "" {
		return nil
	}

	parent := filepath.Dir(n.rel)
	if parent == "." {
		parent = ""
	}

	return &Dir{node{tree: n.tree, rel: parent}}
}

func (n node) LastModified() time.Time {
	info, err := n.tree.osHandler.Stat(n.abs())
	if err != nil {
		return time.Time{}
	}

	return info.ModTime()
}

// LocalPath returns the absolute path of the item on local disk.
func (n node) LocalPath() string {
	return n.abs()
}

// KeepsSidecars reports whether the tree has a metadata or versions root.
func (n node) KeepsSidecars() bool {
	return n.tree.opts.MetaRoot != "" || n.tree.opts.VersionsRoot != ""
}

// MetaInfo returns the metadata of the item, or nil if the tree has no
// metadata root.
func (n node) MetaInfo() vfs.MetaInfo {
	if n.tree.opts.MetaRoot == "" {
		return nil
	}

	return loadMetaInfo(n)
}

func (n node) abs() string {
	return filepath.Join(n.tree.root, n.rel)
}

func (n node) child(name string) node {
	return node{tree: n.tree, rel: filepath.Join(n.rel, name)}
}

func (n node) metaPath() string {
	if n.rel == "" {
		return filepath.Join(n.tree.opts.MetaRoot, metaSuffix)
	}

	return filepath.Join(n.tree.opts.MetaRoot, n.rel) + metaSuffix
}

func (n node) metaDir() string {
	return filepath.Join(n.tree.opts.MetaRoot, n.rel)
}

func (n node) versionsDir() string {
	return filepath.Join(n.tree.opts.VersionsRoot, n.rel)
}

func (n node) rename(newName string) error {
	if err := vfs.CheckName(newName); err != nil {
		return err
	}

	if n.rel == "" {
		return fmt.Errorf("(localfs-rename) %w", vfs.ErrRoot)
	}

	target := node{tree: n.tree, rel: filepath.Join(filepath.Dir(n.rel), newName)}
	if target.rel == n.rel {
		return nil
	}

	if _, err := n.tree.osHandler.Lstat(target.abs()); err == nil {
		return fmt.Errorf("(localfs-rename) %w: %s", vfs.ErrExists, target.Path())
	}

	if err := n.tree.osHandler.Rename(n.abs(), target.abs()); err != nil {
		return fmt.Errorf("(localfs-rename) failed to rename: %w", err)
	}

	n.moveSidecars(target)

	return nil
}

// moveSidecars follows a renamed item with its metadata and versions. It is
// best-effort, as the item itself was already renamed.
func (n node) moveSidecars(target node) {
	var pairs [][2]string

	if n.tree.opts.MetaRoot != "" {
		pairs = append(pairs,
			[2]string{n.metaPath(), target.metaPath()},
			[2]string{n.metaDir(), target.metaDir()},
		)
	}
	if n.tree.opts.VersionsRoot != "" {
		pairs = append(pairs, [2]string{n.versionsDir(), target.versionsDir()})
	}

	for _, pair := range pairs {
		if err := n.tree.osHandler.Rename(pair[0], pair[1]); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failure moving sidecar of renamed item (skipped)",
				"path", pair[0],
				"target", pair[1],
				"err", err,
			)
		}
	}
}

// removeSidecars removes metadata and versions of an item.
func (n node) removeSidecars() error {
	var paths []string

	if n.tree.opts.MetaRoot != "" {
		paths = append(paths, n.metaPath(), n.metaDir())
	}
	if n.tree.opts.VersionsRoot != "" {
		paths = append(paths, n.versionsDir())
	}

	var errs []error
	for _, path := range paths {
		if res := n.tree.fsHandler.DeleteDirsAndFiles(path, true, true); !res.OK() {
			errs = append(errs, res.Err())
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("(localfs-sidecars) failed to remove: %w", err)
	}

	return nil
}

// Dir is a container of a local tree.
type Dir struct {
	node
}

func (d *Dir) Delete() error {
	if d.rel == "" {
		return fmt.Errorf("(localfs-delete) %w", vfs.ErrRoot)
	}

	if res := d.tree.fsHandler.DeleteDirsAndFiles(d.abs(), true, true); !res.OK() {
		return fmt.Errorf("(localfs-delete) failed to delete %s: %w", d.Path(), res.Err())
	}

	return d.removeSidecars()
}

func (d *Dir) Rename(newName string) error {
	if err := d.rename(newName); err != nil {
		return err
	}

	d.rel = filepath.Join(filepath.Dir(d.rel), newName)

	return nil
}

func (d *Dir) Resolve(name string) vfs.Item {
	if vfs.CheckName(name) != nil {
		return nil
	}

	child := d.child(name)

	info, err := d.tree.osHandler.Lstat(child.abs())
	if err != nil {
		return nil
	}

	return itemFor(child, info.Mode())
}

func (d *Dir) Items() []vfs.Item {
	entries, err := d.tree.osHandler.ReadDir(d.abs())
	if err != nil {
		slog.Debug("Failure reading container (skipped)",
			"path", d.Path(),
			"err", err,
		)

		return nil
	}

	items := make([]vfs.Item, 0, len(entries))
	for _, entry := range entries {
		if item := itemFor(d.child(entry.Name()), entry.Type()); item != nil {
			items = append(items, item)
		}
	}

	return items
}

func (d *Dir) CreateChildContainer(name string) (vfs.Container, error) {
	if err := vfs.CheckName(name); err != nil {
		return nil, err
	}

	child := d.child(name)

	if err := d.tree.osHandler.Mkdir(child.abs(), dirPerms); err != nil {
		if errors.Is(err, fs.ErrExist) || errors.Is(err, unix.EEXIST) {
			return nil, fmt.Errorf("(localfs-mkdir) %w: %s", vfs.ErrExists, child.Path())
		}

		return nil, fmt.Errorf("(localfs-mkdir) failed to mkdir: %w", err)
	}

	return &Dir{child}, nil
}

func (d *Dir) CreateChildLeaf(name string) (vfs.Leaf, error) {
	if err := vfs.CheckName(name); err != nil {
		return nil, err
	}

	child := d.child(name)

	if info, err := d.tree.osHandler.Lstat(child.abs()); err == nil {
		if info.IsDir() {
			return nil, fmt.Errorf("(localfs-create) %w: %s", vfs.ErrExists, child.Path())
		}

		if err := d.tree.osHandler.Remove(child.abs()); err != nil {
			return nil, fmt.Errorf("(localfs-create) failed to replace existing: %w", err)
		}
		if err := child.removeSidecars(); err != nil {
			return nil, err
		}
	}

	f, err := d.tree.osHandler.OpenFile(child.abs(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerms)
	if err != nil {
		return nil, fmt.Errorf("(localfs-create) failed to create: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("(localfs-create) failed to close: %w", err)
	}

	return &File{child}, nil
}

func itemFor(n node, mode fs.FileMode) vfs.Item {
	switch {
	case mode.IsDir():
		return &Dir{n}
	case mode.IsRegular():
		return &File{n}
	}

	return nil
}
