package vfs

import (
	"fmt"
	"log/slog"
	"path/filepath"
)

// AsVersionable returns the versioning capability of an item, if the item
// has one. A leaf that could hold versions but has versioning disabled is
// still returned, callers need to consult [Versions.IsVersioned].
func AsVersionable(item Item) (Versions, bool) {
	v, ok := item.(Versionable)
	if !ok {
		return nil, false
	}

	versions := v.Versions()

	return versions, versions != nil
}

// AsMetaTagged returns the metadata capability of an item, or nil.
func AsMetaTagged(item Item) MetaInfo {
	m, ok := item.(MetaTagged)
	if !ok {
		return nil
	}

	return m.MetaInfo()
}

// LocalPath returns the local disk path of an item, if it is disk backed.
func LocalPath(item Item) (string, bool) {
	l, ok := item.(LocalBacked)
	if !ok {
		return "", false
	}

	path := l.LocalPath()

	return path, path != ""
}

// KeepsSidecars reports whether the tree of the item keeps sidecar data.
func KeepsSidecars(item Item) bool {
	k, ok := item.(SidecarKeeper)

	return ok && k.KeepsSidecars()
}

// SameItem reports whether a and b denote the same item, also across two
// trees. Disk backed items are the same when their local paths are, others
// only when they are the same handle.
func SameItem(a, b Item) bool {
	if a == nil || b == nil {
		return false
	}

	pathA, okA := LocalPath(a)
	pathB, okB := LocalPath(b)
	if okA && okB {
		return filepath.Clean(pathA) == filepath.Clean(pathB)
	}

	return a == b
}

// Stamp records the author on an item with metadata capability. Items
// without that capability, or a nil author, are left alone.
func Stamp(item Item, author *Identity) error {
	if author == nil {
		return nil
	}

	meta := AsMetaTagged(item)
	if meta == nil {
		return nil
	}

	meta.SetAuthor(author.Name)

	if err := meta.Write(); err != nil {
		return fmt.Errorf("(vfs-stamp) failed to write metadata of %s: %w", item.Path(), err)
	}

	return nil
}

func stampOrWarn(item Item, author *Identity) {
	if err := Stamp(item, author); err != nil {
		slog.Warn("Failure stamping author metadata (skipped)",
			"path", item.Path(),
			"err", err,
		)
	}
}
