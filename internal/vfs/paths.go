package vfs

import (
	"fmt"
	"path"
	"strings"
)

// SplitPath splits a slash-separated path into its segments, ignoring empty
// and "." segments.
func SplitPath(p string) []string {
	parts := strings.Split(p, "/")
	segments := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		segments = append(segments, part)
	}

	return segments
}

// JoinPath joins a parent path and a child name into an item path.
func JoinPath(parent, name string) string {
	return path.Join("/", parent, name)
}

// CheckName returns an [ErrInvalidName] for names that cannot denote a
// single child of a container.
func CheckName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("(vfs-checkname) %w: %q", ErrInvalidName, name)
	}

	return nil
}

// ResolvePath walks the segments down from root and returns the final item,
// or nil when any segment is missing or an intermediate one is not a
// container. No segments resolve to root itself.
func ResolvePath(root Container, segments []string) Item {
	var current Item = root

	for _, segment := range segments {
		container, ok := current.(Container)
		if !ok {
			return nil
		}

		current = container.Resolve(segment)
		if current == nil {
			return nil
		}
	}

	return current
}

// EnsureContainers walks the segments down from root, creating every missing
// container on the way, and returns the last one. Newly created containers
// are stamped with the author, if given. A segment resolving to a leaf
// results in an [ErrNotContainer].
func EnsureContainers(root Container, segments []string, author *Identity) (Container, error) {
	current := root

	for _, segment := range segments {
		child := current.Resolve(segment)

		if child == nil {
			created, err := current.CreateChildContainer(segment)
			if err != nil {
				return nil, fmt.Errorf("(vfs-ensure) failed to create %s: %w", JoinPath(current.Path(), segment), err)
			}
			stampOrWarn(created, author)
			current = created

			continue
		}

		container, ok := child.(Container)
		if !ok {
			return nil, fmt.Errorf("(vfs-ensure) %w: %s", ErrNotContainer, child.Path())
		}
		current = container
	}

	return current, nil
}

// Walk calls fn for the item and, for a container, all of its descendants in
// depth-first order. Walking stops at the first error returned by fn.
func Walk(item Item, fn func(item Item) error) error {
	if err := fn(item); err != nil {
		return err
	}

	container, ok := item.(Container)
	if !ok {
		return nil
	}

	for _, child := range container.Items() {
		if err := Walk(child, fn); err != nil {
			return err
		}
	}

	return nil
}
