package vfs

import "errors"

var (
	// ErrExists is returned when an item of the requested name already exists.
	ErrExists = errors.New("item already exists")

	// ErrNotExist is returned when a requested item does not exist.
	ErrNotExist = errors.New("item does not exist")

	// ErrNotContainer is returned when a path segment resolves to a leaf.
	ErrNotContainer = errors.New("item is not a container")

	// ErrInvalidName is returned for names which cannot be used in a container.
	ErrInvalidName = errors.New("invalid item name")

	// ErrRoot is returned for operations that cannot be applied to a root.
	ErrRoot = errors.New("operation not permitted on root")

	// ErrDetached is returned for operations on items no longer in a tree.
	ErrDetached = errors.New("item is detached from its tree")
)
