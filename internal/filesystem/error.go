package filesystem

import "errors"

var (
	// ErrNotDirectory occurs when a path that is expected to be (or become) a
	// directory already exists as a different type of filesystem element.
	ErrNotDirectory = errors.New("path exists but is not a directory")

	// ErrTargetInsideSource occurs when a directory is to be copied or moved
	// into its own subtree, which would never terminate.
	ErrTargetInsideSource = errors.New("target is inside of the source directory")

	// ErrHashMismatch occurs when there is a source/destination hash mismatch,
	// this usually means that there are underlying transfer/hardware issues.
	ErrHashMismatch = errors.New("hash mismatch")
)
