package archive

import "errors"

var (
	// ErrTargetExists is returned when the target of a new archive exists.
	ErrTargetExists = errors.New("archive target already exists")

	// ErrParentResolution is returned when the parent chain of an archive
	// entry cannot be resolved or created.
	ErrParentResolution = errors.New("failed to resolve entry parent")

	// ErrMalformedEntryName is returned for entry names that are not valid
	// UTF-8.
	ErrMalformedEntryName = errors.New("malformed entry name")

	// ErrUnsafeEntryName is returned for entry names that are absolute or
	// would traverse out of the extraction target.
	ErrUnsafeEntryName = errors.New("unsafe entry name")

	// ErrReservedEntry is returned for entry names below [MetadataPrefix].
	ErrReservedEntry = errors.New("reserved entry name")

	// ErrNotLeaf is returned when an archive to read is not a leaf.
	ErrNotLeaf = errors.New("archive is not a leaf")
)
