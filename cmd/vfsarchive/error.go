package main

import "errors"

var (
	// errLockedEntries is returned when an extraction would overwrite locked
	// leaves.
	errLockedEntries = errors.New("archive would overwrite locked entries")

	// errInvalidNames is returned when validated filenames are invalid.
	errInvalidNames = errors.New("invalid filenames")

	// errNotArchive is returned when the archive path is not a file.
	errNotArchive = errors.New("archive is not a file")

	// errTreeOperation is returned when a tree operation had failures.
	errTreeOperation = errors.New("tree operation had failures")
)
