package validation

import "errors"

var (
	// ErrFilenameEmpty occurs when an empty string is given as a filename.
	ErrFilenameEmpty = errors.New("filename is empty")

	// ErrFilenameNotPrintable occurs when a filename contains a character
	// outside of the printable Latin-1 range that is not explicitly accepted.
	ErrFilenameNotPrintable = errors.New("filename contains non-printable character")

	// ErrFilenameForbiddenChar occurs when a filename contains a character
	// that is hostile to at least one of the supported filesystems.
	ErrFilenameForbiddenChar = errors.New("filename contains forbidden character")

	// ErrFilenameTraversal occurs when a filename contains a ".." sequence,
	// which could be used to escape the containing directory.
	ErrFilenameTraversal = errors.New("filename contains directory traversal")
)
