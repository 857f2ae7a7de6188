package validation

import (
	"slices"
	"strings"
)

//nolint:gochecknoglobals
var (
	// forbiddenRunes are never allowed within a filename.
	forbiddenRunes = sortedRunes('/', '\n', '\r', '\t', '\f', '`', '?', '*', '\\', '<', '>', '|', '"', ':')

	// acceptedRunes are always allowed within a filename, even if they fall
	// outside of the printable Latin-1 range.
	acceptedRunes = sortedRunes('ä', 'Ä', 'ü', 'Ü', 'ö', 'Ö', ' ')
)

const (
	printableMin = 33
	printableMax = 255
)

func sortedRunes(runes ...rune) []rune {
	slices.Sort(runes)

	return runes
}

// ValidateFilename reports whether name is safe to be used as the name of a
// file or directory on any of the supported backends.
func ValidateFilename(name string) bool {
	return CheckFilename(name) == nil
}

// CheckFilename validates a filename, returning the reason for rejection. A
// name is valid if each of its characters is either explicitly accepted or
// printable Latin-1 without being filesystem-hostile, and it does not contain
// a directory traversal sequence.
func CheckFilename(name string) error {
	if name == "" {
		return ErrFilenameEmpty
	}

	for _, r := range name {
		if _, found := slices.BinarySearch(acceptedRunes, r); found {
			continue
		}
		if r < printableMin || r > printableMax {
			return ErrFilenameNotPrintable
		}
		if _, found := slices.BinarySearch(forbiddenRunes, r); found {
			return ErrFilenameForbiddenChar
		}
	}

	if strings.Contains(name, "..") {
		return ErrFilenameTraversal
	}

	return nil
}
