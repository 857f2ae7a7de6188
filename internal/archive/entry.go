package archive

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// entryName is a normalized archive entry name.
type entryName struct {
	segments []string
	isDir    bool
}

func (e entryName) String() string {
	return strings.Join(e.segments, "/")
}

// parent returns the segments of the containers holding the entry.
func (e entryName) parent() []string {
	if e.isDir {
		return e.segments
	}

	return e.segments[:len(e.segments)-1]
}

func (e entryName) leaf() string {
	return e.segments[len(e.segments)-1]
}

// parseEntryName normalizes the name of an archive entry. Names using only
// backslashes as separators are accepted as written on Windows, a trailing
// separator marks a directory.
func parseEntryName(raw string) (entryName, error) {
	if !utf8.ValidString(raw) {
		return entryName{}, fmt.Errorf("(archive-entry) %w: %q", ErrMalformedEntryName, raw)
	}

	name := raw
	if !strings.Contains(name, "/") {
		name = strings.ReplaceAll(name, "\\", "/")
	}

	if strings.HasPrefix(name, MetadataPrefix) {
		return entryName{}, fmt.Errorf("(archive-entry) %w: %s", ErrReservedEntry, raw)
	}

	if strings.HasPrefix(name, "/") || isDriveLetter(name) {
		return entryName{}, fmt.Errorf("(archive-entry) %w: %s", ErrUnsafeEntryName, raw)
	}

	entry := entryName{isDir: strings.HasSuffix(name, "/")}

	for _, segment := range strings.Split(name, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			return entryName{}, fmt.Errorf("(archive-entry) %w: %s", ErrUnsafeEntryName, raw)
		}
		if strings.ContainsRune(segment, 0) {
			return entryName{}, fmt.Errorf("(archive-entry) %w: %s", ErrUnsafeEntryName, raw)
		}
		entry.segments = append(entry.segments, segment)
	}

	if len(entry.segments) == 0 {
		return entryName{}, fmt.Errorf("(archive-entry) %w: %q", ErrUnsafeEntryName, raw)
	}

	return entry, nil
}

func isDriveLetter(name string) bool {
	return len(name) >= 2 && name[1] == ':' &&
		((name[0] >= 'a' && name[0] <= 'z') || (name[0] >= 'A' && name[0] <= 'Z'))
}
