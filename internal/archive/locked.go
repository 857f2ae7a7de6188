package archive

import (
	"log/slog"

	"github.com/desertwitch/vfszip/internal/metrics"
	"github.com/desertwitch/vfszip/internal/vfs"
)

// CheckLockedEntries returns the paths of all leaves in target which an
// extraction of the archive leaf would overwrite, and which the lock
// checker reports as locked against the actor. Nothing is modified. An
// entry whose parent does not exist yet cannot overwrite anything.
func (h *Handler) CheckLockedEntries(zipLeaf vfs.Leaf, target vfs.Container, actor *vfs.Identity, isAdmin bool, locks vfs.LockChecker) (locked []string, retErr error) {
	defer func() {
		metrics.RecordOperation(opLocked, retErr == nil)
	}()

	zr, closeArchive, err := h.openArchive(zipLeaf)
	if err != nil {
		return nil, err
	}
	defer closeArchive()

	for _, file := range zr.File {
		entry, err := parseEntryName(file.Name)
		if err != nil || entry.isDir {
			continue
		}

		parent, ok := vfs.ResolvePath(target, entry.parent()).(vfs.Container)
		if !ok {
			continue
		}

		leaf, ok := parent.Resolve(entry.leaf()).(vfs.Leaf)
		if !ok {
			continue
		}

		if locks.IsLocked(leaf, actor, isAdmin) {
			slog.Debug("Found locked extraction target:",
				"entry", entry.String(),
				"path", leaf.Path(),
			)
			locked = append(locked, entry.String())
		}
	}

	return locked, nil
}
