package archive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/desertwitch/vfszip/internal/metrics"
	"github.com/desertwitch/vfszip/internal/streams"
	"github.com/desertwitch/vfszip/internal/vfs"
	"github.com/klauspost/compress/zip"
)

const versionComment = "unzip"

// Unzip extracts the archive leaf into the target container. The entries
// are processed in archive order, directory entries create their container
// chain, file entries create their parent chain and a new leaf. With
// versioning enabled, an existing versioned leaf receives the entry as a
// new version instead. New items are attributed to the identity, if given.
//
// Entries below [MetadataPrefix] and entries with unsafe names are skipped.
// A malformed entry name, an unresolvable parent or any I/O failure abort
// the extraction, with the content extracted until then being kept.
//
// Targets on local disk are handed to the fast path of [Handler.UnzipToDir]
// when neither identity nor versioning are requested and the target tree
// keeps no sidecar data.
func (h *Handler) Unzip(zipLeaf vfs.Leaf, target vfs.Container, opts UnzipOptions) error {
	zr, closeArchive, err := h.openArchive(zipLeaf)
	if err != nil {
		return err
	}
	defer closeArchive()

	return h.extract(zr, target, opts)
}

// UnzipReader is as [Handler.Unzip], but reads the archive from a stream.
// The stream is spooled to a temporary file first, as archives are read
// from their central directory at the end.
func (h *Handler) UnzipReader(r io.Reader, target vfs.Container, opts UnzipOptions) error {
	zr, closeArchive, err := h.spool(r)
	if err != nil {
		return err
	}
	defer closeArchive()

	return h.extract(zr, target, opts)
}

// UnzipToDir extracts the archive at zipPath directly into the local
// directory dir, bypassing any virtual tree. Unlike [Handler.Unzip] it
// tolerates malformed entry names by skipping the respective entries.
func (h *Handler) UnzipToDir(zipPath string, dir string) error {
	f, err := h.osHandler.Open(zipPath)
	if err != nil {
		metrics.RecordOperation(opFast, false)

		return fmt.Errorf("(archive-xxunzip) failed to open archive: %w", err)
	}
	defer f.Close()

	zr, err := readerFor(f)
	if err != nil {
		metrics.RecordOperation(opFast, false)

		return err
	}

	return h.extractToDir(zr, dir)
}

func (h *Handler) extract(zr *zip.Reader, target vfs.Container, opts UnzipOptions) error {
	if dir, ok := vfs.LocalPath(target); ok && opts.Identity == nil && !opts.Versioning && !vfs.KeepsSidecars(target) {
		slog.Debug("Using fast path for extraction onto local disk:",
			"path", dir,
		)

		return h.extractToDir(zr, dir)
	}

	return h.extractToTree(zr, target, opts)
}

func (h *Handler) extractToTree(zr *zip.Reader, target vfs.Container, opts UnzipOptions) (retErr error) {
	defer func() {
		metrics.RecordOperation(opUnzip, retErr == nil)
	}()

	for _, file := range zr.File {
		entry, err := parseEntryName(file.Name)
		if err != nil {
			if errors.Is(err, ErrMalformedEntryName) {
				return fmt.Errorf("(archive-unzip) aborted: %w", err)
			}
			logSkippedEntry(file.Name, err)

			continue
		}

		parent, err := vfs.EnsureContainers(target, entry.parent(), opts.Identity)
		if err != nil {
			return fmt.Errorf("(archive-unzip) %w: %s: %w", ErrParentResolution, entry, err)
		}

		if entry.isDir {
			metrics.RecordEntry(metrics.EntryUnzipped)

			continue
		}

		if err := h.extractEntry(file, parent, entry, opts); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) extractEntry(file *zip.File, parent vfs.Container, entry entryName, opts UnzipOptions) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("(archive-unzip) failed to open entry %s: %w", entry, err)
	}

	if opts.Versioning {
		if leaf, versions := existingVersions(parent, entry.leaf()); versions != nil {
			defer rc.Close()

			if err := versions.AddVersion(opts.Identity, versionComment, rc); err != nil {
				return fmt.Errorf("(archive-unzip) failed to add version of %s: %w", entry, err)
			}
			stampLeaf(leaf, opts.Identity)
			metrics.RecordEntry(metrics.EntryVersioned)

			return nil
		}
	}

	leaf, err := parent.CreateChildLeaf(entry.leaf())
	if err != nil {
		rc.Close()

		return fmt.Errorf("(archive-unzip) failed to create leaf %s: %w", entry, err)
	}

	out, err := leaf.OutputStream(false)
	if err != nil {
		rc.Close()

		return fmt.Errorf("(archive-unzip) failed to open leaf %s: %w", entry, err)
	}

	if _, err := streams.BCopy(out, rc, entry.String()); err != nil {
		return fmt.Errorf("(archive-unzip) failed to extract %s: %w", entry, err)
	}
	stampLeaf(leaf, opts.Identity)
	metrics.RecordEntry(metrics.EntryUnzipped)

	return nil
}

// existingVersions returns the existing leaf of the given name along with
// its versions, if it has versioning enabled.
func existingVersions(parent vfs.Container, name string) (vfs.Leaf, vfs.Versions) {
	leaf, ok := parent.Resolve(name).(vfs.Leaf)
	if !ok {
		return nil, nil
	}

	versions, ok := vfs.AsVersionable(leaf)
	if !ok || !versions.IsVersioned() {
		return nil, nil
	}

	return leaf, versions
}

func stampLeaf(leaf vfs.Leaf, identity *vfs.Identity) {
	if err := vfs.Stamp(leaf, identity); err != nil {
		slog.Warn("Failure stamping extracted leaf (skipped)",
			"path", leaf.Path(),
			"err", err,
		)
	}
}

func (h *Handler) extractToDir(zr *zip.Reader, dir string) (retErr error) {
	defer func() {
		metrics.RecordOperation(opFast, retErr == nil)
	}()

	for _, file := range zr.File {
		entry, err := parseEntryName(file.Name)
		if err != nil {
			logSkippedEntry(file.Name, err)

			continue
		}

		path := filepath.Join(dir, filepath.Join(entry.segments...))

		if entry.isDir {
			if err := h.fsHandler.EnsureDirectory(path); err != nil {
				return fmt.Errorf("(archive-xxunzip) failed to create dir %s: %w", entry, err)
			}
			metrics.RecordEntry(metrics.EntryUnzipped)

			continue
		}

		if err := h.fsHandler.EnsureDirectory(filepath.Dir(path)); err != nil {
			return fmt.Errorf("(archive-xxunzip) failed to create parent of %s: %w", entry, err)
		}

		if err := h.extractFile(file, path, entry.String()); err != nil {
			return err
		}
		metrics.RecordEntry(metrics.EntryUnzipped)
	}

	return nil
}

func (h *Handler) extractFile(file *zip.File, path string, label string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("(archive-xxunzip) failed to open entry %s: %w", label, err)
	}

	out, err := h.osHandler.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerms)
	if err != nil {
		rc.Close()

		return fmt.Errorf("(archive-xxunzip) failed to open %s: %w", path, err)
	}

	if _, err := streams.BCopy(out, rc, label); err != nil {
		return fmt.Errorf("(archive-xxunzip) failed to extract %s: %w", label, err)
	}

	return nil
}

func logSkippedEntry(name string, err error) {
	metrics.RecordEntry(metrics.EntrySkipped)

	if errors.Is(err, ErrReservedEntry) {
		slog.Debug("Skipped reserved archive entry:",
			"entry", name,
		)

		return
	}

	slog.Warn("Skipped archive entry with invalid name:",
		"entry", name,
		"err", err,
	)
}
