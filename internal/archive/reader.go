package archive

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/desertwitch/vfszip/internal/streams"
	"github.com/desertwitch/vfszip/internal/vfs"
	"github.com/klauspost/compress/zip"
)

// openArchive opens an archive leaf for random access. Leaves that are not
// backed by a file are spooled to a temporary file first. The returned
// function releases all resources of the archive.
func (h *Handler) openArchive(leaf vfs.Leaf) (*zip.Reader, func(), error) {
	in, err := leaf.InputStream()
	if err != nil {
		return nil, nil, fmt.Errorf("(archive-open) failed to open %s: %w", leaf.Path(), err)
	}

	if f, ok := in.(*os.File); ok {
		zr, err := readerFor(f)
		if err != nil {
			f.Close()

			return nil, nil, err
		}

		return zr, func() { f.Close() }, nil
	}
	defer in.Close()

	return h.spool(in)
}

func (h *Handler) spool(r io.Reader) (*zip.Reader, func(), error) {
	tmp, err := h.osHandler.CreateTemp("", "vfszip-*.zip")
	if err != nil {
		return nil, nil, fmt.Errorf("(archive-spool) failed to create temp file: %w", err)
	}

	cleanup := func() {
		tmp.Close()
		h.osHandler.Remove(tmp.Name()) //nolint:errcheck
	}

	if _, err := streams.Copy(tmp, r); err != nil {
		cleanup()

		return nil, nil, fmt.Errorf("(archive-spool) failed to spool archive: %w", err)
	}

	zr, err := readerFor(tmp)
	if err != nil {
		cleanup()

		return nil, nil, err
	}

	return zr, cleanup, nil
}

func readerFor(f *os.File) (*zip.Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("(archive-open) failed to stat archive: %w", err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if zr == nil {
		return nil, fmt.Errorf("(archive-open) failed to read archive: %w", err)
	}

	// A usable reader with an error reports insecure entry names. Those
	// are guarded per entry during extraction.
	if err != nil {
		slog.Debug("Archive holds insecure entry names:",
			"path", f.Name(),
			"err", err,
		)
	}

	return zr, nil
}
