package archive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/desertwitch/vfszip/internal/metrics"
	"github.com/desertwitch/vfszip/internal/streams"
	"github.com/desertwitch/vfszip/internal/vfs"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// Zip creates a new archive leaf of the given name in parent and writes the
// items into it. Containers are written recursively, each preceded by an
// entry of their own so that empty containers are kept. An existing item of
// the target name is never overwritten. With compress the entries are
// deflated at the best compression level, otherwise they are stored.
//
// An error while writing an item aborts the remaining items, but the
// entries written up to then are kept in the archive.
func (h *Handler) Zip(items []vfs.Item, parent vfs.Container, targetName string, compress bool) (retErr error) {
	defer func() {
		metrics.RecordOperation(opZip, retErr == nil)
	}()

	if existing := parent.Resolve(targetName); existing != nil {
		return fmt.Errorf("(archive-zip) %w: %s", ErrTargetExists, existing.Path())
	}

	target, err := parent.CreateChildLeaf(targetName)
	if err != nil {
		return fmt.Errorf("(archive-zip) failed to create target: %w", err)
	}

	out, err := target.OutputStream(false)
	if err != nil {
		if delErr := target.Delete(); delErr != nil {
			slog.Warn("Failure removing unwritten archive (skipped)",
				"path", target.Path(),
				"err", delErr,
			)
		}

		return fmt.Errorf("(archive-zip) failed to open target: %w", err)
	}

	zipErr := h.writeZip(out, items, compress, target)

	if err := out.Close(); err != nil && zipErr == nil {
		return fmt.Errorf("(archive-zip) failed to close target: %w", err)
	}

	return zipErr
}

// ZipNames is as [Handler.Zip], but with the items given as paths relative
// to root. Names that do not resolve are skipped, a name denoting root
// itself stands for all of its children.
func (h *Handler) ZipNames(names []string, root vfs.Container, parent vfs.Container, targetName string, compress bool) error {
	items := make([]vfs.Item, 0, len(names))

	for _, name := range names {
		segments := vfs.SplitPath(name)
		if len(segments) == 0 {
			items = append(items, root.Items()...)

			continue
		}

		item := vfs.ResolvePath(root, segments)
		if item == nil {
			slog.Warn("Skipped zipping of item that does not exist:",
				"name", name,
				"root", root.Path(),
			)

			continue
		}
		items = append(items, item)
	}

	return h.Zip(items, parent, targetName, compress)
}

// ZipAll is as [Handler.Zip], with all children of root as the items.
func (h *Handler) ZipAll(root vfs.Container, parent vfs.Container, targetName string, compress bool) error {
	return h.Zip(root.Items(), parent, targetName, compress)
}

// WriteZip writes the items as an archive to w, as [Handler.Zip] would.
func (h *Handler) WriteZip(w io.Writer, items []vfs.Item, compress bool) error {
	return h.writeZip(w, items, compress, nil)
}

// writeZip writes the archive, skipping the exclude item (the archive
// itself, when it is part of the zipped tree). The central directory is
// also written after a failure, so the archive stays readable.
func (h *Handler) writeZip(w io.Writer, items []vfs.Item, compress bool, exclude vfs.Item) error {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	var walkErr error
	for _, item := range items {
		if walkErr = h.addItem(zw, item, "", compress, exclude); walkErr != nil {
			break
		}
	}

	if err := zw.Close(); err != nil {
		walkErr = errors.Join(walkErr, fmt.Errorf("(archive-zip) failed to finish archive: %w", err))
	}

	return walkErr
}

func (h *Handler) addItem(zw *zip.Writer, item vfs.Item, prefix string, compress bool, exclude vfs.Item) error {
	if vfs.SameItem(item, exclude) {
		return nil
	}

	name := prefix + item.Name()

	switch it := item.(type) {
	case vfs.Container:
		// A tree root has no name, its children are written top level.
		if item.Name() == "" {
			return h.addChildren(zw, it, prefix, compress, exclude)
		}

		dirName := name + "/"
		if isReserved(dirName) {
			return nil
		}

		if _, err := zw.CreateHeader(&zip.FileHeader{
			Name:     dirName,
			Method:   zip.Store,
			Modified: it.LastModified(),
		}); err != nil {
			return fmt.Errorf("(archive-zip) failed to write dir entry %s: %w", dirName, err)
		}
		metrics.RecordEntry(metrics.EntryZipped)

		return h.addChildren(zw, it, dirName, compress, exclude)

	case vfs.Leaf:
		if isReserved(name) {
			return nil
		}

		return h.addLeaf(zw, it, name, compress)
	}

	slog.Warn("Skipped zipping of unknown item type:",
		"path", item.Path(),
	)

	return nil
}

func (h *Handler) addChildren(zw *zip.Writer, c vfs.Container, prefix string, compress bool, exclude vfs.Item) error {
	for _, child := range c.Items() {
		if err := h.addItem(zw, child, prefix, compress, exclude); err != nil {
			return err
		}
	}

	return nil
}

func (h *Handler) addLeaf(zw *zip.Writer, leaf vfs.Leaf, name string, compress bool) error {
	method := zip.Store
	if compress {
		method = zip.Deflate
	}

	in, err := leaf.InputStream()
	if err != nil {
		return fmt.Errorf("(archive-zip) failed to open %s: %w", leaf.Path(), err)
	}
	defer in.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: leaf.LastModified(),
	})
	if err != nil {
		return fmt.Errorf("(archive-zip) failed to write entry %s: %w", name, err)
	}

	stats, err := streams.Copy(w, in)
	if err != nil {
		return fmt.Errorf("(archive-zip) failed to copy %s: %w", leaf.Path(), err)
	}
	metrics.RecordEntry(metrics.EntryZipped)

	slog.Debug("Zipped entry:",
		"entry", name,
		"bytes", stats.Bytes,
	)

	return nil
}

func isReserved(name string) bool {
	return strings.HasPrefix(name, MetadataPrefix)
}
