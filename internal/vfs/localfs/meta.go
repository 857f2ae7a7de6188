package localfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// metadata is the content of a sidecar file.
type metadata struct {
	Author  string    `yaml:"author"`
	Updated time.Time `yaml:"updated"`
}

type metaInfo struct {
	node node
	data metadata
}

func loadMetaInfo(n node) *metaInfo {
	m := &metaInfo{node: n}

	raw, err := readSidecar(n.tree, n.metaPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Failure reading metadata sidecar (skipped)",
				"path", n.Path(),
				"err", err,
			)
		}

		return m
	}

	if err := yaml.Unmarshal(raw, &m.data); err != nil {
		slog.Warn("Failure parsing metadata sidecar (skipped)",
			"path", n.Path(),
			"err", err,
		)
		m.data = metadata{}
	}

	return m
}

func (m *metaInfo) Author() string {
	return m.data.Author
}

func (m *metaInfo) SetAuthor(name string) {
	m.data.Author = name
}

func (m *metaInfo) Write() error {
	m.data.Updated = time.Now()

	raw, err := yaml.Marshal(&m.data)
	if err != nil {
		return fmt.Errorf("(localfs-meta) failed to marshal: %w", err)
	}

	return writeSidecar(m.node.tree, m.node.metaPath(), raw)
}

func readSidecar(t *tree, path string) ([]byte, error) {
	f, err := t.osHandler.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// writeSidecar replaces the file at path with data by way of a temporary
// sibling, creating the parent directories where necessary.
func writeSidecar(t *tree, path string, data []byte) error {
	if err := t.fsHandler.EnsureDirectory(filepath.Dir(path)); err != nil {
		return fmt.Errorf("(localfs-sidecar) failed to ensure dir: %w", err)
	}

	tmpPath := path + ".tmp"

	f, err := t.osHandler.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePerms)
	if err != nil {
		return fmt.Errorf("(localfs-sidecar) failed to open: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		t.osHandler.Remove(tmpPath) //nolint:errcheck

		return fmt.Errorf("(localfs-sidecar) failed to write: %w", err)
	}

	if err := f.Close(); err != nil {
		t.osHandler.Remove(tmpPath) //nolint:errcheck

		return fmt.Errorf("(localfs-sidecar) failed to close: %w", err)
	}

	if err := t.osHandler.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("(localfs-sidecar) failed to rename: %w", err)
	}

	return nil
}
