package localfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/desertwitch/vfszip/internal/streams"
	"github.com/desertwitch/vfszip/internal/vfs"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// manifest is the index of the revisions kept for a leaf.
type manifest struct {
	Revisions []vfs.Revision `yaml:"revisions"`
}

type versions struct {
	file *File
}

func (v *versions) IsVersioned() bool {
	return true
}

func (v *versions) manifestPath() string {
	return filepath.Join(v.file.versionsDir(), manifestName)
}

// RevisionPath returns where the content of a revision is kept.
func (f *File) RevisionPath(id string) string {
	return filepath.Join(f.versionsDir(), id, f.Name())
}

// AddVersion moves the current content of the leaf aside as a new revision
// and puts the content of src in its place. The content of src is written
// to a temporary sibling first, a failure before the commit leaves the leaf
// and its history unchanged.
func (v *versions) AddVersion(actor *vfs.Identity, comment string, src io.Reader) error {
	f := v.file

	current, err := v.load()
	if err != nil {
		return err
	}

	rev := vfs.Revision{
		ID:      uuid.NewString(),
		Comment: comment,
		Created: time.Now(),
		Size:    f.Size(),
	}
	if actor != nil {
		rev.Author = actor.Name
	}

	tmpPath, err := v.spool(rev.ID, src)
	if err != nil {
		return err
	}

	revDir := filepath.Join(f.versionsDir(), rev.ID)
	if res := f.tree.fsHandler.MoveFileToDir(f.abs(), revDir, nil, "version"); !res.OK() {
		f.tree.osHandler.Remove(tmpPath) //nolint:errcheck

		return fmt.Errorf("(localfs-version) failed to keep current content: %w", res.Err())
	}

	previous := current
	current.Revisions = append(slices.Clone(current.Revisions), rev)

	if err := v.store(current); err != nil {
		v.restore(rev.ID, tmpPath, nil)

		return err
	}

	if err := f.tree.osHandler.Rename(tmpPath, f.abs()); err != nil {
		v.restore(rev.ID, tmpPath, &previous)

		return fmt.Errorf("(localfs-version) failed to commit new content: %w", err)
	}

	return nil
}

// spool writes src to a temporary sibling of the leaf.
func (v *versions) spool(id string, src io.Reader) (string, error) {
	f := v.file
	tmpPath := filepath.Join(filepath.Dir(f.abs()), "."+f.Name()+"."+id+tmpSuffix)

	out, err := f.tree.osHandler.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerms)
	if err != nil {
		return "", fmt.Errorf("(localfs-version) failed to open: %w", err)
	}

	if _, err := streams.Copy(out, src); err != nil {
		out.Close()
		f.tree.osHandler.Remove(tmpPath) //nolint:errcheck

		return "", fmt.Errorf("(localfs-version) failed to write new content: %w", err)
	}

	if err := out.Close(); err != nil {
		f.tree.osHandler.Remove(tmpPath) //nolint:errcheck

		return "", fmt.Errorf("(localfs-version) failed to close: %w", err)
	}

	return tmpPath, nil
}

// restore puts a moved aside revision back as the current content and
// rewrites the previous manifest, if one is given.
func (v *versions) restore(id string, tmpPath string, previous *manifest) {
	f := v.file

	f.tree.osHandler.Remove(tmpPath) //nolint:errcheck

	if err := f.tree.osHandler.Rename(f.RevisionPath(id), f.abs()); err != nil {
		slog.Error("Failure restoring content after failed version commit",
			"path", f.Path(),
			"revision", id,
			"err", err,
		)
	}
	f.tree.osHandler.Remove(filepath.Join(f.versionsDir(), id)) //nolint:errcheck

	if previous == nil {
		return
	}

	if err := v.store(*previous); err != nil {
		slog.Error("Failure restoring versions manifest",
			"path", f.Path(),
			"err", err,
		)
	}
}

func (v *versions) store(m manifest) error {
	raw, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("(localfs-version) failed to marshal manifest: %w", err)
	}

	if err := writeSidecar(v.file.tree, v.manifestPath(), raw); err != nil {
		return fmt.Errorf("(localfs-version) failed to write manifest: %w", err)
	}

	return nil
}

func (v *versions) Revisions() []vfs.Revision {
	m, err := v.load()
	if err != nil {
		slog.Warn("Failure reading versions manifest (skipped)",
			"path", v.file.Path(),
			"err", err,
		)

		return nil
	}

	return m.Revisions
}

func (v *versions) load() (manifest, error) {
	var m manifest

	raw, err := readSidecar(v.file.tree, v.manifestPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return m, nil
		}

		return m, fmt.Errorf("(localfs-version) failed to read manifest: %w", err)
	}

	if err := yaml.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("(localfs-version) failed to parse manifest: %w", err)
	}

	return m, nil
}
