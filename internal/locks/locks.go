// Package locks implements a read-only lock registry, loaded from a YAML
// file, which answers lock queries of the archiving engine.
package locks

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/desertwitch/vfszip/internal/vfs"
	"gopkg.in/yaml.v3"
)

// ErrInvalidLock is returned for registry entries without path or owner.
var ErrInvalidLock = errors.New("invalid lock entry")

// Lock is a single entry of the registry.
type Lock struct {
	// Path is the slash-separated item path the lock is held on.
	Path string `yaml:"path"`

	// Owner is the name of the identity holding the lock.
	Owner string `yaml:"owner"`
}

type registryFile struct {
	Locks []Lock `yaml:"locks"`
}

// Registry maps item paths to their lock owners.
type Registry struct {
	owners map[string]string
}

// NewRegistry returns a [Registry] holding the given locks.
func NewRegistry(locks []Lock) (*Registry, error) {
	r := &Registry{owners: make(map[string]string, len(locks))}

	for i, lock := range locks {
		if strings.TrimSpace(lock.Path) == "" || strings.TrimSpace(lock.Owner) == "" {
			return nil, fmt.Errorf("(locks-new) %w: entry %d", ErrInvalidLock, i)
		}
		r.owners[cleanPath(lock.Path)] = lock.Owner
	}

	return r, nil
}

// Load reads a [Registry] from a YAML file. A missing file results in an
// empty registry.
func Load(file string) (*Registry, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Lock registry does not exist, assuming no locks:",
				"path", file,
			)

			return NewRegistry(nil)
		}

		return nil, fmt.Errorf("(locks-load) failed to read: %w", err)
	}

	var rf registryFile
	if err := yaml.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("(locks-load) failed to parse: %w", err)
	}

	return NewRegistry(rf.Locks)
}

// Owner returns the owner of a lock on the item path, if there is one.
func (r *Registry) Owner(itemPath string) (string, bool) {
	owner, ok := r.owners[cleanPath(itemPath)]

	return owner, ok
}

// Len returns the number of held locks.
func (r *Registry) Len() int {
	return len(r.owners)
}

// IsLocked reports whether the item is locked by anyone other than the
// actor. Admins are never locked out.
func (r *Registry) IsLocked(item vfs.Item, actor *vfs.Identity, isAdmin bool) bool {
	if isAdmin {
		return false
	}

	owner, ok := r.Owner(item.Path())
	if !ok {
		return false
	}

	return actor == nil || actor.Name != owner
}

func cleanPath(p string) string {
	return path.Clean("/" + p)
}
