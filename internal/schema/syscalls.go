// Package schema holds the thin wrappers around operating system calls that
// the handlers of this module receive as providers.
package schema

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// OS is an implementation wrapping operating system functions.
type OS struct{}

// Remove wraps around [os.Remove].
func (*OS) Remove(name string) error {
	return os.Remove(name)
}

// ReadDir wraps around [os.ReadDir].
func (*OS) ReadDir(name string) ([]os.DirEntry, error) {
	return os.ReadDir(name)
}

// Open wraps around [os.Open].
func (*OS) Open(name string) (*os.File, error) {
	return os.Open(name)
}

// OpenFile wraps around [os.OpenFile].
func (*OS) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

// Mkdir wraps around [os.Mkdir].
func (*OS) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(name, perm)
}

// Stat wraps around [os.Stat].
func (*OS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// Lstat wraps around [os.Lstat].
func (*OS) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

// Rename wraps around [os.Rename].
func (*OS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// EvalSymlinks wraps around [filepath.EvalSymlinks].
func (*OS) EvalSymlinks(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

// CreateTemp wraps around [os.CreateTemp].
func (*OS) CreateTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

// Unix is an implementation wrapping Unix operating system functions.
type Unix struct{}

// Statfs wraps around [unix.Statfs].
func (*Unix) Statfs(path string, buf *unix.Statfs_t) error {
	return unix.Statfs(path, buf)
}

// Mkdir wraps around [unix.Mkdir].
func (*Unix) Mkdir(path string, mode uint32) error {
	return unix.Mkdir(path, mode)
}
