package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertwitch/vfszip/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var errBroken = errors.New("broken")

func newTestHandler() *Handler {
	return NewHandler(&schema.OS{}, &schema.Unix{})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

// newCrossDeviceHandler returns a handler whose renames fail as if source
// and target were on different filesystems, except for the final rename of
// a verified copy.
func newCrossDeviceHandler(t *testing.T) (*Handler, *mockOsProvider) {
	t.Helper()

	osProv := newMockOsProvider(t)
	osProv.On("Remove", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		os.Remove(args.String(0)) //nolint:errcheck
	}).Maybe()
	osProv.On("Rename", mock.MatchedBy(func(oldpath string) bool {
		return strings.HasSuffix(oldpath, tmpSuffix)
	}), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		os.Rename(args.String(0), args.String(1)) //nolint:errcheck
	}).Maybe()
	osProv.On("Rename", mock.Anything, mock.Anything).Return(&os.LinkError{
		Op:  "rename",
		Err: unix.EXDEV,
	}).Maybe()

	return NewHandler(osProv, &schema.Unix{}), osProv
}

func TestResult(t *testing.T) {
	t.Parallel()

	var res Result
	res.success()
	res.filter()
	assert.True(t, res.OK())
	require.NoError(t, res.Err())

	var other Result
	other.fail(errBroken)
	res.merge(other)

	assert.False(t, res.OK())
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Filtered)
	assert.Equal(t, 1, res.Failed)
	require.ErrorIs(t, res.Err(), errBroken)
}

func TestCopyFileToDir_Success(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src", "a.txt")
	writeFile(t, src, "hello")

	handler := newTestHandler()
	res := handler.CopyFileToDir(src, filepath.Join(root, "dst", "deep"), nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, "hello", readFile(t, filepath.Join(root, "dst", "deep", "a.txt")))
	assert.Equal(t, "hello", readFile(t, src))
	assert.NoFileExists(t, filepath.Join(root, "dst", "deep", "a.txt"+tmpSuffix))
}

func TestCopyFileToDir_Overwrite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src", "a.txt")
	writeFile(t, src, "new content")
	writeFile(t, filepath.Join(root, "dst", "a.txt"), "old")

	res := newTestHandler().CopyFileToDir(src, filepath.Join(root, "dst"), nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.Equal(t, "new content", readFile(t, filepath.Join(root, "dst", "a.txt")))
}

func TestCopyFileToDir_SelfCopy(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "a.txt")
	writeFile(t, src, "unchanged")

	res := newTestHandler().CopyFileToDir(src, root, nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, "unchanged", readFile(t, src))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCopyFileToDir_SelfCopyThroughSymlink(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "real", "a.txt")
	writeFile(t, src, "unchanged")
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")))

	res := newTestHandler().CopyFileToDir(src, filepath.Join(root, "link"), nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.Equal(t, "unchanged", readFile(t, src))
}

func TestCopyFileToDir_Filtered(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src", "a.txt")
	writeFile(t, src, "hello")

	veto := func(string, os.FileInfo) bool { return false }
	res := newTestHandler().CopyFileToDir(src, filepath.Join(root, "dst"), veto, "test")

	require.True(t, res.OK())
	assert.Equal(t, 1, res.Filtered)
	assert.Zero(t, res.Succeeded)
	assert.NoFileExists(t, filepath.Join(root, "dst", "a.txt"))
}

func TestCopyFileToDir_MissingSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	res := newTestHandler().CopyFileToDir(filepath.Join(root, "nope"), root, nil, "test")

	assert.False(t, res.OK())
	require.ErrorIs(t, res.Err(), os.ErrNotExist)
}

func TestCopyFileToDir_TargetIsFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "a.txt")
	writeFile(t, src, "hello")
	writeFile(t, filepath.Join(root, "blocker"), "x")

	res := newTestHandler().CopyFileToDir(src, filepath.Join(root, "blocker"), nil, "test")

	assert.False(t, res.OK())
	require.ErrorIs(t, res.Err(), ErrNotDirectory)
}

func TestMoveFileToDir_Rename(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src", "a.txt")
	writeFile(t, src, "hello")

	res := newTestHandler().MoveFileToDir(src, filepath.Join(root, "dst"), nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.NoFileExists(t, src)
	assert.Equal(t, "hello", readFile(t, filepath.Join(root, "dst", "a.txt")))
}

func TestMoveFileToDir_CrossDeviceFallback(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src", "a.txt")
	writeFile(t, src, "across filesystems")

	handler, osProv := newCrossDeviceHandler(t)
	res := handler.MoveFileToDir(src, filepath.Join(root, "dst"), nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.NoFileExists(t, src)
	assert.Equal(t, "across filesystems", readFile(t, filepath.Join(root, "dst", "a.txt")))

	osProv.AssertCalled(t, "Rename", src, filepath.Join(root, "dst", "a.txt"))
	osProv.AssertCalled(t, "Remove", src)
}

func TestMoveFileToDir_RemoveFailure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "src", "a.txt")
	writeFile(t, src, "hello")

	osProv := newMockOsProvider(t)
	osProv.On("Rename", src, mock.Anything).Return(&os.LinkError{Op: "rename", Err: unix.EXDEV}).Once()
	osProv.On("Rename", mock.Anything, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		os.Rename(args.String(0), args.String(1)) //nolint:errcheck
	}).Once()
	osProv.On("Remove", src).Return(errBroken).Once()

	res := NewHandler(osProv, &schema.Unix{}).MoveFileToDir(src, filepath.Join(root, "dst"), nil, "test")

	assert.False(t, res.OK())
	require.ErrorIs(t, res.Err(), errBroken)
	assert.Equal(t, "hello", readFile(t, filepath.Join(root, "dst", "a.txt")))

	osProv.AssertExpectations(t)
}

func TestCopyDirToDir_Nested(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "course")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "b")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))

	res := newTestHandler().CopyDirToDir(src, filepath.Join(root, "dst"), nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.Equal(t, "a", readFile(t, filepath.Join(root, "dst", "course", "a.txt")))
	assert.Equal(t, "b", readFile(t, filepath.Join(root, "dst", "course", "sub", "b.txt")))
	assert.DirExists(t, filepath.Join(root, "dst", "course", "empty"))
	assert.FileExists(t, filepath.Join(src, "a.txt"))
}

func TestCopyDirContentsToDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "course")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "b")

	res := newTestHandler().CopyDirContentsToDir(src, filepath.Join(root, "dst"), false, nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.Equal(t, "a", readFile(t, filepath.Join(root, "dst", "a.txt")))
	assert.Equal(t, "b", readFile(t, filepath.Join(root, "dst", "sub", "b.txt")))
	assert.NoDirExists(t, filepath.Join(root, "dst", "course"))
}

func TestCopyDirToDir_Filter(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "course")
	writeFile(t, filepath.Join(src, "keep.txt"), "k")
	writeFile(t, filepath.Join(src, "skip.tmp"), "s")

	noTmp := func(path string, _ os.FileInfo) bool { return filepath.Ext(path) != ".tmp" }
	res := newTestHandler().CopyDirToDir(src, filepath.Join(root, "dst"), noTmp, "test")

	require.True(t, res.OK(), res.Err())
	assert.Equal(t, 1, res.Filtered)
	assert.FileExists(t, filepath.Join(root, "dst", "course", "keep.txt"))
	assert.NoFileExists(t, filepath.Join(root, "dst", "course", "skip.tmp"))
}

func TestCopyDirToDir_TargetInsideSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "course")
	writeFile(t, filepath.Join(src, "a.txt"), "a")

	res := newTestHandler().CopyDirContentsToDir(src, filepath.Join(src, "inner"), false, nil, "test")

	assert.False(t, res.OK())
	require.ErrorIs(t, res.Err(), ErrTargetInsideSource)
}

func TestMoveDirToDir_Rename(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "course")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "b")

	res := newTestHandler().MoveDirToDir(src, filepath.Join(root, "dst"), nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.NoDirExists(t, src)
	assert.Equal(t, "b", readFile(t, filepath.Join(root, "dst", "course", "sub", "b.txt")))
}

func TestMoveDirToDir_CrossDeviceFallback(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "course")
	writeFile(t, filepath.Join(src, "a.txt"), "a")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "b")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o755))

	handler, _ := newCrossDeviceHandler(t)
	res := handler.MoveDirToDir(src, filepath.Join(root, "dst"), nil, "test")

	require.True(t, res.OK(), res.Err())
	assert.NoDirExists(t, src)
	assert.Equal(t, "a", readFile(t, filepath.Join(root, "dst", "course", "a.txt")))
	assert.Equal(t, "b", readFile(t, filepath.Join(root, "dst", "course", "sub", "b.txt")))
	assert.DirExists(t, filepath.Join(root, "dst", "course", "empty"))
}

func TestMoveDirContents_KeepsFilteredSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	src := filepath.Join(root, "course")
	writeFile(t, filepath.Join(src, "keep.txt"), "k")
	writeFile(t, filepath.Join(src, "skip.tmp"), "s")

	noTmp := func(path string, _ os.FileInfo) bool { return filepath.Ext(path) != ".tmp" }
	res := newTestHandler().CopyDirContentsToDir(src, filepath.Join(root, "dst"), true, noTmp, "test")

	require.True(t, res.OK(), res.Err())
	assert.FileExists(t, filepath.Join(root, "dst", "keep.txt"))
	assert.NoFileExists(t, filepath.Join(src, "keep.txt"))
	assert.FileExists(t, filepath.Join(src, "skip.tmp"))
}

func TestGetDirSize(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "12345")
	writeFile(t, filepath.Join(root, "sub", "b.txt"), "123")
	writeFile(t, filepath.Join(root, "sub", "deeper", "c.txt"), "12")

	handler := newTestHandler()

	assert.Equal(t, int64(10), handler.GetDirSize(root))
	assert.Zero(t, handler.GetDirSize(filepath.Join(root, "missing")))
}

func TestDeleteDirsAndFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		recursive  bool
		deleteRoot bool
		rootExists bool
		subExists  bool
		ok         bool
	}{
		{name: "FilesOnly", recursive: false, deleteRoot: false, rootExists: true, subExists: true, ok: true},
		{name: "Recursive_KeepRoot", recursive: true, deleteRoot: false, rootExists: true, subExists: false, ok: true},
		{name: "Recursive_DeleteRoot", recursive: true, deleteRoot: true, rootExists: false, subExists: false, ok: true},
		{name: "NonRecursive_DeleteRoot", recursive: false, deleteRoot: true, rootExists: true, subExists: true, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := filepath.Join(t.TempDir(), "root")
			writeFile(t, filepath.Join(root, "a.txt"), "a")
			writeFile(t, filepath.Join(root, "sub", "b.txt"), "b")

			res := newTestHandler().DeleteDirsAndFiles(root, tt.recursive, tt.deleteRoot)

			assert.Equal(t, tt.ok, res.OK())
			assert.NoFileExists(t, filepath.Join(root, "a.txt"))
			if tt.rootExists {
				assert.DirExists(t, root)
			} else {
				assert.NoDirExists(t, root)
			}
			if tt.subExists {
				assert.FileExists(t, filepath.Join(root, "sub", "b.txt"))
			} else {
				assert.NoDirExists(t, filepath.Join(root, "sub"))
			}
		})
	}
}

func TestDeleteDirsAndFiles_BestEffort(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "c.txt"), "c")

	osProv := newMockOsProvider(t)
	osProv.On("Remove", filepath.Join(root, "b.txt")).Return(errBroken).Once()
	osProv.On("Remove", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		os.Remove(args.String(0)) //nolint:errcheck
	})

	res := NewHandler(osProv, &schema.Unix{}).DeleteDirsAndFiles(root, true, false)

	assert.False(t, res.OK())
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Succeeded)
	assert.NoFileExists(t, filepath.Join(root, "a.txt"))
	assert.FileExists(t, filepath.Join(root, "b.txt"))
	assert.NoFileExists(t, filepath.Join(root, "c.txt"))
}

func TestDeleteDirsAndFiles_Missing(t *testing.T) {
	t.Parallel()

	res := newTestHandler().DeleteDirsAndFiles(filepath.Join(t.TempDir(), "missing"), true, true)

	assert.True(t, res.OK())
}

func TestEnsureDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	handler := newTestHandler()

	require.NoError(t, handler.EnsureDirectory(filepath.Join(root, "a", "b", "c")))
	assert.DirExists(t, filepath.Join(root, "a", "b", "c"))

	require.NoError(t, handler.EnsureDirectory(filepath.Join(root, "a", "b")))

	writeFile(t, filepath.Join(root, "file"), "x")
	require.ErrorIs(t, handler.EnsureDirectory(filepath.Join(root, "file", "sub")), ErrNotDirectory)
}

func TestFreeSpace(t *testing.T) {
	t.Parallel()

	_, err := newTestHandler().FreeSpace(t.TempDir())
	require.NoError(t, err)

	_, err = newTestHandler().FreeSpace(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
