package configuration

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockConfigReader struct {
	mock.Mock
}

func (m *mockConfigReader) Read(filenames ...string) (map[string]string, error) {
	args := m.Called(filenames)
	envMap, _ := args.Get(0).(map[string]string)

	return envMap, args.Error(1)
}

func noEnv(string) (string, bool) {
	return "", false
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "vfszip.env")
	require.NoError(t, os.WriteFile(file, []byte(
		"VFSZIP_COMPRESS=false\n"+
			"VFSZIP_META_ROOT=/var/lib/vfszip/meta\n"+
			"VFSZIP_IDENTITY=alice\n"+
			"VFSZIP_ADMIN=true\n"+
			"VFSZIP_LOG_LEVEL=debug\n",
	), 0o644))

	provider := NewProvider(&GodotenvProvider{})
	provider.LookupEnv = noEnv

	cfg, err := provider.Load(file)
	require.NoError(t, err)

	assert.False(t, cfg.Compress)
	assert.Equal(t, "/var/lib/vfszip/meta", cfg.MetaRoot)
	assert.Equal(t, "alice", cfg.Identity)
	assert.True(t, cfg.Admin)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Empty(t, cfg.VersionsRoot)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&GodotenvProvider{})
	provider.LookupEnv = noEnv

	cfg, err := provider.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = provider.Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvironmentOverlay(t *testing.T) {
	t.Parallel()

	reader := &mockConfigReader{}
	reader.On("Read", []string{"vfszip.env"}).Return(map[string]string{
		KeyIdentity:  "alice",
		KeyLocksFile: "/etc/vfszip/locks.yml",
	}, nil).Once()

	provider := NewProvider(reader)
	provider.LookupEnv = func(key string) (string, bool) {
		if key == KeyIdentity {
			return "bob", true
		}

		return "", false
	}

	cfg, err := provider.Load("vfszip.env")
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Identity)
	assert.Equal(t, "/etc/vfszip/locks.yml", cfg.LocksFile)

	reader.AssertExpectations(t)
}

func TestLoad_ReadFailure(t *testing.T) {
	t.Parallel()

	errBroken := errors.New("broken")

	reader := &mockConfigReader{}
	reader.On("Read", []string{"vfszip.env"}).Return(nil, errBroken).Once()

	provider := NewProvider(reader)
	provider.LookupEnv = noEnv

	_, err := provider.Load("vfszip.env")
	require.ErrorIs(t, err, errBroken)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Parallel()

	reader := &mockConfigReader{}
	reader.On("Read", []string{"vfszip.env"}).Return(map[string]string{KeyLogLevel: "chatty"}, nil)

	provider := NewProvider(reader)
	provider.LookupEnv = noEnv

	_, err := provider.Load("vfszip.env")
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestMapKeyToBool(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&GodotenvProvider{})
	envMap := map[string]string{
		"yes":    "true",
		"no":     "0",
		"broken": "maybe",
		"blank":  "  ",
	}

	assert.True(t, provider.MapKeyToBool(envMap, "yes", false))
	assert.False(t, provider.MapKeyToBool(envMap, "no", true))
	assert.True(t, provider.MapKeyToBool(envMap, "broken", true))
	assert.False(t, provider.MapKeyToBool(envMap, "blank", false))
	assert.True(t, provider.MapKeyToBool(envMap, "missing", true))
}

func TestMapKeyToString(t *testing.T) {
	t.Parallel()

	provider := NewProvider(&GodotenvProvider{})
	envMap := map[string]string{"key": " value "}

	assert.Equal(t, "value", provider.MapKeyToString(envMap, "key"))
	assert.Empty(t, provider.MapKeyToString(envMap, "missing"))
}

func TestGodotenvProvider_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("A=1\nB=1\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("B=2\n"), 0o644))

	envMap, err := (&GodotenvProvider{}).Read(first, second)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, envMap)

	_, err = (&GodotenvProvider{}).Read(filepath.Join(dir, "missing.env"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
