// Package configuration reads the settings of the module from an env file,
// overlaid by the environment of the process.
package configuration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Keys of the configuration.
const (
	KeyCompress     = "VFSZIP_COMPRESS"
	KeyMetaRoot     = "VFSZIP_META_ROOT"
	KeyVersionsRoot = "VFSZIP_VERSIONS_ROOT"
	KeyIdentity     = "VFSZIP_IDENTITY"
	KeyAdmin        = "VFSZIP_ADMIN"
	KeyLocksFile    = "VFSZIP_LOCKS_FILE"
	KeyMetricsFile  = "VFSZIP_METRICS_FILE"
	KeyLogLevel     = "VFSZIP_LOG_LEVEL"
)

var keys = []string{
	KeyCompress,
	KeyMetaRoot,
	KeyVersionsRoot,
	KeyIdentity,
	KeyAdmin,
	KeyLocksFile,
	KeyMetricsFile,
	KeyLogLevel,
}

// ErrInvalidValue is returned for configuration values that cannot be parsed.
var ErrInvalidValue = errors.New("invalid configuration value")

type genericConfigProvider interface {
	Read(filenames ...string) (envMap map[string]string, err error)
}

// Config is the principal structure holding the configuration.
type Config struct {
	// Compress selects the best compression over storing for new archives.
	Compress bool

	MetaRoot     string
	VersionsRoot string

	// Identity is the acting user, empty for none.
	Identity string
	Admin    bool

	LocksFile   string
	MetricsFile string
	LogLevel    slog.Level
}

// Default returns the configuration used for keys that are not set.
func Default() Config {
	return Config{
		Compress: true,
		LogLevel: slog.LevelInfo,
	}
}

// Provider loads a [Config] from its sources.
type Provider struct {
	GenericConfigReader genericConfigProvider

	// LookupEnv looks up the process environment, [os.LookupEnv] if nil.
	LookupEnv func(key string) (string, bool)
}

// NewProvider returns a pointer to a new [Provider].
func NewProvider(reader genericConfigProvider) *Provider {
	return &Provider{GenericConfigReader: reader}
}

// ReadGeneric reads the given configuration files into a map.
func (c *Provider) ReadGeneric(filenames ...string) (envMap map[string]string, err error) {
	return c.GenericConfigReader.Read(filenames...)
}

// Load reads the env file, if one is given and it exists, overlays the
// process environment and maps the result onto the [Default] configuration.
func (c *Provider) Load(filename string) (Config, error) {
	envMap := make(map[string]string)

	if filename != "" {
		data, err := c.ReadGeneric(filename)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("Configuration file does not exist, using defaults:",
				"path", filename,
			)
		case err != nil:
			return Config{}, fmt.Errorf("(config-load) failed to read: %w", err)
		default:
			envMap = data
		}
	}

	lookup := c.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range keys {
		if value, ok := lookup(key); ok {
			envMap[key] = value
		}
	}

	cfg := Default()
	cfg.Compress = c.MapKeyToBool(envMap, KeyCompress, cfg.Compress)
	cfg.MetaRoot = c.MapKeyToString(envMap, KeyMetaRoot)
	cfg.VersionsRoot = c.MapKeyToString(envMap, KeyVersionsRoot)
	cfg.Identity = c.MapKeyToString(envMap, KeyIdentity)
	cfg.Admin = c.MapKeyToBool(envMap, KeyAdmin, cfg.Admin)
	cfg.LocksFile = c.MapKeyToString(envMap, KeyLocksFile)
	cfg.MetricsFile = c.MapKeyToString(envMap, KeyMetricsFile)

	if level := c.MapKeyToString(envMap, KeyLogLevel); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(level)); err != nil {
			return Config{}, fmt.Errorf("(config-load) %w: %s=%q", ErrInvalidValue, KeyLogLevel, level)
		}
	}

	return cfg, nil
}

func (c *Provider) MapKeyToString(envMap map[string]string, key string) string {
	if value, exists := envMap[key]; exists {
		return strings.TrimSpace(value)
	}
	return ""
}

func (c *Provider) MapKeyToBool(envMap map[string]string, key string, fallback bool) bool {
	value := c.MapKeyToString(envMap, key)
	if value == "" {
		return fallback
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("Invalid boolean configuration value (using default)",
			"key", key,
			"value", value,
		)
		return fallback
	}
	return boolValue
}
