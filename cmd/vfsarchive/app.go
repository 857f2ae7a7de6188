package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/desertwitch/vfszip/internal/archive"
	"github.com/desertwitch/vfszip/internal/configuration"
	"github.com/desertwitch/vfszip/internal/filesystem"
	"github.com/desertwitch/vfszip/internal/locks"
	"github.com/desertwitch/vfszip/internal/metrics"
	"github.com/desertwitch/vfszip/internal/schema"
	"github.com/desertwitch/vfszip/internal/ui"
	"github.com/desertwitch/vfszip/internal/vfs"
)

// globalFlags are the flags shared by all commands. Set flags take
// precedence over the configuration.
type globalFlags struct {
	configFile  string
	verbose     bool
	identity    string
	admin       bool
	metricsFile string
	cpuProfile  string
	memProfile  string
}

// App is the principal structure holding the handlers of the commands.
type App struct {
	stdout io.Writer
	stderr io.Writer

	flags globalFlags
	cfg   configuration.Config

	fsHandler      *filesystem.Handler
	archiveHandler *archive.Handler
	locks          vfs.LockChecker
	profiler       *profiler
}

// NewApp returns a pointer to a new [App].
func NewApp(stdout, stderr io.Writer) *App {
	osHandler := &schema.OS{}
	fsHandler := filesystem.NewHandler(osHandler, &schema.Unix{})

	return &App{
		stdout:         stdout,
		stderr:         stderr,
		cfg:            configuration.Default(),
		fsHandler:      fsHandler,
		archiveHandler: archive.NewHandler(osHandler, fsHandler),
	}
}

// setup loads the configuration and the lock registry. It runs before
// every command.
func (app *App) setup() error {
	provider := configuration.NewProvider(&configuration.GodotenvProvider{})

	cfg, err := provider.Load(app.flags.configFile)
	if err != nil {
		return fmt.Errorf("(app-setup) failed to load configuration: %w", err)
	}

	if app.flags.verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	if app.flags.identity != "" {
		cfg.Identity = app.flags.identity
	}
	if app.flags.admin {
		cfg.Admin = true
	}
	if app.flags.metricsFile != "" {
		cfg.MetricsFile = app.flags.metricsFile
	}
	app.cfg = cfg

	setupLogging(app.stderr, cfg.LogLevel)

	var registry *locks.Registry
	if cfg.LocksFile != "" {
		registry, err = locks.Load(cfg.LocksFile)
	} else {
		registry, err = locks.NewRegistry(nil)
	}
	if err != nil {
		return fmt.Errorf("(app-setup) failed to load lock registry: %w", err)
	}
	app.locks = registry

	app.profiler = &profiler{cpuPath: app.flags.cpuProfile, allocPath: app.flags.memProfile}
	if err := app.profiler.Start(); err != nil {
		return fmt.Errorf("(app-setup) %w", err)
	}

	slog.Debug("Configuration loaded:",
		"compress", cfg.Compress,
		"identity", cfg.Identity,
		"admin", cfg.Admin,
		"locks", registry.Len(),
	)

	return nil
}

// identity returns the acting user, or nil if there is none.
func (app *App) identity() *vfs.Identity {
	if app.cfg.Identity == "" {
		return nil
	}

	return &vfs.Identity{Name: app.cfg.Identity}
}

func (app *App) render(report *ui.Report) {
	fmt.Fprintln(app.stdout, report.Render())
}

func (app *App) writeMetrics() error {
	if app.cfg.MetricsFile == "" {
		return nil
	}

	return metrics.WriteTextfile(app.cfg.MetricsFile)
}

func (app *App) stopProfiling() {
	if app.profiler != nil {
		app.profiler.Stop()
	}
}
