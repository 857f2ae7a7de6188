package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/pprof"
)

// profiler records a CPU profile for the lifetime of a command and writes
// an allocations profile when stopped. Empty paths disable either profile.
type profiler struct {
	cpuPath   string
	allocPath string

	cpuFile *os.File
}

func (p *profiler) Start() error {
	if p.cpuPath == "" {
		return nil
	}

	f, err := os.Create(p.cpuPath)
	if err != nil {
		return fmt.Errorf("(profiler-start) failed to create cpu profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()

		return fmt.Errorf("(profiler-start) failed to start cpu profile: %w", err)
	}
	p.cpuFile = f

	return nil
}

// Stop is safe to call without a preceding [profiler.Start].
func (p *profiler) Stop() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		p.cpuFile.Close()
		p.cpuFile = nil
	}

	if p.allocPath == "" {
		return
	}

	f, err := os.Create(p.allocPath)
	if err != nil {
		slog.Error("Could not create allocs profile",
			"path", p.allocPath,
			"err", err,
		)

		return
	}
	defer f.Close()

	if err := pprof.Lookup("allocs").WriteTo(f, 0); err != nil {
		slog.Error("Could not write allocs profile",
			"path", p.allocPath,
			"err", err,
		)
	}
}
