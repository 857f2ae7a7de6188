package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

//nolint:gochecknoglobals
var Version = "dev"

func setupLogging(w io.Writer, level slog.Level) {
	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	))
}

func run(args []string, stdout, stderr io.Writer) int {
	setupLogging(stderr, slog.LevelInfo)

	app := NewApp(stdout, stderr)

	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	app.stopProfiling()

	if mErr := app.writeMetrics(); mErr != nil {
		slog.Error("Failed to write metrics.",
			"err", mErr,
		)
	}

	if err != nil {
		slog.Error("Operation failed.",
			"err", err,
		)

		return 1
	}

	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
