package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertwitch/vfszip/internal/archive"
	"github.com/desertwitch/vfszip/internal/filesystem"
	"github.com/desertwitch/vfszip/internal/metrics"
	"github.com/desertwitch/vfszip/internal/ui"
	"github.com/desertwitch/vfszip/internal/validation"
	"github.com/desertwitch/vfszip/internal/vfs"
	"github.com/desertwitch/vfszip/internal/vfs/localfs"
	"github.com/spf13/cobra"
)

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vfsarchive",
		Short: "ZIP archiving over virtual file trees",
		Long: `vfsarchive creates and extracts ZIP archives and copies, moves,
measures and deletes local directory trees.

Exit Codes:
  0  - Success
  1  - Operation failed`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return app.setup()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&app.flags.configFile, "config", "", "env file holding the configuration")
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&app.flags.identity, "identity", "", "acting user for metadata and locks")
	flags.BoolVar(&app.flags.admin, "admin", false, "act as admin, bypassing locks of others")
	flags.StringVar(&app.flags.metricsFile, "metrics-file", "", "write metrics to this file after the command")
	flags.StringVar(&app.flags.cpuProfile, "cpu-profile", "", "write a cpu profile of the command to this file")
	flags.StringVar(&app.flags.memProfile, "mem-profile", "", "write an allocations profile to this file after the command")

	cmd.AddCommand(
		newZipCmd(app),
		newUnzipCmd(app),
		newLockedCmd(app),
		newCopyCmd(app, false),
		newCopyCmd(app, true),
		newDuCmd(app),
		newRmCmd(app),
		newValidateCmd(app),
	)

	return cmd
}

func newZipCmd(app *App) *cobra.Command {
	var (
		root  string
		store bool
	)

	cmd := &cobra.Command{
		Use:   "zip ARCHIVE [PATH...]",
		Short: "Create an archive from paths below the root directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			archivePath := args[0]

			names, err := relativeNames(root, args[1:])
			if err != nil {
				return err
			}

			rootDir, err := localfs.New(root, localfs.Options{})
			if err != nil {
				return err
			}

			parentDir, err := localfs.New(filepath.Dir(archivePath), localfs.Options{})
			if err != nil {
				return err
			}

			compress := app.cfg.Compress && !store

			zipErr := app.archiveHandler.ZipNames(names, rootDir, parentDir, filepath.Base(archivePath), compress)

			report := ui.NewReport("zip").
				Add("archive", archivePath).
				Add("compress", compress)
			if info, err := os.Stat(archivePath); err == nil && zipErr == nil {
				report.AddBytes("size", info.Size())
			}
			app.render(report.AddError(zipErr))

			return zipErr
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "directory the paths are relative to")
	cmd.Flags().BoolVar(&store, "store", false, "store entries without compression")

	return cmd
}

func newUnzipCmd(app *App) *cobra.Command {
	var (
		versioning bool
		fast       bool
	)

	cmd := &cobra.Command{
		Use:   "unzip ARCHIVE DIR",
		Short: "Extract an archive into a directory",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(_ *cobra.Command, args []string) error {
			archivePath, dir := args[0], args[1]
			report := ui.NewReport("unzip").Add("archive", archivePath).Add("target", dir)

			err := app.unzip(archivePath, dir, versioning, fast)
			app.render(report.AddError(err))

			return err
		},
	}

	cmd.Flags().BoolVar(&versioning, "versioning", false, "add new versions to existing leaves")
	cmd.Flags().BoolVar(&fast, "fast", false, "extract directly onto disk, skipping metadata, versions and locks")

	return cmd
}

func (app *App) unzip(archivePath, dir string, versioning, fast bool) error {
	if err := app.fsHandler.EnsureDirectory(dir); err != nil {
		return err
	}

	if fast {
		return app.archiveHandler.UnzipToDir(archivePath, dir)
	}

	zipLeaf, err := openArchiveLeaf(archivePath)
	if err != nil {
		return err
	}

	target, err := localfs.New(dir, localfs.Options{
		MetaRoot:     app.cfg.MetaRoot,
		VersionsRoot: app.cfg.VersionsRoot,
	})
	if err != nil {
		return err
	}

	locked, err := app.archiveHandler.CheckLockedEntries(zipLeaf, target, app.identity(), app.cfg.Admin, app.locks)
	if err != nil {
		return err
	}
	if len(locked) > 0 {
		return fmt.Errorf("%w: %s", errLockedEntries, strings.Join(locked, ", "))
	}

	return app.archiveHandler.Unzip(zipLeaf, target, archive.UnzipOptions{
		Identity:   app.identity(),
		Versioning: versioning,
	})
}

func newLockedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "locked ARCHIVE DIR",
		Short: "List the entries an extraction would overwrite while locked",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(_ *cobra.Command, args []string) error {
			zipLeaf, err := openArchiveLeaf(args[0])
			if err != nil {
				return err
			}

			target, err := localfs.New(args[1], localfs.Options{})
			if err != nil {
				return err
			}

			locked, err := app.archiveHandler.CheckLockedEntries(zipLeaf, target, app.identity(), app.cfg.Admin, app.locks)
			app.render(ui.NewReport("locked").AddList("entry", locked).AddError(err))

			return err
		},
	}
}

func newCopyCmd(app *App, move bool) *cobra.Command {
	var (
		contents bool
		exclude  []string
	)

	use, short := "copy SRC DIR", "Copy a file or directory into a directory"
	if move {
		use, short = "move SRC DIR", "Move a file or directory into a directory"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dir := args[0], args[1]
			filter := excludeFilter(exclude)

			var res filesystem.Result
			switch {
			case contents:
				res = app.fsHandler.CopyDirContentsToDir(src, dir, move, filter, cmd.Name())
			case move:
				res = app.fsHandler.MoveFileToDir(src, dir, filter, cmd.Name())
			default:
				res = app.fsHandler.CopyFileToDir(src, dir, filter, cmd.Name())
			}
			metrics.RecordOperation(cmd.Name(), res.OK())

			app.render(ui.NewReport(cmd.Name()).Add("source", src).Add("target", dir).AddResult(res))

			if !res.OK() {
				return fmt.Errorf("%w: %w", errTreeOperation, res.Err())
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&contents, "contents", false, "transplant only the contents of a source directory")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "skip elements whose name matches the pattern")

	return cmd
}

func newDuCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "du DIR",
		Short: "Show the size of a directory and the free space of its filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			report := ui.NewReport("du").
				Add("path", args[0]).
				AddBytes("size", app.fsHandler.GetDirSize(args[0]))

			free, err := app.fsHandler.FreeSpace(args[0])
			if err == nil {
				report.AddBytes("free", int64(free)) //nolint:gosec
			}
			app.render(report.AddError(err))

			return err
		},
	}
}

func newRmCmd(app *App) *cobra.Command {
	var (
		recursive bool
		keepRoot  bool
	)

	cmd := &cobra.Command{
		Use:   "rm PATH",
		Short: "Delete a file, or the contents of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			res := app.fsHandler.DeleteDirsAndFiles(args[0], recursive, !keepRoot)
			metrics.RecordOperation("rm", res.OK())

			app.render(ui.NewReport("rm").Add("path", args[0]).AddResult(res))

			if !res.OK() {
				return fmt.Errorf("%w: %w", errTreeOperation, res.Err())
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "also delete subdirectories")
	cmd.Flags().BoolVar(&keepRoot, "keep-root", false, "keep the directory itself")

	return cmd
}

func newValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate NAME...",
		Short: "Check whether names are valid filenames",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			report := ui.NewReport("validate")

			var invalid []string
			for _, name := range args {
				if err := validation.CheckFilename(name); err != nil {
					invalid = append(invalid, name)
					report.Add(name, err)

					continue
				}
				report.Add(name, "valid")
			}

			if len(invalid) > 0 {
				err := fmt.Errorf("%w: %q", errInvalidNames, invalid)
				app.render(report.AddError(err))

				return err
			}
			app.render(report)

			return nil
		},
	}
}

// openArchiveLeaf returns the leaf of a local archive file.
func openArchiveLeaf(archivePath string) (vfs.Leaf, error) {
	dir, err := localfs.New(filepath.Dir(archivePath), localfs.Options{})
	if err != nil {
		return nil, err
	}

	leaf, ok := dir.Resolve(filepath.Base(archivePath)).(vfs.Leaf)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errNotArchive, archivePath)
	}

	return leaf, nil
}

// relativeNames turns the paths into slash-separated names relative to root.
// No paths result in root itself.
func relativeNames(root string, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return []string{"."}, nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(absRoot, p)
		}

		rel, err := filepath.Rel(absRoot, p)
		if err != nil {
			return nil, err
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("%w: %s is outside of %s", vfs.ErrInvalidName, p, root)
		}

		names = append(names, filepath.ToSlash(rel))
	}

	return names, nil
}

// excludeFilter returns a filter vetoing elements whose base name matches
// any of the patterns.
func excludeFilter(patterns []string) filesystem.Filter {
	if len(patterns) == 0 {
		return nil
	}

	return func(path string, _ os.FileInfo) bool {
		base := filepath.Base(path)
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, base); ok {
				return false
			}
		}

		return true
	}
}
