/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"triptych/internal/assets"
	"triptych/internal/config"
	"triptych/internal/crash"
	"triptych/internal/domain"
	"triptych/internal/editor"
	"triptych/internal/export"
	applog "triptych/internal/log"
	"triptych/internal/render"
	"triptych/internal/scene"
	"triptych/internal/storage"
	"triptych/internal/textlayout"
	"triptych/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "Triptych layout editor")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  triptych version|-v|--version             Show version")
	fmt.Fprintln(w, "  triptych new <file> [name]                Create an empty triptych document")
	fmt.Fprintln(w, "  triptych info <file>                      Print a summary of the document")
	fmt.Fprintln(w, "  triptych export <file> [flags]            Export with a preset (-preset, -out, -dpi, -guides, -formats)")
	fmt.Fprintln(w, "  triptych edit <file>                      Line-oriented editing shell (type 'help')")
	fmt.Fprintln(w, "  triptych watch <file> [flags]             Re-export whenever the document changes")
	fmt.Fprintln(w, "  triptych config [show|set-token|clear-token]")
	fmt.Fprintln(w, "                                            Show settings or manage the remote image token")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

// app carries what the subcommands share.
type app struct {
	cfg    config.AppConfig
	loader *assets.Loader
	cache  *assets.Cache
	ed     *editor.Editor
	out    io.Writer
	log    *slog.Logger
}

func (a *app) crashSource() *storage.Handle {
	if a.ed == nil {
		return nil
	}
	return a.ed.CrashHandle()
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) int {
	cfg, token, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	a := &app{cfg: cfg, out: out, log: applog.WithComponent("cli")}
	defer crash.Recover(a.crashSource)
	if cfgErr != nil {
		// Load returns defaults alongside the error.
		a.log.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	a.log.Debug("start", slog.Int("args", len(args)))

	if len(args) == 0 {
		usage(out)
		return 0
	}
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(out, "Triptych layout editor")
		fmt.Fprintln(out, version.String())
		return 0
	case "help", "--help", "-h":
		usage(out)
		return 0
	case "config":
		return a.exit(args[0], a.cmdConfig(args[1:], in, token))
	case "new", "info", "export", "edit", "watch":
	default:
		fmt.Fprintf(out, "unknown command %q\n", args[0])
		usage(out)
		return 2
	}
	if len(args) < 2 {
		fmt.Fprintf(out, "%s requires <file>\n", args[0])
		usage(out)
		return 2
	}
	path, _ := filepath.Abs(args[1])
	ctx = applog.ContextWithDocument(ctx, path)

	a.openLoader(ctx, token)
	defer a.close()
	a.ed = editor.New(editor.OptionsFrom(cfg, a.loader))

	var err error
	switch args[0] {
	case "new":
		name := ""
		if len(args) > 2 {
			name = strings.Join(args[2:], " ")
		}
		err = a.cmdNew(path, name)
	case "info":
		err = a.cmdInfo(path)
	case "export":
		err = a.cmdExport(ctx, path, args[2:])
	case "edit":
		err = a.cmdEdit(ctx, path, in)
	case "watch":
		err = a.cmdWatch(ctx, path, args[2:])
	}
	return a.exit(args[0], err)
}

// exit reports err and maps it to the process exit code.
func (a *app) exit(cmd string, err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintln(a.out, "Error:", err)
		return 2
	case err != nil:
		a.log.Error(cmd+" failed", slog.Any("err", err))
		fmt.Fprintln(a.out, "Error:", err)
		return 1
	}
	return 0
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// openLoader builds the asset loader. The metadata cache is optional: when
// it cannot be opened, remote images are simply fetched every time.
func (a *app) openLoader(ctx context.Context, token string) {
	dir := a.cfg.Assets.CacheDir
	if dir == "" {
		if d, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(d, "triptych")
		}
	}
	if dir != "" {
		c, err := assets.OpenCache(ctx, dir, a.cfg.Assets.CacheMaxBytes)
		if err != nil {
			a.log.Warn("asset cache disabled", slog.String("dir", dir), slog.Any("err", err))
		} else {
			a.cache = c
		}
	}
	a.loader = assets.NewLoader(assets.Options{
		Timeout:  a.cfg.Assets.Timeout(),
		Attempts: a.cfg.Assets.Retries,
		Token:    token,
		Cache:    a.cache,
	})
}

func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("close asset cache", slog.Any("err", err))
		}
	}
}

func (a *app) cmdNew(path, name string) error {
	if filepath.Ext(path) == "" {
		path += storage.FileExt
	}
	if err := a.ed.Create(path, name); err != nil {
		return err
	}
	a.log.Info("created document", slog.String("path", path))
	fmt.Fprintln(a.out, "Created", path)
	return nil
}

func (a *app) open(path string) error {
	res, err := a.ed.Open(path)
	if err != nil {
		return err
	}
	if res.Recovered {
		fmt.Fprintln(a.out, "Warning: document restored from the latest backup")
	}
	if res.Report.VersionMismatch {
		fmt.Fprintf(a.out, "Warning: document version %q, expected %q\n", res.Report.Version, domain.DocumentVersion)
	}
	for _, s := range res.Report.Skipped {
		fmt.Fprintf(a.out, "Warning: skipped element: %v\n", s)
	}
	return nil
}

func (a *app) cmdInfo(path string) error {
	if err := a.open(path); err != nil {
		return err
	}
	var doc domain.Document
	a.ed.Do(func(m *scene.Model) { doc = m.Document() })

	fmt.Fprintf(a.out, "Project: %s\n", doc.ProjectName)
	fmt.Fprintln(a.out, "File:", path)
	if st, err := os.Stat(path); err == nil {
		fmt.Fprintf(a.out, "Size: %s, modified %s\n", humanize.Bytes(uint64(st.Size())), humanize.Time(st.ModTime()))
	}
	fmt.Fprintf(a.out, "Sheet: %.0f x %.0f mm (%.0f mm per panel)\n", doc.Width, doc.Height, doc.PanelWidth())
	fmt.Fprintf(a.out, "Elements: %d\n", len(doc.Elements))
	for _, p := range domain.Panels {
		counts := map[domain.Kind]int{}
		for _, el := range a.ed.Elements() {
			if el.Panel == p {
				counts[el.Kind]++
			}
		}
		fmt.Fprintf(a.out, "  %-6s text %d, image %d, shape %d\n", p, counts[domain.KindText], counts[domain.KindImage], counts[domain.KindShape])
	}
	h := &storage.Handle{Path: path}
	if baks, err := storage.Backups(h.BackupsDir(), h.Name()); err == nil && len(baks) > 0 {
		fmt.Fprintf(a.out, "Backups: %d (latest %s)\n", len(baks), filepath.Base(baks[len(baks)-1]))
	}
	return nil
}

// exportFlags parses the flags shared by export and watch. Unset values
// come from the export section of the config.
func (a *app) exportFlags(name, docPath string, args []string) (export.BatchOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	preset := fs.String("preset", a.cfg.Export.Preset, "print or web")
	out := fs.String("out", filepath.Join(filepath.Dir(docPath), "export"), "output directory")
	dpi := fs.Int("dpi", 0, "raster DPI (default: preset)")
	guides := fs.Bool("guides", a.cfg.Export.Guides, "draw panel guides")
	formats := fs.String("formats", "", "comma separated pdf,png,svg (default: preset)")
	if err := fs.Parse(args); err != nil {
		return export.BatchOptions{}, usageError{err.Error()}
	}
	p, err := export.ParsePreset(*preset)
	if err != nil {
		return export.BatchOptions{}, usageError{err.Error()}
	}
	opt := export.BatchOptions{
		Preset:        p,
		DPIOverride:   *dpi,
		IncludeGuides: guides,
		OutDir:        *out,
		Fonts:         textlayout.DefaultLibrary(),
	}
	if opt.DPIOverride == 0 && p == export.PresetPrint && a.cfg.Export.DPI > 0 {
		opt.DPIOverride = a.cfg.Export.DPI
	}
	if *formats != "" {
		opt.Formats = strings.Split(*formats, ",")
	}
	return opt, nil
}

func (a *app) exportOnce(ctx context.Context, opt export.BatchOptions) error {
	start := time.Now()
	files, err := export.BatchExport(ctx, a.ed.Snapshot(render.ModePrint), a.loader, opt)
	for _, f := range files {
		size := ""
		if st, serr := os.Stat(f); serr == nil {
			size = humanize.Bytes(uint64(st.Size()))
		}
		fmt.Fprintf(a.out, "Wrote %s (%s)\n", f, size)
	}
	a.log.Info("export done", slog.Int("files", len(files)), slog.Duration("took", time.Since(start)))
	return err
}

func (a *app) cmdExport(ctx context.Context, path string, args []string) error {
	opt, err := a.exportFlags("export", path, args)
	if err != nil {
		return err
	}
	if err := a.open(path); err != nil {
		return err
	}
	return a.exportOnce(ctx, opt)
}
