/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

// isolate points config, cache and logging at the test's temp dir and
// swaps the OS keychain for an in-memory one.
func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv("TRP_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("TRP_ASSETS_CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("TRP_LOG_LEVEL", "error")
	return dir
}

func runCLI(t *testing.T, input string, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(input), &out)
	return code, out.String()
}

func TestVersionAndUsage(t *testing.T) {
	isolate(t)
	if code, out := runCLI(t, "", "version"); code != 0 || !strings.Contains(out, "Triptych") {
		t.Fatalf("version: %d %q", code, out)
	}
	if code, out := runCLI(t, ""); code != 0 || !strings.Contains(out, "Usage:") {
		t.Fatalf("usage: %d %q", code, out)
	}
	if code, _ := runCLI(t, "", "bogus"); code != 2 {
		t.Fatalf("unknown command exit = %d, want 2", code)
	}
	if code, _ := runCLI(t, "", "info"); code != 2 {
		t.Fatalf("missing file exit = %d, want 2", code)
	}
}

func TestNewEditInfoExport(t *testing.T) {
	dir := isolate(t)
	doc := filepath.Join(dir, "fair.json")

	if code, out := runCLI(t, "", "new", doc, "Spring", "Fair"); code != 0 {
		t.Fatalf("new: %d %q", code, out)
	}
	if code, _ := runCLI(t, "", "new", doc); code != 1 {
		t.Fatalf("new over an existing file must fail, got %d", code)
	}

	script := strings.Join([]string{
		"add shape ellipse @left",
		"add text Hello world @right",
		"set . color=#ff0000 fontSize=24",
		"list",
		"save",
		"quit",
	}, "\n")
	code, out := runCLI(t, script, "edit", doc)
	if code != 0 || strings.Count(out, "Added") != 2 || !strings.Contains(out, "Saved") {
		t.Fatalf("edit: %d %q", code, out)
	}
	if !strings.Contains(out, `"Hello world"`) {
		t.Fatalf("list output missing text element: %q", out)
	}

	code, out = runCLI(t, "", "info", doc)
	if code != 0 {
		t.Fatalf("info: %d %q", code, out)
	}
	for _, want := range []string{"Project: Spring Fair", "Elements: 2", "Backups: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("info output missing %q: %q", want, out)
		}
	}

	outDir := filepath.Join(dir, "out")
	code, out = runCLI(t, "", "export", doc, "-preset", "web", "-out", outDir, "-dpi", "24")
	if code != 0 {
		t.Fatalf("export: %d %q", code, out)
	}
	for _, f := range []string{"png/spring-fair.png", "svg/spring-fair.svg"} {
		if _, err := os.Stat(filepath.Join(outDir, f)); err != nil {
			t.Fatalf("expected %s: %v", f, err)
		}
	}
	if code, _ := runCLI(t, "", "export", doc, "-preset", "poster"); code != 2 {
		t.Fatalf("bad preset exit = %d, want 2", code)
	}
}

func TestShellDragAndUndo(t *testing.T) {
	dir := isolate(t)
	doc := filepath.Join(dir, "drag.json")
	script := strings.Join([]string{
		"add shape",
		"move . 10 10",
		"drag center 50 50 80 90",
		"list",
		"undo",
		"list",
		"history",
		"quit!",
	}, "\n")
	code, out := runCLI(t, script, "edit", doc)
	if code != 0 {
		t.Fatalf("edit: %d %q", code, out)
	}
	if !strings.Contains(out, "Created") || !strings.Contains(out, "dragging el_") {
		t.Fatalf("expected created document and a drag gesture: %q", out)
	}
	first := strings.Index(out, " 40,50 100x100")
	back := strings.LastIndex(out, " 10,10 100x100")
	if first < 0 || back < first {
		t.Fatalf("drag then undo should move 10,10 -> 40,50 -> 10,10: %q", out)
	}
	if !strings.Contains(out, "(cap 50)") {
		t.Fatalf("history should report the configured capacity: %q", out)
	}
}

func TestShellReportsErrorsAndGuardsQuit(t *testing.T) {
	dir := isolate(t)
	doc := filepath.Join(dir, "guard.json")
	script := strings.Join([]string{
		"frobnicate",
		"select nope",
		"add shape hexagon",
		"add shape",
		"quit",
		"quit!",
	}, "\n")
	code, out := runCLI(t, script, "edit", doc)
	if code != 0 {
		t.Fatalf("edit: %d %q", code, out)
	}
	for _, want := range []string{`unknown command "frobnicate"`, "element not found", `unknown shape "hexagon"`, "unsaved changes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}

func TestDocWatcherCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := newDocWatcher(path)
	if err != nil {
		t.Fatalf("newDocWatcher: %v", err)
	}
	defer w.Close()

	// Unrelated files in the same directory are ignored.
	_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644)
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("{ }"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case got := <-w.Events:
		if got != path {
			t.Fatalf("event for %q, want %q", got, path)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change event")
	}
	select {
	case got := <-w.Events:
		t.Fatalf("burst should produce one event, got another for %q", got)
	case <-time.After(4 * debounce):
	}
}

func TestConfigTokenLifecycle(t *testing.T) {
	dir := isolate(t)

	code, out := runCLI(t, "", "config")
	if code != 0 || !strings.Contains(out, "(env TRP_ASSETS_CACHE_DIR)") {
		t.Fatalf("show: %d %q", code, out)
	}
	if !strings.Contains(out, "not set") {
		t.Fatalf("fresh keyring should report no token: %q", out)
	}

	if code, out := runCLI(t, "s3cret\n", "config", "set-token"); code != 0 {
		t.Fatalf("set-token: %d %q", code, out)
	}
	if tok, err := keyring.Get("Triptych", "assets_token"); err != nil || tok != "s3cret" {
		t.Fatalf("keyring token = %q, %v", tok, err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if strings.Contains(string(data), filepath.Join(dir, "cache")) {
		t.Fatalf("env override leaked into the config file:\n%s", data)
	}
	if _, out := runCLI(t, "", "config", "show"); !strings.Contains(out, "assets.token") || strings.Contains(out, "not set") {
		t.Fatalf("show after set-token: %q", out)
	}

	for i := 0; i < 2; i++ {
		if code, out := runCLI(t, "", "config", "clear-token"); code != 0 {
			t.Fatalf("clear-token #%d: %d %q", i+1, code, out)
		}
	}
	if _, out := runCLI(t, "", "config", "show"); !strings.Contains(out, "not set") {
		t.Fatalf("show after clear-token: %q", out)
	}

	if code, _ := runCLI(t, "\n", "config", "set-token"); code != 2 {
		t.Fatalf("empty token exit = %d, want 2", code)
	}
	if code, _ := runCLI(t, "", "config", "rotate"); code != 2 {
		t.Fatalf("unknown config command exit = %d, want 2", code)
	}
}

func TestShellZoomMapsPointer(t *testing.T) {
	dir := isolate(t)
	doc := filepath.Join(dir, "zoom.json")
	script := strings.Join([]string{
		"add shape",
		"move . 10 10",
		"zoom 200",
		"drag center 100 100 160 180",
		"list",
		"zoom in",
		"zoom 9000",
		"zoom reset",
		"zoom wide",
		"quit!",
	}, "\n")
	code, out := runCLI(t, script, "edit", doc)
	if code != 0 {
		t.Fatalf("edit: %d %q", code, out)
	}
	if !strings.Contains(out, " 40,50 100x100") {
		t.Fatalf("drag at 200%% should move by half the view delta: %q", out)
	}
	for _, want := range []string{"Zoom: 200%", "Zoom: 220%", "Zoom: 500%", "Zoom: 100%", "zoom [in|out|reset|<percent>]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %q", want, out)
		}
	}
}
