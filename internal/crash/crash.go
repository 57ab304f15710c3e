/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report plus a snapshot of the
// document being edited, then exits.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "triptych/internal/log"
	"triptych/internal/storage"
	"triptych/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Source returns the document to rescue, or nil. It runs during panic
// handling and must not block on locks the panicking goroutine may hold.
type Source func() *storage.Handle

// Recover captures a panic, logs it with the stack, writes a report and a
// crash snapshot of the document from src, and exits with code 2.
//
// Usage: defer crash.Recover(src)
func Recover(src Source) {
	if r := recover(); r != nil {
		handle(src, r, debug.Stack())
	}
}

// Go runs fn on a new goroutine guarded by Recover.
func Go(src Source, fn func()) {
	go func() {
		defer Recover(src)
		fn()
	}()
}

func handle(src Source, r any, stack []byte) {
	l := applog.WithComponent("crash")
	l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

	var h *storage.Handle
	if src != nil {
		h = rescue(src)
	}
	reportPath, err := writeReport(h, r, stack)
	if err != nil {
		l.Error("crash report write failed", slog.Any("err", err))
	}
	if h != nil {
		if path, err := storage.AutosaveCrashSnapshot(h); err != nil {
			l.Error("autosave crash snapshot failed", slog.Any("err", err))
		} else {
			l.Info("autosave crash snapshot written", slog.String("path", path))
			_, _ = fmt.Fprintf(os.Stderr, "Unsaved work was saved to: %s\n", path)
		}
	}

	if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
		l.Error("failed to write crash message to stderr", slog.Any("err", err))
	}
	_, _ = fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	// Exit with a non-zero code to indicate failure in CLI context.
	exitFn(2)
}

// rescue calls src, absorbing a second panic.
func rescue(src Source) (h *storage.Handle) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponent("crash").Error("document source panicked", slog.Any("panic", r))
			h = nil
		}
	}()
	return src()
}

func writeReport(h *storage.Handle, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if h != nil && h.Path != "" {
		dir = h.BackupsDir()
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("triptych-crash-%s.log", stamp))

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Triptych Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if h != nil {
		_, _ = fmt.Fprintf(&buf, "Document: %s\n", h.Path)
		_, _ = fmt.Fprintf(&buf, "Elements: %d\n", len(h.Doc.Elements))
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	return path, nil
}
