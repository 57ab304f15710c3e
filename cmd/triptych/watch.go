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
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 150 * time.Millisecond

// docWatcher reports changes to one file. The parent directory is watched
// because editors and storage.Save replace the file by renaming a temp file
// over it, which drops a watch on the file itself.
type docWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	Events  chan string
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

func newDocWatcher(path string) (*docWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}
	dw := &docWatcher{
		watcher: w,
		path:    filepath.Clean(path),
		Events:  make(chan string, 1),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go dw.run()
	return dw, nil
}

func (w *docWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

// run coalesces bursts of events into one notification sent once the file
// has been quiet for the debounce interval.
func (w *docWatcher) run() {
	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case <-timer.C:
			select {
			case w.Events <- w.path:
			default: // a notification is already pending
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			timer.Stop()
			return
		}
	}
}

func (a *app) cmdWatch(ctx context.Context, path string, args []string) error {
	opt, err := a.exportFlags("watch", path, args)
	if err != nil {
		return err
	}
	w, err := newDocWatcher(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()

	l := a.log.With(slog.String("op", "watch"), slog.String("path", path))
	rebuild := func() {
		if err := a.open(path); err != nil {
			l.Warn("reload failed", slog.Any("err", err))
			fmt.Fprintln(a.out, "Error:", err)
			return
		}
		if err := a.exportOnce(ctx, opt); err != nil {
			l.Warn("export failed", slog.Any("err", err))
			fmt.Fprintln(a.out, "Error:", err)
		}
	}
	rebuild()
	fmt.Fprintln(a.out, "Watching", path, "(Ctrl+C to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.Events:
			l.Info("document changed")
			rebuild()
		case err := <-w.Errors:
			l.Warn("watcher error", slog.Any("err", err))
		}
	}
}
