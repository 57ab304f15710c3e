/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"log/slog"

	"triptych/internal/domain"
	"triptych/internal/scene"
	"triptych/internal/storage"
)

// ErrNoDocument is returned by Save when no file is associated yet.
var ErrNoDocument = errors.New("no document file; use SaveAs")

// OpenResult describes a loaded document.
type OpenResult struct {
	Report    scene.LoadReport
	Warnings  []string // schema problems and backup recovery notes
	Recovered bool
}

// Create writes a new empty document named name at path and loads it.
func (e *Editor) Create(path, name string) error {
	h, err := storage.Create(path, domain.NewDocument(name))
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelActive()
	e.model.Load(h.Doc)
	e.doc.Store(h)
	return nil
}

// Open reads path, falling back to the latest backup, and replaces the
// scene with it. History starts empty.
func (e *Editor) Open(path string) (OpenResult, error) {
	h, err := storage.Open(path)
	if err != nil {
		return OpenResult{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelActive()
	rep := e.model.Load(h.Doc)
	e.doc.Store(h)
	for _, w := range h.Warnings {
		e.log.Warn("document warning", slog.String("path", path), slog.String("warning", w))
	}
	return OpenResult{Report: rep, Warnings: h.Warnings, Recovered: h.Recovered}, nil
}

// Save writes the scene to the open file.
func (e *Editor) Save() error {
	cur := e.doc.Load()
	if cur == nil {
		return ErrNoDocument
	}
	return e.saveTo(cur.Path)
}

// SaveAs writes the scene to path and makes it the open file.
func (e *Editor) SaveAs(path string) error { return e.saveTo(path) }

func (e *Editor) saveTo(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := &storage.Handle{Path: path, Doc: e.model.Document()}
	if err := storage.Save(h); err != nil {
		return err
	}
	e.model.Save()
	e.doc.Store(h)
	return nil
}

// Path is the open file, or "".
func (e *Editor) Path() string {
	if h := e.doc.Load(); h != nil {
		return h.Path
	}
	return ""
}

// Modified reports unsaved changes.
func (e *Editor) Modified() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Modified()
}

// CrashHandle returns the open file with the live scene for a crash
// snapshot. It never blocks: when the lock is taken, possibly by the
// panicking goroutine, the last saved document is used. Without an open
// file the snapshot goes to the temp directory.
func (e *Editor) CrashHandle() *storage.Handle {
	h := &storage.Handle{}
	if cur := e.doc.Load(); cur != nil {
		*h = *cur
	}
	if e.mu.TryLock() {
		h.Doc = e.model.Document()
		e.mu.Unlock()
	}
	if h.Path == "" {
		if len(h.Doc.Elements) == 0 {
			return nil
		}
		h.Path = storage.UnsavedPath(h.Doc.ProjectName)
	}
	return h
}
