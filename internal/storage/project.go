/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"triptych/internal/domain"
	applog "triptych/internal/log"
)

const (
	// FileExt is the conventional project file extension.
	FileExt        = ".json"
	BackupsDirName = "backups"
)

// Handle is an open project document.
type Handle struct {
	Path string
	Doc  domain.Document
	// Warnings collected while opening: schema violations and backup recovery.
	Warnings []string
	// Recovered is set when Doc came from a backup rather than Path.
	Recovered bool
}

// Name is the file name without extension.
func (h *Handle) Name() string {
	return strings.TrimSuffix(filepath.Base(h.Path), filepath.Ext(h.Path))
}

// BackupsDir is where backups and crash snapshots of the document live.
func (h *Handle) BackupsDir() string { return filepath.Join(filepath.Dir(h.Path), BackupsDirName) }

// Create writes doc to a new file at path. An existing file is not replaced.
func Create(path string, doc domain.Document) (*Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("create %s: %w", path, os.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	h := &Handle{Path: path, Doc: doc}
	if err := Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Open reads the document at path. When the file is missing or does not
// parse, the latest backup is used instead and Recovered is set.
func Open(path string) (*Handle, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "open").With(slog.String("path", path))
	h := &Handle{Path: path}
	data, err := os.ReadFile(path)
	if err == nil {
		var doc domain.Document
		if err = json.Unmarshal(data, &doc); err == nil {
			h.Doc = doc
			h.Warnings = validateWarnings(data, l)
			return h, nil
		}
		err = fmt.Errorf("parse document: %w", err)
	} else {
		err = fmt.Errorf("open document: %w", err)
	}
	bpath, data, berr := latestBackup(h.BackupsDir(), h.Name())
	if berr != nil {
		return nil, fmt.Errorf("%w; backup attempt: %v", err, berr)
	}
	if uerr := json.Unmarshal(data, &h.Doc); uerr != nil {
		return nil, fmt.Errorf("%w; parse latest backup: %v", err, uerr)
	}
	l.Warn("document recovered from backup", slog.String("backup", bpath), slog.Any("err", err))
	h.Recovered = true
	h.Warnings = append([]string{"recovered from backup " + filepath.Base(bpath)}, validateWarnings(data, l)...)
	return h, nil
}

// Save writes h.Doc to h.Path with a backup of the previous file.
func Save(h *Handle) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if h.Path == "" {
		return errors.New("invalid Handle: missing path")
	}
	data, err := json.MarshalIndent(h.Doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	if _, statErr := os.Stat(h.Path); statErr == nil {
		if _, err := backup(h.Path, h.BackupsDir(), h.Name()); err != nil {
			return fmt.Errorf("backup current document: %w", err)
		}
	}
	if err := writeAtomic(h.Path, data); err != nil {
		return err
	}
	applog.WithOperation(applog.WithComponent("storage"), "save").Debug("document saved",
		slog.String("path", h.Path), slog.Int("elements", len(h.Doc.Elements)))
	return nil
}

// SaveAs writes the document to path and points the handle there.
func SaveAs(h *Handle, path string) error {
	if h == nil {
		return errors.New("nil Handle")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("new path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}
	h.Path = path
	h.Recovered = false
	return Save(h)
}

// writeAtomic writes to a temp file in the target directory and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := os.Rename(temp, path); err != nil {
		// Windows refuses to rename over an existing file.
		_ = os.Remove(path)
		if err = os.Rename(temp, path); err != nil {
			_ = os.Remove(temp)
			return fmt.Errorf("replace document: %w", err)
		}
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}
