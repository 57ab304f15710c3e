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
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"triptych/internal/domain"
)

// MaxBackups is how many backups of one document are kept.
const MaxBackups = 20

const stampLayout = "20060102-150405.000000"

func backupPrefix(name string) string { return name + FileExt + "." }

// backup copies path into dir as <name>.json.<stamp>.bak and prunes old backups.
func backup(path, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	bpath := filepath.Join(dir, backupPrefix(name)+time.Now().Format(stampLayout)+".bak")
	if err := copyFile(path, bpath); err != nil {
		return "", err
	}
	pruneBackups(dir, name, MaxBackups)
	return bpath, nil
}

// Backups lists the backups of the named document, oldest first.
func Backups(dir, name string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var out []string
	for _, e := range ents {
		n := e.Name()
		if strings.HasPrefix(n, backupPrefix(name)) && strings.HasSuffix(n, ".bak") {
			out = append(out, filepath.Join(dir, n))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func pruneBackups(dir, name string, keep int) {
	list, err := Backups(dir, name)
	if err != nil || len(list) <= keep {
		return
	}
	for _, p := range list[:len(list)-keep] {
		_ = os.Remove(p)
	}
}

func latestBackup(dir, name string) (string, []byte, error) {
	list, err := Backups(dir, name)
	if err != nil {
		return "", nil, err
	}
	if len(list) == 0 {
		return "", nil, errors.New("no backups found")
	}
	latest := list[len(list)-1]
	data, err := os.ReadFile(latest)
	if err != nil {
		return "", nil, fmt.Errorf("read latest backup: %w", err)
	}
	return latest, data, nil
}

// AutosaveCrashSnapshot writes h.Doc as <name>.crash-<stamp>.json into the
// backups directory and returns the written path. h.Path is not touched.
func AutosaveCrashSnapshot(h *Handle) (string, error) {
	if h == nil {
		return "", errors.New("nil Handle")
	}
	name := h.Name()
	if name == "" || name == "." {
		name = "untitled"
	}
	return WriteCrashSnapshot(h.BackupsDir(), name, h.Doc)
}

// UnsavedPath is where a document that was never saved lands on a crash:
// <tmp>/triptych-unsaved/<project>.json.
func UnsavedPath(project string) string {
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r < ' ' {
			return '_'
		}
		return r
	}, strings.TrimSpace(project))
	if name == "" {
		name = "untitled"
	}
	return filepath.Join(os.TempDir(), "triptych-unsaved", name+FileExt)
}

// WriteCrashSnapshot writes doc into dir as <name>.crash-<stamp>.json.
func WriteCrashSnapshot(dir, name string, doc domain.Document) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash snapshot: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.crash-%s%s", name, time.Now().Format("20060102-150405"), FileExt))
	if err := writeAtomic(path, append(data, '\n')); err != nil {
		return "", err
	}
	return path, nil
}

// copyFile copies a file from src to dst (overwrites dst if exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
