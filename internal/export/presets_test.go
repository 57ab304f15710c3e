/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"triptych/internal/domain"
	"triptych/internal/render"
)

func TestBatchExportWebPreset(t *testing.T) {
	dir := t.TempDir()
	files, err := BatchExport(context.Background(), sheet(box("a", domain.PanelLeft, 5, 5, 20, 20)), nil,
		BatchOptions{Preset: PresetWeb, OutDir: dir})
	if err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	checks := []string{
		filepath.Join(dir, "png", "spring-fair.png"),
		filepath.Join(dir, "svg", "spring-fair.svg"),
	}
	if len(files) != len(checks) {
		t.Fatalf("files = %v", files)
	}
	for i, p := range checks {
		if files[i] != p {
			t.Fatalf("file %d = %s, want %s", i, files[i], p)
		}
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatchExportPrintPreset(t *testing.T) {
	dir := t.TempDir()
	files, err := BatchExport(context.Background(), sheet(box("a", domain.PanelLeft, 5, 5, 20, 20)), nil,
		BatchOptions{Preset: PresetPrint, OutDir: dir})
	if err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	if len(files) != 1 || files[0] != filepath.Join(dir, "pdf", "spring-fair.pdf") {
		t.Fatalf("files = %v", files)
	}
	if _, err := os.Stat(filepath.Join(dir, "png")); !os.IsNotExist(err) {
		t.Fatalf("print preset must not write png")
	}
}

func TestBatchExportOverridesAndErrors(t *testing.T) {
	dir := t.TempDir()
	s := sheet(box("a", domain.PanelLeft, 5, 5, 20, 20))
	guides := true
	files, err := BatchExport(context.Background(), s, nil,
		BatchOptions{Preset: PresetPrint, Formats: []string{" PNG "}, DPIOverride: 48, IncludeGuides: &guides, OutDir: dir})
	if err != nil || len(files) != 1 {
		t.Fatalf("override export: %v %v", files, err)
	}
	if _, err := BatchExport(context.Background(), s, nil, BatchOptions{Formats: []string{"cbz"}, OutDir: dir}); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if _, err := BatchExport(context.Background(), s, nil, BatchOptions{Preset: PresetWeb}); err == nil {
		t.Fatalf("expected missing out dir error")
	}
	s.Mode = render.ModeInteractive
	if _, err := BatchExport(context.Background(), s, nil, BatchOptions{Preset: PresetWeb, OutDir: dir}); err == nil {
		t.Fatalf("interactive snapshots must be rejected")
	}
}

func TestParsePreset(t *testing.T) {
	if p, err := ParsePreset(" Print "); err != nil || p != PresetPrint {
		t.Fatalf("parse print: %v %v", p, err)
	}
	if _, err := ParsePreset("cbz"); err == nil {
		t.Fatalf("expected error")
	}
}
