/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0
 */

package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"triptych/internal/render"
	"triptych/internal/textlayout"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// ParsePreset accepts "print" and "web" in any case.
func ParsePreset(s string) (PresetName, error) {
	switch p := PresetName(strings.ToLower(strings.TrimSpace(s))); p {
	case PresetWeb, PresetPrint:
		return p, nil
	}
	return "", fmt.Errorf("unknown preset %q", s)
}

// BatchOptions controls a preset run.
//
// Files are written as <OutDir>/<format>/<project>.<format>; the project
// part is the snapshot's project name reduced to [a-z0-9-_].
type BatchOptions struct {
	Preset        PresetName
	Formats       []string // allowed: pdf, png, svg; empty means preset defaults
	DPIOverride   int      // when > 0 overrides the preset raster DPI
	IncludeGuides *bool    // when set, overrides the preset's default for guides
	OutDir        string
	Fonts         *textlayout.FontLibrary
}

// BatchExport runs the preset on snap and returns the written paths.
func BatchExport(ctx context.Context, snap render.Snapshot, imgs Images, opt BatchOptions) ([]string, error) {
	if opt.OutDir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if snap.Mode != render.ModePrint {
		return nil, fmt.Errorf("batch export needs a print snapshot, got %s", snap.Mode)
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	// Neither preset draws guides unless asked.
	guides := false
	if opt.IncludeGuides != nil {
		guides = *opt.IncludeGuides
	}
	dpi := presetDPI(opt.Preset)
	if opt.DPIOverride > 0 {
		dpi = opt.DPIOverride
	}

	stem := fileStem(snap)
	var written []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		out := filepath.Join(opt.OutDir, f, stem+"."+f)
		var err error
		switch f {
		case "pdf":
			err = ExportPDF(ctx, snap, imgs, out, PDFOptions{IncludeGuides: guides})
		case "png":
			err = ExportPNG(ctx, snap, imgs, out, PNGOptions{DPI: dpi, IncludeGuides: guides, Fonts: opt.Fonts})
		case "svg":
			err = ExportSVG(snap, out, SVGOptions{IncludeGuides: guides, Fonts: opt.Fonts})
		default:
			return written, fmt.Errorf("unknown format: %s", f)
		}
		if err != nil {
			return written, fmt.Errorf("%s export: %w", f, err)
		}
		written = append(written, out)
	}
	return written, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"png", "svg"}
	default:
		return []string{"pdf"}
	}
}

func presetDPI(p PresetName) int {
	if p == PresetPrint {
		return 300
	}
	return CanvasDPI
}
