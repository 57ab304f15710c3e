/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary maps a family name and style to a parsed OpenType font.
// Family names are compared case-insensitively.
type FontLibrary struct {
	fonts map[fontKey]*opentype.Font
	def   string
}

type fontKey struct {
	family string
	bold   bool
	italic bool
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*opentype.Font)} }

// DefaultLibrary holds the four Go font faces under the family "go", which
// also serves every family the library does not know.
func DefaultLibrary() *FontLibrary {
	fl := NewFontLibrary()
	for _, f := range []struct {
		data         []byte
		bold, italic bool
	}{
		{goregular.TTF, false, false},
		{gobold.TTF, true, false},
		{goitalic.TTF, false, true},
		{gobolditalic.TTF, true, true},
	} {
		// The embedded faces are known to parse.
		_ = fl.LoadBytes("go", f.bold, f.italic, f.data)
	}
	fl.def = "go"
	return fl
}

// LoadTTF reads a font file into the library.
func (fl *FontLibrary) LoadTTF(family string, bold, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.LoadBytes(family, bold, italic, data)
}

func (fl *FontLibrary) LoadBytes(family string, bold, italic bool, data []byte) error {
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.fonts[fontKey{family: strings.ToLower(family), bold: bold, italic: italic}] = f
	return nil
}

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil || len(fl.fonts) == 0 {
		return nil
	}
	families := append(append([]string(nil), spec.Families...), fl.def)
	for _, fam := range families {
		fam = strings.ToLower(fam)
		if f, ok := fl.fonts[fontKey{fam, spec.Bold, spec.Italic}]; ok {
			return f
		}
		if f, ok := fl.fonts[fontKey{fam, false, false}]; ok {
			return f
		}
	}
	return nil
}

// OTProvider resolves specs through a FontLibrary and falls back to
// another Provider when no font matches.
type OTProvider struct {
	Lib      *FontLibrary
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	size := spec.size()
	if f := p.Lib.find(spec); f != nil {
		// DPI 72 makes one point one pixel, which is what the sizes mean.
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
		if err == nil {
			return face, metricsOf(face, 1)
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}
