/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"triptych/internal/assets"
	"triptych/internal/config"
	"triptych/internal/domain"
	"triptych/internal/interact"
	"triptych/internal/render"
	"triptych/internal/scene"
	"triptych/internal/storage"
	"triptych/internal/vector"
)

// fakeLoader resolves "WxH" sources to an image of that natural size.
type fakeLoader struct {
	delay time.Duration
	mu    sync.Mutex
	calls int
}

func (f *fakeLoader) Load(ctx context.Context, src string) (assets.Source, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return assets.Source{}, ctx.Err()
		}
	}
	var w, h int
	if _, err := fmt.Sscanf(src, "%dx%d", &w, &h); err != nil {
		return assets.Source{}, fmt.Errorf("%w: %s", assets.ErrUnsupportedSource, src)
	}
	return assets.Source{Src: "data:image/png;base64,AAAA#" + src, Width: w, Height: h, MIME: "image/png"}, nil
}

func newEditor(t *testing.T) *Editor {
	t.Helper()
	return New(Options{Loader: &fakeLoader{}})
}

func at(x, y float64) *vector.Pt { return &vector.Pt{X: x, Y: y} }

func TestDragCommitsOneHistoryEntry(t *testing.T) {
	e := newEditor(t)
	sh := e.AddShape(domain.ShapeRectangle, Placement{Panel: domain.PanelLeft, At: at(10, 10)})
	if !e.PointerDown(sh.ID, interact.Body(), vector.Pt{X: 50, Y: 50}) {
		t.Fatalf("pointer down refused")
	}
	if mode, ok := e.ActiveMode(); !ok || mode != domain.ModeDragging {
		t.Fatalf("mode = %v %v", mode, ok)
	}
	for i := 1; i <= 5; i++ {
		e.PointerMove(vector.Pt{X: 50 + float64(i)*6, Y: 50 + float64(i)*8})
	}
	d, _ := e.renderer.Drawable(sh.ID)
	if d.Frame.X != 40 || d.Frame.Y != 50 {
		t.Fatalf("live frame = %+v", d.Frame)
	}
	if _, n, _ := e.History(); n != 1 {
		t.Fatalf("live moves wrote history: %d entries", n)
	}
	g, ok := e.PointerUp(vector.Pt{X: 80, Y: 90})
	if !ok || g.Start.X != 10 || g.Final.X != 40 {
		t.Fatalf("gesture = %+v %v", g, ok)
	}
	if idx, n, _ := e.History(); n != 2 || idx != 1 {
		t.Fatalf("history after gesture = %d/%d", idx, n)
	}
	if _, ok := e.ActiveMode(); ok {
		t.Fatalf("gesture still active")
	}
	e.Undo()
	el, _ := e.Element(sh.ID)
	if el.X != 10 || el.Y != 10 {
		t.Fatalf("undo must restore the start frame, got (%g,%g)", el.X, el.Y)
	}
	e.Redo()
	el, _ = e.Element(sh.ID)
	if el.X != 40 || el.Y != 50 {
		t.Fatalf("redo must reapply the final frame, got (%g,%g)", el.X, el.Y)
	}
}

func TestPointerDownAtRoutesHandlesBodiesAndEmptySpace(t *testing.T) {
	e := newEditor(t)
	sh := e.AddShape(domain.ShapeRectangle, Placement{Panel: domain.PanelRight, At: at(100, 100)})
	if !e.PointerDownAt(domain.PanelRight, vector.Pt{X: 200, Y: 200}) {
		t.Fatalf("press on the bottom-right handle refused")
	}
	if mode, _ := e.ActiveMode(); mode != domain.ModeResizing {
		t.Fatalf("mode = %v, want resizing", mode)
	}
	e.PointerUp(vector.Pt{X: 230, Y: 240})
	el, _ := e.Element(sh.ID)
	if el.Width != 130 || el.Height != 140 {
		t.Fatalf("resized to %gx%g", el.Width, el.Height)
	}

	if !e.PointerDownAt(domain.PanelRight, vector.Pt{X: 150, Y: 150}) {
		t.Fatalf("press on the body refused")
	}
	if mode, _ := e.ActiveMode(); mode != domain.ModeDragging {
		t.Fatalf("mode = %v, want dragging", mode)
	}
	e.PointerUp(vector.Pt{X: 150, Y: 150})

	if e.PointerDownAt(domain.PanelLeft, vector.Pt{X: 150, Y: 150}) {
		t.Fatalf("press on empty space must not start a gesture")
	}
	if _, ok := e.Selected(); ok {
		t.Fatalf("press on empty space must deselect")
	}
	if h := e.HandlesOf(sh.ID); len(h) != 0 {
		t.Fatalf("deselected element keeps %d handles", len(h))
	}
}

func TestPointerDownIgnoredDuringGesture(t *testing.T) {
	e := newEditor(t)
	a := e.AddShape(domain.ShapeRectangle, Placement{At: at(0, 0)})
	b := e.AddShape(domain.ShapeEllipse, Placement{At: at(300, 300)})
	e.PointerDown(a.ID, interact.Body(), vector.Pt{X: 10, Y: 10})
	if e.PointerDown(b.ID, interact.Body(), vector.Pt{X: 310, Y: 310}) {
		t.Fatalf("second pointer down must be ignored")
	}
	if e.PointerDown("nope", interact.Body(), vector.Pt{}) {
		t.Fatalf("unknown id accepted")
	}
	e.Cancel()
	if e.PointerMove(vector.Pt{X: 1, Y: 1}) {
		t.Fatalf("move after cancel")
	}
	if _, ok := e.PointerUp(vector.Pt{}); ok {
		t.Fatalf("up after cancel")
	}
}

func TestRemoveAndUndoCancelActiveGesture(t *testing.T) {
	e := newEditor(t)
	a := e.AddShape(domain.ShapeRectangle, Placement{At: at(0, 0)})
	e.PointerDown(a.ID, interact.Body(), vector.Pt{X: 10, Y: 10})
	e.PointerMove(vector.Pt{X: 60, Y: 10})
	e.Remove(a.ID)
	if _, ok := e.ActiveMode(); ok {
		t.Fatalf("removing the dragged element must end the gesture")
	}

	b := e.AddShape(domain.ShapeRectangle, Placement{At: at(0, 0)})
	e.PointerDown(b.ID, interact.Body(), vector.Pt{X: 10, Y: 10})
	e.PointerMove(vector.Pt{X: 60, Y: 10})
	e.Undo()
	if _, ok := e.ActiveMode(); ok {
		t.Fatalf("undo must end the gesture")
	}
}

func TestDragSnapsToPanelEdge(t *testing.T) {
	e := New(Options{Loader: &fakeLoader{}, SnapTolerance: 6})
	sh := e.AddShape(domain.ShapeRectangle, Placement{Panel: domain.PanelLeft, At: at(10, 300)})
	e.PointerDown(sh.ID, interact.Body(), vector.Pt{X: 50, Y: 350})
	e.PointerMove(vector.Pt{X: 43, Y: 350})
	if g := e.Guides(); len(g) != 1 || g[0].Orientation != "vertical" || g[0].Position != 0 {
		t.Fatalf("guides = %+v", g)
	}
	e.PointerUp(vector.Pt{X: 43, Y: 350})
	el, _ := e.Element(sh.ID)
	if el.X != 0 || el.Y != 300 {
		t.Fatalf("snapped to (%g,%g)", el.X, el.Y)
	}
	if len(e.Guides()) != 0 {
		t.Fatalf("guides must clear on release")
	}
}

func TestAddTextIsCenteredInDefaultPanel(t *testing.T) {
	e := New(Options{Loader: &fakeLoader{}, DefaultPanel: domain.PanelLeft})
	el := e.AddText("", Placement{})
	pw, ph := vector.MmToPx(domain.DefaultWidthMM/3), vector.MmToPx(domain.DefaultHeightMM)
	if el.Panel != domain.PanelLeft || el.Text.Text != domain.DefaultText {
		t.Fatalf("text = %+v", el)
	}
	if el.Width != TextWidth || el.Height != TextHeight {
		t.Fatalf("size = %gx%g", el.Width, el.Height)
	}
	if diff := el.X - (pw-TextWidth)/2; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("x = %g", el.X)
	}
	if diff := el.Y - (ph-TextHeight)/2; diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("y = %g", el.Y)
	}
	if sel, ok := e.Selected(); !ok || sel.ID != el.ID {
		t.Fatalf("new element must be selected")
	}
}

func TestAddImageFitsAndKeepsRatio(t *testing.T) {
	e := newEditor(t)
	el, err := e.AddImage(context.Background(), "600x300", Placement{Panel: domain.PanelRight})
	if err != nil {
		t.Fatalf("add image: %v", err)
	}
	if el.Width != 300 || el.Height != 150 {
		t.Fatalf("size = %gx%g", el.Width, el.Height)
	}
	if el.Image.OriginalWidth != 600 || el.Image.OriginalHeight != 300 || el.Image.Src == "" {
		t.Fatalf("image = %+v", el.Image)
	}
	small, _ := e.AddImage(context.Background(), "8x4", Placement{})
	if small.Height <= domain.MinDimension || small.Width != 2*small.Height {
		t.Fatalf("tiny image = %gx%g", small.Width, small.Height)
	}
}

func TestAddImageFailureStillInsertsElement(t *testing.T) {
	e := newEditor(t)
	el, err := e.AddImage(context.Background(), "ftp://nowhere", Placement{})
	if !errors.Is(err, assets.ErrUnsupportedSource) {
		t.Fatalf("err = %v", err)
	}
	if el == nil || el.Image.Src != "" {
		t.Fatalf("element = %+v", el)
	}
	if _, ok := e.Element(el.ID); !ok {
		t.Fatalf("failed image must still be in the scene")
	}
	if !e.Remove(el.ID) {
		t.Fatalf("caller must be able to remove it")
	}
}

func TestConcurrentImageAddsAreIndependent(t *testing.T) {
	e := New(Options{Loader: &fakeLoader{delay: 20 * time.Millisecond}})
	var wg sync.WaitGroup
	ids := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			el, err := e.AddImage(context.Background(), fmt.Sprintf("%dx100", 100+i), Placement{})
			if err != nil {
				t.Errorf("add %d: %v", i, err)
				return
			}
			ids <- el.ID
		}(i)
	}
	wg.Wait()
	close(ids)
	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 8 || len(e.Elements()) != 8 {
		t.Fatalf("added %d distinct, scene has %d", len(seen), len(e.Elements()))
	}
	z := map[int]bool{}
	for _, el := range e.Elements() {
		if z[el.ZIndex] {
			t.Fatalf("duplicate zIndex %d", el.ZIndex)
		}
		z[el.ZIndex] = true
	}
}

func TestReplaceImageSourceRecordsOneUpdate(t *testing.T) {
	e := newEditor(t)
	img, _ := e.AddImage(context.Background(), "200x200", Placement{})
	_, before, _ := e.History()
	if err := e.ReplaceImageSource(context.Background(), img.ID, "400x100"); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, n, _ := e.History(); n != before+1 {
		t.Fatalf("history grew by %d", n-before)
	}
	el, _ := e.Element(img.ID)
	if el.Image.OriginalWidth != 400 || el.Height != 50 {
		t.Fatalf("after replace: %+v size %gx%g", el.Image, el.Width, el.Height)
	}
	e.Undo()
	el, _ = e.Element(img.ID)
	if el.Image.OriginalWidth != 200 || el.Height != 200 {
		t.Fatalf("undo must restore source and height")
	}

	txt := e.AddText("hi", Placement{})
	if err := e.ReplaceImageSource(context.Background(), txt.ID, "10x10"); err == nil {
		t.Fatalf("text element accepted an image source")
	}
	if err := e.ReplaceImageSource(context.Background(), "missing", "10x10"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestArrangeWrappers(t *testing.T) {
	e := newEditor(t)
	a := e.AddShape(domain.ShapeRectangle, Placement{At: at(10, 10)})
	b := e.AddShape(domain.ShapeRectangle, Placement{At: at(20, 20)})
	if !e.BringToFront(a.ID) {
		t.Fatalf("bring to front")
	}
	els := e.Elements()
	if els[len(els)-1].ID != a.ID {
		t.Fatalf("a must be on top")
	}
	if !e.Align(b.ID, scene.AlignLeft) || !e.ToggleVisibility(b.ID) || !e.MoveToPanel(b.ID, domain.PanelLeft) {
		t.Fatalf("arrange ops failed")
	}
	el, _ := e.Element(b.ID)
	if el.X != 0 || el.Opacity != 0 || el.Panel != domain.PanelLeft {
		t.Fatalf("b = %+v", el.Base)
	}
	c, ok := e.Duplicate(a.ID, 5, 5)
	if !ok || c.ID == a.ID || c.X != 15 {
		t.Fatalf("duplicate = %+v", c)
	}
	if !e.DeleteSelected() {
		t.Fatalf("delete selected")
	}
	if _, ok := e.Element(c.ID); ok {
		t.Fatalf("duplicate must be the deleted selection")
	}
	e.Clear()
	if len(e.Elements()) != 0 {
		t.Fatalf("clear left elements")
	}
	e.Undo()
	if len(e.Elements()) != 2 {
		t.Fatalf("undo clear restored %d", len(e.Elements()))
	}
}

func TestSaveOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fair.json")
	e := newEditor(t)
	if err := e.Save(); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("save without file: %v", err)
	}
	if err := e.Create(path, "Fair"); err != nil {
		t.Fatalf("create: %v", err)
	}
	e.AddText("Hello", Placement{})
	e.AddShape(domain.ShapeTriangle, Placement{Panel: domain.PanelLeft})
	if !e.Modified() {
		t.Fatalf("adds must mark modified")
	}
	if err := e.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	if e.Modified() || e.Path() != path {
		t.Fatalf("after save: modified=%v path=%s", e.Modified(), e.Path())
	}

	f := newEditor(t)
	res, err := f.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if res.Report.Loaded != 2 || res.Recovered || len(res.Warnings) != 0 {
		t.Fatalf("open result = %+v", res)
	}
	if idx, n, _ := f.History(); idx != -1 || n != 0 {
		t.Fatalf("history after open = %d/%d", idx, n)
	}
	s := f.Snapshot(render.ModePrint)
	if s.ProjectName != "Fair" || len(s.Items) != 2 {
		t.Fatalf("snapshot = %+v", s)
	}

	other := filepath.Join(dir, "copy.json")
	if err := f.SaveAs(other); err != nil || f.Path() != other {
		t.Fatalf("save as: %v", err)
	}
}

func TestCrashHandle(t *testing.T) {
	e := newEditor(t)
	if e.CrashHandle() != nil {
		t.Fatalf("nothing to rescue yet")
	}
	e.AddText("unsaved", Placement{})
	h := e.CrashHandle()
	if h == nil || h.Path != storage.UnsavedPath(domain.DefaultName) || len(h.Doc.Elements) != 1 {
		t.Fatalf("unsaved handle = %+v", h)
	}

	path := filepath.Join(t.TempDir(), "fair.json")
	if err := e.SaveAs(path); err != nil {
		t.Fatalf("save as: %v", err)
	}
	e.AddText("after save", Placement{})
	if h := e.CrashHandle(); h.Path != path || len(h.Doc.Elements) != 2 {
		t.Fatalf("live handle = %+v", h)
	}
	// while the lock is held the last saved document is used
	e.Do(func(*scene.Model) {
		h := e.CrashHandle()
		if h == nil || len(h.Doc.Elements) != 1 {
			t.Errorf("locked handle = %+v", h)
		}
	})
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Editor.DefaultPanel = "panel-right"
	o := OptionsFrom(cfg, &fakeLoader{})
	if o.DefaultPanel != domain.PanelRight || o.HistoryLimit != 50 || o.SnapTolerance != 6 {
		t.Fatalf("options = %+v", o)
	}
	cfg.Editor.DefaultPanel = "middle"
	if OptionsFrom(cfg, nil).DefaultPanel != domain.PanelCenter {
		t.Fatalf("unknown panel must fall back to center")
	}

	cfg.Editor.HistoryLimit = 7
	e := New(OptionsFrom(cfg, &fakeLoader{}))
	if _, _, capacity := e.History(); capacity != 7 {
		t.Fatalf("history capacity = %d, want 7", capacity)
	}
}
