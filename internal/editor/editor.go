/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires the scene, one interaction controller per element,
// the renderer and the asset loader behind a single mutex. Every exported
// method may be called from any goroutine.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"triptych/internal/assets"
	"triptych/internal/config"
	"triptych/internal/domain"
	"triptych/internal/interact"
	applog "triptych/internal/log"
	"triptych/internal/render"
	"triptych/internal/scene"
	"triptych/internal/storage"
	"triptych/internal/vector"
)

// ErrNotFound is returned when an element id is not in the scene.
var ErrNotFound = errors.New("element not found")

// ImageLoader resolves an image source to its natural size. *assets.Loader
// satisfies it.
type ImageLoader interface {
	Load(ctx context.Context, src string) (assets.Source, error)
}

// Options configures an Editor.
type Options struct {
	HistoryLimit int
	DefaultPanel domain.PanelID
	// SnapTolerance is the smart guide distance in canvas pixels; 0 disables snapping.
	SnapTolerance float64
	Loader        ImageLoader
}

// OptionsFrom maps the user configuration onto editor options.
func OptionsFrom(cfg config.AppConfig, loader ImageLoader) Options {
	panel, ok := domain.ParsePanel(cfg.Editor.DefaultPanel)
	if !ok {
		panel = domain.PanelCenter
	}
	return Options{
		HistoryLimit:  cfg.Editor.HistoryLimit,
		DefaultPanel:  panel,
		SnapTolerance: cfg.Editor.SnapTolerance,
		Loader:        loader,
	}
}

// Editor is the composition root of one open document.
type Editor struct {
	mu       sync.Mutex
	model    *scene.Model
	renderer *render.Renderer
	loader   ImageLoader
	opts     Options
	log      *slog.Logger

	ctrls  map[string]*interact.Controller
	active *interact.Controller
	guides []vector.GuideLine

	// doc is the open file; read without mu by CrashHandle.
	doc atomic.Pointer[storage.Handle]
}

// New builds an editor around an empty scene.
func New(opts Options) *Editor {
	if opts.DefaultPanel == "" {
		opts.DefaultPanel = domain.PanelCenter
	}
	if opts.Loader == nil {
		opts.Loader = assets.NewLoader(assets.Options{})
	}
	e := &Editor{
		model:    scene.New(scene.Options{HistoryLimit: opts.HistoryLimit}),
		renderer: render.New(),
		loader:   opts.Loader,
		opts:     opts,
		log:      applog.WithComponent("editor"),
		ctrls:    make(map[string]*interact.Controller),
	}
	e.renderer.Attach(e.model)
	e.model.Subscribe(scene.ElementAdded, func(ev scene.Event) { e.track(ev.Element) })
	e.model.Subscribe(scene.ElementRemoved, func(ev scene.Event) { e.untrack(ev.Element) })
	return e
}

// track gives a newly added element its controller. Called with mu held.
func (e *Editor) track(el *domain.Element) {
	e.ctrls[el.ID] = interact.New(el, interact.Options{
		OnLive:     e.renderer.Update,
		OnComplete: e.commit,
		Snap:       e.snap,
	})
}

func (e *Editor) untrack(el *domain.Element) {
	c := e.ctrls[el.ID]
	if c == nil {
		return
	}
	if c == e.active {
		c.Cancel()
		e.active, e.guides = nil, nil
	}
	delete(e.ctrls, el.ID)
}

// commit is the gesture sink: one history entry per finished gesture.
func (e *Editor) commit(g interact.Gesture) {
	if e.model.CommitGesture(g) {
		e.log.Debug("gesture committed", slog.String("id", g.ElementID), slog.String("mode", g.Mode.String()))
	}
}

// snap aligns a dragged, unrotated element to its panel and its siblings.
func (e *Editor) snap(el *domain.Element, moving vector.Rect) vector.Rect {
	e.guides = nil
	if e.opts.SnapTolerance <= 0 || el.Rotation != 0 {
		return moving
	}
	pw, ph := e.model.PanelSize()
	anchors := []vector.Anchor{{Rect: vector.R(0, 0, pw, ph), Weight: 2}}
	for _, o := range e.model.Elements() {
		if o.ID == el.ID || o.Panel != el.Panel || o.Opacity == 0 {
			continue
		}
		anchors = append(anchors, vector.Anchor{Rect: o.Box().Bounds(), Weight: 1})
	}
	r, guides := vector.ComputeSmartGuides(moving, anchors, vector.SnapOptions{
		Threshold:     e.opts.SnapTolerance,
		SnapToEdges:   true,
		SnapToCenters: true,
	})
	e.guides = guides
	return r
}

// Do runs fn with exclusive access to the scene. fn must not retain the
// model or its elements.
func (e *Editor) Do(fn func(m *scene.Model)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.model)
}

// Snapshot returns the current paint state. It does not take the editor lock.
func (e *Editor) Snapshot(mode render.Mode) render.Snapshot { return e.renderer.Snapshot(mode) }

// SetZoom sets the view factor of the interactive snapshot and returns the
// clamped value. Zoom is view state: it is neither recorded nor saved.
func (e *Editor) SetZoom(level float64) float64 { return e.renderer.SetZoom(level) }
func (e *Editor) Zoom() float64                 { return e.renderer.Zoom() }
func (e *Editor) ZoomIn() float64               { return e.renderer.ZoomIn() }
func (e *Editor) ZoomOut() float64              { return e.renderer.ZoomOut() }
func (e *Editor) ResetZoom() float64            { return e.renderer.ResetZoom() }

// ViewToCanvas undoes the zoom on a pointer position.
func (e *Editor) ViewToCanvas(p vector.Pt) vector.Pt { return e.renderer.ToCanvas(p) }

// Guides returns the smart guides of the drag in progress.
func (e *Editor) Guides() []vector.GuideLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]vector.GuideLine(nil), e.guides...)
}

// Element returns a copy of the element with the given id.
func (e *Editor) Element(id string) (*domain.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.model.ElementByID(id)
	if el == nil {
		return nil, false
	}
	return el.Clone(), true
}

// Elements returns copies of all elements in ascending zIndex.
func (e *Editor) Elements() []*domain.Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	els := e.model.ElementsByZ()
	out := make([]*domain.Element, len(els))
	for i, el := range els {
		out[i] = el.Clone()
	}
	return out
}

// Selected returns a copy of the selected element.
func (e *Editor) Selected() (*domain.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.model.Selected(); s != nil {
		return s.Clone(), true
	}
	return nil, false
}
