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
	"fmt"
	"log/slog"

	"triptych/internal/domain"
	"triptych/internal/scene"
	"triptych/internal/vector"
)

// Default frames of new elements, in canvas pixels.
const (
	TextWidth    = 200
	TextHeight   = 40
	MaxImageSide = 300
)

// Placement says where a new element goes. The zero value means the
// default panel, centered.
type Placement struct {
	Panel domain.PanelID
	At    *vector.Pt // top-left in panel coordinates
}

// place positions el. Called with mu held.
func (e *Editor) place(el *domain.Element, pl Placement) {
	panel, ok := domain.ParsePanel(string(pl.Panel))
	if !ok {
		panel = e.opts.DefaultPanel
	}
	el.SetPanel(panel)
	if pl.At != nil {
		el.Move(pl.At.X, pl.At.Y)
		return
	}
	pw, ph := e.model.PanelSize()
	el.Move((pw-el.Width)/2, (ph-el.Height)/2)
}

// AddText adds a text element; an empty text keeps the default caption.
func (e *Editor) AddText(text string, pl Placement) *domain.Element {
	el := domain.NewText(domain.DefaultText)
	if text != "" {
		el.Text.Text = text
	}
	el.Resize(TextWidth, TextHeight)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.place(el, pl)
	return e.model.AddElement(el).Clone()
}

// AddShape adds a shape element; unknown kinds become rectangles.
func (e *Editor) AddShape(kind domain.ShapeKind, pl Placement) *domain.Element {
	el := domain.NewShape(kind)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.place(el, pl)
	return e.model.AddElement(el).Clone()
}

// AddImage loads src outside the editor lock, then adds an image element
// that fits within MaxImageSide at the natural ratio. When loading fails
// the element is still added, without a source, and returned with the
// error so the caller may remove it.
func (e *Editor) AddImage(ctx context.Context, src string, pl Placement) (*domain.Element, error) {
	res, err := e.loader.Load(ctx, src)
	var el *domain.Element
	if err != nil {
		e.log.Warn("image add without source", slog.Any("err", err))
		el = domain.NewImage("", 0, 0)
		err = fmt.Errorf("load image: %w", err)
	} else {
		nw, nh := float64(res.Width), float64(res.Height)
		el = domain.NewImage(res.Src, nw, nh)
		w, h := fitSize(nw, nh, MaxImageSide)
		el.Resize(w, h)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.place(el, pl)
	return e.model.AddElement(el).Clone(), err
}

// fitSize scales (w, h) to fit within side keeping the ratio, and never
// below the resize floor.
func fitSize(w, h, side float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return side, side
	}
	k := min(1, side/max(w, h))
	w, h = w*k, h*k
	if s := min(w, h); s <= domain.MinDimension {
		up := (domain.MinDimension + 1) / s
		w, h = w*up, h*up
	}
	return w, h
}

// ReplaceImageSource loads src and stores it on image element id as one
// history entry. With maintainRatio the height follows the new ratio.
func (e *Editor) ReplaceImageSource(ctx context.Context, id string, src string) error {
	res, err := e.loader.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.model.ElementByID(id)
	if el == nil {
		return ErrNotFound
	}
	if el.Image == nil {
		return fmt.Errorf("element %s is a %s, not an image", id, el.Kind)
	}
	props := domain.Props{
		"src":            res.Src,
		"originalWidth":  float64(res.Width),
		"originalHeight": float64(res.Height),
	}
	if el.Image.MaintainRatio && res.Width > 0 {
		if h := el.Width * float64(res.Height) / float64(res.Width); h > domain.MinDimension {
			props["height"] = h
		}
	}
	e.model.UpdateElement(id, props)
	return nil
}

// Update applies props to element id as one history entry.
func (e *Editor) Update(id string, props domain.Props) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.UpdateElement(id, props)
}

func (e *Editor) Remove(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.RemoveElement(id)
}

func (e *Editor) Select(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	el := e.model.ElementByID(id)
	return el != nil && e.model.SelectElement(el)
}

func (e *Editor) Deselect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.model.DeselectElement()
}

// cancelActive drops a running gesture before history moves underneath it.
func (e *Editor) cancelActive() {
	if e.active != nil {
		e.active.Cancel()
		e.active, e.guides = nil, nil
	}
}

func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelActive()
	return e.model.Undo()
}

func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelActive()
	return e.model.Redo()
}

// Clear removes every element in one undoable step.
func (e *Editor) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelActive()
	e.model.ClearElements()
}

// History returns the cursor, length and capacity of the undo log.
func (e *Editor) History() (index, length, capacity int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	length, index, capacity = e.model.HistoryStats()
	return index, length, capacity
}

func (e *Editor) BringToFront(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.BringToFront(id)
}

func (e *Editor) SendToBack(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.SendToBack(id)
}

func (e *Editor) Align(id string, a scene.Alignment) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Align(id, a)
}

func (e *Editor) ToggleVisibility(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.ToggleVisibility(id)
}

func (e *Editor) MoveToPanel(id string, panel domain.PanelID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.MoveToPanel(id, panel)
}

// Duplicate copies element id, offset by (dx, dy), and returns the copy.
func (e *Editor) Duplicate(id string, dx, dy float64) (*domain.Element, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.model.Duplicate(id, dx, dy)
	if c == nil {
		return nil, false
	}
	return c.Clone(), true
}

func (e *Editor) DeleteSelected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelActive()
	return e.model.DeleteSelected()
}
