/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
// Package scene owns the editable triptych: the element collection, the
// single selection, z-order allocation and the undo history. Every mutation
// goes through a Model method; collaborators observe via Subscribe.
package scene

import (
	"sort"

	"triptych/internal/domain"
	"triptych/internal/undo"
	"triptych/internal/vector"
)

// EventType names a model notification.
type EventType string

const (
	ElementAdded      EventType = "element:added"
	ElementRemoved    EventType = "element:removed"
	ElementSelected   EventType = "element:selected"
	ElementDeselected EventType = "element:deselected"
	ElementChanged    EventType = "element:changed"
	ModelChanged      EventType = "model:changed"
	HistoryChanged    EventType = "history:changed"
)

// Event carries the affected element, or nil for model/history events.
type Event struct {
	Type    EventType
	Element *domain.Element
}

// Listener receives events synchronously on the mutating goroutine.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Options configures a Model.
type Options struct {
	HistoryLimit int // default 50
}

// Model is the scene. It is single-writer: callers serialize access.
type Model struct {
	elements []*domain.Element
	selected *domain.Element
	nextZ    int
	history  *undo.Log

	name          string
	width, height float64 // millimeters
	modified      bool

	subs   map[EventType][]subscription
	nextID int
}

// New returns an empty model with a default-sized document.
func New(opts Options) *Model {
	return &Model{
		nextZ:   1,
		history: undo.NewLog(undo.Config{MaxEntries: opts.HistoryLimit}),
		name:    domain.DefaultName,
		width:   domain.DefaultWidthMM,
		height:  domain.DefaultHeightMM,
		subs:    make(map[EventType][]subscription),
	}
}

// Subscribe registers fn for events of type t and returns a function that
// removes the registration.
func (m *Model) Subscribe(t EventType, fn Listener) (unsubscribe func()) {
	m.nextID++
	id := m.nextID
	m.subs[t] = append(m.subs[t], subscription{id: id, fn: fn})
	return func() {
		list := m.subs[t]
		for i, s := range list {
			if s.id == id {
				m.subs[t] = append(list[:i:i], list[i+1:]...)
				return
			}
		}
	}
}

func (m *Model) emit(t EventType, el *domain.Element) {
	list := append([]subscription(nil), m.subs[t]...)
	for _, s := range list {
		s.fn(Event{Type: t, Element: el})
	}
}

func (m *Model) indexOf(id string) int {
	for i, el := range m.elements {
		if el.ID == id {
			return i
		}
	}
	return -1
}

// ElementByID returns the element or nil.
func (m *Model) ElementByID(id string) *domain.Element {
	if i := m.indexOf(id); i >= 0 {
		return m.elements[i]
	}
	return nil
}

// Elements returns the elements in insertion order. The slice is a copy;
// the elements are live and must only be mutated through the Model.
func (m *Model) Elements() []*domain.Element {
	return append([]*domain.Element(nil), m.elements...)
}

// ElementsByZ returns the elements in paint order, bottom first. Ties keep insertion order.
func (m *Model) ElementsByZ() []*domain.Element {
	out := m.Elements()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// Layers returns the elements top first, the order of a layers list.
func (m *Model) Layers() []*domain.Element {
	out := m.Elements()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex > out[j].ZIndex })
	return out
}

// Len is the number of elements.
func (m *Model) Len() int { return len(m.elements) }

// Selected returns the selected element or nil.
func (m *Model) Selected() *domain.Element { return m.selected }

func (m *Model) NextZIndex() int   { return m.nextZ }
func (m *Model) CanUndo() bool     { return m.history.CanUndo() }
func (m *Model) CanRedo() bool     { return m.history.CanRedo() }
func (m *Model) HistoryLen() int   { return m.history.Len() }
func (m *Model) HistoryIndex() int { return m.history.Index() }
func (m *Model) Modified() bool    { return m.modified }

// HistoryStats returns the history length, cursor and capacity.
func (m *Model) HistoryStats() (entries, index, capacity int) { return m.history.Stats() }
func (m *Model) ProjectName() string {
	return m.name
}

// History exposes the recorded actions for diagnostics.
func (m *Model) History() []undo.Action { return m.history.Actions() }

// SetProjectName renames the project and marks it modified.
func (m *Model) SetProjectName(name string) {
	if name == "" || name == m.name {
		return
	}
	m.name = name
	m.modified = true
	m.emit(ModelChanged, nil)
}

// Size returns the document size in millimeters.
func (m *Model) Size() (width, height float64) { return m.width, m.height }

// PanelSize returns the size of one panel in canvas pixels.
func (m *Model) PanelSize() (w, h float64) {
	return vector.MmToPx(m.width / float64(len(domain.Panels))), vector.MmToPx(m.height)
}

// HitTest returns the topmost visible element of panel containing p, or nil.
func (m *Model) HitTest(panel domain.PanelID, p vector.Pt) *domain.Element {
	layers := m.Layers()
	for _, el := range layers {
		if el.Panel == panel && el.Opacity > 0 && el.Contains(p) {
			return el
		}
	}
	return nil
}

func (m *Model) bumpNextZ(z int) {
	if z+1 > m.nextZ {
		m.nextZ = z + 1
	}
}
