/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
// Package domain defines the triptych document model: elements (text, image,
// shape), their geometric mutators, and the persisted project document.
package domain

import (
	"math"
	"strings"
	"unicode/utf8"

	"triptych/internal/vector"
)

// Kind discriminates the element variant.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindShape Kind = "shape"
)

// PanelID names one of the three triptych panels.
type PanelID string

const (
	PanelLeft   PanelID = "left"
	PanelCenter PanelID = "center"
	PanelRight  PanelID = "right"
)

// Panels lists the panels left to right.
var Panels = []PanelID{PanelLeft, PanelCenter, PanelRight}

// ParsePanel accepts "left|center|right" and the legacy "panel-left" style ids.
func ParsePanel(s string) (PanelID, bool) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "panel-")
	switch PanelID(s) {
	case PanelLeft, PanelCenter, PanelRight:
		return PanelID(s), true
	}
	return "", false
}

// Index returns 0, 1 or 2 for left, center, right; -1 when unknown.
func (p PanelID) Index() int {
	for i, q := range Panels {
		if q == p {
			return i
		}
	}
	return -1
}

// Mode is the transient interaction state of an element. The states are
// mutually exclusive by construction.
type Mode uint8

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
	ModeRotating
)

func (m Mode) String() string {
	switch m {
	case ModeDragging:
		return "dragging"
	case ModeResizing:
		return "resizing"
	case ModeRotating:
		return "rotating"
	default:
		return "idle"
	}
}

// MinDimension is the resize floor: a resize leaving width or height at or
// below this value is rejected.
const MinDimension = 20.0

// Frame is the geometry of an element: position, size and rotation.
type Frame struct {
	X, Y          float64
	Width, Height float64
	Rotation      float64
}

// Rect returns the unrotated rectangle.
func (f Frame) Rect() vector.Rect { return vector.R(f.X, f.Y, f.Width, f.Height) }

// Base holds the attributes shared by every variant.
type Base struct {
	ID       string
	X, Y     float64
	Width    float64
	Height   float64
	Rotation float64
	Opacity  float64
	ZIndex   int
	Panel    PanelID
}

type TextStyle struct {
	Text           string
	FontFamily     string
	FontSize       float64
	FontWeight     string // normal | bold
	FontStyle      string // normal | italic
	TextDecoration string // none | underline
	TextAlign      string // left | center | right | justify
	Color          string
}

type ImageSource struct {
	Src            string
	Alt            string
	OriginalWidth  float64 // natural size, 0 until the resource was decoded
	OriginalHeight float64
	MaintainRatio  bool
}

// ShapeKind is the geometric primitive drawn by a shape element.
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeEllipse   ShapeKind = "ellipse"
	ShapeTriangle  ShapeKind = "triangle"
)

func validShape(k ShapeKind) bool {
	return k == ShapeRectangle || k == ShapeEllipse || k == ShapeTriangle
}

type ShapeStyle struct {
	ShapeType    ShapeKind
	FillColor    string
	StrokeColor  string
	StrokeWidth  float64
	CornerRadius float64
}

// Element is one positionable object. Exactly one of Text, Image, Shape is
// non-nil and it matches Kind.
type Element struct {
	Base
	Kind  Kind
	Text  *TextStyle
	Image *ImageSource
	Shape *ShapeStyle

	Selected bool
	Mode     Mode
}

// Defaults used by the constructors.
const (
	DefaultText      = "Double-click to edit"
	DefaultFont      = "Arial, sans-serif"
	DefaultFontSize  = 16
	DefaultFill      = "#3498db"
	DefaultStroke    = "#000000"
	DefaultTextColor = "#000000"
	DefaultAlt       = "Image"
)

func newBase() Base {
	return Base{ID: NewID(), Width: 100, Height: 100, Opacity: 1, ZIndex: 1, Panel: PanelCenter}
}

// New returns an element of the given kind with default attributes.
func New(kind Kind) (*Element, error) {
	switch kind {
	case KindText:
		return NewText(DefaultText), nil
	case KindImage:
		return NewImage("", 0, 0), nil
	case KindShape:
		return NewShape(ShapeRectangle), nil
	}
	return nil, ErrUnknownType
}

func NewText(text string) *Element {
	return &Element{Base: newBase(), Kind: KindText, Text: &TextStyle{
		Text:           text,
		FontFamily:     DefaultFont,
		FontSize:       DefaultFontSize,
		FontWeight:     "normal",
		FontStyle:      "normal",
		TextDecoration: "none",
		TextAlign:      "left",
		Color:          DefaultTextColor,
	}}
}

// NewImage creates an image element. naturalW/naturalH may be zero when the
// resource has not been decoded yet.
func NewImage(src string, naturalW, naturalH float64) *Element {
	return &Element{Base: newBase(), Kind: KindImage, Image: &ImageSource{
		Src:            src,
		Alt:            DefaultAlt,
		OriginalWidth:  naturalW,
		OriginalHeight: naturalH,
		MaintainRatio:  true,
	}}
}

func NewShape(kind ShapeKind) *Element {
	if !validShape(kind) {
		kind = ShapeRectangle
	}
	return &Element{Base: newBase(), Kind: KindShape, Shape: &ShapeStyle{
		ShapeType:   kind,
		FillColor:   DefaultFill,
		StrokeColor: DefaultStroke,
		StrokeWidth: 1,
	}}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Move places the top-left corner at (x, y).
func (e *Element) Move(x, y float64) {
	if !finite(x, y) {
		return
	}
	e.X, e.Y = x, y
}

// Resize sets the size. It is a no-op returning false when either
// dimension would not exceed MinDimension.
func (e *Element) Resize(w, h float64) bool {
	if !finite(w, h) || w <= MinDimension || h <= MinDimension {
		return false
	}
	e.Width, e.Height = w, h
	return true
}

// Rotate sets the absolute rotation in degrees. The value is stored as given.
func (e *Element) Rotate(deg float64) {
	if !finite(deg) {
		return
	}
	e.Rotation = deg
}

// SetOpacity clamps o into [0,1].
func (e *Element) SetOpacity(o float64) {
	if !finite(o) {
		return
	}
	e.Opacity = vector.Clamp(o, 0, 1)
}

func (e *Element) SetZIndex(z int) { e.ZIndex = z }

// SetPanel moves the element to another panel; unknown panels are rejected.
func (e *Element) SetPanel(p PanelID) bool {
	if p.Index() < 0 {
		return false
	}
	e.Panel = p
	return true
}

// Frame returns the current geometry.
func (e *Element) Frame() Frame {
	return Frame{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, Rotation: e.Rotation}
}

// SetFrame applies f through the mutators. It returns false when the size
// was rejected; position and rotation are still applied.
func (e *Element) SetFrame(f Frame) bool {
	e.Move(f.X, f.Y)
	e.Rotate(f.Rotation)
	if f.Width == e.Width && f.Height == e.Height {
		return true
	}
	return e.Resize(f.Width, f.Height)
}

func (e *Element) Center() vector.Pt { return e.Frame().Rect().Center() }

// Box is the rotated footprint used for hit testing and drawing.
func (e *Element) Box() vector.Box {
	return vector.Box{Rect: e.Frame().Rect(), Rotation: e.Rotation}
}

// DisplayRotation maps the unbounded rotation into [0,360).
func (e *Element) DisplayRotation() float64 { return vector.NormalizeDeg(e.Rotation) }

// Contains reports whether p (panel coordinates) hits the element's visible shape.
func (e *Element) Contains(p vector.Pt) bool {
	b := e.Box()
	if e.Kind != KindShape || e.Shape == nil {
		return b.Contains(p)
	}
	q := b.Local(p)
	switch e.Shape.ShapeType {
	case ShapeEllipse:
		return vector.HitEllipse(b.Rect, q)
	case ShapeTriangle:
		return vector.HitTriangle(b.Rect, q)
	default:
		return vector.HitRoundedRect(b.Rect, e.Shape.CornerRadius, q)
	}
}

// Clone returns a deep copy including transient state.
func (e *Element) Clone() *Element {
	c := *e
	if e.Text != nil {
		t := *e.Text
		c.Text = &t
	}
	if e.Image != nil {
		i := *e.Image
		c.Image = &i
	}
	if e.Shape != nil {
		s := *e.Shape
		c.Shape = &s
	}
	return &c
}

// Label is the human readable name shown in layer lists.
func (e *Element) Label() string {
	switch e.Kind {
	case KindText:
		if e.Text == nil {
			return "Text"
		}
		s := strings.TrimSpace(e.Text.Text)
		if utf8.RuneCountInString(s) > 20 {
			s = string([]rune(s)[:20]) + "..."
		}
		return "Text: " + s
	case KindImage:
		return "Image"
	case KindShape:
		if e.Shape == nil {
			return "Shape"
		}
		return "Shape: " + string(e.Shape.ShapeType)
	}
	return string(e.Kind)
}
