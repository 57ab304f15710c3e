/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */
package domain

// Anchor identifies the resize handle being dragged. The opposite corner
// stays fixed while the handle moves.
type Anchor uint8

const (
	TopLeft Anchor = iota
	TopRight
	BottomLeft
	BottomRight
)

var anchorNames = [...]string{"top-left", "top-right", "bottom-left", "bottom-right"}

func (a Anchor) String() string {
	if int(a) < len(anchorNames) {
		return anchorNames[a]
	}
	return "unknown"
}

// ParseAnchor accepts the handle names produced by String.
func ParseAnchor(s string) (Anchor, bool) {
	for i, n := range anchorNames {
		if n == s {
			return Anchor(i), true
		}
	}
	return 0, false
}

func (a Anchor) left() bool { return a == TopLeft || a == BottomLeft }
func (a Anchor) top() bool  { return a == TopLeft || a == TopRight }

// resizeStrategy derives a new frame from the gesture-start frame and the
// pointer delta since gesture start.
type resizeStrategy func(e *Element, start Frame, dx, dy float64, a Anchor) Frame

// strategyFor selects the resize behaviour by variant. Images that keep
// their ratio derive height from width; everything else resizes per axis.
func strategyFor(e *Element) resizeStrategy {
	if e.Kind == KindImage && e.Image != nil && e.Image.MaintainRatio {
		return ratioResize
	}
	return freeResize
}

func freeResize(_ *Element, s Frame, dx, dy float64, a Anchor) Frame {
	f := s
	if a.left() {
		f.Width = s.Width - dx
		f.X = s.X + dx
	} else {
		f.Width = s.Width + dx
	}
	if a.top() {
		f.Height = s.Height - dy
		f.Y = s.Y + dy
	} else {
		f.Height = s.Height + dy
	}
	return f
}

func ratioResize(e *Element, s Frame, dx, dy float64, a Anchor) Frame {
	// natural size unknown until the image was decoded
	if e.Image.OriginalWidth <= 0 || e.Image.OriginalHeight <= 0 {
		return freeResize(e, s, dx, dy, a)
	}
	ratio := e.Image.OriginalWidth / e.Image.OriginalHeight
	f := s
	if a.left() {
		f.Width = s.Width - dx
		f.X = s.X + (s.Width - f.Width)
	} else {
		f.Width = s.Width + dx
	}
	f.Height = f.Width / ratio
	if a.top() {
		f.Y = s.Y + (s.Height - f.Height)
	}
	return f
}

// ResizeWithConstraint resizes relative to the gesture-start frame by the
// pointer delta (dx, dy) dragging handle a. The whole update is rejected,
// returning false, when a resulting dimension would not exceed MinDimension.
func (e *Element) ResizeWithConstraint(start Frame, dx, dy float64, a Anchor) bool {
	if !finite(dx, dy) {
		return false
	}
	f := strategyFor(e)(e, start, dx, dy, a)
	if !e.Resize(f.Width, f.Height) {
		return false
	}
	e.Move(f.X, f.Y)
	return true
}
