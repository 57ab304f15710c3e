/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"math"

	"triptych/internal/vector"
)

// Zoom limits and the step applied by ZoomIn/ZoomOut.
const (
	MinZoom     = 0.1
	MaxZoom     = 5.0
	zoomInStep  = 1.1
	zoomOutStep = 0.9
)

// SetZoom sets the interactive view factor, clamped to [MinZoom, MaxZoom],
// and returns the value applied. Element geometry is not touched.
func (r *Renderer) SetZoom(level float64) float64 {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return r.Zoom()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zoom = vector.Clamp(level, MinZoom, MaxZoom)
	return r.zoom
}

// Zoom returns the current view factor.
func (r *Renderer) Zoom() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.zoom
}

func (r *Renderer) ZoomIn() float64    { return r.SetZoom(r.Zoom() * zoomInStep) }
func (r *Renderer) ZoomOut() float64   { return r.SetZoom(r.Zoom() * zoomOutStep) }
func (r *Renderer) ResetZoom() float64 { return r.SetZoom(1) }

// ToCanvas maps a view point at the current zoom to canvas coordinates.
func (r *Renderer) ToCanvas(p vector.Pt) vector.Pt {
	return Snapshot{Zoom: r.Zoom()}.ToCanvas(p)
}

// View maps canvas coordinates to view coordinates.
func (s Snapshot) View() vector.Affine2D {
	z := s.Zoom
	if z <= 0 {
		z = 1
	}
	return vector.Scale(z, z)
}

// ToCanvas maps a point in view coordinates, e.g. a pointer position,
// back to canvas coordinates.
func (s Snapshot) ToCanvas(p vector.Pt) vector.Pt {
	return s.View().Invert().Apply(p)
}

// ZoomPercent is the zoom as a rounded percentage for display.
func (s Snapshot) ZoomPercent() int { return int(math.Round(s.Zoom * 100)) }
