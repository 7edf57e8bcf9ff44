/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package geom holds the 2-D view transform between container (pointer)
// coordinates and image-local coordinates: a uniform scale plus an offset of
// the scaled image's top-left corner inside the container.
package geom

// MinScale is the lower clamp for the view scale. Zooming below it would
// produce a degenerate (or, at 0, non-invertible) transform.
const MinScale = 0.1

// Pt is a point in either coordinate space.
type Pt struct {
	X, Y float64
}

// P is shorthand for constructing a Pt.
func P(x, y float64) Pt { return Pt{X: x, Y: y} }

// ViewTransform maps image-local coordinates to container coordinates via
// container = image*Scale + Offset. Offset is unconstrained; Scale is always
// >= MinScale once set through this package's operations.
type ViewTransform struct {
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// NewViewTransform returns the identity view.
func NewViewTransform() *ViewTransform {
	return &ViewTransform{Scale: 1}
}

// FitToContainer positions the image centered in the container with the given
// margin on every side, choosing the largest uniform scale that fits.
// Degenerate dimensions (any of them <= 0, or a margin that consumes the
// container) skip the fit and retain the previous transform; callers get a
// false return in that case.
func (v *ViewTransform) FitToContainer(containerW, containerH, imageW, imageH, margin float64) bool {
	availW := containerW - 2*margin
	availH := containerH - 2*margin
	if imageW <= 0 || imageH <= 0 || availW <= 0 || availH <= 0 {
		return false
	}
	scale := availW / imageW
	if s := availH / imageH; s < scale {
		scale = s
	}
	if scale < MinScale {
		scale = MinScale
	}
	v.Scale = scale
	v.OffsetX = (containerW - imageW*scale) / 2
	v.OffsetY = (containerH - imageH*scale) / 2
	return true
}

// ScreenToImage maps a container point to image-local coordinates.
// It is the exact inverse of ImageToScreen.
func (v *ViewTransform) ScreenToImage(px, py float64) (float64, float64) {
	return (px - v.OffsetX) / v.Scale, (py - v.OffsetY) / v.Scale
}

// ImageToScreen maps an image-local point to container coordinates.
func (v *ViewTransform) ImageToScreen(x, y float64) (float64, float64) {
	return x*v.Scale + v.OffsetX, y*v.Scale + v.OffsetY
}

// Pan moves the image by the given container-space delta. The image may be
// dragged fully outside the viewport.
func (v *ViewTransform) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

// ZoomAt multiplies the scale by factor, clamped to MinScale, while keeping
// the image point under the container point (px, py) fixed on screen.
func (v *ViewTransform) ZoomAt(px, py, factor float64) {
	newScale := v.Scale * factor
	if newScale < MinScale {
		newScale = MinScale
	}
	ratio := newScale / v.Scale
	v.OffsetX = px - (px-v.OffsetX)*ratio
	v.OffsetY = py - (py-v.OffsetY)*ratio
	v.Scale = newScale
}

// Contains reports whether a container point falls inside the bounding box of
// an imageW x imageH image under the current transform. Used for hit-testing
// the drag-to-move gesture.
func (v *ViewTransform) Contains(px, py, imageW, imageH float64) bool {
	x, y := v.ScreenToImage(px, py)
	return x >= 0 && y >= 0 && x < imageW && y < imageH
}
