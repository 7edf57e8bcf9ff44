/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"log/slog"

	"scribblecanvas/internal/geom"
	"scribblecanvas/internal/paint"
	"scribblecanvas/internal/raster"
)

// State is the exclusive gesture the controller is currently in. Transitions
// happen only on pointer events; every pointer-up or pointer-leave returns to
// StateIdle.
type State int

const (
	StateIdle State = iota
	StateDraggingImage
	StateDrawing
	StateErasing
	StateResizingPanel
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraggingImage:
		return "dragging-image"
	case StateDrawing:
		return "drawing"
	case StateErasing:
		return "erasing"
	case StateResizingPanel:
		return "resizing-panel"
	default:
		return "unknown"
	}
}

// Button identifies the pointer button of a down event.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// MinPanelHeight bounds the resize handle; the panel cannot collapse below
// this.
const MinPanelHeight = 64

// WheelZoomStep is the per-notch zoom factor.
const WheelZoomStep = 1.1

// PointerDown starts a gesture from an idle state. Coordinates are container
// pixels.
func (c *Controller) PointerDown(btn Button, px, py float64) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return
	}

	if btn == ButtonSecondary {
		if c.background != nil {
			b := c.background.Bounds()
			if c.view.Contains(px, py, float64(b.Dx()), float64(b.Dy())) {
				c.state = StateDraggingImage
				c.dragAt = geom.P(px, py)
			}
		}
		c.mu.Unlock()
		return
	}

	// Primary button.
	if c.background == nil {
		noUpload := c.opts.NoUpload
		c.mu.Unlock()
		if !noUpload && c.OnRequestUpload != nil {
			c.OnRequestUpload()
		}
		return
	}
	if c.opts.NoScribbles {
		c.mu.Unlock()
		return
	}

	ix, iy := c.view.ScreenToImage(px, py)
	pt := geom.P(ix, iy)
	if c.brush.Tool == paint.ToolEraser {
		c.state = StateErasing
		c.erase = &eraseGesture{base: raster.Clone(c.overlay)}
		d := c.brush.LineWidth(c.view.Scale)
		if _, err := c.erase.session.Stamp(c.overlay, pt, d); err != nil {
			c.log.Error("erase dab failed", slog.Any("err", err))
		}
		c.mu.Unlock()
		c.refresh()
		return
	}

	c.state = StateDrawing
	c.stroke = &strokeSession{
		path: []geom.Pt{pt},
		base: raster.Clone(c.overlay),
	}
	if err := paint.RenderStroke(c.overlay, c.stroke.base, c.stroke.path, c.brush, c.view.Scale); err != nil {
		c.log.Error("stroke render failed", slog.Any("err", err))
	}
	c.mu.Unlock()
	c.refresh()
}

// PointerMove advances the current gesture. Idle moves are ignored.
func (c *Controller) PointerMove(px, py float64) {
	c.mu.Lock()
	switch c.state {
	case StateDraggingImage:
		c.view.Pan(px-c.dragAt.X, py-c.dragAt.Y)
		c.dragAt = geom.P(px, py)

	case StateDrawing:
		ix, iy := c.view.ScreenToImage(px, py)
		c.stroke.path = append(c.stroke.path, geom.P(ix, iy))
		if err := paint.RenderStroke(c.overlay, c.stroke.base, c.stroke.path, c.brush, c.view.Scale); err != nil {
			c.log.Error("stroke render failed", slog.Any("err", err))
		}

	case StateErasing:
		ix, iy := c.view.ScreenToImage(px, py)
		d := c.brush.LineWidth(c.view.Scale)
		if _, err := c.erase.session.Stamp(c.overlay, geom.P(ix, iy), d); err != nil {
			c.log.Error("erase dab failed", slog.Any("err", err))
		}

	case StateResizingPanel:
		h := c.resizeStartH + (py - c.resizeStartY)
		if h < MinPanelHeight {
			h = MinPanelHeight
		}
		c.panelHeight = h

	default:
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	c.refresh()
}

// PointerUp ends the current gesture; a finished edit is snapshotted and
// published only when pixels actually changed.
func (c *Controller) PointerUp(px, py float64) {
	c.finishGesture()
}

// PointerLeave is equivalent to releasing the pointer: no gesture survives
// the surface boundary.
func (c *Controller) PointerLeave() {
	c.finishGesture()
}

func (c *Controller) finishGesture() {
	c.mu.Lock()
	var publish bool
	switch c.state {
	case StateDrawing:
		if !raster.Equal(c.overlay, c.stroke.base) {
			c.hist.Snapshot(c.overlay)
			publish = true
		}
		c.stroke = nil

	case StateErasing:
		if !raster.Equal(c.overlay, c.erase.base) {
			c.hist.Snapshot(c.overlay)
			publish = true
		}
		c.erase = nil
	}
	idle := c.state == StateIdle
	c.state = StateIdle
	c.mu.Unlock()

	if publish {
		c.publishForeground()
	}
	if !idle {
		c.refresh()
	}
}

// StartPanelResize begins a height-resize gesture from the handle at
// container y.
func (c *Controller) StartPanelResize(py float64) {
	c.mu.Lock()
	if c.state == StateIdle {
		c.state = StateResizingPanel
		c.resizeStartY = py
		c.resizeStartH = c.panelHeight
	}
	c.mu.Unlock()
}

// Wheel handles scroll input. With the modifier held the brush width changes
// by one unit per notch; otherwise the view zooms anchored at the cursor.
// The return value reports whether the event was consumed.
func (c *Controller) Wheel(px, py, deltaY float64, modifier bool) bool {
	c.mu.Lock()
	if modifier {
		if c.opts.FixedWidth || c.opts.NoScribbles {
			c.mu.Unlock()
			return false
		}
		w := c.brush.WidthUnits
		if deltaY > 0 {
			w++
		} else {
			w--
		}
		if w < paint.MinWidthUnits {
			w = paint.MinWidthUnits
		}
		c.brush.WidthUnits = w
		c.mu.Unlock()
		c.refresh()
		return true
	}

	if c.background == nil {
		c.mu.Unlock()
		return false
	}
	factor := WheelZoomStep
	if deltaY < 0 {
		factor = 1 / WheelZoomStep
	}
	c.view.ZoomAt(px, py, factor)
	c.mu.Unlock()
	c.refresh()
	return true
}

// Resize records the new container size and refits a loaded image. Raster
// state and history are untouched.
func (c *Controller) Resize(w, h float64) {
	c.mu.Lock()
	c.containerW, c.containerH = w, h
	if c.background != nil {
		b := c.background.Bounds()
		c.view.FitToContainer(w, h, float64(b.Dx()), float64(b.Dy()), FitMargin)
	}
	c.mu.Unlock()
	c.refresh()
}
