/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas orchestrates the interactive image canvas: a background
// image under a mutable scribble overlay, viewed through a pan/zoom
// transform, with linear undo/redo over overlay snapshots and two binding
// channels mirroring the serialized rasters to the host.
//
// The controller is UI-toolkit free; a thin widget wrapper (internal/ui)
// feeds it pointer, wheel and resize events and repaints on its refresh
// callback.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"scribblecanvas/internal/binding"
	"scribblecanvas/internal/geom"
	"scribblecanvas/internal/history"
	applog "scribblecanvas/internal/log"
	"scribblecanvas/internal/paint"
	"scribblecanvas/internal/raster"
)

// FitMargin is the whitespace kept around a freshly fitted image, in
// container pixels.
const FitMargin = 20

// DefaultPanelHeight is the initial widget height when the host does not
// configure one.
const DefaultPanelHeight = 512

// Options configures a controller at construction. Zero values give an
// enabled brush-mode canvas with the stock defaults.
type Options struct {
	// NoUpload disables primary-click image acquisition when empty.
	NoUpload bool
	// NoScribbles disables the drawing tools entirely.
	NoScribbles bool
	// MaskMode renders strokes as a fixed checkerboard (binary masks).
	MaskMode bool
	// PanelHeight is the initial presentation height.
	PanelHeight float64

	// Brush is the initial tool state.
	Brush paint.BrushParams
	// Fixed fields are hidden from user control; their values still apply.
	FixedColor    bool
	FixedWidth    bool
	FixedAlpha    bool
	FixedSoftness bool

	// History bounds the snapshot store.
	History history.Config

	// BackgroundField and ForegroundField are the external text-bearing
	// fields mirrored by the binding channels. Either may be nil.
	BackgroundField binding.Field
	ForegroundField binding.Field

	Logger *slog.Logger
}

// Controller owns the widget state and exposes its public operations. All
// methods are safe for serialized event-loop use; a mutex backstops the
// async decode completion path.
type Controller struct {
	mu   sync.Mutex
	log  *slog.Logger
	opts Options

	view  *geom.ViewTransform
	brush paint.BrushParams

	background *image.RGBA // nil when no image is loaded
	overlay    *image.RGBA // matches background, or 1x1 placeholder

	hist *history.Store
	bg   *binding.Channel
	fg   *binding.Channel

	containerW float64
	containerH float64

	panelHeight float64
	savedHeight float64
	maximized   bool

	state  State
	stroke *strokeSession
	erase  *eraseGesture
	dragAt geom.Pt

	resizeStartY float64
	resizeStartH float64

	// OnRefresh is invoked after any visible change; the UI repaints there.
	OnRefresh func()
	// OnRequestUpload is invoked by a primary click on an empty canvas when
	// uploads are enabled; the host runs its picker and calls LoadImage.
	OnRequestUpload func()
}

// strokeSession is the transient per-gesture state for the brush: the path so
// far plus the pre-stroke snapshot the live stroke re-renders from.
type strokeSession struct {
	path []geom.Pt
	base *image.RGBA
}

// eraseGesture wraps the dab interpolation state plus the pre-gesture
// overlay for the commit decision.
type eraseGesture struct {
	session paint.EraseSession
	base    *image.RGBA
}

// New builds a controller. The overlay starts as a 1x1 placeholder until an
// image is loaded.
func New(opts Options) *Controller {
	if opts.PanelHeight <= 0 {
		opts.PanelHeight = DefaultPanelHeight
	}
	if opts.Brush.WidthUnits < paint.MinWidthUnits {
		opts.Brush.WidthUnits = paint.MinWidthUnits
	}
	opts.Brush.MaskMode = opts.MaskMode
	l := opts.Logger
	if l == nil {
		l = applog.WithComponent("canvas")
	}
	c := &Controller{
		log:         l,
		opts:        opts,
		view:        geom.NewViewTransform(),
		brush:       opts.Brush,
		overlay:     raster.Transparent(1, 1),
		hist:        history.NewStore(opts.History),
		panelHeight: opts.PanelHeight,
	}
	c.bg = binding.NewChannel(opts.BackgroundField, c.onExternalBackground)
	c.fg = binding.NewChannel(opts.ForegroundField, c.onExternalForeground)
	return c
}

// State reports the current gesture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Brush returns the current tool parameters.
func (c *Controller) Brush() paint.BrushParams {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brush
}

// View returns a copy of the current view transform.
func (c *Controller) View() geom.ViewTransform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.view
}

// HasImage reports whether a background image is loaded.
func (c *Controller) HasImage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background != nil
}

// Background returns a copy of the loaded image, or nil.
func (c *Controller) Background() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.background == nil {
		return nil
	}
	return raster.Clone(c.background)
}

// Overlay returns a copy of the scribble surface.
func (c *Controller) Overlay() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return raster.Clone(c.overlay)
}

// LoadImage replaces the background with img, resets the overlay to a
// transparent surface of the same size, refits the view, snapshots the fresh
// overlay and publishes both channels.
func (c *Controller) LoadImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("canvas: nil image")
	}
	rgba := raster.ToRGBA(img)
	b := rgba.Bounds()
	if b.Dx() < 1 || b.Dy() < 1 {
		return fmt.Errorf("canvas: empty image %v", b)
	}
	c.mu.Lock()
	c.background = rgba
	c.overlay = raster.Transparent(b.Dx(), b.Dy())
	c.hist.Reset()
	c.hist.Snapshot(c.overlay)
	c.view.FitToContainer(c.containerW, c.containerH, float64(b.Dx()), float64(b.Dy()), FitMargin)
	c.log.Debug("image loaded", slog.Int("w", b.Dx()), slog.Int("h", b.Dy()))
	c.mu.Unlock()

	c.publishBackground()
	c.publishForeground()
	c.refresh()
	return nil
}

// LoadEncoded decodes raw image bytes (PNG/JPEG/GIF) and loads the result.
// A decode failure mutates nothing.
func (c *Controller) LoadEncoded(data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		c.log.Warn("image decode failed", slog.Any("err", err))
		return err
	}
	return c.LoadImage(img)
}

// LoadEncodedAsync decodes on a separate goroutine. schedule must run the
// given function on the host's event loop; done (optional) receives the
// outcome there. Dependent state is only touched after decode succeeds,
// strictly ordered by the completion callback.
func (c *Controller) LoadEncodedAsync(data []byte, schedule func(func()), done func(error)) {
	go func() {
		img, _, err := image.Decode(bytes.NewReader(data))
		schedule(func() {
			if err == nil {
				err = c.LoadImage(img)
			} else {
				c.log.Warn("image decode failed", slog.Any("err", err))
			}
			if done != nil {
				done(err)
			}
		})
	}()
}

// ReplaceBackground swaps the image under the existing scribbles, keeping
// overlay and history intact when the size matches (live preview frames).
// A size change falls back to the full load pipeline.
func (c *Controller) ReplaceBackground(img image.Image) error {
	if img == nil {
		return fmt.Errorf("canvas: nil image")
	}
	rgba := raster.ToRGBA(img)
	c.mu.Lock()
	if c.background == nil || rgba.Bounds() != c.background.Bounds() {
		c.mu.Unlock()
		return c.LoadImage(img)
	}
	c.background = rgba
	c.mu.Unlock()

	c.publishBackground()
	c.refresh()
	return nil
}

// RemoveImage drops the background and overlay, resets the view and history
// and publishes explicit empty values.
func (c *Controller) RemoveImage() {
	c.mu.Lock()
	c.background = nil
	c.overlay = raster.Transparent(1, 1)
	c.hist.Reset()
	c.hist.Snapshot(c.overlay)
	c.view = geom.NewViewTransform()
	c.mu.Unlock()

	c.publishBackground()
	c.publishForeground()
	c.refresh()
}

// ResetOverlay clears the scribbles but keeps the image; the cleared state
// becomes a new history entry.
func (c *Controller) ResetOverlay() {
	c.mu.Lock()
	b := c.overlay.Bounds()
	c.overlay = raster.Transparent(b.Dx(), b.Dy())
	c.hist.Snapshot(c.overlay)
	c.mu.Unlock()

	c.publishForeground()
	c.refresh()
}

// CenterView refits the image inside the container (explicit "center"
// command). Without an image this is a no-op.
func (c *Controller) CenterView() {
	c.mu.Lock()
	if c.background != nil {
		b := c.background.Bounds()
		c.view.FitToContainer(c.containerW, c.containerH, float64(b.Dx()), float64(b.Dy()), FitMargin)
	}
	c.mu.Unlock()
	c.refresh()
}

// Undo restores the previous overlay snapshot. A restore counts as a live
// edit downstream: the foreground channel is refreshed.
func (c *Controller) Undo() {
	c.mu.Lock()
	ok := c.hist.Undo(c.overlay)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.publishForeground()
	c.refresh()
}

// Redo restores the next overlay snapshot.
func (c *Controller) Redo() {
	c.mu.Lock()
	ok := c.hist.Redo(c.overlay)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.publishForeground()
	c.refresh()
}

// CanUndo reports whether an earlier overlay snapshot exists.
func (c *Controller) CanUndo() bool { return c.hist.CanUndo() }

// CanRedo reports whether a later overlay snapshot exists.
func (c *Controller) CanRedo() bool { return c.hist.CanRedo() }

// HistoryStats exposes the snapshot store counters for diagnostics.
func (c *Controller) HistoryStats() (totalBytes, length, index int) {
	return c.hist.Stats()
}

// Maximize saves the current panel height and flags the maximized
// presentation state. Raster and history state are untouched.
func (c *Controller) Maximize() {
	c.mu.Lock()
	if !c.maximized {
		c.savedHeight = c.panelHeight
		c.maximized = true
	}
	c.mu.Unlock()
	c.refresh()
}

// Restore leaves the maximized state and brings back the saved height.
func (c *Controller) Restore() {
	c.mu.Lock()
	if c.maximized {
		c.panelHeight = c.savedHeight
		c.maximized = false
	}
	c.mu.Unlock()
	c.refresh()
}

// Maximized reports the presentation toggle.
func (c *Controller) Maximized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maximized
}

// PanelHeight returns the current presentation height.
func (c *Controller) PanelHeight() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.panelHeight
}

// SetTool switches between brush and eraser.
func (c *Controller) SetTool(t paint.Tool) {
	c.mu.Lock()
	c.brush.Tool = t
	c.mu.Unlock()
}

// SetColor updates the brush color unless the field is fixed.
func (c *Controller) SetColor(col [4]uint8) {
	c.mu.Lock()
	if !c.opts.FixedColor {
		c.brush.Color.R, c.brush.Color.G, c.brush.Color.B, c.brush.Color.A = col[0], col[1], col[2], col[3]
	}
	c.mu.Unlock()
}

// SetWidthUnits updates the brush width unless fixed; the floor is
// paint.MinWidthUnits.
func (c *Controller) SetWidthUnits(w float64) {
	c.mu.Lock()
	if !c.opts.FixedWidth {
		if w < paint.MinWidthUnits {
			w = paint.MinWidthUnits
		}
		c.brush.WidthUnits = w
	}
	c.mu.Unlock()
}

// SetAlphaPercent updates the brush opacity unless fixed; clamped to 0-100.
func (c *Controller) SetAlphaPercent(a float64) {
	c.mu.Lock()
	if !c.opts.FixedAlpha {
		if a < 0 {
			a = 0
		}
		if a > 100 {
			a = 100
		}
		c.brush.AlphaPercent = a
	}
	c.mu.Unlock()
}

// SetSoftness updates the feather amount unless fixed; clamped to
// 0-paint.MaxSoftness.
func (c *Controller) SetSoftness(s float64) {
	c.mu.Lock()
	if !c.opts.FixedSoftness {
		if s < 0 {
			s = 0
		}
		if s > paint.MaxSoftness {
			s = paint.MaxSoftness
		}
		c.brush.Softness = s
	}
	c.mu.Unlock()
}

// ObserveBindings polls both channels for external edits. Hosts with change
// notifications call it from those instead.
func (c *Controller) ObserveBindings() {
	c.bg.Observe()
	c.fg.Observe()
}

// onExternalBackground handles a genuine host-side edit of the background
// field: empty removes the image, anything else runs the full load pipeline.
func (c *Controller) onExternalBackground(value string) {
	img, err := raster.DecodeDataURI(value)
	if err != nil {
		if err == raster.ErrEmptyPayload {
			c.RemoveImage()
			return
		}
		// Corrupt payload: keep current state (spec'd silent failure).
		c.log.Warn("external background undecodable", slog.Any("err", err))
		return
	}
	if err := c.LoadImage(img); err != nil {
		c.log.Warn("external background rejected", slog.Any("err", err))
	}
}

// onExternalForeground replaces the overlay from a host-side edit; the
// replacement is snapshotted like a local stroke.
func (c *Controller) onExternalForeground(value string) {
	img, err := raster.DecodeDataURI(value)
	if err != nil && err != raster.ErrEmptyPayload {
		c.log.Warn("external overlay undecodable", slog.Any("err", err))
		return
	}

	c.mu.Lock()
	b := c.overlay.Bounds()
	switch {
	case img == nil:
		c.overlay = raster.Transparent(b.Dx(), b.Dy())
	case img.Bounds() == b:
		c.overlay = img
	default:
		// A mismatched overlay is rescaled onto the current surface size.
		c.overlay = raster.Scale(img, b.Dx(), b.Dy())
	}
	c.hist.Snapshot(c.overlay)
	c.mu.Unlock()

	c.publishForeground()
	c.refresh()
}

// publishBackground mirrors the background image into its channel; empty
// when no image is loaded.
func (c *Controller) publishBackground() {
	c.mu.Lock()
	img := c.background
	c.mu.Unlock()
	var value string
	if img != nil {
		v, err := raster.EncodeDataURI(img)
		if err != nil {
			c.log.Error("background encode failed", slog.Any("err", err))
			return
		}
		value = v
	}
	c.bg.Publish(value)
}

// publishForeground mirrors the overlay; explicit empty while no image is
// loaded.
func (c *Controller) publishForeground() {
	c.mu.Lock()
	var img *image.RGBA
	if c.background != nil {
		img = c.overlay
	}
	c.mu.Unlock()
	var value string
	if img != nil {
		v, err := raster.EncodeDataURI(img)
		if err != nil {
			c.log.Error("overlay encode failed", slog.Any("err", err))
			return
		}
		value = v
	}
	c.fg.Publish(value)
}

func (c *Controller) refresh() {
	if c.OnRefresh != nil {
		c.OnRefresh()
	}
}
