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
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"

	"scribblecanvas/internal/paint"
	"scribblecanvas/internal/raster"
)

type memField struct {
	mu  sync.Mutex
	val string
}

func (f *memField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val
}

func (f *memField) Set(value string) {
	f.mu.Lock()
	f.val = value
	f.mu.Unlock()
}

func testImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func newTestController(t *testing.T, opts Options) (*Controller, *memField, *memField) {
	t.Helper()
	bg := &memField{}
	fg := &memField{}
	opts.BackgroundField = bg
	opts.ForegroundField = fg
	if opts.Brush.Color.A == 0 {
		opts.Brush = paint.BrushParams{
			Color:        color.RGBA{A: 255},
			WidthUnits:   4,
			AlphaPercent: 100,
		}
	}
	c := New(opts)
	c.Resize(400, 400)
	return c, bg, fg
}

func loadRed(t *testing.T, c *Controller, w, h int) {
	t.Helper()
	if err := c.LoadImage(testImage(w, h, color.RGBA{R: 255, A: 255})); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
}

func TestLoadImageFitsAndPublishes(t *testing.T) {
	c, bg, fg := newTestController(t, Options{})
	loadRed(t, c, 200, 100)

	v := c.View()
	if math.Abs(v.Scale-1.8) > 1e-9 {
		t.Fatalf("scale = %v, want 1.8", v.Scale)
	}
	if math.Abs(v.OffsetX-20) > 1e-9 || math.Abs(v.OffsetY-110) > 1e-9 {
		t.Fatalf("offset = (%v,%v), want (20,110)", v.OffsetX, v.OffsetY)
	}

	if bg.Value() == "" {
		t.Fatal("background channel not published")
	}
	img, err := raster.DecodeDataURI(bg.Value())
	if err != nil {
		t.Fatalf("published background undecodable: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 200 || got.Dy() != 100 {
		t.Fatalf("published background bounds = %v", got)
	}

	fgImg, err := raster.DecodeDataURI(fg.Value())
	if err != nil {
		t.Fatalf("published overlay undecodable: %v", err)
	}
	if !raster.Equal(fgImg, raster.Transparent(200, 100)) {
		t.Fatal("fresh overlay should be fully transparent")
	}
}

func TestLoadEncodedFailureMutatesNothing(t *testing.T) {
	c, bg, _ := newTestController(t, Options{})
	loadRed(t, c, 64, 64)
	before := bg.Value()

	if err := c.LoadEncoded([]byte("not an image")); err == nil {
		t.Fatal("expected decode error")
	}
	if bg.Value() != before {
		t.Fatal("failed load must not republish")
	}
	if !c.HasImage() {
		t.Fatal("failed load must not drop the current image")
	}
}

func TestLoadEncodedAsyncOrdersCompletion(t *testing.T) {
	c, _, _ := newTestController(t, Options{})

	queue := make(chan func(), 1)
	done := make(chan error, 1)
	c.LoadEncodedAsync(encodePNG(t, testImage(32, 16, color.RGBA{B: 255, A: 255})), func(f func()) {
		queue <- f
	}, func(err error) { done <- err })

	// State is untouched until the scheduled completion runs.
	if c.HasImage() {
		t.Fatal("image visible before completion callback ran")
	}
	(<-queue)()
	if err := <-done; err != nil {
		t.Fatalf("async load: %v", err)
	}
	if !c.HasImage() {
		t.Fatal("image missing after completion")
	}
}

func TestBrushGestureCommitsSnapshotAndPublishes(t *testing.T) {
	c, _, fg := newTestController(t, Options{})
	loadRed(t, c, 200, 100)
	blank := fg.Value()

	c.PointerDown(ButtonPrimary, 200, 200) // image center
	if c.State() != StateDrawing {
		t.Fatalf("state = %v, want drawing", c.State())
	}
	c.PointerMove(240, 200)
	c.PointerUp(240, 200)
	if c.State() != StateIdle {
		t.Fatalf("state = %v, want idle", c.State())
	}

	if fg.Value() == blank {
		t.Fatal("stroke commit did not publish the overlay")
	}
	ov := c.Overlay()
	if !hasOpaquePixel(ov) {
		t.Fatal("stroke left no paint on the overlay")
	}

	c.Undo()
	if hasOpaquePixel(c.Overlay()) {
		t.Fatal("undo did not clear the stroke")
	}
	if fg.Value() != blank {
		t.Fatal("undo did not republish the restored overlay")
	}
	c.Redo()
	if !hasOpaquePixel(c.Overlay()) {
		t.Fatal("redo did not restore the stroke")
	}
}

func TestZeroAlphaBrushErases(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)

	// Paint opaque, then drag the same segment with alpha 0.
	c.PointerDown(ButtonPrimary, 200, 200)
	c.PointerMove(260, 200)
	c.PointerUp(260, 200)
	if !hasOpaquePixel(c.Overlay()) {
		t.Fatal("setup stroke missing")
	}

	// Wider than the original stroke so the anti-aliased rim is fully covered.
	c.SetAlphaPercent(0)
	c.SetWidthUnits(8)
	c.PointerDown(ButtonPrimary, 180, 200)
	c.PointerMove(280, 200)
	c.PointerUp(280, 200)

	if hasOpaquePixel(c.Overlay()) {
		t.Fatal("zero-alpha stroke did not clear the covered pixels")
	}
}

func TestEraserGesture(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)

	c.PointerDown(ButtonPrimary, 200, 200)
	c.PointerMove(260, 200)
	c.PointerUp(260, 200)

	c.SetTool(paint.ToolEraser)
	c.SetWidthUnits(8)
	c.PointerDown(ButtonPrimary, 180, 200)
	if c.State() != StateErasing {
		t.Fatalf("state = %v, want erasing", c.State())
	}
	c.PointerMove(280, 200)
	c.PointerUp(280, 200)

	if hasOpaquePixel(c.Overlay()) {
		t.Fatal("eraser drag did not clear the stroke")
	}
}

func TestNoChangeGestureSkipsSnapshot(t *testing.T) {
	c, _, _ := newTestController(t, Options{Brush: paint.BrushParams{
		Color: color.RGBA{A: 255}, WidthUnits: 4, AlphaPercent: 100, Tool: paint.ToolEraser,
	}})
	loadRed(t, c, 200, 100)
	base := historyDepth(c)

	// Erasing an already-transparent overlay changes no pixels.
	c.PointerDown(ButtonPrimary, 200, 200)
	c.PointerMove(240, 200)
	c.PointerUp(240, 200)

	if got := historyDepth(c); got != base {
		t.Fatalf("history depth = %d after no-op gesture, want %d", got, base)
	}
}

func TestUndoBranchTruncation(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)

	stroke := func(x float64) {
		c.PointerDown(ButtonPrimary, x, 200)
		c.PointerMove(x+20, 200)
		c.PointerUp(x+20, 200)
	}
	stroke(160) // A
	stroke(200) // B
	c.Undo()
	afterUndo := c.Overlay()
	stroke(240) // C replaces B

	c.Redo() // nothing to redo
	two := c.Overlay()
	c.Undo()
	if !raster.Equal(c.Overlay(), afterUndo) {
		t.Fatal("undo after branch did not restore state A")
	}
	c.Redo()
	if !raster.Equal(c.Overlay(), two) {
		t.Fatal("redo did not return to state C")
	}
}

func TestPointerLeaveCommitsLikeUp(t *testing.T) {
	c, _, fg := newTestController(t, Options{})
	loadRed(t, c, 200, 100)
	blank := fg.Value()

	c.PointerDown(ButtonPrimary, 200, 200)
	c.PointerMove(240, 200)
	c.PointerLeave()

	if c.State() != StateIdle {
		t.Fatalf("state = %v after leave, want idle", c.State())
	}
	if fg.Value() == blank {
		t.Fatal("leave did not commit the stroke")
	}
	// Further moves must not extend the finished stroke.
	after := fg.Value()
	c.PointerMove(300, 200)
	if fg.Value() != after {
		t.Fatal("move after leave altered the overlay")
	}
}

func TestSecondaryDragPans(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)
	v0 := c.View()

	c.PointerDown(ButtonSecondary, 200, 200)
	if c.State() != StateDraggingImage {
		t.Fatalf("state = %v, want dragging-image", c.State())
	}
	c.PointerMove(230, 190)
	c.PointerUp(230, 190)

	v := c.View()
	if v.OffsetX != v0.OffsetX+30 || v.OffsetY != v0.OffsetY-10 {
		t.Fatalf("offset = (%v,%v), want (%v,%v)", v.OffsetX, v.OffsetY, v0.OffsetX+30, v0.OffsetY-10)
	}
	if v.Scale != v0.Scale {
		t.Fatal("pan must not change scale")
	}
}

func TestSecondaryDownOutsideImageIgnored(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)

	c.PointerDown(ButtonSecondary, 5, 5) // margin area
	if c.State() != StateIdle {
		t.Fatalf("state = %v, want idle", c.State())
	}
}

func TestWheelZoomKeepsCursorAnchor(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)

	v0 := c.View()
	ix, iy := v0.ScreenToImage(250, 180)
	if !c.Wheel(250, 180, 1, false) {
		t.Fatal("zoom wheel not consumed")
	}
	v := c.View()
	if v.Scale <= v0.Scale {
		t.Fatalf("scale = %v, want > %v", v.Scale, v0.Scale)
	}
	ix2, iy2 := v.ScreenToImage(250, 180)
	if math.Abs(ix2-ix) > 1e-9 || math.Abs(iy2-iy) > 1e-9 {
		t.Fatalf("anchor moved: (%v,%v) -> (%v,%v)", ix, iy, ix2, iy2)
	}
}

func TestWheelWithModifierAdjustsWidth(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)
	w0 := c.Brush().WidthUnits

	if !c.Wheel(200, 200, 1, true) {
		t.Fatal("width wheel not consumed")
	}
	if got := c.Brush().WidthUnits; got != w0+1 {
		t.Fatalf("width = %v, want %v", got, w0+1)
	}
	if v := c.View(); math.Abs(v.Scale-1.8) > 1e-9 {
		t.Fatal("modifier wheel must not zoom")
	}

	// Width never drops below the floor.
	for i := 0; i < 50; i++ {
		c.Wheel(200, 200, -1, true)
	}
	if got := c.Brush().WidthUnits; got != paint.MinWidthUnits {
		t.Fatalf("width = %v, want floor %v", got, paint.MinWidthUnits)
	}
}

func TestWheelWithoutImageIgnored(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	if c.Wheel(200, 200, 1, false) {
		t.Fatal("zoom on empty canvas should not be consumed")
	}
}

func TestUploadTrigger(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	var asked int
	c.OnRequestUpload = func() { asked++ }

	c.PointerDown(ButtonPrimary, 100, 100)
	if asked != 1 {
		t.Fatalf("upload requests = %d, want 1", asked)
	}

	loadRed(t, c, 200, 100)
	c.PointerDown(ButtonPrimary, 200, 200)
	c.PointerUp(200, 200)
	if asked != 1 {
		t.Fatal("upload must not trigger while an image is loaded")
	}
}

func TestNoUploadSuppressesTrigger(t *testing.T) {
	c, _, _ := newTestController(t, Options{NoUpload: true})
	var asked int
	c.OnRequestUpload = func() { asked++ }
	c.PointerDown(ButtonPrimary, 100, 100)
	if asked != 0 {
		t.Fatal("NoUpload must suppress the trigger")
	}
}

func TestNoScribblesBlocksDrawing(t *testing.T) {
	c, _, _ := newTestController(t, Options{NoScribbles: true})
	loadRed(t, c, 200, 100)

	c.PointerDown(ButtonPrimary, 200, 200)
	if c.State() != StateIdle {
		t.Fatalf("state = %v, want idle", c.State())
	}
	if c.Wheel(200, 200, 1, true) {
		t.Fatal("width wheel must be inert with scribbles disabled")
	}
	// Panning still works.
	c.PointerDown(ButtonSecondary, 200, 200)
	if c.State() != StateDraggingImage {
		t.Fatal("pan should stay available")
	}
	c.PointerUp(200, 200)
}

func TestFixedFieldsIgnoreSetters(t *testing.T) {
	c, _, _ := newTestController(t, Options{
		FixedColor: true, FixedWidth: true, FixedAlpha: true, FixedSoftness: true,
		Brush: paint.BrushParams{Color: color.RGBA{R: 10, A: 255}, WidthUnits: 4, AlphaPercent: 100, Softness: 30},
	})
	c.SetColor([4]uint8{255, 0, 0, 255})
	c.SetWidthUnits(9)
	c.SetAlphaPercent(10)
	c.SetSoftness(90)
	b := c.Brush()
	if b.Color.R != 10 || b.WidthUnits != 4 || b.AlphaPercent != 100 || b.Softness != 30 {
		t.Fatalf("fixed params mutated: %+v", b)
	}
}

func TestExternalBackgroundObserved(t *testing.T) {
	c, bg, _ := newTestController(t, Options{})

	uri, err := raster.EncodeDataURI(testImage(50, 40, color.RGBA{G: 255, A: 255}))
	if err != nil {
		t.Fatal(err)
	}
	bg.Set(uri)
	c.ObserveBindings()

	img := c.Background()
	if img == nil || img.Bounds().Dx() != 50 || img.Bounds().Dy() != 40 {
		t.Fatalf("external background not loaded: %v", img)
	}

	// Clearing the field removes the image.
	bg.Set("")
	c.ObserveBindings()
	if c.HasImage() {
		t.Fatal("empty external value must remove the image")
	}
}

func TestExternalBackgroundCorruptIgnored(t *testing.T) {
	c, bg, _ := newTestController(t, Options{})
	loadRed(t, c, 64, 64)

	bg.Set("data:image/png;base64,////nope")
	c.ObserveBindings()
	if !c.HasImage() {
		t.Fatal("corrupt external payload must not drop the image")
	}
}

func TestPublishDoesNotEcho(t *testing.T) {
	c, bg, fg := newTestController(t, Options{})
	loadRed(t, c, 64, 64)

	// The values the controller itself published must not re-trigger loads.
	depth := historyDepth(c)
	c.ObserveBindings()
	if got := historyDepth(c); got != depth {
		t.Fatalf("observing own publishes changed history: %d -> %d", depth, got)
	}
	if bg.Value() == "" || fg.Value() == "" {
		t.Fatal("controller publishes missing from the fields")
	}
}

func TestExternalForegroundReplacesOverlay(t *testing.T) {
	c, _, fg := newTestController(t, Options{})
	loadRed(t, c, 64, 64)

	repl := raster.Transparent(64, 64)
	repl.SetRGBA(10, 10, color.RGBA{B: 255, A: 255})
	uri, err := raster.EncodeDataURI(repl)
	if err != nil {
		t.Fatal(err)
	}
	fg.Set(uri)
	c.ObserveBindings()

	if got := c.Overlay().RGBAAt(10, 10); got.B != 255 || got.A != 255 {
		t.Fatalf("overlay pixel = %+v, want opaque blue", got)
	}
	// The replacement is undoable like a stroke.
	c.Undo()
	if hasOpaquePixel(c.Overlay()) {
		t.Fatal("undo did not revert the external overlay")
	}
}

func TestResetOverlayKeepsImage(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)
	c.PointerDown(ButtonPrimary, 200, 200)
	c.PointerUp(200, 200)

	c.ResetOverlay()
	if hasOpaquePixel(c.Overlay()) {
		t.Fatal("reset left paint behind")
	}
	if !c.HasImage() {
		t.Fatal("reset must keep the background image")
	}
	c.Undo()
	if !hasOpaquePixel(c.Overlay()) {
		t.Fatal("reset should be undoable")
	}
}

func TestResizeRefits(t *testing.T) {
	c, _, _ := newTestController(t, Options{})
	loadRed(t, c, 200, 100)

	c.Resize(800, 800)
	v := c.View()
	if math.Abs(v.Scale-3.8) > 1e-9 {
		t.Fatalf("scale = %v after resize, want 3.8", v.Scale)
	}
}

func TestMaximizeRestore(t *testing.T) {
	c, _, _ := newTestController(t, Options{PanelHeight: 300})
	c.Maximize()
	if !c.Maximized() {
		t.Fatal("not maximized")
	}
	c.Restore()
	if c.Maximized() || c.PanelHeight() != 300 {
		t.Fatalf("restore: maximized=%v height=%v", c.Maximized(), c.PanelHeight())
	}
}

func TestPanelResizeGesture(t *testing.T) {
	c, _, _ := newTestController(t, Options{PanelHeight: 300})
	c.StartPanelResize(100)
	if c.State() != StateResizingPanel {
		t.Fatalf("state = %v, want resizing-panel", c.State())
	}
	c.PointerMove(0, 160)
	c.PointerUp(0, 160)
	if got := c.PanelHeight(); got != 360 {
		t.Fatalf("height = %v, want 360", got)
	}
	if c.State() != StateIdle {
		t.Fatalf("state = %v after release, want idle", c.State())
	}
}

func TestPanelResizeClampsToMinimum(t *testing.T) {
	c, _, _ := newTestController(t, Options{PanelHeight: 300})
	c.StartPanelResize(100)
	c.PointerMove(0, -2000)
	if got := c.PanelHeight(); got != MinPanelHeight {
		t.Fatalf("height = %v, want %v", got, MinPanelHeight)
	}
	c.PointerUp(0, -2000)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func historyDepth(c *Controller) int {
	_, length, _ := c.HistoryStats()
	return length
}

func hasOpaquePixel(img *image.RGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A != 0 {
				return true
			}
		}
	}
	return false
}
