//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"scribblecanvas/internal/canvas"
	"scribblecanvas/internal/config"
	"scribblecanvas/internal/crash"
	"scribblecanvas/internal/export"
	"scribblecanvas/internal/history"
	applog "scribblecanvas/internal/log"
	"scribblecanvas/internal/paint"
	"scribblecanvas/internal/preview"
	"scribblecanvas/internal/raster"
	"scribblecanvas/internal/version"
)

// Run starts the Fyne-based desktop shell around a single scribble canvas.
// imagePath optionally names an image file to load at startup.
func Run(imagePath string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	defer crash.Recover()

	cfg, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	fyneApp := app.NewWithID("scribblecanvas")
	w := fyneApp.NewWindow("Scribble Canvas")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1100)
	winH := prefs.IntWithFallback("window.height", 760)
	if winW < 640 {
		winW = 640
	}
	if winH < 480 {
		winH = 480
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")

	// External fields mirrored by the binding channels; hosts embedding the
	// widget hand over their own. The entries double as a debug view.
	bgField := newEntryField()
	fgField := newEntryField()

	sc := NewScribbleCanvas(cfg.Widget, bgField, fgField)
	bgField.entry.OnSubmitted = func(string) { sc.ctrl.ObserveBindings() }
	fgField.entry.OnSubmitted = func(string) { sc.ctrl.ObserveBindings() }
	sc.ctrl.OnRequestUpload = func() {
		openImageDialog(w, sc, status, l)
	}

	// Toolbar: tools, undo/redo, image actions.
	toolSel := widget.NewSelect([]string{"Brush", "Eraser"}, func(v string) {
		if v == "Eraser" {
			sc.ctrl.SetTool(paint.ToolEraser)
		} else {
			sc.ctrl.SetTool(paint.ToolBrush)
		}
	})
	toolSel.SetSelected("Brush")

	widthSlide := widget.NewSlider(paint.MinWidthUnits, 72)
	widthSlide.SetValue(cfg.Widget.Width.Value)
	widthSlide.OnChanged = func(v float64) { sc.ctrl.SetWidthUnits(v) }
	alphaSlide := widget.NewSlider(0, 100)
	alphaSlide.SetValue(cfg.Widget.Alpha.Value)
	alphaSlide.OnChanged = func(v float64) { sc.ctrl.SetAlphaPercent(v) }
	softSlide := widget.NewSlider(0, paint.MaxSoftness)
	softSlide.SetValue(cfg.Widget.Softness.Value)
	softSlide.OnChanged = func(v float64) { sc.ctrl.SetSoftness(v) }

	undoBtn := widget.NewButton("Undo", func() { sc.ctrl.Undo() })
	redoBtn := widget.NewButton("Redo", func() { sc.ctrl.Redo() })
	resetBtn := widget.NewButton("Clear", func() { sc.ctrl.ResetOverlay() })
	removeBtn := widget.NewButton("Remove Image", func() { sc.ctrl.RemoveImage() })
	centerBtn := widget.NewButton("Center", func() { sc.ctrl.CenterView() })
	openBtn := widget.NewButton("Open…", func() { openImageDialog(w, sc, status, l) })
	exportBtn := widget.NewButton("Export…", func() { saveCanvasDialog(w, sc, status, l) })

	watchEntry := widget.NewEntry()
	watchEntry.SetPlaceHolder("task id")
	watchBtn := widget.NewButton("Watch", nil)
	watcher := newTaskWatcher(cfg, sc, status, l)
	watchBtn.OnTapped = func() { watcher.toggle(watchEntry.Text, watchBtn) }

	sliders := container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("Width"), nil, widthSlide),
		container.NewBorder(nil, nil, widget.NewLabel("Alpha"), nil, alphaSlide),
		container.NewBorder(nil, nil, widget.NewLabel("Soft"), nil, softSlide),
	)
	toolbar := container.NewVBox(
		container.NewHBox(toolSel, undoBtn, redoBtn, resetBtn, centerBtn, openBtn, exportBtn, removeBtn, watchEntry, watchBtn),
		sliders,
	)

	fields := container.NewVBox(
		container.NewBorder(nil, nil, widget.NewLabel("image"), nil, bgField.entry),
		container.NewBorder(nil, nil, widget.NewLabel("scribbles"), nil, fgField.entry),
	)

	sc.ctrl.OnRefresh = func() {
		sc.Refresh()
		v := sc.ctrl.View()
		status.SetText(fmt.Sprintf("zoom %.0f%%  state %s", v.Scale*100, sc.ctrl.State()))
	}

	w.SetContent(container.NewBorder(toolbar, container.NewVBox(fields, status), nil, nil, sc))

	// Keyboard: undo/redo shortcuts and wheel-modifier tracking.
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		sc.ctrl.Undo()
	})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		sc.ctrl.Redo()
	})
	if dc, ok := w.Canvas().(desktop.Canvas); ok {
		dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			if isModifierKey(ev.Name) {
				sc.setModifier(true)
			}
		})
		dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			if isModifierKey(ev.Name) {
				sc.setModifier(false)
			}
		})
	}

	// Drag-and-drop image load; only the first dropped item is considered.
	w.SetOnDropped(func(_ fyne.Position, uris []fyne.URI) {
		if len(uris) == 0 {
			return
		}
		path := uris[0].Path()
		if !isImagePath(path) {
			l.Debug("dropped item ignored", slog.String("path", path))
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			l.Warn("cannot read dropped file", slog.String("path", path), slog.Any("err", err))
			return
		}
		sc.ctrl.LoadEncodedAsync(data, func(f func()) { fyne.Do(f) }, func(err error) {
			if err != nil {
				status.SetText("could not decode the dropped file")
				return
			}
			status.SetText("image loaded")
		})
	})

	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			l.Warn("cannot read startup image", slog.String("path", imagePath), slog.Any("err", err))
		} else {
			sc.ctrl.LoadEncodedAsync(data, func(f func()) { fyne.Do(f) }, func(err error) {
				if err != nil {
					status.SetText("could not load " + imagePath)
				}
			})
		}
	}

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		watcher.stop()
	})

	w.ShowAndRun()
	return nil
}

func isImagePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

func isModifierKey(name fyne.KeyName) bool {
	switch name {
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		return true
	}
	return false
}

// entryField adapts a Fyne entry to the binding channel's field contract.
type entryField struct {
	entry *widget.Entry
}

func newEntryField() *entryField {
	e := widget.NewEntry()
	return &entryField{entry: e}
}

func (f *entryField) Value() string    { return f.entry.Text }
func (f *entryField) Set(value string) { f.entry.SetText(value) }

// ScribbleCanvas is the interactive widget: it forwards pointer, wheel and
// resize events to the controller and paints the composed raster.
type ScribbleCanvas struct {
	widget.BaseWidget
	ctrl *canvas.Controller

	mu       sync.Mutex
	modifier bool
	lastSize fyne.Size
}

// NewScribbleCanvas builds the widget from construction settings and the two
// host fields.
func NewScribbleCanvas(s config.WidgetSettings, bgField, fgField *entryField) *ScribbleCanvas {
	brush := paint.BrushParams{
		WidthUnits:   s.Width.Value,
		AlphaPercent: s.Alpha.Value,
		Softness:     s.Softness.Value,
		Color:        color.RGBA{A: 255},
	}
	if r, g, b, err := config.ParseHexColor(s.Color.Value); err == nil {
		brush.Color = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	sc := &ScribbleCanvas{
		ctrl: canvas.New(canvas.Options{
			NoUpload:        s.NoUpload,
			NoScribbles:     s.NoScribbles,
			MaskMode:        s.MaskMode,
			PanelHeight:     float64(s.Height),
			Brush:           brush,
			FixedColor:      s.Color.Fixed,
			FixedWidth:      s.Width.Fixed,
			FixedAlpha:      s.Alpha.Fixed,
			FixedSoftness:   s.Softness.Fixed,
			History:         history.Config{},
			BackgroundField: bgField,
			ForegroundField: fgField,
		}),
	}
	sc.ExtendBaseWidget(sc)
	return sc
}

// Controller exposes the underlying controller for embedding hosts.
func (s *ScribbleCanvas) Controller() *canvas.Controller { return s.ctrl }

func (s *ScribbleCanvas) setModifier(held bool) {
	s.mu.Lock()
	s.modifier = held
	s.mu.Unlock()
}

func (s *ScribbleCanvas) modifierHeld() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modifier
}

// MouseDown implements desktop.Mouseable.
func (s *ScribbleCanvas) MouseDown(ev *desktop.MouseEvent) {
	btn := canvas.ButtonPrimary
	if ev.Button == desktop.MouseButtonSecondary {
		btn = canvas.ButtonSecondary
	}
	s.ctrl.PointerDown(btn, float64(ev.Position.X), float64(ev.Position.Y))
}

// MouseUp implements desktop.Mouseable.
func (s *ScribbleCanvas) MouseUp(ev *desktop.MouseEvent) {
	s.ctrl.PointerUp(float64(ev.Position.X), float64(ev.Position.Y))
}

// MouseMoved implements desktop.Hoverable; Fyne keeps delivering moves while
// a button is held, which drives the active gesture.
func (s *ScribbleCanvas) MouseMoved(ev *desktop.MouseEvent) {
	s.ctrl.PointerMove(float64(ev.Position.X), float64(ev.Position.Y))
}

// MouseIn implements desktop.Hoverable.
func (s *ScribbleCanvas) MouseIn(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable; leaving the surface ends any
// gesture.
func (s *ScribbleCanvas) MouseOut() {
	s.ctrl.PointerLeave()
}

// Scrolled implements fyne.Scrollable: plain wheel zooms at the cursor, with
// the modifier held it resizes the brush.
func (s *ScribbleCanvas) Scrolled(ev *fyne.ScrollEvent) {
	s.ctrl.Wheel(float64(ev.Position.X), float64(ev.Position.Y), float64(ev.Scrolled.DY), s.modifierHeld())
}

// CreateRenderer paints the composed scene into a raster.
func (s *ScribbleCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &scribbleRenderer{sc: s}
	r.raster = fynecanvas.NewRaster(r.draw)
	return r
}

// MinSize honors the configured panel height.
func (s *ScribbleCanvas) MinSize() fyne.Size {
	return fyne.NewSize(320, float32(s.ctrl.PanelHeight()))
}

type scribbleRenderer struct {
	sc     *ScribbleCanvas
	raster *fynecanvas.Raster
}

func (r *scribbleRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	r.sc.mu.Lock()
	changed := size != r.sc.lastSize
	r.sc.lastSize = size
	r.sc.mu.Unlock()
	if changed {
		r.sc.ctrl.Resize(float64(size.Width), float64(size.Height))
	}
}

func (r *scribbleRenderer) MinSize() fyne.Size           { return r.sc.MinSize() }
func (r *scribbleRenderer) Refresh()                     { fynecanvas.Refresh(r.raster) }
func (r *scribbleRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.raster} }
func (r *scribbleRenderer) Destroy()                     {}

// draw composes background and overlay through the view transform.
func (r *scribbleRenderer) draw(w, h int) image.Image {
	return composeScene(r.sc.ctrl, w, h)
}

// composeScene renders the controller state into a w x h frame: dark
// backdrop, then the image and the scribble overlay mapped through the view
// transform.
func composeScene(c *canvas.Controller, w, h int) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	backdrop := color.RGBA{R: 30, G: 30, B: 34, A: 255}
	for i := 0; i < len(frame.Pix); i += 4 {
		frame.Pix[i+0] = backdrop.R
		frame.Pix[i+1] = backdrop.G
		frame.Pix[i+2] = backdrop.B
		frame.Pix[i+3] = backdrop.A
	}

	bg := c.Background()
	if bg == nil {
		return frame
	}
	v := c.View()
	m := f64.Aff3{v.Scale, 0, v.OffsetX, 0, v.Scale, v.OffsetY}
	xdraw.ApproxBiLinear.Transform(frame, m, bg, bg.Bounds(), xdraw.Over, nil)
	ov := c.Overlay()
	xdraw.ApproxBiLinear.Transform(frame, m, ov, ov.Bounds(), xdraw.Over, nil)
	return frame
}

// openImageDialog runs the file picker and loads the chosen image without
// blocking the event loop.
func openImageDialog(w fyne.Window, sc *ScribbleCanvas, status *widget.Label, l *slog.Logger) {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		data := make([]byte, 0, 1<<20)
		buf := make([]byte, 64*1024)
		for {
			n, rerr := rc.Read(buf)
			data = append(data, buf[:n]...)
			if rerr != nil {
				break
			}
		}
		sc.ctrl.LoadEncodedAsync(data, func(f func()) { fyne.Do(f) }, func(err error) {
			if err != nil {
				l.Warn("image open failed", slog.Any("err", err))
				status.SetText("could not decode the selected file")
				return
			}
			status.SetText("image loaded")
		})
	}, w)
	fd.SetFilter(fstorage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif"}))
	fd.Show()
}

// saveCanvasDialog exports the flattened canvas; the extension picks the
// format (.pdf, anything else writes PNG).
func saveCanvasDialog(w fyne.Window, sc *ScribbleCanvas, status *widget.Label, l *slog.Logger) {
	bg := sc.ctrl.Background()
	if bg == nil {
		status.SetText("nothing to export")
		return
	}
	fd := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		_ = wc.Close()
		ov := sc.ctrl.Overlay()
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			err = export.PDF(path, bg, ov, export.PDFOptions{MarginPt: 36, Title: "Scribble Canvas"})
		} else {
			err = export.PNG(path, bg, ov)
		}
		if err != nil {
			l.Error("export failed", slog.String("path", path), slog.Any("err", err))
			status.SetText("export failed: " + err.Error())
			return
		}
		status.SetText("exported " + path)
	}, w)
	fd.SetFileName("canvas.png")
	fd.Show()
}

// taskWatcher polls the backend for live previews of one task and feeds the
// frames into the canvas.
type taskWatcher struct {
	cfg    config.AppConfig
	sc     *ScribbleCanvas
	status *widget.Label
	log    *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newTaskWatcher(cfg config.AppConfig, sc *ScribbleCanvas, status *widget.Label, l *slog.Logger) *taskWatcher {
	return &taskWatcher{cfg: cfg, sc: sc, status: status, log: l}
}

func (t *taskWatcher) toggle(idTask string, btn *widget.Button) {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
		t.mu.Unlock()
		btn.SetText("Watch")
		return
	}
	if idTask == "" {
		t.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.mu.Unlock()
	btn.SetText("Stop")

	token, err := config.BackendToken()
	if err != nil {
		t.log.Warn("keychain token unavailable", slog.Any("err", err))
	}
	client := preview.NewClient(t.cfg.Backend.BaseURL, token, t.cfg.Backend.EffectiveTimeout())
	poller := preview.NewPoller(client, t.cfg.Backend.EffectivePollInterval())
	queue := preview.NewQueue(4)

	go func() {
		defer cancel()
		err := poller.Run(ctx, idTask, func(st preview.ProgressState) {
			if !queue.Push(st) && st.LivePreview == "" && st.TextInfo == "" {
				return
			}
			fyne.Do(func() { t.apply(queue, st) })
		})
		fyne.Do(func() {
			t.mu.Lock()
			t.cancel = nil
			t.mu.Unlock()
			btn.SetText("Watch")
			if err != nil && err != context.Canceled {
				t.status.SetText("watch stopped: " + err.Error())
			} else {
				t.status.SetText("task finished")
			}
		})
	}()
}

func (t *taskWatcher) apply(queue *preview.Queue, st preview.ProgressState) {
	for {
		frame, ok := queue.Pop()
		if !ok {
			break
		}
		img, err := raster.DecodeDataURI(frame.LivePreview)
		if err != nil {
			t.log.Warn("preview frame undecodable", slog.Any("err", err))
			continue
		}
		if err := t.sc.ctrl.ReplaceBackground(img); err != nil {
			t.log.Warn("preview frame rejected", slog.Any("err", err))
		}
	}
	if st.TextInfo != "" {
		t.status.SetText(fmt.Sprintf("%s (%.0f%%)", st.TextInfo, st.Fraction()*100))
	}
}

func (t *taskWatcher) stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.mu.Unlock()
}
