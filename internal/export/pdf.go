/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls PDF export behavior. Units are points (pt).
type PDFOptions struct {
	// MarginPt is the whitespace around the image on the page.
	MarginPt float64
	// Title is stored in the document metadata.
	Title string
}

// PDF flattens the canvas and writes it as a single-page PDF sized to the
// image aspect ratio on an A4-bounded page.
func PDF(outPath string, background, overlay *image.RGBA, opt PDFOptions) error {
	flat, err := flatten(background, overlay)
	if err != nil {
		return err
	}
	if opt.MarginPt < 0 {
		opt.MarginPt = 0
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return fmt.Errorf("export pdf: %w", err)
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	availW := pageW - 2*opt.MarginPt
	availH := pageH - 2*opt.MarginPt
	if availW <= 0 || availH <= 0 {
		return fmt.Errorf("export pdf: margin %v leaves no drawable area", opt.MarginPt)
	}
	b := flat.Bounds()
	scale := availW / float64(b.Dx())
	if s := availH / float64(b.Dy()); s < scale {
		scale = s
	}
	w := float64(b.Dx()) * scale
	h := float64(b.Dy()) * scale
	x := (pageW - w) / 2
	y := (pageH - h) / 2

	pdf.RegisterImageOptionsReader("canvas", gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	pdf.ImageOptions("canvas", x, y, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}
