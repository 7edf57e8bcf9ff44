/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package raster holds the pixel-level helpers shared by the canvas:
// PNG data-URI encoding/decoding (the serialized exchange format for both
// the background image and the scribble overlay), surface snapshots, and
// flatten/scale operations.
package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	// register decoders for pasted/dropped payloads besides PNG
	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
)

const pngURIPrefix = "data:image/png;base64,"

// ErrEmptyPayload is returned when decoding an empty serialized value, which
// by contract means "no image".
var ErrEmptyPayload = errors.New("raster: empty payload")

// EncodeDataURI serializes an image as a PNG data URI. A nil image encodes to
// the explicit empty value "".
func EncodeDataURI(img image.Image) (string, error) {
	if img == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return pngURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeDataURI parses a data URI (or raw base64 image bytes) back into an
// RGBA surface. The empty string yields ErrEmptyPayload so callers can tell
// "no image" apart from a corrupt one.
func DecodeDataURI(s string) (*image.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyPayload
	}
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return ToRGBA(img), nil
}

// ToRGBA converts any image to *image.RGBA, copying pixels. The input is not
// retained.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

// Clone returns an independent copy of the surface. Used for history
// snapshots and pre-stroke saves.
func Clone(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// CopyInto restores dst from src. The two must have equal bounds.
func CopyInto(dst, src *image.RGBA) error {
	if dst.Bounds() != src.Bounds() {
		return fmt.Errorf("raster: bounds mismatch %v vs %v", dst.Bounds(), src.Bounds())
	}
	copy(dst.Pix, src.Pix)
	return nil
}

// Transparent returns a fully transparent surface of the given size.
// A 1x1 surface stands in for "no image loaded".
func Transparent(w, h int) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

// Flatten composites the overlay over the background into a new surface.
// Both must share bounds; the result is what the user sees at scale 1.
func Flatten(background, overlay *image.RGBA) (*image.RGBA, error) {
	if background.Bounds() != overlay.Bounds() {
		return nil, fmt.Errorf("raster: bounds mismatch %v vs %v", background.Bounds(), overlay.Bounds())
	}
	out := Clone(background)
	xdraw.Draw(out, out.Bounds(), overlay, overlay.Bounds().Min, xdraw.Over)
	return out, nil
}

// Scale resamples src to w x h with bilinear filtering. Used for preview
// thumbnails; the widget itself renders through the view transform instead.
func Scale(src image.Image, w, h int) *image.RGBA {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// Equal reports whether two surfaces hold identical pixels. Gesture commit
// uses it to skip history snapshots for strokes that changed nothing.
func Equal(a, b *image.RGBA) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	return bytes.Equal(a.Pix, b.Pix)
}
