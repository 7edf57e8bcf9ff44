/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package paint

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"scribblecanvas/internal/geom"
	"scribblecanvas/internal/raster"
)

// RenderStroke re-renders a complete in-progress stroke: dst is restored from
// the pre-stroke snapshot base, then the whole path is rasterized with the
// given parameters. Restoring first keeps overlapping segments of one gesture
// from compositing twice as the path grows.
//
// Path points are image-local coordinates; scale is the current view scale
// (it only affects the stroke width).
func RenderStroke(dst, base *image.RGBA, path []geom.Pt, p BrushParams, scale float64) error {
	if err := raster.CopyInto(dst, base); err != nil {
		return err
	}
	if len(path) == 0 {
		return nil
	}
	lineWidth := p.LineWidth(scale)

	switch {
	case p.AlphaPercent <= 0:
		// Full erase along the path, opaque, regardless of color/softness.
		mask, err := strokeMask(dst.Bounds(), path, lineWidth)
		if err != nil {
			return err
		}
		eraseThroughMask(dst, mask)
		return nil
	case p.MaskMode:
		// Binary-mask scribbles always render as a fixed checkerboard for
		// contrast against arbitrary backgrounds.
		mask, err := strokeMask(dst.Bounds(), path, lineWidth)
		if err != nil {
			return err
		}
		paintPatternThroughMask(dst, mask, checkerboard)
		return nil
	case p.Softness <= 0:
		return paintPass(dst, path, lineWidth, p, p.AlphaPercent/100)
	default:
		steps := p.softPasses()
		a := passAlpha(p.AlphaPercent/100, steps)
		for _, w := range passWidths(lineWidth, p.Softness, steps) {
			if err := paintPass(dst, path, w, p, a); err != nil {
				return err
			}
		}
		return nil
	}
}

// paintPass strokes the path once onto dst at the given width and opacity,
// blending source-over.
func paintPass(dst *image.RGBA, path []geom.Pt, width float64, p BrushParams, alpha float64) error {
	dc := gg.NewContextForImage(dst)
	defer dc.Close()
	dc.SetRGBA(float64(p.Color.R)/255, float64(p.Color.G)/255, float64(p.Color.B)/255, alpha)
	if err := tracePath(dc, path, width); err != nil {
		return err
	}
	out := raster.ToRGBA(dc.Image())
	return raster.CopyInto(dst, out)
}

// strokeMask rasterizes the path shape into an opaque scratch context and
// returns its coverage as an alpha mask.
func strokeMask(bounds image.Rectangle, path []geom.Pt, width float64) (*image.Alpha, error) {
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	defer dc.Close()
	dc.Clear()
	dc.SetRGBA(1, 1, 1, 1)
	if err := tracePath(dc, path, width); err != nil {
		return nil, err
	}
	src := raster.ToRGBA(dc.Image())
	mask := image.NewAlpha(bounds)
	for i, j := 3, 0; i < len(src.Pix); i, j = i+4, j+1 {
		mask.Pix[j] = src.Pix[i]
	}
	return mask, nil
}

// tracePath strokes a polyline with round caps and joins. A single-point
// path renders as a filled round dot of the stroke width.
func tracePath(dc *gg.Context, path []geom.Pt, width float64) error {
	if len(path) == 1 {
		dc.DrawCircle(path[0].X, path[0].Y, width/2)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill dot: %w", err)
		}
		return nil
	}
	dc.SetLineWidth(width)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.MoveTo(path[0].X, path[0].Y)
	for _, pt := range path[1:] {
		dc.LineTo(pt.X, pt.Y)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("stroke path: %w", err)
	}
	return nil
}
