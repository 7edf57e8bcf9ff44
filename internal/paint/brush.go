/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package paint renders freehand strokes and eraser dabs onto the scribble
// overlay surface. Brush strokes rasterize through a gg drawing context
// (round caps and joins, one source-over composite per pass); soft edges are
// faked by re-stroking the path several times at interpolated widths and a
// shared per-pass opacity. Erasing clears destination alpha through a
// coverage mask.
package paint

import (
	"image/color"
	"math"
)

// Tool selects the active scribble tool.
type Tool int

const (
	ToolBrush Tool = iota
	ToolEraser
)

// Brush parameter bounds. Width is a unit knob scaled by the view transform;
// softness tops out around 150 where the pass-width spread reaches 2x.
const (
	MinWidthUnits  = 1.0
	MaxSoftness    = 150.0
	widthPerUnit   = 20.0
	eraseSpacing   = 4.0  // dab spacing = diameter / eraseSpacing
	maxTargetAlpha = 0.95 // caps the per-pass opacity derivation
)

// BrushParams are the user-tunable stroke settings. Fields may be marked
// fixed at construction (hidden from the toolbar) but still apply here.
type BrushParams struct {
	Color        color.RGBA
	WidthUnits   float64 // >= MinWidthUnits, wheel-adjustable
	AlphaPercent float64 // 0..100; 0 turns the brush into an opaque eraser
	Softness     float64 // 0..MaxSoftness
	Tool         Tool
	MaskMode     bool // checkerboard fill for binary masks
}

// LineWidth converts the width knob into an image-space stroke width under
// the given view scale: the brush keeps roughly constant screen size.
func (p BrushParams) LineWidth(scale float64) float64 {
	w := p.WidthUnits
	if w < MinWidthUnits {
		w = MinWidthUnits
	}
	if scale <= 0 {
		scale = 1
	}
	return w / scale * widthPerUnit
}

// softPasses returns the pass count for the configured softness.
func (p BrushParams) softPasses() int {
	return int(math.Round(5 + p.Softness/5))
}

// passAlpha derives the per-pass opacity so that compounding `steps`
// source-over passes reaches the target alpha. The 0.95 ceiling prevents a
// degenerate step count at full opacity.
func passAlpha(target float64, steps int) float64 {
	if target > maxTargetAlpha {
		target = maxTargetAlpha
	}
	if target <= 0 {
		return 0
	}
	return 1 - math.Pow(1-target, 1/float64(steps))
}

// passWidths spreads the stroke widths linearly from lineWidth*(1 - s/150)
// to lineWidth*(1 + s/150) across the passes.
func passWidths(lineWidth, softness float64, steps int) []float64 {
	lo := lineWidth * (1 - softness/MaxSoftness)
	hi := lineWidth * (1 + softness/MaxSoftness)
	out := make([]float64, steps)
	if steps == 1 {
		out[0] = lineWidth
		return out
	}
	for i := 0; i < steps; i++ {
		out[i] = lo + (hi-lo)*float64(i)/float64(steps-1)
	}
	return out
}
