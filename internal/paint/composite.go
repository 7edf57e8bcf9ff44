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
	"image"
	"image/color"
)

// checkerboard is the fixed two-color pattern used for mask-mode strokes.
// Cell size is in image pixels.
const checkerCell = 8

func checkerboard(x, y int) color.RGBA {
	if ((x/checkerCell)+(y/checkerCell))%2 == 0 {
		return color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.RGBA{R: 0, G: 0, B: 0, A: 255}
}

// eraseThroughMask applies destination-out: every channel of dst (which is
// premultiplied RGBA) is scaled by the inverse mask coverage.
func eraseThroughMask(dst *image.RGBA, mask *image.Alpha) {
	for i, j := 0, 0; i < len(dst.Pix); i, j = i+4, j+1 {
		cov := uint32(mask.Pix[j])
		if cov == 0 {
			continue
		}
		inv := 255 - cov
		dst.Pix[i+0] = uint8(uint32(dst.Pix[i+0]) * inv / 255)
		dst.Pix[i+1] = uint8(uint32(dst.Pix[i+1]) * inv / 255)
		dst.Pix[i+2] = uint8(uint32(dst.Pix[i+2]) * inv / 255)
		dst.Pix[i+3] = uint8(uint32(dst.Pix[i+3]) * inv / 255)
	}
}

// paintPatternThroughMask composites an opaque pattern source-over dst using
// the mask as source coverage.
func paintPatternThroughMask(dst *image.RGBA, mask *image.Alpha, pattern func(x, y int) color.RGBA) {
	b := dst.Bounds()
	w := b.Dx()
	for i, j := 0, 0; i < len(dst.Pix); i, j = i+4, j+1 {
		cov := uint32(mask.Pix[j])
		if cov == 0 {
			continue
		}
		x := (j % w) + b.Min.X
		y := (j / w) + b.Min.Y
		c := pattern(x, y)
		inv := 255 - cov
		// premultiplied source-over with an opaque source
		dst.Pix[i+0] = uint8((uint32(c.R)*cov + uint32(dst.Pix[i+0])*inv) / 255)
		dst.Pix[i+1] = uint8((uint32(c.G)*cov + uint32(dst.Pix[i+1])*inv) / 255)
		dst.Pix[i+2] = uint8((uint32(c.B)*cov + uint32(dst.Pix[i+2])*inv) / 255)
		dst.Pix[i+3] = uint8((255*cov + uint32(dst.Pix[i+3])*inv) / 255)
	}
}
