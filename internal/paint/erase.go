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
	"math"

	"github.com/gogpu/gg"

	"scribblecanvas/internal/geom"
	"scribblecanvas/internal/raster"
)

// EraseSession stamps circular alpha-clearing dabs along a pointer drag.
// The last dab center is kept so fast pointer movement gets interpolated
// dabs instead of gaps; spacing never exceeds a quarter of the dab diameter.
// State lives per gesture: create on pointer-down, drop on pointer-up/leave.
type EraseSession struct {
	last    geom.Pt
	started bool
}

// Stamp erases at pt with the given dab diameter and returns the number of
// dabs stamped (interpolated dabs included). The first call of a gesture
// stamps exactly one dab at pt.
func (e *EraseSession) Stamp(dst *image.RGBA, pt geom.Pt, diameter float64) (int, error) {
	if diameter <= 0 {
		return 0, nil
	}
	spacing := diameter / eraseSpacing
	if !e.started {
		e.started = true
		e.last = pt
		return 1, stampDabs(dst, []geom.Pt{pt}, diameter)
	}
	dx := pt.X - e.last.X
	dy := pt.Y - e.last.Y
	dist := math.Hypot(dx, dy)
	if dist < spacing {
		return 0, nil
	}
	n := int(math.Ceil(dist / spacing))
	centers := make([]geom.Pt, 0, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		centers = append(centers, geom.P(e.last.X+dx*t, e.last.Y+dy*t))
	}
	e.last = pt
	return n, stampDabs(dst, centers, diameter)
}

// stampDabs clears the union of the dab circles in one pass so overlapping
// dabs within a single call do not compound.
func stampDabs(dst *image.RGBA, centers []geom.Pt, diameter float64) error {
	b := dst.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	defer dc.Close()
	dc.Clear()
	dc.SetRGBA(1, 1, 1, 1)
	for _, c := range centers {
		dc.DrawCircle(c.X, c.Y, diameter/2)
	}
	if err := dc.Fill(); err != nil {
		return err
	}
	src := raster.ToRGBA(dc.Image())
	mask := image.NewAlpha(b)
	for i, j := 3, 0; i < len(src.Pix); i, j = i+4, j+1 {
		mask.Pix[j] = src.Pix[i]
	}
	eraseThroughMask(dst, mask)
	return nil
}
