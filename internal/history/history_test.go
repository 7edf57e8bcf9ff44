/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"image"
	"image/color"
	"testing"

	"scribblecanvas/internal/raster"
)

func surfaceWithMark(mark uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(0, 0, color.RGBA{R: mark, A: 255})
	return img
}

func mark(img *image.RGBA) uint8 { return img.RGBAAt(0, 0).R }

func TestUndoRedoRestoresPixels(t *testing.T) {
	s := NewStore(Config{})
	surface := surfaceWithMark(1)
	s.Snapshot(surface)
	surface.SetRGBA(0, 0, color.RGBA{R: 2, A: 255})
	s.Snapshot(surface)
	surface.SetRGBA(0, 0, color.RGBA{R: 3, A: 255})
	s.Snapshot(surface)

	if !s.Undo(surface) || mark(surface) != 2 {
		t.Fatalf("first undo: mark=%d", mark(surface))
	}
	if !s.Undo(surface) || mark(surface) != 1 {
		t.Fatalf("second undo: mark=%d", mark(surface))
	}
	if s.Undo(surface) {
		t.Fatalf("undo at start of history must be a no-op")
	}
	if !s.Redo(surface) || mark(surface) != 2 {
		t.Fatalf("first redo: mark=%d", mark(surface))
	}
	if !s.Redo(surface) || mark(surface) != 3 {
		t.Fatalf("second redo: mark=%d", mark(surface))
	}
	if s.Redo(surface) {
		t.Fatalf("redo at end of history must be a no-op")
	}
}

func TestSnapshotTruncatesRedoBranch(t *testing.T) {
	// Scenario: snapshots S1,S2,S3; undo to S2; a new stroke snapshots S4;
	// S3 is discarded and redo becomes a no-op.
	s := NewStore(Config{})
	surface := surfaceWithMark(1)
	s.Snapshot(surface)
	surface.SetRGBA(0, 0, color.RGBA{R: 2, A: 255})
	s.Snapshot(surface)
	surface.SetRGBA(0, 0, color.RGBA{R: 3, A: 255})
	s.Snapshot(surface)

	if !s.Undo(surface) || mark(surface) != 2 {
		t.Fatalf("undo: mark=%d", mark(surface))
	}
	surface.SetRGBA(0, 0, color.RGBA{R: 4, A: 255})
	s.Snapshot(surface)

	if _, length, index := s.Stats(); length != 3 || index != 2 {
		t.Fatalf("after branch truncation: length=%d index=%d", length, index)
	}
	if s.Redo(surface) {
		t.Fatalf("redo after truncation must be a no-op")
	}
	if !s.Undo(surface) || mark(surface) != 2 {
		t.Fatalf("undo after truncation: mark=%d", mark(surface))
	}
}

func TestSnapshotCopiesSurface(t *testing.T) {
	s := NewStore(Config{})
	surface := surfaceWithMark(7)
	s.Snapshot(surface)
	surface.SetRGBA(0, 0, color.RGBA{R: 9, A: 255})
	cur := s.Current()
	if mark(cur) != 7 {
		t.Fatalf("snapshot aliased live surface: mark=%d", mark(cur))
	}
}

func TestUndoRedoRoundTripIdentity(t *testing.T) {
	s := NewStore(Config{})
	surface := surfaceWithMark(0)
	for i := uint8(1); i <= 5; i++ {
		surface.SetRGBA(0, 0, color.RGBA{R: i, A: 255})
		s.Snapshot(surface)
	}
	want := raster.Clone(surface)
	for k := 0; k < 4; k++ {
		s.Undo(surface)
	}
	for k := 0; k < 4; k++ {
		s.Redo(surface)
	}
	if !raster.Equal(surface, want) {
		t.Fatalf("undo xk then redo xk must restore the original buffer")
	}
}

func TestDepthCapPrunesOldest(t *testing.T) {
	s := NewStore(Config{MaxDepth: 3})
	surface := surfaceWithMark(0)
	for i := uint8(1); i <= 6; i++ {
		surface.SetRGBA(0, 0, color.RGBA{R: i, A: 255})
		s.Snapshot(surface)
	}
	_, length, index := s.Stats()
	if length != 3 || index != 2 {
		t.Fatalf("cap not enforced: length=%d index=%d", length, index)
	}
	// Oldest reachable entry is now 4.
	s.Undo(surface)
	s.Undo(surface)
	if mark(surface) != 4 {
		t.Fatalf("expected oldest entry 4, got %d", mark(surface))
	}
	if s.Undo(surface) {
		t.Fatalf("history should be exhausted")
	}
}

func TestByteCapPrunesOldest(t *testing.T) {
	// Each 4x4 RGBA snapshot is 64 bytes; cap at two entries' worth.
	s := NewStore(Config{MaxBytes: 128})
	surface := surfaceWithMark(0)
	for i := uint8(1); i <= 5; i++ {
		surface.SetRGBA(0, 0, color.RGBA{R: i, A: 255})
		s.Snapshot(surface)
	}
	total, length, _ := s.Stats()
	if total > 128 || length > 2 {
		t.Fatalf("byte cap not enforced: total=%d length=%d", total, length)
	}
}

func TestReset(t *testing.T) {
	s := NewStore(Config{})
	surface := surfaceWithMark(1)
	s.Snapshot(surface)
	s.Reset()
	if s.CanUndo() || s.CanRedo() || s.Current() != nil {
		t.Fatalf("reset store should be empty")
	}
}
