/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history provides the linear undo/redo store over raster snapshots
// of the scribble overlay. Unlike a pair of push/pop stacks, the store keeps
// an ordered sequence plus a current index so that undone entries remain
// redoable until a new edit truncates the branch.
package history

import (
	"image"
	"sync"

	"scribblecanvas/internal/raster"
)

// Config controls memory and depth caps.
type Config struct {
	// MaxBytes is a soft cap; the oldest entries are pruned when exceeded.
	// 0 means a conservative default.
	MaxBytes int
	// MaxDepth limits the number of snapshots kept (0 means unlimited).
	MaxDepth int
}

// Store is an in-memory linear history of overlay snapshots.
// Invariant: 0 <= index < len(entries) whenever len(entries) > 0.
// It is safe for concurrent use.
type Store struct {
	cfg Config
	mu  sync.Mutex

	entries    []*image.RGBA
	index      int
	totalBytes int
}

// NewStore creates a history store. Set conservative defaults if not provided.
func NewStore(cfg Config) *Store {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 64 * 1024 * 1024 // 64 MiB
	}
	return &Store{cfg: cfg, index: -1}
}

// Snapshot records the current state of the surface. Entries past the current
// index (the redo branch) are discarded, then the copy is appended and the
// index advanced.
func (s *Store) Snapshot(surface *image.RGBA) {
	snap := raster.Clone(surface)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := s.index + 1; i < len(s.entries); i++ {
		s.totalBytes -= len(s.entries[i].Pix)
	}
	s.entries = append(s.entries[:s.index+1], snap)
	s.index = len(s.entries) - 1
	s.totalBytes += len(snap.Pix)
	s.enforceCapsLocked()
}

// Undo steps back one entry and restores it onto surface. At the start of
// history it is a no-op and returns false. The surface must match the
// snapshot dimensions (overlay snapshots always do within one image session).
func (s *Store) Undo(surface *image.RGBA) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index <= 0 {
		return false
	}
	s.index--
	return raster.CopyInto(surface, s.entries[s.index]) == nil
}

// Redo steps forward one entry and restores it onto surface. At the end of
// history it is a no-op and returns false.
func (s *Store) Redo(surface *image.RGBA) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.entries)-1 {
		return false
	}
	s.index++
	return raster.CopyInto(surface, s.entries[s.index]) == nil
}

// Current returns a copy of the entry at the current index, or nil when the
// store is empty.
func (s *Store) Current() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 || s.index >= len(s.entries) {
		return nil
	}
	return raster.Clone(s.entries[s.index])
}

// Reset drops all entries, e.g. when a new background image replaces the
// session.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.index = -1
	s.totalBytes = 0
}

// Stats returns current sizes for diagnostics.
func (s *Store) Stats() (totalBytes, length, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBytes, len(s.entries), s.index
}

// CanUndo reports whether Undo would restore an entry.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index > 0
}

// CanRedo reports whether Redo would restore an entry.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index < len(s.entries)-1
}

func (s *Store) enforceCapsLocked() {
	drop := 0
	if s.cfg.MaxDepth > 0 && len(s.entries) > s.cfg.MaxDepth {
		drop = len(s.entries) - s.cfg.MaxDepth
	}
	bytes := s.totalBytes
	for i := drop; i < len(s.entries)-1 && s.cfg.MaxBytes > 0 && bytes > s.cfg.MaxBytes; i++ {
		bytes -= len(s.entries[i].Pix)
		drop = i + 1
	}
	// Never prune the current entry.
	if drop > s.index {
		drop = s.index
	}
	if drop <= 0 {
		return
	}
	for i := 0; i < drop; i++ {
		s.totalBytes -= len(s.entries[i].Pix)
	}
	s.entries = append([]*image.RGBA{}, s.entries[drop:]...)
	s.index -= drop
}
