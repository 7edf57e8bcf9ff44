/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package preview

import "sync"

// Queue is a bounded FIFO of preview frames between the polling goroutine
// and the UI. Stale or duplicate frames (by frame id) are dropped on push;
// when full, the oldest frame gives way so the newest is never lost.
type Queue struct {
	mu     sync.Mutex
	frames []ProgressState
	cap    int
	lastID int
}

// NewQueue builds a queue holding at most capacity frames (minimum 1).
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{cap: capacity, lastID: -1}
}

// Push enqueues a state carrying a new preview frame. States without a frame
// or with an already-seen frame id are rejected. Returns whether the state
// was queued.
func (q *Queue) Push(st ProgressState) bool {
	if st.LivePreview == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if st.IDLivePreview <= q.lastID {
		return false
	}
	q.lastID = st.IDLivePreview
	if len(q.frames) == q.cap {
		q.frames = q.frames[1:]
	}
	q.frames = append(q.frames, st)
	return true
}

// Pop dequeues the oldest frame.
func (q *Queue) Pop() (ProgressState, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.frames) == 0 {
		return ProgressState{}, false
	}
	st := q.frames[0]
	q.frames = q.frames[1:]
	return st, true
}

// Len reports the number of queued frames.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}
