/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package binding synchronizes a serialized raster value with an external
// text-bearing field owned by the host. The canvas publishes after each local
// change; the host pushes external edits back through Observe. A last-value
// cache plus a reentrancy guard keep the two directions from echoing into an
// update loop.
package binding

import (
	"sync"
)

// Field is the external text-bearing value the channel mirrors. Hosts adapt
// whatever they have (a DOM textarea, an Entry widget, a plain variable) to
// this pair of methods. Set must not call back into the channel.
type Field interface {
	Value() string
	Set(value string)
}

// Channel mirrors one serialized raster (background image or scribble
// overlay) into a Field, in both directions, without feedback loops.
type Channel struct {
	mu         sync.Mutex
	field      Field
	onChange   func(value string)
	lastValue  string
	publishing bool
}

// NewChannel wraps the external field. onChange receives genuine external
// edits (never the channel's own writes); it may be nil for publish-only use.
func NewChannel(field Field, onChange func(value string)) *Channel {
	c := &Channel{field: field, onChange: onChange}
	if field != nil {
		c.lastValue = field.Value()
	}
	return c
}

// Publish writes a new serialized value to the external field, suppressing
// the channel's own change detection. An empty string is a meaningful value
// ("no image") and is written explicitly; writing the already-published value
// again has no externally visible effect.
func (c *Channel) Publish(value string) {
	c.mu.Lock()
	if c.publishing || value == c.lastValue {
		c.mu.Unlock()
		return
	}
	c.publishing = true
	c.lastValue = value
	field := c.field
	c.mu.Unlock()

	// Without a field the channel still tracks the value it would mirror.
	if field != nil {
		field.Set(value)
	}

	c.mu.Lock()
	c.publishing = false
	c.mu.Unlock()
}

// Observe checks the external field for a change not caused by this
// channel's own last write and, if found, records it and invokes onChange.
// Hosts call it from their change notification (or poll it). It reports
// whether an external change was seen.
func (c *Channel) Observe() bool {
	c.mu.Lock()
	if c.publishing || c.field == nil {
		c.mu.Unlock()
		return false
	}
	v := c.field.Value()
	if v == c.lastValue {
		c.mu.Unlock()
		return false
	}
	c.lastValue = v
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(v)
	}
	return true
}

// Last returns the channel's view of the current synchronized value.
func (c *Channel) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastValue
}
