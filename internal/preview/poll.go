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

import (
	"context"
	"log/slog"
	"time"

	applog "scribblecanvas/internal/log"
)

// Poller repeatedly asks the backend for task progress until the task
// completes or the context ends. The last seen frame id is threaded through
// the requests so the server only ships fresh frames.
type Poller struct {
	Client   *Client
	Interval time.Duration
	Log      *slog.Logger
}

// NewPoller wraps a client with the given poll interval.
func NewPoller(c *Client, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Poller{Client: c, Interval: interval, Log: applog.WithComponent("preview")}
}

// Run polls the task and invokes onUpdate for every response, in order, on
// the polling goroutine. It returns nil once the task reports completed, or
// the context error if canceled first. Transient request errors are logged
// and retried on the next tick.
func (p *Poller) Run(ctx context.Context, idTask string, onUpdate func(ProgressState)) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	lastFrame := -1
	for {
		st, err := p.Client.Progress(ctx, ProgressRequest{
			IDTask:        idTask,
			IDLivePreview: lastFrame,
			LivePreview:   true,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("progress request failed", slog.String("task", idTask), slog.Any("err", err))
		} else {
			if st.IDLivePreview > lastFrame {
				lastFrame = st.IDLivePreview
			}
			if onUpdate != nil {
				onUpdate(*st)
			}
			if st.Completed {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
