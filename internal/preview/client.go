/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package preview talks to a generation backend's progress API and feeds
// live-preview frames (PNG data URIs) into the canvas while a task runs.
package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal HTTP client for the progress API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new progress client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// ProgressRequest asks for the state of one task. IDLivePreview is the last
// frame id the caller has seen; the server only ships a newer frame.
type ProgressRequest struct {
	IDTask        string `json:"id_task"`
	IDLivePreview int    `json:"id_live_preview"`
	LivePreview   bool   `json:"live_preview"`
}

// ProgressState is the server's snapshot of a task.
type ProgressState struct {
	Active        bool     `json:"active"`
	Queued        bool     `json:"queued"`
	Completed     bool     `json:"completed"`
	Progress      *float64 `json:"progress"`
	ETA           *float64 `json:"eta"`
	LivePreview   string   `json:"live_preview"`
	IDLivePreview int      `json:"id_live_preview"`
	TextInfo      string   `json:"textinfo"`
}

// Fraction returns the task progress in 0..1; unknown progress reads as 0.
func (s ProgressState) Fraction() float64 {
	if s.Progress == nil {
		return 0
	}
	return *s.Progress
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// Progress fetches the current state of a task.
func (c *Client) Progress(ctx context.Context, req ProgressRequest) (*ProgressState, error) {
	var st ProgressState
	if err := c.doJSON(ctx, http.MethodPost, "/internal/progress", req, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
