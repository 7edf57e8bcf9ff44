/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import "testing"

func TestDefaultWidgetSettings(t *testing.T) {
	s := DefaultWidgetSettings()
	if s.Color.Value != "#000000" || s.Width.Value != 4 || s.Alpha.Value != 100 || s.Softness.Value != 30 || s.Height != 512 {
		t.Fatalf("defaults = %#v", s)
	}
	if s.NoUpload || s.NoScribbles || s.MaskMode {
		t.Fatalf("feature flags should default off: %#v", s)
	}
}

func TestParseSettingsJSONMergesOverDefaults(t *testing.T) {
	doc := []byte(`{"mask_mode": true, "width": {"value": 9, "fixed": true}, "alpha": {"value": 0}}`)
	s, err := ParseSettingsJSON(doc)
	if err != nil {
		t.Fatalf("ParseSettingsJSON: %v", err)
	}
	if !s.MaskMode {
		t.Fatal("mask_mode not applied")
	}
	if s.Width.Value != 9 || !s.Width.Fixed {
		t.Fatalf("width = %#v", s.Width)
	}
	// A present zero must win over the default.
	if s.Alpha.Value != 0 {
		t.Fatalf("alpha = %#v, want explicit 0", s.Alpha)
	}
	// Absent fields keep their defaults.
	if s.Color.Value != "#000000" || s.Softness.Value != 30 || s.Height != 512 {
		t.Fatalf("defaults lost: %#v", s)
	}
}

func TestParseSettingsJSONKeepsDefaultInsideNestedObject(t *testing.T) {
	s, err := ParseSettingsJSON([]byte(`{"alpha": {"fixed": true}}`))
	if err != nil {
		t.Fatal(err)
	}
	if s.Alpha.Value != 100 || !s.Alpha.Fixed {
		t.Fatalf("alpha = %#v", s.Alpha)
	}
}

func TestValidateSettingsJSONRejections(t *testing.T) {
	bad := [][]byte{
		[]byte(`{"height": 16}`),
		[]byte(`{"height": "tall"}`),
		[]byte(`{"color": {"value": "red"}}`),
		[]byte(`{"width": {"value": 0}}`),
		[]byte(`{"alpha": {"value": 150}}`),
		[]byte(`{"softness": {"value": 9000}}`),
		[]byte(`{"unknown_key": 1}`),
	}
	for _, doc := range bad {
		if err := ValidateSettingsJSON(doc); err == nil {
			t.Errorf("accepted %s", doc)
		}
	}
	if err := ValidateSettingsJSON([]byte(`{"no_upload": true, "height": 640}`)); err != nil {
		t.Fatalf("rejected valid document: %v", err)
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b, err := ParseHexColor("#1a2B3c")
	if err != nil {
		t.Fatal(err)
	}
	if r != 0x1a || g != 0x2b || b != 0x3c {
		t.Fatalf("got (%d,%d,%d)", r, g, b)
	}
	for _, bad := range []string{"", "#fff", "123456", "#zzzzzz"} {
		if _, _, _, err := ParseHexColor(bad); err == nil {
			t.Errorf("accepted %q", bad)
		}
	}
}
