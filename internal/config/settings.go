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

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// BrushField is a construction-time brush parameter: a value plus a flag that
// removes the corresponding user control while keeping the value in force.
type BrushField struct {
	Value string `yaml:"value" json:"value"`
	Fixed bool   `yaml:"fixed" json:"fixed"`
}

// NumField is the numeric counterpart of BrushField.
type NumField struct {
	Value float64 `yaml:"value" json:"value"`
	Fixed bool    `yaml:"fixed" json:"fixed"`
}

// WidgetSettings are the per-instance construction parameters of a canvas
// widget. Hosts embed them in the app config or hand them over as JSON.
type WidgetSettings struct {
	NoUpload    bool `yaml:"no_upload" json:"no_upload"`
	NoScribbles bool `yaml:"no_scribbles" json:"no_scribbles"`
	MaskMode    bool `yaml:"mask_mode" json:"mask_mode"`
	Height      int  `yaml:"height" json:"height"`

	Color    BrushField `yaml:"color" json:"color"`
	Width    NumField   `yaml:"width" json:"width"`
	Alpha    NumField   `yaml:"alpha" json:"alpha"`
	Softness NumField   `yaml:"softness" json:"softness"`
}

// DefaultWidgetSettings returns the stock widget parameters.
func DefaultWidgetSettings() WidgetSettings {
	return WidgetSettings{
		Height:   512,
		Color:    BrushField{Value: "#000000"},
		Width:    NumField{Value: 4},
		Alpha:    NumField{Value: 100},
		Softness: NumField{Value: 30},
	}
}

func mergeWidget(dst, src *WidgetSettings) {
	dst.NoUpload = src.NoUpload
	dst.NoScribbles = src.NoScribbles
	dst.MaskMode = src.MaskMode
	if src.Height > 0 {
		dst.Height = src.Height
	}
	if src.Color.Value != "" {
		dst.Color.Value = src.Color.Value
	}
	dst.Color.Fixed = src.Color.Fixed
	if src.Width.Value > 0 {
		dst.Width.Value = src.Width.Value
	}
	dst.Width.Fixed = src.Width.Fixed
	if src.Alpha.Value > 0 {
		dst.Alpha.Value = src.Alpha.Value
	}
	dst.Alpha.Fixed = src.Alpha.Fixed
	if src.Softness.Value > 0 {
		dst.Softness.Value = src.Softness.Value
	}
	dst.Softness.Fixed = src.Softness.Fixed
}

// ParseHexColor decodes a #RRGGBB color string into its channels.
func ParseHexColor(s string) (r, g, b uint8, err error) {
	s = strings.TrimSpace(s)
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, fmt.Errorf("config: bad color %q", s)
	}
	var rr, gg, bb int
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &rr, &gg, &bb); err != nil {
		return 0, 0, 0, fmt.Errorf("config: bad color %q: %w", s, err)
	}
	return uint8(rr), uint8(gg), uint8(bb), nil
}

const widgetSettingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "no_upload": {"type": "boolean"},
    "no_scribbles": {"type": "boolean"},
    "mask_mode": {"type": "boolean"},
    "height": {"type": "integer", "minimum": 64, "maximum": 4096},
    "color": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "value": {"type": "string", "pattern": "^#[0-9a-fA-F]{6}$"},
        "fixed": {"type": "boolean"}
      }
    },
    "width": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "value": {"type": "number", "minimum": 1},
        "fixed": {"type": "boolean"}
      }
    },
    "alpha": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "value": {"type": "number", "minimum": 0, "maximum": 100},
        "fixed": {"type": "boolean"}
      }
    },
    "softness": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "value": {"type": "number", "minimum": 0, "maximum": 150},
        "fixed": {"type": "boolean"}
      }
    }
  }
}`

// ValidateSettingsJSON checks a host-supplied JSON document against the
// widget settings schema and returns the joined violation messages on
// failure.
func ValidateSettingsJSON(doc []byte) error {
	res, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(widgetSettingsSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("config: settings validation: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("config: invalid widget settings: %s", strings.Join(msgs, "; "))
}

// ParseSettingsJSON validates and decodes host-supplied widget settings,
// merged over the defaults.
func ParseSettingsJSON(doc []byte) (WidgetSettings, error) {
	if err := ValidateSettingsJSON(doc); err != nil {
		return WidgetSettings{}, err
	}
	// Unmarshalling over a defaults copy keeps absent fields at their
	// defaults while present zero values (alpha 0) take effect.
	s := DefaultWidgetSettings()
	if err := json.Unmarshal(doc, &s); err != nil {
		return WidgetSettings{}, fmt.Errorf("config: settings decode: %w", err)
	}
	return s, nil
}
