/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes the composed canvas (image plus scribbles) to files.
package export

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"scribblecanvas/internal/raster"
)

// PNG flattens the overlay onto the background and writes the result as a
// PNG file at outPath.
func PNG(outPath string, background, overlay *image.RGBA) error {
	flat, err := flatten(background, overlay)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, flat); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return f.Sync()
}

func flatten(background, overlay *image.RGBA) (*image.RGBA, error) {
	if background == nil {
		return nil, fmt.Errorf("export: no image loaded")
	}
	if overlay == nil {
		return raster.Clone(background), nil
	}
	return raster.Flatten(background, overlay)
}
