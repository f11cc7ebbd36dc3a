// Copyright 2025 Dominik Schlosser
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package qr turns a signed JWS into QR-ready content (spec §4.5): numeric
// transcoding, single/chunked segmenting, and delegation to a raster
// encoder. Raster encode/decode is backed by the teacher CLI's own QR
// dependency, github.com/makiuchi-d/gozxing, adapted from
// ssi-debugger/internal/qr/scan.go.
package qr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/smarthealthcard/shc-go/shcerr"
)

// EncodeOptions configures the raster encoder. Defaults match spec §4.5:
// error correction level "low", scale 4 (pixels per module), margin 1
// (quiet-zone modules).
type EncodeOptions struct {
	ErrorCorrectionLevel string // "L" (default), "M", "Q", "H"
	Scale                int    // pixels per module, default 4
	Margin               int    // quiet-zone modules, default 1
}

func (o EncodeOptions) withDefaults() EncodeOptions {
	if o.ErrorCorrectionLevel == "" {
		o.ErrorCorrectionLevel = "L"
	}
	if o.Scale <= 0 {
		o.Scale = 4
	}
	if o.Margin <= 0 {
		o.Margin = 1
	}
	return o
}

// Rasterizer turns QR content into a raster image representation. The
// default implementation returns a PNG data URL, matching spec §4.5's
// "typically data URLs" guidance.
type Rasterizer interface {
	Rasterize(content string, opts EncodeOptions) (string, error)
}

// gozxingRasterizer is the default Rasterizer, wrapping
// github.com/makiuchi-d/gozxing/qrcode's encoder and the standard library's
// image/png encoder.
type gozxingRasterizer struct{}

// DefaultRasterizer is the library's built-in Rasterizer.
var DefaultRasterizer Rasterizer = gozxingRasterizer{}

var validErrorCorrectionLevels = map[string]bool{"L": true, "M": true, "Q": true, "H": true}

func (gozxingRasterizer) Rasterize(content string, opts EncodeOptions) (string, error) {
	opts = opts.withDefaults()
	if !validErrorCorrectionLevels[opts.ErrorCorrectionLevel] {
		return "", errInvalidErrorCorrectionLevel(opts.ErrorCorrectionLevel)
	}

	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_MARGIN:           0, // quiet zone added ourselves below
		gozxing.EncodeHintType_ERROR_CORRECTION: opts.ErrorCorrectionLevel,
	}

	writer := qrcode.NewQRCodeWriter()
	// Width/height of 1 asks the writer for the smallest possible render:
	// gozxing.EncodeHintType-driven auto mode-segmentation (byte for
	// "shc:/"/"shc:/i/N/", numeric for the digit run) still applies; we
	// then scale the returned one-pixel-per-module matrix ourselves so
	// EncodeOptions.Scale/Margin have exact, predictable pixel semantics.
	matrix, err := writer.Encode(content, gozxing.BarcodeFormat_QR_CODE, 1, 1, hints)
	if err != nil {
		return "", shcerr.QRCode("encoding QR matrix", err)
	}

	img := renderMatrix(matrix, opts.Scale, opts.Margin)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", shcerr.QRCode("encoding QR raster", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func renderMatrix(matrix *gozxing.BitMatrix, scale, margin int) image.Image {
	modules := matrix.GetWidth()
	size := (modules + margin*2) * scale
	img := image.NewGray(image.Rect(0, 0, size, size))

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}

	for y := 0; y < modules; y++ {
		for x := 0; x < modules; x++ {
			if !matrix.Get(x, y) {
				continue
			}
			px0, py0 := (x+margin)*scale, (y+margin)*scale
			for py := py0; py < py0+scale; py++ {
				for px := px0; px < px0+scale; px++ {
					img.SetGray(px, py, color.Gray{Y: 0x00})
				}
			}
		}
	}

	return img
}

func errInvalidErrorCorrectionLevel(level string) error {
	return shcerr.QRCode(fmt.Sprintf("invalid error correction level %q", level), nil)
}
