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

package qr

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/smarthealthcard/shc-go/shcerr"
)

// Scanner decodes a raster QR image back into its encoded string content.
// Adapted from ssi-debugger/internal/qr/scan.go, which used the same
// gozxing reader to pull JWTs out of scanned credential QR codes.
type Scanner interface {
	Scan(img image.Image) (string, error)
}

type gozxingScanner struct{}

// DefaultScanner is the library's built-in Scanner.
var DefaultScanner Scanner = gozxingScanner{}

func (gozxingScanner) Scan(img image.Image) (string, error) {
	bitmap, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", shcerr.QRCode("binarizing image", err)
	}

	result, err := qrcode.NewQRCodeReader().Decode(bitmap, nil)
	if err != nil {
		return "", shcerr.QRCode("decoding QR image", err)
	}
	return result.GetText(), nil
}

// DecodeImage scans a decoded raster image for QR content using
// DefaultScanner. [ADDED]: the wire format only specifies the numeric
// content strings, not how they are captured off a camera or file; this
// mirrors the teacher CLI's own image-to-content step.
func DecodeImage(img image.Image) (string, error) {
	return DefaultScanner.Scan(img)
}

// ScanFile opens an image file (PNG/JPEG/GIF, whatever image.Decode's
// registered decoders support) and returns its QR content. [ADDED].
func ScanFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", shcerr.QRCode("opening QR image file", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", shcerr.QRCode("decoding image file", err)
	}
	return DecodeImage(img)
}
