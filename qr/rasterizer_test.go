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
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRasterize_ReturnsPNGDataURL(t *testing.T) {
	raster, err := DefaultRasterizer.Rasterize("shc:/0304", EncodeOptions{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raster, "data:image/png;base64,"))

	encoded := strings.TrimPrefix(raster, "data:image/png;base64,")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	_, err = png.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)
}

func TestRasterize_InvalidErrorCorrectionLevelFails(t *testing.T) {
	_, err := DefaultRasterizer.Rasterize("shc:/0304", EncodeOptions{ErrorCorrectionLevel: "Z"})
	require.Error(t, err)
}

func TestRasterize_RoundTripsThroughDecodeImage(t *testing.T) {
	content := "shc:/567629095243206938704603530636230647200753355636220467310344252225302228354730560405073221392943420041260361253024423266564320360103"

	raster, err := DefaultRasterizer.Rasterize(content, EncodeOptions{Scale: 4, Margin: 1})
	require.NoError(t, err)

	encoded := strings.TrimPrefix(raster, "data:image/png;base64,")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(decoded))
	require.NoError(t, err)

	scanned, err := DecodeImage(img)
	require.NoError(t, err)
	assert.Equal(t, content, scanned)
}
