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
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/smarthealthcard/shc-go/codec"
	"github.com/smarthealthcard/shc-go/shcerr"
)

// defaultMaxSingleQrSize is the largest compact-JWS length, in characters,
// spec §4.5 allows before chunking kicks in (or generation fails, if
// chunking is disabled).
const defaultMaxSingleQrSize = 1195

// Config controls QR content generation.
type Config struct {
	MaxSingleQrSize int  // default 1195 JWS characters
	EnableChunking  bool // default false; see GenerateQR
	EncodeOptions   EncodeOptions
	Rasterizer      Rasterizer
}

func (c Config) withDefaults() Config {
	if c.MaxSingleQrSize <= 0 {
		c.MaxSingleQrSize = defaultMaxSingleQrSize
	}
	if c.Rasterizer == nil {
		c.Rasterizer = DefaultRasterizer
	}
	return c
}

// Generator produces QR content strings and, optionally, raster renders of
// a compact JWS, per spec §4.5.
type Generator struct {
	cfg Config
}

// NewGenerator constructs a Generator. A zero Config uses library defaults.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg.withDefaults()}
}

// Contents returns the ordered "shc:/..." QR content strings for jws,
// chunking into "shc:/{i}/{N}/..." segments when len(jws) exceeds the
// configured MaxSingleQrSize and EnableChunking is set (see GenerateQR).
func (g *Generator) Contents(jws string) ([]string, error) {
	return GenerateQR(jws, g.cfg)
}

// Rasters renders each Contents() string via the configured Rasterizer.
func (g *Generator) Rasters(jws string) ([]string, error) {
	contents, err := g.Contents(jws)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(contents))
	for i, c := range contents {
		raster, err := g.cfg.Rasterizer.Rasterize(c, g.cfg.EncodeOptions)
		if err != nil {
			return nil, err
		}
		out[i] = raster
	}
	return out, nil
}

// GenerateQR numeric-transcodes jws and splits it into one or more QR
// content strings. A zero Config uses library defaults. Chunking is
// opt-in via Config.EnableChunking; when it is false (the default) and
// len(jws) exceeds MaxSingleQrSize, GenerateQR fails with a QR_CODE_ERROR
// instead of silently chunking.
func GenerateQR(jws string, cfg Config) ([]string, error) {
	cfg = cfg.withDefaults()

	if len(jws) > cfg.MaxSingleQrSize && !cfg.EnableChunking {
		return nil, shcerr.QRCode(fmt.Sprintf("JWS length %d exceeds maxSingleQrSize %d and chunking is disabled", len(jws), cfg.MaxSingleQrSize), nil)
	}

	numeric, err := codec.EncodeNumeric(jws)
	if err != nil {
		return nil, err
	}

	if len(jws) <= cfg.MaxSingleQrSize {
		return []string{"shc:/" + numeric}, nil
	}

	return chunkNumeric(numeric, cfg.MaxSingleQrSize)
}

// chunkPrefixReserve is the fixed budget reserved for the "shc:/{i}/{N}/"
// prefix when sizing chunks, per spec §4.5's N = ⌈numericLen /
// (maxSingleQrSize − 20)⌉ formula.
const chunkPrefixReserve = 20

// chunkNumeric splits a numeric digit string into N = ⌈numericLen /
// (maxSingleQrSize − 20)⌉ contiguous, order-preserving
// "shc:/{i}/{N}/" segments, per spec §4.5's chunked multi-QR format.
func chunkNumeric(numeric string, maxSingleQrSize int) ([]string, error) {
	chunkSize := maxSingleQrSize - chunkPrefixReserve
	if chunkSize <= 0 {
		return nil, shcerr.QRCode("maxSingleQrSize too small to accommodate chunk prefix overhead", nil)
	}

	n := (len(numeric) + chunkSize - 1) / chunkSize
	chunks := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		start := (i - 1) * chunkSize
		end := start + chunkSize
		if end > len(numeric) {
			end = len(numeric)
		}
		chunks = append(chunks, fmt.Sprintf("shc:/%d/%d/%s", i, n, numeric[start:end]))
	}
	return chunks, nil
}

// ScanQR reassembles one or more "shc:/..." QR content strings (in any
// order) back into the original compact JWS, per spec §4.5.
func ScanQR(contents []string) (string, error) {
	if len(contents) == 0 {
		return "", shcerr.QRCode("no QR content provided", nil)
	}

	if len(contents) == 1 && !strings.HasPrefix(contents[0], "shc:/") {
		return "", shcerr.QRCode("QR content missing shc:/ prefix", nil)
	}
	if len(contents) == 1 {
		rest := strings.TrimPrefix(contents[0], "shc:/")
		if !isChunkPrefixed(rest) {
			return decodeJWSFromNumeric(rest)
		}
	}

	type chunk struct {
		index, total int
		digits       string
	}
	chunks := make([]chunk, 0, len(contents))
	var total int
	for _, c := range contents {
		i, n, digits, err := parseChunk(c)
		if err != nil {
			return "", err
		}
		if total == 0 {
			total = n
		} else if n != total {
			return "", shcerr.QRCode("inconsistent chunk total across QR contents", nil)
		}
		chunks = append(chunks, chunk{index: i, total: n, digits: digits})
	}

	if len(chunks) != total {
		return "", shcerr.QRCode(fmt.Sprintf("expected %d chunks, got %d", total, len(chunks)), nil)
	}

	sort.Slice(chunks, func(a, b int) bool { return chunks[a].index < chunks[b].index })

	var sb strings.Builder
	for idx, c := range chunks {
		want := idx + 1
		if c.index != want {
			return "", shcerr.QRCode(fmt.Sprintf("missing or duplicate chunk index %d", want), nil)
		}
		sb.WriteString(c.digits)
	}

	return decodeJWSFromNumeric(sb.String())
}

func isChunkPrefixed(rest string) bool {
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 {
		return false
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return false
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return false
	}
	return true
}

func parseChunk(content string) (index, total int, digits string, err error) {
	if !strings.HasPrefix(content, "shc:/") {
		return 0, 0, "", shcerr.QRCode("QR content missing shc:/ prefix", nil)
	}
	rest := strings.TrimPrefix(content, "shc:/")
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 {
		return 0, 0, "", shcerr.QRCode("chunked QR content missing i/N segment", nil)
	}

	index, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, "", shcerr.QRCode("invalid chunk index", err)
	}
	total, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, "", shcerr.QRCode("invalid chunk total", err)
	}
	if index < 1 || index > total {
		return 0, 0, "", shcerr.QRCode(fmt.Sprintf("chunk index %d out of range [1,%d]", index, total), nil)
	}
	return index, total, parts[2], nil
}

func decodeJWSFromNumeric(digits string) (string, error) {
	return codec.DecodeNumeric(digits)
}
