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

package codec

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// DeflateRaw compresses b as a raw RFC 1951 stream: no zlib header, no
// adler32 trailer, no gzip wrapper. This is what the JWS "zip":"DEF" header
// requires and what distinguishes it from compress/zlib, which always
// prepends a two-byte header.
func DeflateRaw(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("creating deflate writer: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("writing deflate stream: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing deflate stream: %w", err)
	}
	return buf.Bytes(), nil
}

// InflateRaw decompresses a raw RFC 1951 stream produced by DeflateRaw (or
// any other conforming encoder).
func InflateRaw(b []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(b))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("inflating stream: %w", err)
	}
	return out, nil
}
