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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smarthealthcard/shc-go/qr"
)

var (
	qrJWS        string
	qrMaxSize    int
	qrChunk      bool
	qrRasterize  bool
	qrOutPattern string
)

var qrCmd = &cobra.Command{
	Use:   "qr",
	Short: "Encode a signed JWS into one or more shc:/ QR contents",
	Long:  "Numeric-transcodes a compact JWS into a \"shc:/\" QR content string, optionally chunking into \"shc:/{i}/{N}/...\" segments and rendering each as a PNG data URL.",
	RunE:  runQR,
}

func init() {
	rootCmd.AddCommand(qrCmd)

	qrCmd.Flags().StringVar(&qrJWS, "jws", "-", "Compact JWS: file path, \"-\" for stdin, or raw string")
	qrCmd.Flags().IntVar(&qrMaxSize, "max-size", 0, "Max JWS length, in characters, for a single QR; 0 uses the library default (1195)")
	qrCmd.Flags().BoolVar(&qrChunk, "chunk", false, "Split into multiple QR contents if the single-QR encoding is too large, instead of failing")
	qrCmd.Flags().BoolVar(&qrRasterize, "raster", false, "Also render each QR content string as a PNG data URL")
	qrCmd.Flags().StringVar(&qrOutPattern, "out", "", "Write each raster to <out>-<i>.png.b64 instead of stdout (requires --raster)")
}

func runQR(cmd *cobra.Command, args []string) error {
	token, err := readInput(qrJWS)
	if err != nil {
		return err
	}

	cfg := qr.Config{MaxSingleQrSize: qrMaxSize, EnableChunking: qrChunk}
	contents, err := qr.GenerateQR(token, cfg)
	if err != nil {
		return err
	}

	printSection(fmt.Sprintf("QR content (%d segment(s))", len(contents)))
	for i, c := range contents {
		printField(fmt.Sprintf("[%d]", i+1), c)
	}

	if !qrRasterize {
		return nil
	}

	for i, c := range contents {
		raster, err := qr.DefaultRasterizer.Rasterize(c, qr.EncodeOptions{})
		if err != nil {
			return err
		}
		if qrOutPattern == "" {
			fmt.Println(raster)
			continue
		}
		path := fmt.Sprintf("%s-%d.png.b64", qrOutPattern, i+1)
		if err := os.WriteFile(path, []byte(raster), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		printSuccess("wrote " + path)
	}
	return nil
}
