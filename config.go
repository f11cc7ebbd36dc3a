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

package shc

import (
	"crypto/ecdsa"

	"go.uber.org/zap"

	"github.com/smarthealthcard/shc-go/internal/obslog"
	"github.com/smarthealthcard/shc-go/qr"
)

// Config is the facade's per-instance configuration, per spec §4.6. Every
// value is consumed at construction time; Card holds no process-wide
// mutable state.
type Config struct {
	// Issuer is the VC/JWT "iss" URI.
	Issuer string
	// PrivateKey signs cards created by this Card. Required for Create.
	PrivateKey *ecdsa.PrivateKey
	// PublicKey verifies cards. Required for Verify/GetBundle/VerifyFile.
	PublicKey *ecdsa.PublicKey
	// Kid is the protected header's "kid" claim.
	Kid string
	// ExpirationSeconds, if non-zero, sets "exp" to "nbf" + this value.
	ExpirationSeconds int64
	// EnableQrOptimization toggles the field-stripping Bundle rewrite
	// (fhirbundle.Processor.ProcessForQR) versus the plain pass-through
	// (Process).
	EnableQrOptimization bool
	// EnableCompression toggles raw-DEFLATE of the JWT payload. Defaults
	// to true, per spec §4.6.
	EnableCompression *bool
	// QR configures QR content generation for CreateQRContents.
	QR qr.Config
	// Logger is an optional structured logger; the default is a no-op.
	Logger *zap.Logger
}

func (c Config) compressionEnabled() bool {
	if c.EnableCompression == nil {
		return true
	}
	return *c.EnableCompression
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return obslog.Default()
	}
	return c.Logger
}

// BoolPtr is a small helper for setting Config.EnableCompression, which
// must distinguish "unset" (default true) from an explicit false.
func BoolPtr(b bool) *bool { return &b }
