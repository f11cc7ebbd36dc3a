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

// Package jws builds and verifies the ES256 compact JWS that carries a
// SMART Health Card's signed, optionally DEFLATE-compressed payload.
package jws

import (
	"encoding/json"
	"math"

	"github.com/smarthealthcard/shc-go/shcerr"
)

// Header is the protected JWS header. Zip is "DEF" when the payload bytes
// are raw-DEFLATE compressed, and omitted otherwise; it is the sole
// authority for whether Verify/Decode must decompress.
type Header struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ"`
	Zip string `json:"zip,omitempty"`
}

// Payload is the signed JWT payload. VC is kept as raw JSON rather than a
// concrete type: this package only needs to know it is present and
// object-shaped, leaving semantic VC validation to package vc.
type Payload struct {
	Iss string          `json:"iss"`
	Nbf float64         `json:"nbf"`
	Exp *float64        `json:"exp,omitempty"`
	VC  json.RawMessage `json:"vc"`
}

// validate enforces the payload invariants from spec §3/§4.4: iss
// non-empty, nbf finite, exp (if present) strictly greater than nbf, vc a
// non-null JSON object.
func (p Payload) validate() error {
	if p.Iss == "" {
		return shcerr.JWS("payload.iss must be a non-empty string", nil)
	}
	if math.IsNaN(p.Nbf) || math.IsInf(p.Nbf, 0) {
		return shcerr.JWS("payload.nbf must be a finite number", nil)
	}
	if p.Exp != nil {
		if math.IsNaN(*p.Exp) || math.IsInf(*p.Exp, 0) {
			return shcerr.JWS("payload.exp must be a finite number", nil)
		}
		if *p.Exp <= p.Nbf {
			return shcerr.JWS("payload.exp must be greater than payload.nbf", nil)
		}
	}
	if len(p.VC) == 0 || string(p.VC) == "null" {
		return shcerr.JWS("payload.vc is required", nil)
	}
	var probe map[string]any
	if err := json.Unmarshal(p.VC, &probe); err != nil {
		return shcerr.JWS("payload.vc must be a JSON object", err)
	}
	return nil
}
