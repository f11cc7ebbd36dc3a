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

package jws

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/smarthealthcard/shc-go/codec"
	"github.com/smarthealthcard/shc-go/shcerr"
)

// Processor signs and verifies compact JWS tokens per spec §4.4, keeping
// the signature-before-decompression ordering required by §5.
type Processor struct {
	signer   Signer
	verifier Verifier
	log      *zap.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithSigner overrides the default ES256 signer, e.g. to delegate to an
// HSM or KMS.
func WithSigner(s Signer) Option { return func(p *Processor) { p.signer = s } }

// WithVerifier overrides the default ES256 verifier.
func WithVerifier(v Verifier) Option { return func(p *Processor) { p.verifier = v } }

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option { return func(p *Processor) { p.log = l } }

// NewProcessor constructs a Processor backed by DefaultES256 unless
// overridden.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{signer: DefaultES256, verifier: DefaultES256, log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sign builds the protected header, serializes payload, optionally
// raw-DEFLATEs it, and signs header.payload with privateKey, returning the
// compact JWS. Compression happens strictly before base64url-encoding and
// signing, per spec §5/§9.
func (p *Processor) Sign(payload Payload, privateKey *ecdsa.PrivateKey, kid string, enableCompression bool) (string, error) {
	if err := payload.validate(); err != nil {
		return "", err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", shcerr.JWS("marshaling payload", err)
	}

	header := Header{Alg: "ES256", Kid: kid, Typ: "JWT"}
	payloadBytes := payloadJSON
	if enableCompression {
		compressed, err := codec.DeflateRaw(payloadJSON)
		if err != nil {
			return "", shcerr.JWS("compressing payload", err)
		}
		payloadBytes = compressed
		header.Zip = "DEF"
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", shcerr.JWS("marshaling header", err)
	}

	signingInput := codec.EncodeBase64URL(headerJSON) + "." + codec.EncodeBase64URL(payloadBytes)

	sig, err := p.signer.Sign(signingInput, privateKey)
	if err != nil {
		return "", shcerr.JWS("signing", err)
	}

	p.log.Debug("signed JWS", zap.String("kid", kid), zap.Bool("compressed", enableCompression))
	return signingInput + "." + codec.EncodeBase64URL(sig), nil
}

// Verify checks the signature over header.payload BEFORE decompressing or
// parsing the payload, per spec §5's ordering guarantee, then returns the
// validated Payload.
func (p *Processor) Verify(token string, publicKey *ecdsa.PublicKey) (Payload, error) {
	header, signingInput, payloadBytes, sig, err := splitToken(token)
	if err != nil {
		return Payload{}, err
	}
	if header.Alg != "ES256" {
		return Payload{}, shcerr.JWS(fmt.Sprintf("unsupported alg %q, expected ES256", header.Alg), nil)
	}

	if err := p.verifier.Verify(signingInput, sig, publicKey); err != nil {
		return Payload{}, shcerr.JWS("signature verification failed", err)
	}

	payload, err := decodePayload(header, payloadBytes)
	if err != nil {
		return Payload{}, err
	}

	p.log.Debug("verified JWS", zap.String("kid", header.Kid))
	return payload, nil
}

// Decode parses header and payload without checking the signature. It is
// intended for diagnostics; it never returns a payload that fails
// structural validation.
func (p *Processor) Decode(token string) (Header, Payload, error) {
	header, _, payloadBytes, _, err := splitToken(token)
	if err != nil {
		return Header{}, Payload{}, err
	}
	payload, err := decodePayload(header, payloadBytes)
	if err != nil {
		return header, Payload{}, err
	}
	return header, payload, nil
}

func splitToken(token string) (header Header, signingInput string, payloadBytes, sig []byte, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Header{}, "", nil, nil, shcerr.JWS(fmt.Sprintf("expected 3 non-empty dot-separated parts, got %d", len(parts)), nil)
	}

	headerBytes, err := codec.DecodeBase64URL(parts[0])
	if err != nil {
		return Header{}, "", nil, nil, shcerr.JWS("decoding header", err)
	}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return Header{}, "", nil, nil, shcerr.JWS("parsing header JSON", err)
	}

	payloadBytes, err = codec.DecodeBase64URL(parts[1])
	if err != nil {
		return Header{}, "", nil, nil, shcerr.JWS("decoding payload", err)
	}
	sig, err = codec.DecodeBase64URL(parts[2])
	if err != nil {
		return Header{}, "", nil, nil, shcerr.JWS("decoding signature", err)
	}

	return header, parts[0] + "." + parts[1], payloadBytes, sig, nil
}

func decodePayload(header Header, payloadBytes []byte) (Payload, error) {
	raw := payloadBytes
	if header.Zip == "DEF" {
		inflated, err := codec.InflateRaw(payloadBytes)
		if err != nil {
			return Payload{}, shcerr.JWS("decompressing payload", err)
		}
		raw = inflated
	}

	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, shcerr.JWS("parsing payload JSON", err)
	}
	if err := payload.validate(); err != nil {
		return Payload{}, err
	}
	return payload, nil
}
