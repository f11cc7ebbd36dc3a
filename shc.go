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

// Package shc is the SMART Health Card facade: it wires fhirbundle, vc,
// jws, and qr into the create/verify/file operations a caller embeds
// without needing to touch the pipeline layers directly.
package shc

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/smarthealthcard/shc-go/fhirbundle"
	"github.com/smarthealthcard/shc-go/jws"
	"github.com/smarthealthcard/shc-go/qr"
	"github.com/smarthealthcard/shc-go/shcerr"
	"github.com/smarthealthcard/shc-go/vc"
)

// FileMIMEType is the MIME type a .smart-health-card file blob is served
// with, per spec §4.6.
const FileMIMEType = "application/smart-health-card"

// fileWrapper is the on-disk/transport shape of a .smart-health-card file.
type fileWrapper struct {
	VerifiableCredential []string `json:"verifiableCredential"`
}

// Card is the facade described by spec §4.6. It holds per-instance
// configuration and delegates to the fhirbundle, vc, jws, and qr
// processors; it carries no mutable state beyond that configuration.
type Card struct {
	cfg Config

	bundles *fhirbundle.Processor
	vcs     *vc.Processor
	tokens  *jws.Processor
	log     *zap.Logger
}

// New constructs a Card from cfg.
func New(cfg Config) *Card {
	log := cfg.logger()
	return &Card{
		cfg:     cfg,
		bundles: fhirbundle.NewProcessor(fhirbundle.WithLogger(log)),
		vcs:     vc.NewProcessor(),
		tokens:  jws.NewProcessor(jws.WithLogger(log)),
		log:     log,
	}
}

// VerifiedCard is the result of Verify: the VC envelope and the FHIR
// Bundle it carries, already unwrapped for convenience.
type VerifiedCard struct {
	Envelope vc.Envelope
	Bundle   fhirbundle.Bundle
	Payload  jws.Payload
}

// Create processes bundle (optimizing for QR transport when
// EnableQrOptimization is set), wraps it in a VC envelope, forms the JWT
// payload, and signs it, returning the compact JWS. Per spec §4.6.
func (c *Card) Create(bundle fhirbundle.Bundle, opts vc.CreateOptions) (string, error) {
	if c.cfg.PrivateKey == nil {
		return "", shcerr.Creation("no private key configured", nil)
	}

	processed, err := c.processBundle(bundle)
	if err != nil {
		return "", err
	}

	envelope := c.vcs.Create(processed, opts)
	vcJSON, err := json.Marshal(envelope)
	if err != nil {
		return "", shcerr.Creation("marshaling VC envelope", err)
	}

	nbf := float64(time.Now().Unix())
	payload := jws.Payload{
		Iss: c.cfg.Issuer,
		Nbf: nbf,
		VC:  vcJSON,
	}
	if c.cfg.ExpirationSeconds > 0 {
		exp := nbf + float64(c.cfg.ExpirationSeconds)
		payload.Exp = &exp
	}

	token, err := c.tokens.Sign(payload, c.cfg.PrivateKey, c.cfg.Kid, c.cfg.compressionEnabled())
	if err != nil {
		return "", err
	}

	c.log.Debug("created health card", zap.String("issuer", c.cfg.Issuer))
	return token, nil
}

func (c *Card) processBundle(bundle fhirbundle.Bundle) (fhirbundle.Bundle, error) {
	if c.cfg.EnableQrOptimization {
		return c.bundles.ProcessForQR(bundle)
	}
	return c.bundles.Process(bundle)
}

// Verify checks jws's signature, rebuilds the VC envelope from its
// payload, and validates it against the Bundle invariants. Per spec §4.6.
func (c *Card) Verify(token string) (VerifiedCard, error) {
	if c.cfg.PublicKey == nil {
		return VerifiedCard{}, shcerr.Verification("no public key configured", nil)
	}

	payload, err := c.tokens.Verify(token, c.cfg.PublicKey)
	if err != nil {
		return VerifiedCard{}, err
	}

	var envelope vc.Envelope
	if err := json.Unmarshal(payload.VC, &envelope); err != nil {
		return VerifiedCard{}, shcerr.Verification("parsing vc claim", err)
	}

	if err := c.vcs.Validate(envelope, c.bundles.Validate); err != nil {
		return VerifiedCard{}, err
	}

	c.log.Debug("verified health card", zap.String("issuer", payload.Iss))
	return VerifiedCard{Envelope: envelope, Bundle: envelope.VC.Subject.FHIRBundle, Payload: payload}, nil
}

// GetBundle is a convenience wrapper returning only the verified Bundle.
func (c *Card) GetBundle(token string) (fhirbundle.Bundle, error) {
	verified, err := c.Verify(token)
	if err != nil {
		return nil, err
	}
	return verified.Bundle, nil
}

// CreateFile creates a health card and wraps it in the
// {"verifiableCredential":[<jws>]} file shape, returning the JSON text.
func (c *Card) CreateFile(bundle fhirbundle.Bundle, opts vc.CreateOptions) (string, error) {
	token, err := c.Create(bundle, opts)
	if err != nil {
		return "", err
	}
	return marshalFileWrapper(token)
}

// CreateFileBlob returns the same content as CreateFile alongside the
// .smart-health-card MIME type, for callers building an HTTP response or
// writing a file to disk.
func (c *Card) CreateFileBlob(bundle fhirbundle.Bundle, opts vc.CreateOptions) (content, mimeType string, err error) {
	content, err = c.CreateFile(bundle, opts)
	if err != nil {
		return "", "", err
	}
	return content, FileMIMEType, nil
}

// VerifyFile parses a .smart-health-card file's JSON contents and verifies
// its first verifiableCredential entry.
func (c *Card) VerifyFile(contents string) (VerifiedCard, error) {
	var wrapper fileWrapper
	if err := json.Unmarshal([]byte(contents), &wrapper); err != nil {
		return VerifiedCard{}, shcerr.FileFormat("parsing file JSON", err)
	}
	if len(wrapper.VerifiableCredential) == 0 {
		return VerifiedCard{}, shcerr.FileFormat("verifiableCredential array is missing or empty", nil)
	}

	verified, err := c.Verify(wrapper.VerifiableCredential[0])
	if err != nil {
		return VerifiedCard{}, shcerr.FileVerification("verifying file's verifiableCredential entry", err)
	}
	return verified, nil
}

func marshalFileWrapper(token string) (string, error) {
	b, err := json.Marshal(fileWrapper{VerifiableCredential: []string{token}})
	if err != nil {
		return "", shcerr.Creation("marshaling file wrapper", err)
	}
	return string(b), nil
}

// CreateQRContents creates a health card and returns its "shc:/..." QR
// content strings, chunked only when Config.QR enables chunking and the
// JWS is longer than its MaxSingleQrSize, per spec §4.5.
func (c *Card) CreateQRContents(bundle fhirbundle.Bundle, opts vc.CreateOptions) ([]string, error) {
	token, err := c.Create(bundle, opts)
	if err != nil {
		return nil, err
	}
	return qr.GenerateQR(token, c.cfg.QR)
}
