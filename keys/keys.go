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

// Package keys imports and exports the P-256 ECDSA keys a Card is
// configured with. It does not generate or persist long-lived issuer
// keys; it only parses what a caller already holds (PEM or JWK) and
// serializes keys back to JWK for publishing a verifier's public key set.
package keys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"os"

	"github.com/smarthealthcard/shc-go/codec"
	"github.com/smarthealthcard/shc-go/shcerr"
)

// LoadPublicKey reads a PEM or JWK file from path and parses it.
func LoadPublicKey(path string) (*ecdsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shcerr.Verification("reading public key file", err)
	}
	return ParsePublicKey(data)
}

// LoadPrivateKey reads a PEM or JWK file from path and parses it.
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shcerr.Creation("reading private key file", err)
	}
	return ParsePrivateKey(data)
}

// ParsePublicKey parses a P-256 ECDSA public key from PEM or JWK bytes.
func ParsePublicKey(data []byte) (*ecdsa.PublicKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		return parsePublicPEMBlock(block)
	}
	return parsePublicJWK(data)
}

// ParsePrivateKey parses a P-256 ECDSA private key from PEM (SEC1 "EC
// PRIVATE KEY" or PKCS8) or JWK bytes.
func ParsePrivateKey(data []byte) (*ecdsa.PrivateKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		return parsePrivatePEMBlock(block)
	}
	return parsePrivateJWK(data)
}

func parsePublicPEMBlock(block *pem.Block) (*ecdsa.PublicKey, error) {
	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, shcerr.Verification("parsing certificate", err)
		}
		pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
		if !ok {
			return nil, shcerr.Verification("certificate public key is not ECDSA", nil)
		}
		return requireP256Public(pub)
	default:
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, shcerr.Verification("parsing PKIX public key", err)
		}
		pub, ok := parsed.(*ecdsa.PublicKey)
		if !ok {
			return nil, shcerr.Verification("PEM public key is not ECDSA", nil)
		}
		return requireP256Public(pub)
	}
}

func parsePrivatePEMBlock(block *pem.Block) (*ecdsa.PrivateKey, error) {
	switch block.Type {
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, shcerr.Creation("parsing EC private key", err)
		}
		return requireP256Private(key)
	default:
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, shcerr.Creation("parsing PKCS8 private key", err)
		}
		key, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, shcerr.Creation("PEM private key is not ECDSA", nil)
		}
		return requireP256Private(key)
	}
}

func requireP256Public(pub *ecdsa.PublicKey) (*ecdsa.PublicKey, error) {
	if pub.Curve != elliptic.P256() {
		return nil, shcerr.Verification("public key curve must be P-256 for ES256", nil)
	}
	return pub, nil
}

func requireP256Private(key *ecdsa.PrivateKey) (*ecdsa.PrivateKey, error) {
	if key.Curve != elliptic.P256() {
		return nil, shcerr.Creation("private key curve must be P-256 for ES256", nil)
	}
	return key, nil
}

type jwkDoc struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
	D   string `json:"d,omitempty"`
}

func parsePublicJWK(data []byte) (*ecdsa.PublicKey, error) {
	var jwk jwkDoc
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, shcerr.Verification("not a valid PEM or JWK public key", err)
	}
	curve, err := curveFromJWK(jwk)
	if err != nil {
		return nil, err
	}
	x, err := decodeCoordinate(jwk.X, "x")
	if err != nil {
		return nil, err
	}
	y, err := decodeCoordinate(jwk.Y, "y")
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func parsePrivateJWK(data []byte) (*ecdsa.PrivateKey, error) {
	var jwk jwkDoc
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, shcerr.Creation("not a valid PEM or JWK private key", err)
	}
	if jwk.D == "" {
		return nil, shcerr.Creation("JWK is missing private member \"d\"", nil)
	}
	curve, err := curveFromJWK(jwk)
	if err != nil {
		return nil, err
	}
	x, err := decodeCoordinate(jwk.X, "x")
	if err != nil {
		return nil, err
	}
	y, err := decodeCoordinate(jwk.Y, "y")
	if err != nil {
		return nil, err
	}
	dBytes, err := codec.DecodeBase64URL(jwk.D)
	if err != nil {
		return nil, shcerr.Creation("decoding JWK member \"d\"", err)
	}

	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         new(big.Int).SetBytes(dBytes),
	}, nil
}

func curveFromJWK(jwk jwkDoc) (elliptic.Curve, error) {
	if jwk.Kty != "EC" {
		return nil, shcerr.Verification("JWK kty must be \"EC\" for ES256", nil)
	}
	switch jwk.Crv {
	case "P-256":
		return elliptic.P256(), nil
	default:
		return nil, shcerr.Verification("unsupported JWK curve, ES256 requires P-256", nil)
	}
}

func decodeCoordinate(b64, name string) (*big.Int, error) {
	b, err := codec.DecodeBase64URL(b64)
	if err != nil {
		return nil, shcerr.Verification("decoding JWK member \""+name+"\"", err)
	}
	return new(big.Int).SetBytes(b), nil
}

// PublicJWK serializes pub to its JWK member representation, coordinates
// padded to the curve's byte size per RFC 7518 §6.2.1.
func PublicJWK(pub *ecdsa.PublicKey) (string, error) {
	keySize := (pub.Curve.Params().BitSize + 7) / 8
	jwk := jwkDoc{
		Kty: "EC",
		Crv: "P-256",
		X:   codec.EncodeBase64URL(padToSize(pub.X.Bytes(), keySize)),
		Y:   codec.EncodeBase64URL(padToSize(pub.Y.Bytes(), keySize)),
	}
	b, err := json.MarshalIndent(jwk, "", "  ")
	if err != nil {
		return "", shcerr.Verification("marshaling public JWK", err)
	}
	return string(b), nil
}

func padToSize(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	padded := make([]byte, size)
	copy(padded[size-len(b):], b)
	return padded
}
