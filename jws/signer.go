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
	"crypto/elliptic"
	"crypto/sha256"
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"

	"github.com/smarthealthcard/shc-go/codec"
)

// Signer produces an ES256 P1363 (fixed-length r||s) signature over
// signingInput. Implementations are the one external collaborator this
// package needs for signing; hosts with HSM- or KMS-backed keys can
// implement this directly instead of holding an *ecdsa.PrivateKey in
// process.
type Signer interface {
	Sign(signingInput string, privateKey *ecdsa.PrivateKey) ([]byte, error)
}

// Verifier checks an ES256 P1363 signature over signingInput.
type Verifier interface {
	Verify(signingInput string, sig []byte, publicKey *ecdsa.PublicKey) error
}

// es256 wraps golang-jwt/jwt's SigningMethodES256, which already produces
// and consumes fixed-length P1363 signatures (JOSE ECDSA signatures are
// never ASN.1/DER), used here as a raw primitive rather than through the
// library's higher-level Parse/NewWithClaims API so the pre-sign DEFLATE
// step can sit between JSON-marshaling the payload and computing the
// signature.
type es256 struct{}

// DefaultES256 is the library's built-in Signer and Verifier.
var DefaultES256 = es256{}

func (es256) Sign(signingInput string, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	return jwt.SigningMethodES256.Sign(signingInput, privateKey)
}

func (es256) Verify(signingInput string, sig []byte, publicKey *ecdsa.PublicKey) error {
	return jwt.SigningMethodES256.Verify(signingInput, sig, publicKey)
}

// ThumbprintKid derives a "kid" from pub per RFC 7638: the base64url of the
// SHA-256 digest of the JWK's required members, serialized in lexicographic
// member-name order. Go's encoding/json already emits map[string]string
// keys in sorted order, and "crv","kty","x","y" happen to already be
// alphabetical, so a plain map produces the canonical form.
func ThumbprintKid(pub *ecdsa.PublicKey) (string, error) {
	if pub.Curve != elliptic.P256() {
		return "", errUnsupportedCurve
	}
	keySize := (pub.Curve.Params().BitSize + 7) / 8
	jwk := map[string]string{
		"crv": "P-256",
		"kty": "EC",
		"x":   codec.EncodeBase64URL(padToSize(pub.X.Bytes(), keySize)),
		"y":   codec.EncodeBase64URL(padToSize(pub.Y.Bytes(), keySize)),
	}
	b, err := json.Marshal(jwk)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return codec.EncodeBase64URL(sum[:]), nil
}

func padToSize(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	padded := make([]byte, size)
	copy(padded[size-len(b):], b)
	return padded
}
