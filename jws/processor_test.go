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
	"crypto/rand"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthealthcard/shc-go/codec"
)

func genKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func samplePayload() Payload {
	return Payload{
		Iss: "https://issuer.example.org",
		Nbf: 1690000000,
		VC:  json.RawMessage(`{"type":["https://smarthealth.cards#health-card"],"credentialSubject":{"fhirVersion":"4.0.1","fhirBundle":{"resourceType":"Bundle"}}}`),
	}
}

func TestSignVerify_RoundTrip(t *testing.T) {
	key := genKey(t)
	p := NewProcessor()

	token, err := p.Sign(samplePayload(), key, "kid-1", true)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."))

	got, err := p.Verify(token, &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "https://issuer.example.org", got.Iss)
}

func TestSignVerify_Uncompressed(t *testing.T) {
	key := genKey(t)
	p := NewProcessor()

	token, err := p.Sign(samplePayload(), key, "kid-1", false)
	require.NoError(t, err)

	header, _, err := p.Decode(token)
	require.NoError(t, err)
	assert.Empty(t, header.Zip)

	got, err := p.Verify(token, &key.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, "https://issuer.example.org", got.Iss)
}

func TestVerify_TamperedSignatureFails(t *testing.T) {
	key := genKey(t)
	p := NewProcessor()

	token, err := p.Sign(samplePayload(), key, "kid-1", true)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig := []rune(parts[2])
	// Flip one character of the signature segment.
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	parts[2] = string(sig)
	tampered := strings.Join(parts, ".")

	_, err = p.Verify(tampered, &key.PublicKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWS_ERROR")
}

func TestVerify_WrongKeyFails(t *testing.T) {
	key := genKey(t)
	other := genKey(t)
	p := NewProcessor()

	token, err := p.Sign(samplePayload(), key, "kid-1", true)
	require.NoError(t, err)

	_, err = p.Verify(token, &other.PublicKey)
	require.Error(t, err)
}

func TestSign_ExpEqualsNbfFails(t *testing.T) {
	key := genKey(t)
	p := NewProcessor()

	payload := samplePayload()
	exp := payload.Nbf
	payload.Exp = &exp

	_, err := p.Sign(payload, key, "kid-1", true)
	require.Error(t, err)
}

func TestSign_ExpAfterNbfSucceeds(t *testing.T) {
	key := genKey(t)
	p := NewProcessor()

	payload := samplePayload()
	exp := payload.Nbf + 1
	payload.Exp = &exp

	token, err := p.Sign(payload, key, "kid-1", true)
	require.NoError(t, err)
	_, err = p.Verify(token, &key.PublicKey)
	require.NoError(t, err)
}

func TestHeaderAuthority_ChangingZipBreaksVerification(t *testing.T) {
	key := genKey(t)
	p := NewProcessor()

	token, err := p.Sign(samplePayload(), key, "kid-1", true)
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	var header Header
	headerBytes, err := codec.DecodeBase64URL(parts[0])
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(headerBytes, &header))

	// Drop the zip claim from the header but keep the original payload
	// bytes and the original signature: the signature covers the header
	// as signed, so the edited header must fail verification.
	header.Zip = ""
	newHeaderJSON, err := json.Marshal(header)
	require.NoError(t, err)

	tampered := codec.EncodeBase64URL(newHeaderJSON) + "." + parts[1] + "." + parts[2]

	_, err = p.Verify(tampered, &key.PublicKey)
	require.Error(t, err, "re-signing would be required to change zip; simply editing the header must fail signature verification")
}

func TestPayloadValidate_EmptyIssFails(t *testing.T) {
	p := samplePayload()
	p.Iss = ""
	require.Error(t, p.validate())
}

func TestPayloadValidate_MissingVCFails(t *testing.T) {
	p := samplePayload()
	p.VC = nil
	require.Error(t, p.validate())
}
