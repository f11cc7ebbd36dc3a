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
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthealthcard/shc-go/fhirbundle"
	"github.com/smarthealthcard/shc-go/qr"
	"github.com/smarthealthcard/shc-go/vc"
)

const sampleBundleJSON = `{
  "resourceType":"Bundle",
  "type":"collection",
  "entry":[
    {"fullUrl":"Patient/123","resource":{"resourceType":"Patient","id":"123","name":[{"family":"Doe","given":["John"]}],"birthDate":"1990-01-01"}},
    {"fullUrl":"Immunization/456","resource":{"resourceType":"Immunization","id":"456","status":"completed",
      "vaccineCode":{"coding":[{"system":"http://hl7.org/fhir/sid/cvx","code":"207","display":"COVID-19 vaccine"}]},
      "patient":{"reference":"Patient/123"},"occurrenceDateTime":"2023-01-15"}}]}`

func sampleBundle(t *testing.T) fhirbundle.Bundle {
	t.Helper()
	var b fhirbundle.Bundle
	require.NoError(t, json.Unmarshal([]byte(sampleBundleJSON), &b))
	return b
}

func genKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func TestCreateVerify_RoundTrip(t *testing.T) {
	key := genKey(t)
	card := New(Config{
		Issuer:     "https://issuer.example.org",
		PrivateKey: key,
		PublicKey:  &key.PublicKey,
		Kid:        "kid-1",
	})

	token, err := card.Create(sampleBundle(t), vc.CreateOptions{})
	require.NoError(t, err)

	verified, err := card.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "Bundle", verified.Bundle.ResourceType())
	assert.Contains(t, verified.Envelope.VC.Type, vc.HealthCardType)
}

func TestVerify_NoPublicKeyFails(t *testing.T) {
	key := genKey(t)
	card := New(Config{Issuer: "https://issuer.example.org", PrivateKey: key, Kid: "kid-1"})

	token, err := card.Create(sampleBundle(t), vc.CreateOptions{})
	require.NoError(t, err)

	_, err = card.Verify(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeVerification)
}

func TestCreate_NoPrivateKeyFails(t *testing.T) {
	card := New(Config{Issuer: "https://issuer.example.org"})
	_, err := card.Create(sampleBundle(t), vc.CreateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeCreation)
}

func TestCreate_QROptimizationRewritesBundle(t *testing.T) {
	key := genKey(t)
	card := New(Config{
		Issuer:               "https://issuer.example.org",
		PrivateKey:           key,
		PublicKey:            &key.PublicKey,
		Kid:                  "kid-1",
		EnableQrOptimization: true,
	})

	token, err := card.Create(sampleBundle(t), vc.CreateOptions{})
	require.NoError(t, err)

	verified, err := card.Verify(token)
	require.NoError(t, err)

	entries := verified.Bundle.Entries()
	require.Len(t, entries, 2)
	entry0, _ := entries[0].(map[string]any)
	entry1, _ := entries[1].(map[string]any)
	assert.Equal(t, "resource:0", entry0["fullUrl"])
	assert.Equal(t, "resource:1", entry1["fullUrl"])
}

func TestGetBundle_ReturnsVerifiedBundle(t *testing.T) {
	key := genKey(t)
	card := New(Config{
		Issuer: "https://issuer.example.org", PrivateKey: key, PublicKey: &key.PublicKey, Kid: "kid-1",
	})

	token, err := card.Create(sampleBundle(t), vc.CreateOptions{})
	require.NoError(t, err)

	bundle, err := card.GetBundle(token)
	require.NoError(t, err)
	assert.Equal(t, "Bundle", bundle.ResourceType())
}

func TestCreateFile_VerifyFile_RoundTrip(t *testing.T) {
	key := genKey(t)
	card := New(Config{
		Issuer: "https://issuer.example.org", PrivateKey: key, PublicKey: &key.PublicKey, Kid: "kid-1",
	})

	fileJSON, err := card.CreateFile(sampleBundle(t), vc.CreateOptions{})
	require.NoError(t, err)

	var wrapper map[string]any
	require.NoError(t, json.Unmarshal([]byte(fileJSON), &wrapper))
	vcArray, ok := wrapper["verifiableCredential"].([]any)
	require.True(t, ok)
	require.Len(t, vcArray, 1)

	verified, err := card.VerifyFile(fileJSON)
	require.NoError(t, err)
	assert.Equal(t, "Bundle", verified.Bundle.ResourceType())
}

func TestCreateFileBlob_ReturnsMimeType(t *testing.T) {
	key := genKey(t)
	card := New(Config{Issuer: "https://issuer.example.org", PrivateKey: key, Kid: "kid-1"})

	_, mime, err := card.CreateFileBlob(sampleBundle(t), vc.CreateOptions{})
	require.NoError(t, err)
	assert.Equal(t, FileMIMEType, mime)
}

func TestVerifyFile_MissingArrayFails(t *testing.T) {
	card := New(Config{})
	_, err := card.VerifyFile(`{"foo":"bar"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeFileFormat)
}

func TestVerifyFile_EmptyArrayFails(t *testing.T) {
	card := New(Config{})
	_, err := card.VerifyFile(`{"verifiableCredential":[]}`)
	require.Error(t, err)
}

func TestVerifyFile_BadSignatureFailsWithFileVerificationCode(t *testing.T) {
	signingKey := genKey(t)
	otherKey := genKey(t)

	issuer := New(Config{
		Issuer: "https://issuer.example.org", PrivateKey: signingKey, Kid: "kid-1",
	})
	fileJSON, err := issuer.CreateFile(sampleBundle(t), vc.CreateOptions{})
	require.NoError(t, err)

	verifier := New(Config{PublicKey: &otherKey.PublicKey})
	_, err = verifier.VerifyFile(fileJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), CodeFileVerification)
}

func TestCreateQRContents_RoundTripsToVerify(t *testing.T) {
	key := genKey(t)
	card := New(Config{
		Issuer: "https://issuer.example.org", PrivateKey: key, PublicKey: &key.PublicKey, Kid: "kid-1",
	})

	contents, err := card.CreateQRContents(sampleBundle(t), vc.CreateOptions{})
	require.NoError(t, err)
	require.Len(t, contents, 1)

	token, err := qr.ScanQR(contents)
	require.NoError(t, err)
	verified, err := card.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "Bundle", verified.Bundle.ResourceType())
}
