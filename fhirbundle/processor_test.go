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

package fhirbundle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBundleJSON = `{
  "resourceType":"Bundle",
  "type":"collection",
  "entry":[
    {"fullUrl":"Patient/123","resource":{"resourceType":"Patient","id":"123","name":[{"family":"Doe","given":["John"]}],"birthDate":"1990-01-01"}},
    {"fullUrl":"Immunization/456","resource":{"resourceType":"Immunization","id":"456","status":"completed",
      "vaccineCode":{"coding":[{"system":"http://hl7.org/fhir/sid/cvx","code":"207","display":"COVID-19 vaccine"}]},
      "patient":{"reference":"Patient/123"},"occurrenceDateTime":"2023-01-15"}}]}`

func mustParse(t *testing.T, raw string) Bundle {
	t.Helper()
	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	return b
}

func TestValidate_RejectsWrongResourceType(t *testing.T) {
	p := NewProcessor()
	b := Bundle{"resourceType": "Patient"}
	err := p.Validate(b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FHIR_VALIDATION_ERROR")
}

func TestValidate_RejectsNonCollectionType(t *testing.T) {
	p := NewProcessor()
	b := Bundle{"resourceType": "Bundle", "type": "batch"}
	err := p.Validate(b)
	require.Error(t, err)
}

func TestValidate_RejectsEntryMissingResource(t *testing.T) {
	p := NewProcessor()
	b := Bundle{
		"resourceType": "Bundle",
		"type":         "collection",
		"entry":        []any{map[string]any{"fullUrl": "Patient/1"}},
	}
	err := p.Validate(b)
	require.Error(t, err)
}

func TestValidate_AcceptsSample(t *testing.T) {
	p := NewProcessor()
	b := mustParse(t, sampleBundleJSON)
	require.NoError(t, p.Validate(b))
}

func TestProcess_DefaultsType(t *testing.T) {
	p := NewProcessor()
	b := Bundle{"resourceType": "Bundle"}
	out, err := p.Process(b)
	require.NoError(t, err)
	assert.Equal(t, "collection", out.Type())
	_, stillAbsent := b["type"]
	assert.False(t, stillAbsent, "input must not be mutated")
}

func TestProcess_Idempotent(t *testing.T) {
	p := NewProcessor()
	b := mustParse(t, sampleBundleJSON)
	once, err := p.Process(b)
	require.NoError(t, err)
	twice, err := p.Process(once)
	require.NoError(t, err)

	onceJSON, _ := json.Marshal(once)
	twiceJSON, _ := json.Marshal(twice)
	assert.JSONEq(t, string(onceJSON), string(twiceJSON))
}

func TestProcessForQR_DoesNotMutateInput(t *testing.T) {
	p := NewProcessor()
	b := mustParse(t, sampleBundleJSON)
	before, _ := json.Marshal(b)

	_, err := p.ProcessForQR(b)
	require.NoError(t, err)

	after, _ := json.Marshal(b)
	assert.JSONEq(t, string(before), string(after))
}

func TestProcessForQR_RewritesFullUrlsAndReferences(t *testing.T) {
	p := NewProcessor()
	b := mustParse(t, sampleBundleJSON)
	out, err := p.ProcessForQR(b)
	require.NoError(t, err)

	entries := out.Entries()
	require.Len(t, entries, 2)

	patientEntry := entries[0].(map[string]any)
	assert.Equal(t, "resource:0", patientEntry["fullUrl"])

	immunizationEntry := entries[1].(map[string]any)
	assert.Equal(t, "resource:1", immunizationEntry["fullUrl"])

	patient := patientEntry["resource"].(map[string]any)
	_, hasID := patient["id"]
	assert.False(t, hasID, "Patient.id must be dropped")

	immunization := immunizationEntry["resource"].(map[string]any)
	_, hasImmID := immunization["id"]
	assert.False(t, hasImmID, "Immunization.id must be dropped")

	patientRef := immunization["patient"].(map[string]any)
	assert.Equal(t, "resource:0", patientRef["reference"])

	vaccineCode := immunization["vaccineCode"].(map[string]any)
	coding := vaccineCode["coding"].([]any)[0].(map[string]any)
	_, hasDisplay := coding["display"]
	assert.False(t, hasDisplay, "coding[].display must be dropped")
}

func TestProcessForQR_FixedPoint(t *testing.T) {
	p := NewProcessor()
	b := mustParse(t, sampleBundleJSON)
	once, err := p.ProcessForQR(b)
	require.NoError(t, err)
	twice, err := p.ProcessForQR(once)
	require.NoError(t, err)

	onceJSON, _ := json.Marshal(once)
	twiceJSON, _ := json.Marshal(twice)
	assert.JSONEq(t, string(onceJSON), string(twiceJSON))
}

func TestProcessForQR_PreservesSecurityMeta(t *testing.T) {
	p := NewProcessor()
	b := Bundle{
		"resourceType": "Bundle",
		"type":         "collection",
		"entry": []any{
			map[string]any{
				"resource": map[string]any{
					"resourceType": "Patient",
					"meta": map[string]any{
						"versionId": "1",
						"security":  []any{map[string]any{"system": "http://example.org", "code": "R"}},
					},
				},
			},
		},
	}
	out, err := p.ProcessForQR(b)
	require.NoError(t, err)

	resource := out.Entries()[0].(map[string]any)["resource"].(map[string]any)
	meta := resource["meta"].(map[string]any)
	assert.Len(t, meta, 1)
	_, hasSecurity := meta["security"]
	assert.True(t, hasSecurity)
}
