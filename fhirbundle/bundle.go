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

// Package fhirbundle normalizes and optionally size-reduces FHIR R4 Bundles
// for embedding in a SMART Health Card. A Bundle is kept as ad-hoc JSON
// (map[string]any) with typed accessors rather than a full FHIR R4 struct
// model: the resource shapes inside entry[].resource are open-ended and this
// package only ever needs to reason about Bundle-level structure plus a
// handful of generic field names (id, meta, text, display, reference)
// wherever they occur in the tree.
package fhirbundle

// Bundle is a FHIR R4 Bundle, represented as its parsed JSON object.
type Bundle map[string]any

// ResourceType returns the "resourceType" discriminator, or "" if absent or
// not a string.
func (b Bundle) ResourceType() string {
	rt, _ := b["resourceType"].(string)
	return rt
}

// Type returns the Bundle's "type" field, or "" if absent or not a string.
func (b Bundle) Type() string {
	t, _ := b["type"].(string)
	return t
}

// Entries returns the Bundle's "entry" array, or nil if absent or not an
// array.
func (b Bundle) Entries() []any {
	entries, _ := b["entry"].([]any)
	return entries
}

// clone returns a deep copy of b so callers can treat the Bundle they passed
// in as immutable input (spec invariant B1).
func (b Bundle) clone() Bundle {
	copied, _ := deepCopy(map[string]any(b)).(map[string]any)
	return Bundle(copied)
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = deepCopy(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = deepCopy(val)
		}
		return s
	default:
		return v
	}
}
