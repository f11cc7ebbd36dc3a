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
	"fmt"

	"go.uber.org/zap"

	"github.com/smarthealthcard/shc-go/shcerr"
)

// Processor validates, normalizes, and QR-optimizes Bundles. It is
// stateless and safe for concurrent use.
type Processor struct {
	log *zap.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger attaches a structured logger. The default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// NewProcessor constructs a Processor.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate enforces spec invariants B1/B2: resourceType must be "Bundle",
// type (if present) must be "collection", entry (if present) must be an
// ordered array whose elements each carry a resource with a resourceType.
func (p *Processor) Validate(b Bundle) error {
	if rt := b.ResourceType(); rt != "Bundle" {
		return shcerr.FHIRValidation(fmt.Sprintf("resourceType must be \"Bundle\", got %q", rt), nil)
	}

	if rawType, present := b["type"]; present {
		typ, isStr := rawType.(string)
		if !isStr || typ != "collection" {
			return shcerr.FHIRValidation(fmt.Sprintf("type must be \"collection\" for a SMART Health Card, got %v", rawType), nil)
		}
	}

	rawEntries, present := b["entry"]
	if !present {
		return nil
	}
	entries, isArr := rawEntries.([]any)
	if !isArr {
		return shcerr.FHIRValidation("entry must be an ordered array", nil)
	}
	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			return shcerr.FHIRValidation(fmt.Sprintf("entry[%d] is not an object", i), nil)
		}
		resource, ok := entry["resource"].(map[string]any)
		if !ok {
			return shcerr.FHIRValidation(fmt.Sprintf("entry[%d] is missing a resource object", i), nil)
		}
		if rt, ok := resource["resourceType"].(string); !ok || rt == "" {
			return shcerr.FHIRValidation(fmt.Sprintf("entry[%d].resource is missing resourceType", i), nil)
		}
	}
	return nil
}

// Process deep-copies b and defaults its "type" to "collection" if absent.
// It fails only on a wrong resourceType; full structural validation is
// Validate's job.
func (p *Processor) Process(b Bundle) (Bundle, error) {
	if rt := b.ResourceType(); rt != "Bundle" {
		return nil, shcerr.FHIRValidation(fmt.Sprintf("resourceType must be \"Bundle\", got %q", rt), nil)
	}

	out := b.clone()
	if _, present := out["type"]; !present {
		out["type"] = "collection"
		p.log.Debug("defaulted Bundle.type to collection")
	}
	return out, nil
}

// ProcessForQR applies Process, then the QR size-reduction rewrite:
// fullUrl values become "resource:<index>" URIs, matching "reference"
// values are rewritten to the same short form, and a handful of fields
// that don't change clinical meaning (id, non-security meta, text on
// DomainResources and CodeableConcepts, string display values, null values
// and empty arrays) are dropped.
func (p *Processor) ProcessForQR(b Bundle) (Bundle, error) {
	processed, err := p.Process(b)
	if err != nil {
		return nil, err
	}
	optimized := optimizeForQR(processed)
	p.log.Debug("optimized Bundle for QR encoding", zap.Int("entries", len(optimized.Entries())))
	return optimized, nil
}

// optimizeForQR performs the QR-optimization rewrite described in spec
// §4.2. It walks entries with an explicit loop (not a recursive call over
// the whole Bundle) so that the width of an untrusted Bundle's entry list
// never grows the Go call stack; depth within a single resource's own JSON
// tree is bounded by what FHIR resources can legally express and is walked
// with ordinary recursion via cleanNode.
func optimizeForQR(b Bundle) Bundle {
	entries := b.Entries()

	mapping := make(map[string]string, len(entries))
	for i, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		fullURL, ok := entry["fullUrl"].(string)
		if !ok || fullURL == "" {
			continue
		}
		short := fmt.Sprintf("resource:%d", i)
		mapping[fullURL] = short
		entry["fullUrl"] = short
	}

	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if resource, ok := entry["resource"]; ok {
			entry["resource"] = cleanNode(resource, mapping)
		}
	}

	return b
}

// cleanNode recursively applies the field-removal and reference-rewrite
// rules to v, returning the cleaned value. Arrays that become empty are
// represented as a zero-length []any so the caller can drop the containing
// key.
func cleanNode(v any, mapping map[string]string) any {
	switch t := v.(type) {
	case map[string]any:
		return cleanObject(t, mapping)
	case []any:
		return cleanArray(t, mapping)
	default:
		return v
	}
}

func cleanObject(obj map[string]any, mapping map[string]string) map[string]any {
	if ref, ok := obj["reference"].(string); ok {
		if mapped, found := mapping[ref]; found {
			obj["reference"] = mapped
		}
	}

	if _, isResource := obj["resourceType"]; isResource {
		delete(obj, "id")
		cleanMeta(obj)
	}

	if isDomainResourceLike(obj) || isCodeableConceptLike(obj) {
		delete(obj, "text")
	}

	if disp, ok := obj["display"]; ok {
		if _, isStr := disp.(string); isStr {
			delete(obj, "display")
		}
	}

	for k, val := range obj {
		cleaned := cleanNode(val, mapping)
		if cleaned == nil {
			delete(obj, k)
			continue
		}
		if arr, ok := cleaned.([]any); ok && len(arr) == 0 {
			delete(obj, k)
			continue
		}
		obj[k] = cleaned
	}

	return obj
}

func cleanMeta(obj map[string]any) {
	rawMeta, present := obj["meta"]
	if !present {
		return
	}
	meta, ok := rawMeta.(map[string]any)
	if !ok {
		delete(obj, "meta")
		return
	}
	if security, hasSecurity := meta["security"]; hasSecurity {
		obj["meta"] = map[string]any{"security": security}
		return
	}
	delete(obj, "meta")
}

// isDomainResourceLike heuristically detects a FHIR DomainResource by the
// presence of any field only DomainResources carry.
func isDomainResourceLike(obj map[string]any) bool {
	for _, k := range [...]string{"text", "contained", "extension", "modifierExtension"} {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}

// isCodeableConceptLike heuristically detects a FHIR CodeableConcept by the
// presence of a "coding" array.
func isCodeableConceptLike(obj map[string]any) bool {
	coding, ok := obj["coding"]
	if !ok {
		return false
	}
	_, isArray := coding.([]any)
	return isArray
}

func cleanArray(arr []any, mapping map[string]string) []any {
	out := make([]any, 0, len(arr))
	for _, el := range arr {
		if el == nil {
			continue
		}
		cleaned := cleanNode(el, mapping)
		if cleaned == nil {
			continue
		}
		if s, ok := cleaned.([]any); ok && len(s) == 0 {
			continue
		}
		out = append(out, cleaned)
	}
	return out
}
