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

// Package vc builds and validates the W3C Verifiable Credential envelope a
// SMART Health Card's JWT payload carries as its "vc" claim.
package vc

import (
	"fmt"
	"regexp"

	"github.com/smarthealthcard/shc-go/fhirbundle"
	"github.com/smarthealthcard/shc-go/shcerr"
)

// HealthCardType is the VC type URI every SMART Health Card must carry.
const HealthCardType = "https://smarthealth.cards#health-card"

// DefaultFHIRVersion is used when CreateOptions.FHIRVersion is empty.
const DefaultFHIRVersion = "4.0.1"

// legacyVCContext and legacyVCType are the pre-v1.4 fields some older
// SMART Health Cards validators still emit. Spec §9's Open Question
// resolves the current wire format as default; these are only produced
// when CreateOptions.LegacyContext is set, and are never required on input.
const legacyVCContext = "https://www.w3.org/2018/credentials/v1"
const legacyVCType = "VerifiableCredential"

var fhirVersionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// CredentialSubject carries the embedded FHIR Bundle.
type CredentialSubject struct {
	FHIRVersion string            `json:"fhirVersion"`
	FHIRBundle  fhirbundle.Bundle `json:"fhirBundle"`
}

// VC is the Verifiable Credential envelope: { vc: { type, credentialSubject } }.
type VC struct {
	Context []string          `json:"@context,omitempty"`
	Type    []string          `json:"type"`
	Subject CredentialSubject `json:"credentialSubject"`
}

// Envelope is the top-level JWT "vc" claim wrapper.
type Envelope struct {
	VC VC `json:"vc"`
}

// CreateOptions configures VC construction.
type CreateOptions struct {
	// FHIRVersion defaults to DefaultFHIRVersion when empty.
	FHIRVersion string
	// AdditionalTypes are appended after HealthCardType, in order.
	AdditionalTypes []string
	// LegacyContext emits the pre-v1.4 "@context" and leading
	// "VerifiableCredential" type entry for interop with older validators.
	LegacyContext bool
}

// Processor builds and validates VC envelopes.
type Processor struct{}

// NewProcessor constructs a Processor. It holds no state.
func NewProcessor() *Processor { return &Processor{} }

// Create builds a VC envelope around bundle.
func (p *Processor) Create(bundle fhirbundle.Bundle, opts CreateOptions) Envelope {
	fhirVersion := opts.FHIRVersion
	if fhirVersion == "" {
		fhirVersion = DefaultFHIRVersion
	}

	types := make([]string, 0, len(opts.AdditionalTypes)+2)
	if opts.LegacyContext {
		types = append(types, legacyVCType)
	}
	types = append(types, HealthCardType)
	types = append(types, opts.AdditionalTypes...)

	vc := VC{
		Type: types,
		Subject: CredentialSubject{
			FHIRVersion: fhirVersion,
			FHIRBundle:  bundle,
		},
	}
	if opts.LegacyContext {
		vc.Context = []string{legacyVCContext}
	}
	return Envelope{VC: vc}
}

// Validate enforces the VC invariants from spec §3: type must contain
// HealthCardType, fhirVersion must match \d+\.\d+\.\d+, and fhirBundle must
// be a structurally valid Bundle.
func (p *Processor) Validate(env Envelope, bundleValidator func(fhirbundle.Bundle) error) error {
	if len(env.VC.Type) == 0 {
		return shcerr.FHIRValidation("vc.type must be a non-empty array", nil)
	}
	found := false
	for _, t := range env.VC.Type {
		if t == HealthCardType {
			found = true
			break
		}
	}
	if !found {
		return shcerr.FHIRValidation(fmt.Sprintf("vc.type must contain %q", HealthCardType), nil)
	}

	fhirVersion := env.VC.Subject.FHIRVersion
	if !fhirVersionPattern.MatchString(fhirVersion) {
		return shcerr.FHIRValidation(fmt.Sprintf("vc.credentialSubject.fhirVersion %q does not match \\d+.\\d+.\\d+", fhirVersion), nil)
	}

	if env.VC.Subject.FHIRBundle == nil {
		return shcerr.FHIRValidation("vc.credentialSubject.fhirBundle is required", nil)
	}
	if bundleValidator != nil {
		if err := bundleValidator(env.VC.Subject.FHIRBundle); err != nil {
			return err
		}
	}
	return nil
}
