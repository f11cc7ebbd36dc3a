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

// Package shcerr implements the SMART Health Card error taxonomy: a single
// closed error type carrying a stable Kind/Code pair plus a message, instead
// of a base-class-and-subtypes hierarchy.
package shcerr

import "fmt"

// Kind identifies which layer of the pipeline produced an Error.
type Kind int

const (
	// KindFHIRValidation covers Bundle or VC structural invariant failures.
	KindFHIRValidation Kind = iota
	// KindJWS covers payload invariants, key import, signing, verification,
	// compression/decompression, and compact-serialization format failures.
	KindJWS
	// KindQRCode covers numeric encode/decode, prefix/chunk shape, and size
	// overflow failures.
	KindQRCode
	// KindFileFormat covers malformed .smart-health-card file wrappers.
	KindFileFormat
	// KindFileVerification covers a structurally valid file whose JWS fails
	// verification.
	KindFileVerification
	// KindVerification covers facade-level verification preconditions
	// (e.g. no public key configured).
	KindVerification
	// KindCreation covers facade-level creation preconditions.
	KindCreation
)

// Code is the stable, machine-readable string for a Kind, per spec §7.
func (k Kind) Code() string {
	switch k {
	case KindFHIRValidation:
		return "FHIR_VALIDATION_ERROR"
	case KindJWS:
		return "JWS_ERROR"
	case KindQRCode:
		return "QR_CODE_ERROR"
	case KindFileFormat:
		return "FILE_FORMAT_ERROR"
	case KindFileVerification:
		return "FILE_VERIFICATION_ERROR"
	case KindVerification:
		return "VERIFICATION_ERROR"
	case KindCreation:
		return "CREATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Error is the single concrete error type every public operation returns.
// It never carries cryptographic material — only what the caller already
// supplied (field names, lengths, codes) plus the wrapped cause's message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

// Unwrap exposes the wrapped cause so callers can errors.As/errors.Is into
// it while still observing a stable Code via the outer Error.
func (e *Error) Unwrap() error { return e.Err }

// Code returns the stable machine-readable code for this error.
func (e *Error) Code() string { return e.Kind.Code() }

func newErr(k Kind, msg string, cause error) *Error {
	return &Error{Kind: k, Message: msg, Err: cause}
}

// FHIRValidation builds a KindFHIRValidation error.
func FHIRValidation(msg string, cause error) *Error { return newErr(KindFHIRValidation, msg, cause) }

// JWS builds a KindJWS error.
func JWS(msg string, cause error) *Error { return newErr(KindJWS, msg, cause) }

// QRCode builds a KindQRCode error.
func QRCode(msg string, cause error) *Error { return newErr(KindQRCode, msg, cause) }

// FileFormat builds a KindFileFormat error.
func FileFormat(msg string, cause error) *Error { return newErr(KindFileFormat, msg, cause) }

// FileVerification builds a KindFileVerification error.
func FileVerification(msg string, cause error) *Error {
	return newErr(KindFileVerification, msg, cause)
}

// Verification builds a KindVerification error.
func Verification(msg string, cause error) *Error { return newErr(KindVerification, msg, cause) }

// Creation builds a KindCreation error.
func Creation(msg string, cause error) *Error { return newErr(KindCreation, msg, cause) }
