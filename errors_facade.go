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

import "github.com/smarthealthcard/shc-go/shcerr"

// Error is re-exported at the module root so callers that only import
// "github.com/smarthealthcard/shc-go" never need a second import to
// errors.As into the taxonomy described in spec §7.
type Error = shcerr.Error

// Error code constants, re-exported for the same reason.
const (
	CodeFHIRValidation    = "FHIR_VALIDATION_ERROR"
	CodeJWS               = "JWS_ERROR"
	CodeQRCode            = "QR_CODE_ERROR"
	CodeFileFormat        = "FILE_FORMAT_ERROR"
	CodeFileVerification  = "FILE_VERIFICATION_ERROR"
	CodeVerification      = "VERIFICATION_ERROR"
	CodeCreation          = "CREATION_ERROR"
)
