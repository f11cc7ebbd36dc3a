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

package codec

import (
	"fmt"

	"github.com/smarthealthcard/shc-go/shcerr"
)

// numericOffset is the SMART Health Cards QR numeric mapping constant:
// each base64url character c maps to ord(c)-45.
const numericOffset = 45

// numericMax is the largest permissible value of ord(c)-45: base64url's
// widest character is 'z' (122), so 122-45 = 77.
const numericMax = 77

// EncodeNumeric converts a JWS compact-serialization string into the
// digit-pair numeric encoding used inside a QR's numeric-mode segment.
// Every rune of s (including the two '.' separators) is encoded in place;
// callers must pass the literal JWS string, not just its base64url parts.
func EncodeNumeric(s string) (string, error) {
	out := make([]byte, 0, len(s)*2)
	for i := 0; i < len(s); i++ {
		c := int(s[i]) - numericOffset
		if c < 0 || c > numericMax {
			return "", shcerr.QRCode(
				fmt.Sprintf("character %q at offset %d is outside the encodable range", s[i], i), nil)
		}
		out = append(out, byte('0'+c/10), byte('0'+c%10))
	}
	return string(out), nil
}

// DecodeNumeric reverses EncodeNumeric, rejecting odd-length input or any
// digit pair whose value exceeds numericMax.
func DecodeNumeric(digits string) (string, error) {
	if len(digits)%2 != 0 {
		return "", shcerr.QRCode(fmt.Sprintf("numeric payload has odd length %d", len(digits)), nil)
	}
	out := make([]byte, 0, len(digits)/2)
	for i := 0; i < len(digits); i += 2 {
		hi, lo := digits[i], digits[i+1]
		if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
			return "", shcerr.QRCode(fmt.Sprintf("non-digit character in numeric pair at offset %d", i), nil)
		}
		v := int(hi-'0')*10 + int(lo-'0')
		if v > numericMax {
			return "", shcerr.QRCode(fmt.Sprintf("digit pair %d at offset %d exceeds %d", v, i, numericMax), nil)
		}
		out = append(out, byte(v+numericOffset))
	}
	return string(out), nil
}
