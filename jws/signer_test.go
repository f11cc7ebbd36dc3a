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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbprintKid_Deterministic(t *testing.T) {
	key := genKey(t)

	kid1, err := ThumbprintKid(&key.PublicKey)
	require.NoError(t, err)
	kid2, err := ThumbprintKid(&key.PublicKey)
	require.NoError(t, err)

	assert.Equal(t, kid1, kid2)
	assert.NotEmpty(t, kid1)
}

func TestThumbprintKid_DiffersAcrossKeys(t *testing.T) {
	k1 := genKey(t)
	k2 := genKey(t)

	kid1, err := ThumbprintKid(&k1.PublicKey)
	require.NoError(t, err)
	kid2, err := ThumbprintKid(&k2.PublicKey)
	require.NoError(t, err)

	assert.NotEqual(t, kid1, kid2)
}
