/*
 * Copyright 2023 ICON Foundation
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package eth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icon-project/call-sdk/contract"
)

func Test_ParseTypeCanonical(t *testing.T) {
	args := []struct {
		typeString string
		canonical  string
		dynamic    bool
	}{
		{"uint", "uint256", false},
		{"int", "int256", false},
		{"uint8", "uint8", false},
		{"address", "address", false},
		{"bool", "bool", false},
		{"bytes32", "bytes32", false},
		{"bytes", "bytes", true},
		{"string", "string", true},
		{"uint256[]", "uint256[]", true},
		{"uint256[3]", "uint256[3]", false},
		{"string[2]", "string[2]", true},
		{"uint[3][]", "uint256[3][]", true},
	}
	for _, arg := range args {
		r, err := ParseType(arg.typeString, nil)
		assert.NoError(t, err, arg.typeString)
		assert.Equal(t, arg.canonical, r.String(), arg.typeString)
		assert.Equal(t, arg.dynamic, r.IsDynamic(), arg.typeString)
	}
}

func Test_ParseTypeTuple(t *testing.T) {
	components := []*contract.ArgumentSpec{
		{Name: "to", Type: "address"},
		{Name: "data", Type: "bytes"},
	}
	r, err := ParseType("tuple", components)
	assert.NoError(t, err)
	assert.Equal(t, "(address,bytes)", r.String())
	assert.True(t, r.IsDynamic())

	static := []*contract.ArgumentSpec{
		{Name: "x", Type: "uint128"},
		{Name: "y", Type: "uint128"},
	}
	r, err = ParseType("tuple", static)
	assert.NoError(t, err)
	assert.Equal(t, "(uint128,uint128)", r.String())
	assert.False(t, r.IsDynamic())
	assert.Equal(t, 2*WordSize, r.HeadSize())
}

func Test_ParseTypeSyntax(t *testing.T) {
	for _, s := range []string{
		"", "uint7", "uint264", "int0", "bytes33", "bytes0",
		"uint256[", "uint256[]]", "[]", "uint256[0]", "uint256[-1]",
		"address1", "bool8", "tuple", "blob",
	} {
		_, err := ParseType(s, nil)
		assert.Error(t, err, s)
		assert.True(t, contract.ErrorCodeTypeSyntax.Equals(err), s)
	}
}

func Test_HeadSize(t *testing.T) {
	assert.Equal(t, WordSize, mustType(t, "uint256").HeadSize())
	assert.Equal(t, WordSize, mustType(t, "string").HeadSize())
	assert.Equal(t, WordSize, mustType(t, "uint256[]").HeadSize())
	assert.Equal(t, 3*WordSize, mustType(t, "uint256[3]").HeadSize())
	assert.Equal(t, 6*WordSize, mustType(t, "uint128[3][2]").HeadSize())
	// dynamic element collapses the array to a single offset word
	assert.Equal(t, WordSize, mustType(t, "string[4]").HeadSize())
}
