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

package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const erc20Spec = `[
	{
		"type": "constructor",
		"inputs": [{"name": "supply", "type": "uint256"}]
	},
	{
		"type": "function",
		"name": "balanceOf",
		"stateMutability": "view",
		"inputs": [{"name": "owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"type": "function",
		"name": "transfer",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "to", "type": "address"},
			{"name": "value", "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	},
	{
		"type": "event",
		"name": "Transfer",
		"inputs": [
			{"name": "from", "type": "address", "indexed": true},
			{"name": "to", "type": "address", "indexed": true},
			{"name": "value", "type": "uint256"}
		]
	}
]`

func Test_ParseSpec(t *testing.T) {
	s, err := ParseSpec([]byte(erc20Spec))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(s.Methods))
	assert.Equal(t, 1, len(s.Events))

	m, ok := s.MethodMap["balanceOf"]
	assert.True(t, ok)
	assert.True(t, m.ReadOnly())
	assert.Equal(t, 1, len(m.Inputs))
	assert.NotNil(t, m.InputMap["owner"])

	m, ok = s.MethodMap["transfer"]
	assert.True(t, ok)
	assert.False(t, m.ReadOnly())
	assert.False(t, m.IsPayable())

	e, ok := s.EventMap["Transfer"]
	assert.True(t, ok)
	assert.Equal(t, 2, e.Indexed)
	assert.NotNil(t, e.InputMap["value"])
}

func Test_ParseSpecArtifact(t *testing.T) {
	s, err := ParseSpec([]byte(`{"contractName": "ERC20", "abi": ` + erc20Spec + `}`))
	assert.NoError(t, err)
	assert.Equal(t, 2, len(s.Methods))

	_, err = ParseSpec([]byte(`{"contractName": "ERC20"}`))
	assert.Error(t, err)
}

func Test_ParseSpecLegacyConstant(t *testing.T) {
	s, err := ParseSpec([]byte(`[
		{"type": "function", "name": "totalSupply", "constant": true,
			"inputs": [], "outputs": [{"name": "", "type": "uint256"}]}
	]`))
	assert.NoError(t, err)
	assert.True(t, s.MethodMap["totalSupply"].ReadOnly())
}

func Test_ParamsTypeCheck(t *testing.T) {
	s, err := ParseSpec([]byte(erc20Spec))
	assert.NoError(t, err)
	m := s.MethodMap["transfer"]

	err = ParamsTypeCheck(m, Params{"to": Address("0x01"), "value": FromUint64(1)})
	assert.NoError(t, err)

	err = ParamsTypeCheck(m, Params{"to": Address("0x01")})
	assert.Error(t, err)
	assert.True(t, ErrorCodeArgumentCount.Equals(err))

	err = ParamsTypeCheck(m, Params{"to": Address("0x01"), "amount": FromUint64(1)})
	assert.Error(t, err)
	assert.True(t, ErrorCodeInvalidParam.Equals(err))
}
