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
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"

	"github.com/icon-project/call-sdk/contract"
)

const (
	testAddress = "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"
	fromAddress = "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2"
	toAddress   = "0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db"
)

func transferEventSpec(t *testing.T) *contract.EventSpec {
	s := &contract.EventSpec{}
	err := json.Unmarshal([]byte(`{
		"type": "event",
		"name": "Transfer",
		"inputs": [
			{"name": "from", "type": "address", "indexed": true},
			{"name": "to", "type": "address", "indexed": true},
			{"name": "value", "type": "uint256"}
		]
	}`), s)
	if err != nil {
		assert.FailNow(t, "fail to Unmarshal", err)
	}
	return s
}

func transferLog(t *testing.T, value uint64) types.Log {
	fromTopic, err := NewTopic(contract.Address(fromAddress))
	assert.NoError(t, err)
	toTopic, err := NewTopic(contract.Address(toAddress))
	assert.NoError(t, err)
	data, err := EncodeParams([]Type{mustType(t, "uint256")},
		[]interface{}{contract.FromUint64(value)})
	assert.NoError(t, err)
	return types.Log{
		Address: common.HexToAddress(testAddress),
		Topics: []common.Hash{
			common.BytesToHash(Keccak256([]byte("Transfer(address,address,uint256)"))),
			fromTopic,
			toTopic,
		},
		Data: data,
	}
}

func Test_EventFilter(t *testing.T) {
	s := transferEventSpec(t)
	f, err := NewEventFilter(s, contract.Address(testAddress), contract.Params{
		"to": contract.Address(toAddress),
	})
	assert.NoError(t, err)
	assert.Equal(t, "Transfer(address,address,uint256)", f.Signature())

	be := NewBaseEvent(transferLog(t, 1000))
	assert.Equal(t, 2, be.Indexed())
	e, err := f.Filter(be)
	assert.NoError(t, err)
	assert.NotNil(t, e)
	assert.Equal(t, "Transfer", e.Name())
	params := e.Params()
	assert.Equal(t, contract.Address(fromAddress), params["from"])
	assert.Equal(t, contract.Address(toAddress), params["to"])
	assert.Equal(t, contract.FromUint64(1000), params["value"])
}

func Test_EventFilterNotMatched(t *testing.T) {
	s := transferEventSpec(t)
	f, err := NewEventFilter(s, contract.Address(testAddress), contract.Params{
		"value": contract.FromUint64(999),
	})
	assert.NoError(t, err)
	e, err := f.Filter(NewBaseEvent(transferLog(t, 1000)))
	assert.Error(t, err)
	assert.Nil(t, e)
}

func Test_EventIndexedValue(t *testing.T) {
	be := NewBaseEvent(transferLog(t, 1))
	iv := be.IndexedValue(0)
	assert.NotNil(t, iv)
	assert.True(t, iv.Match(contract.Address(fromAddress)))
	assert.False(t, iv.Match(contract.Address(toAddress)))
	assert.Nil(t, be.IndexedValue(2))
}

func Test_TopicFullWidthInteger(t *testing.T) {
	// 2^255, representable as uint256 only
	v := contract.Integer("0x8" + strings.Repeat("0", 63))
	h, err := NewTopic(v)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x80), h[0])
	assert.True(t, EventIndexedValue(h.String()).Match(v))

	n := contract.FromInt64(-1)
	h, err = NewTopic(n)
	assert.NoError(t, err)
	for _, b := range h {
		assert.Equal(t, byte(0xff), b)
	}
	assert.True(t, EventIndexedValue(h.String()).Match(n))
}

func Test_TxFailureRevertReason(t *testing.T) {
	data, err := EncodeCall("Error", []Type{mustType(t, "string")},
		[]interface{}{contract.String("insufficient balance")})
	assert.NoError(t, err)
	f := NewTxFailure(&testDataError{data: "0x" + hex.EncodeToString(data)})
	assert.NotNil(t, f)
	assert.Equal(t, "insufficient balance", f.Reason)
	assert.Contains(t, f.Error(), "insufficient balance")

	assert.Nil(t, NewTxFailure(&testDataError{data: ""}))
}

type testDataError struct {
	data string
}

func (e *testDataError) Error() string {
	return "execution reverted"
}

func (e *testDataError) ErrorData() interface{} {
	return e.data
}
