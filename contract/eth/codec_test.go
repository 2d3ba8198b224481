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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icon-project/call-sdk/contract"
)

func mustType(t *testing.T, s string, components ...*contract.ArgumentSpec) Type {
	r, err := ParseType(s, components)
	if err != nil {
		assert.FailNow(t, "fail to ParseType", err)
	}
	return r
}

func mustDecodeHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		assert.FailNow(t, "fail to DecodeString", err)
	}
	return b
}

func Test_EncodeCallTransfer(t *testing.T) {
	types := []Type{mustType(t, "address"), mustType(t, "uint256")}
	b, err := EncodeCall("transfer", types, []interface{}{
		contract.Address("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"),
		contract.FromUint64(1000),
	})
	assert.NoError(t, err)
	expected := mustDecodeHex(t,
		"a9059cbb"+
			"0000000000000000000000005b38da6a701c568545dcfcb03fcb875f56beddc4"+
			"00000000000000000000000000000000000000000000000000000000000003e8")
	assert.Equal(t, expected, b)
}

func Test_EncodeCallArgumentCount(t *testing.T) {
	types := []Type{mustType(t, "uint256")}
	_, err := EncodeCall("foo", types, []interface{}{})
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeArgumentCount.Equals(err))
}

func Test_EncodeIntegerWords(t *testing.T) {
	b, err := EncodeParams([]Type{mustType(t, "int256")}, []interface{}{contract.FromInt64(-1)})
	assert.NoError(t, err)
	assert.Equal(t, WordSize, len(b))
	for _, v := range b {
		assert.Equal(t, byte(0xff), v)
	}

	b, err = EncodeParams([]Type{mustType(t, "uint256")}, []interface{}{contract.FromUint64(0)})
	assert.NoError(t, err)
	assert.Equal(t, make([]byte, WordSize), b)
}

func Test_EncodeIntegerRange(t *testing.T) {
	_, err := EncodeParams([]Type{mustType(t, "uint8")}, []interface{}{contract.FromUint64(256)})
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeValueRange.Equals(err))

	_, err = EncodeParams([]Type{mustType(t, "int8")}, []interface{}{contract.FromInt64(-129)})
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeValueRange.Equals(err))

	_, err = EncodeParams([]Type{mustType(t, "uint256")}, []interface{}{contract.FromInt64(-1)})
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeValueRange.Equals(err))
}

func Test_EncodeString(t *testing.T) {
	b, err := EncodeParams([]Type{mustType(t, "string")}, []interface{}{contract.String("abc")})
	assert.NoError(t, err)
	expected := mustDecodeHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"0000000000000000000000000000000000000000000000000000000000000003"+
			"6162630000000000000000000000000000000000000000000000000000000000")
	assert.Equal(t, expected, b)
}

func Test_EncodeEmptyArray(t *testing.T) {
	b, err := EncodeParams([]Type{mustType(t, "uint256[]")}, []interface{}{[]interface{}{}})
	assert.NoError(t, err)
	expected := mustDecodeHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"0000000000000000000000000000000000000000000000000000000000000000")
	assert.Equal(t, expected, b)
}

func Test_EncodeFixedArrayLength(t *testing.T) {
	_, err := EncodeParams([]Type{mustType(t, "uint256[3]")},
		[]interface{}{[]interface{}{contract.FromUint64(1), contract.FromUint64(2)}})
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeArgumentCount.Equals(err))
}

func Test_EncodeWordAligned(t *testing.T) {
	types := []Type{
		mustType(t, "string"),
		mustType(t, "uint8"),
		mustType(t, "bytes"),
		mustType(t, "bool[2]"),
	}
	b, err := EncodeParams(types, []interface{}{
		contract.String("hello world"),
		contract.FromUint64(7),
		contract.Bytes([]byte{0x01, 0x02, 0x03}),
		[]interface{}{contract.Boolean(true), contract.Boolean(false)},
	})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(b)%WordSize)
}

func Test_RoundTripPrimitives(t *testing.T) {
	types := []Type{
		mustType(t, "uint256"),
		mustType(t, "int8"),
		mustType(t, "bool"),
		mustType(t, "address"),
		mustType(t, "bytes4"),
		mustType(t, "string"),
	}
	args := []interface{}{
		contract.FromUint64(12345678),
		contract.FromInt64(-128),
		contract.Boolean(true),
		contract.Address("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"),
		contract.Bytes([]byte{0xde, 0xad, 0xbe, 0xef}),
		contract.String("round trip"),
	}
	b, err := EncodeParams(types, args)
	assert.NoError(t, err)
	values, err := DecodeParams(b, types)
	assert.NoError(t, err)
	assert.Equal(t, len(args), len(values))
	assert.Equal(t, contract.FromUint64(12345678), values[0])
	assert.Equal(t, contract.FromInt64(-128), values[1])
	assert.Equal(t, contract.Boolean(true), values[2])
	assert.Equal(t, contract.Address("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4"), values[3])
	assert.Equal(t, contract.Bytes([]byte{0xde, 0xad, 0xbe, 0xef}), values[4])
	assert.Equal(t, contract.String("round trip"), values[5])
}

func Test_RoundTripNested(t *testing.T) {
	components := []*contract.ArgumentSpec{
		{Name: "id", Type: "uint256"},
		{Name: "tags", Type: "string[]"},
	}
	types := []Type{mustType(t, "tuple[]", components...)}
	args := []interface{}{
		[]interface{}{
			contract.Params{"id": contract.FromUint64(1), "tags": []interface{}{contract.String("x")}},
			contract.Params{"id": contract.FromUint64(2), "tags": []interface{}{contract.String("y"), contract.String("zz")}},
		},
	}
	b, err := EncodeParams(types, args)
	assert.NoError(t, err)
	values, err := DecodeParams(b, types)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(values))
	l, ok := values[0].([]interface{})
	assert.True(t, ok)
	assert.Equal(t, 2, len(l))
	s1, ok := l[0].(contract.Struct)
	assert.True(t, ok)
	assert.Equal(t, contract.FromUint64(1), s1.Params()["id"])
	assert.Equal(t, []interface{}{contract.String("x")}, s1.Params()["tags"])
	s2, ok := l[1].(contract.Struct)
	assert.True(t, ok)
	assert.Equal(t, contract.FromUint64(2), s2.Params()["id"])
	assert.Equal(t, []interface{}{contract.String("y"), contract.String("zz")}, s2.Params()["tags"])
}

func Test_RoundTripStaticArray(t *testing.T) {
	types := []Type{mustType(t, "uint16[3]")}
	args := []interface{}{[]interface{}{
		contract.FromUint64(1), contract.FromUint64(2), contract.FromUint64(3),
	}}
	b, err := EncodeParams(types, args)
	assert.NoError(t, err)
	assert.Equal(t, 3*WordSize, len(b))
	values, err := DecodeParams(b, types)
	assert.NoError(t, err)
	assert.Equal(t, []interface{}{
		contract.FromUint64(1), contract.FromUint64(2), contract.FromUint64(3),
	}, values[0])
}

func Test_DecodeTruncated(t *testing.T) {
	types := []Type{mustType(t, "string")}
	// offset points past the end of the data
	b := mustDecodeHex(t, "0000000000000000000000000000000000000000000000000000000000000040")
	_, err := DecodeParams(b, types)
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeTruncatedData.Equals(err))

	// length word declares more content than present
	b = mustDecodeHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"00000000000000000000000000000000000000000000000000000000000000ff")
	_, err = DecodeParams(b, types)
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeTruncatedData.Equals(err))

	_, err = DecodeParams([]byte{0x01, 0x02}, []Type{mustType(t, "uint256")})
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeTruncatedData.Equals(err))
}

func Test_DecodeArrayLengthBound(t *testing.T) {
	// length word declares far more elements than the data can hold,
	// must be rejected before any length-proportional allocation
	types := []Type{mustType(t, "uint256[]")}
	b := mustDecodeHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"000000000000000000000000000000000000000000000000000000007fffffff")
	_, err := DecodeParams(b, types)
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeTruncatedData.Equals(err))

	types = []Type{mustType(t, "string[]")}
	b = mustDecodeHex(t,
		"0000000000000000000000000000000000000000000000000000000000000020"+
			"0000000000000000000000000000000000000000000000000000000001000000")
	_, err = DecodeParams(b, types)
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeTruncatedData.Equals(err))
}

func Test_DecodeBool(t *testing.T) {
	types := []Type{mustType(t, "bool")}
	word := make([]byte, WordSize)
	word[WordSize-1] = 1
	values, err := DecodeParams(word, types)
	assert.NoError(t, err)
	assert.Equal(t, contract.Boolean(true), values[0])

	word[WordSize-1] = 2
	_, err = DecodeParams(word, types)
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeValueRange.Equals(err))

	word[0], word[WordSize-1] = 1, 1
	_, err = DecodeParams(word, types)
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeValueRange.Equals(err))
}

func Test_DecodeResultEmpty(t *testing.T) {
	types := []Type{mustType(t, "uint256")}
	_, err := DecodeResult([]byte{}, types)
	assert.Error(t, err)
	assert.True(t, contract.ErrorCodeEmptyResult.Equals(err))

	values, err := DecodeResult([]byte{}, []Type{})
	assert.NoError(t, err)
	assert.Nil(t, values)
}
