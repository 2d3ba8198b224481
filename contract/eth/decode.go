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
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/icon-project/btp2/common/intconv"

	"github.com/icon-project/call-sdk/contract"
)

// decodeComponents reads values of the given types from the block,
// following the offset words of dynamic types into the tail. The block
// must start at the head of the argument list, offsets are relative to
// it.
func decodeComponents(types []Type, data []byte) ([]interface{}, error) {
	values := make([]interface{}, len(types))
	pos := 0
	for i, t := range types {
		if t.IsDynamic() {
			offset, err := readOffset(data, pos)
			if err != nil {
				return nil, err
			}
			v, err := decodeDynamic(t, data[offset:])
			if err != nil {
				return nil, err
			}
			values[i] = v
			pos += WordSize
		} else {
			if pos+t.HeadSize() > len(data) {
				return nil, contract.ErrorCodeTruncatedData.Errorf(
					"fail to decode %s, data length:%d", t.String(), len(data))
			}
			v, err := decodeStatic(t, data[pos:pos+t.HeadSize()])
			if err != nil {
				return nil, err
			}
			values[i] = v
			pos += t.HeadSize()
		}
	}
	return values, nil
}

// decodeDynamic reads a dynamic value whose encoding starts at the head
// of the block. Sub-region offsets are relative to the block, for array
// types relative to after the length word.
func decodeDynamic(t Type, data []byte) (interface{}, error) {
	switch t.Tag {
	case TString, TBytes:
		b, err := readBytes(data)
		if err != nil {
			return nil, err
		}
		if t.Tag == TString {
			return contract.String(b), nil
		}
		return contract.Bytes(b), nil
	case TSlice:
		length, err := readLength(data)
		if err != nil {
			return nil, err
		}
		// each element occupies at least stride bytes after the length
		// word, the declared count must fit before any allocation
		stride := WordSize
		if !t.Elem.IsDynamic() {
			if stride = t.Elem.HeadSize(); stride < 1 {
				stride = 1
			}
		}
		if int64(length)*int64(stride) > int64(len(data)-WordSize) {
			return nil, contract.ErrorCodeTruncatedData.Errorf(
				"fail to decode %s, length:%d data length:%d", t.String(), length, len(data))
		}
		types := make([]Type, length)
		for i := range types {
			types[i] = *t.Elem
		}
		return decodeComponents(types, data[WordSize:])
	case TArray:
		types := make([]Type, t.Size)
		for i := range types {
			types[i] = *t.Elem
		}
		return decodeComponents(types, data)
	case TTuple:
		return decodeTuple(t, data)
	default:
		return nil, contract.ErrorCodeTypeSyntax.Errorf("not dynamic type:%s", t.String())
	}
}

// decodeStatic reads a static value fully contained in the head slot.
func decodeStatic(t Type, data []byte) (interface{}, error) {
	switch t.Tag {
	case TUint, TInt:
		return readInteger(t, data[:WordSize])
	case TAddress:
		return contract.Address(common.BytesToAddress(data[:WordSize]).String()), nil
	case TBool:
		return readBool(data[:WordSize])
	case TFixedBytes:
		return contract.Bytes(data[:t.Size]), nil
	case TArray:
		values := make([]interface{}, t.Size)
		stride := t.Elem.HeadSize()
		for i := range values {
			v, err := decodeStatic(*t.Elem, data[i*stride:(i+1)*stride])
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return values, nil
	case TTuple:
		return decodeTuple(t, data)
	default:
		return nil, contract.ErrorCodeTypeSyntax.Errorf("not decodable type:%s", t.String())
	}
}

func decodeTuple(t Type, data []byte) (interface{}, error) {
	types := make([]Type, len(t.Fields))
	for i := range types {
		types[i] = t.Fields[i].Type
	}
	values, err := decodeComponents(types, data)
	if err != nil {
		return nil, err
	}
	fields := make([]contract.KeyValue, len(values))
	for i, v := range values {
		fields[i] = contract.KeyValue{Key: t.Fields[i].Name, Value: v}
	}
	return contract.Struct{Fields: fields}, nil
}

// readInteger decodes a full-word integer, negative intN values stored
// as two's complement over the whole word. The decoded value is
// validated against the declared bit width.
func readInteger(t Type, word []byte) (contract.Integer, error) {
	i := new(big.Int).SetBytes(word)
	if t.Tag == TInt && i.Bit(255) == 1 {
		i.Sub(i, maxWord)
	}
	if err := checkIntegerRange(t, i); err != nil {
		return "", err
	}
	return contract.Integer(intconv.FormatBigInt(i)), nil
}

// readBool rejects words that are neither zero nor one, a dirty upper
// part means the data is not a boolean encoding.
func readBool(word []byte) (contract.Boolean, error) {
	for _, b := range word[:WordSize-1] {
		if b != 0 {
			return false, contract.ErrorCodeValueRange.Errorf("invalid boolean word")
		}
	}
	switch word[WordSize-1] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, contract.ErrorCodeValueRange.Errorf("invalid boolean word")
	}
}

// readBytes decodes the length word and the following content with
// bounds checking, the declared length must fit the remaining buffer.
func readBytes(data []byte) ([]byte, error) {
	length, err := readLength(data)
	if err != nil {
		return nil, err
	}
	if WordSize+length > len(data) {
		return nil, contract.ErrorCodeTruncatedData.Errorf(
			"fail to decode bytes, length:%d data length:%d", length, len(data))
	}
	return data[WordSize : WordSize+length], nil
}

func readLength(data []byte) (int, error) {
	if len(data) < WordSize {
		return 0, contract.ErrorCodeTruncatedData.Errorf(
			"fail to decode, absent length word data length:%d", len(data))
	}
	v := new(big.Int).SetBytes(data[:WordSize])
	if !v.IsInt64() || v.Int64() > math.MaxInt32 {
		return 0, contract.ErrorCodeTruncatedData.Errorf("invalid length word:%s", v.String())
	}
	return int(v.Int64()), nil
}

// readOffset reads the offset word at pos and verifies it points inside
// the block.
func readOffset(data []byte, pos int) (int, error) {
	if pos+WordSize > len(data) {
		return 0, contract.ErrorCodeTruncatedData.Errorf(
			"fail to decode, absent offset word data length:%d", len(data))
	}
	v := new(big.Int).SetBytes(data[pos : pos+WordSize])
	if !v.IsInt64() || v.Int64() > math.MaxInt32 {
		return 0, contract.ErrorCodeTruncatedData.Errorf("invalid offset word:%s", v.String())
	}
	offset := int(v.Int64())
	if offset+WordSize > len(data) {
		return 0, contract.ErrorCodeTruncatedData.Errorf(
			"fail to decode, offset:%d out of data length:%d", offset, len(data))
	}
	return offset, nil
}
