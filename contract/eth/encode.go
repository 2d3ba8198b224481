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
	"math/big"
	"reflect"

	"github.com/ethereum/go-ethereum/common"

	"github.com/icon-project/call-sdk/contract"
)

// WordSize is the unit of the ABI encoding, every static value and
// every offset or length occupies exactly one word.
const WordSize = 32

var (
	maxWord = new(big.Int).Lsh(big.NewInt(1), 256)
	oneWord = big.NewInt(1)
)

// encodeComponents lays out values of the given types as head and tail.
// Static values are encoded in-place in the head, dynamic values leave
// an offset word behind and append their encoding to the tail. Offsets
// are relative to the start of the returned block.
func encodeComponents(types []Type, values []interface{}) ([]byte, error) {
	offset := 0
	for _, t := range types {
		offset += t.HeadSize()
	}
	head := make([]byte, 0, offset)
	var tail []byte
	for i, t := range types {
		if t.IsDynamic() {
			head = append(head, packOffset(offset)...)
			b, err := encodeValue(t, values[i])
			if err != nil {
				return nil, err
			}
			tail = append(tail, b...)
			offset += len(b)
		} else {
			b, err := encodeValue(t, values[i])
			if err != nil {
				return nil, err
			}
			head = append(head, b...)
		}
	}
	return append(head, tail...), nil
}

func encodeValue(t Type, value interface{}) ([]byte, error) {
	switch t.Tag {
	case TString:
		v, err := contract.StringOf(value)
		if err != nil {
			return nil, contract.ErrorCodeInvalidParam.Wrapf(err, "fail to encode string param:%v", value)
		}
		return packBytes([]byte(v)), nil
	case TBytes:
		v, err := contract.BytesOf(value)
		if err != nil {
			return nil, contract.ErrorCodeInvalidParam.Wrapf(err, "fail to encode bytes param:%v", value)
		}
		return packBytes(v), nil
	case TSlice:
		elems, err := elementsOf(value)
		if err != nil {
			return nil, err
		}
		types := make([]Type, len(elems))
		for i := range types {
			types[i] = *t.Elem
		}
		b, err := encodeComponents(types, elems)
		if err != nil {
			return nil, err
		}
		return append(packOffset(len(elems)), b...), nil
	case TArray:
		elems, err := elementsOf(value)
		if err != nil {
			return nil, err
		}
		if len(elems) != t.Size {
			return nil, contract.ErrorCodeArgumentCount.Errorf(
				"mismatch array length expected:%d actual:%d", t.Size, len(elems))
		}
		types := make([]Type, len(elems))
		for i := range types {
			types[i] = *t.Elem
		}
		return encodeComponents(types, elems)
	case TTuple:
		fields, err := fieldValuesOf(t, value)
		if err != nil {
			return nil, err
		}
		types := make([]Type, len(t.Fields))
		for i := range types {
			types[i] = t.Fields[i].Type
		}
		return encodeComponents(types, fields)
	default:
		return packWord(t, value)
	}
}

// packWord encodes a static single-word value.
func packWord(t Type, value interface{}) ([]byte, error) {
	switch t.Tag {
	case TUint, TInt:
		v, err := contract.IntegerOf(value)
		if err != nil {
			return nil, contract.ErrorCodeInvalidParam.Wrapf(err, "fail to encode integer param:%v", value)
		}
		i, err := v.AsBigInt()
		if err != nil {
			return nil, contract.ErrorCodeInvalidParam.Wrapf(err, "fail to encode integer param:%v", value)
		}
		if err = checkIntegerRange(t, i); err != nil {
			return nil, err
		}
		if i.Sign() < 0 {
			i = new(big.Int).Add(maxWord, i)
		}
		word := make([]byte, WordSize)
		i.FillBytes(word)
		return word, nil
	case TAddress:
		v, err := contract.AddressOf(value)
		if err != nil {
			return nil, contract.ErrorCodeInvalidParam.Wrapf(err, "fail to encode address param:%v", value)
		}
		if !common.IsHexAddress(string(v)) {
			return nil, contract.ErrorCodeInvalidParam.Errorf("invalid address param:%v", value)
		}
		word := make([]byte, WordSize)
		copy(word[WordSize-common.AddressLength:], common.HexToAddress(string(v)).Bytes())
		return word, nil
	case TBool:
		v, err := contract.BooleanOf(value)
		if err != nil {
			return nil, contract.ErrorCodeInvalidParam.Wrapf(err, "fail to encode boolean param:%v", value)
		}
		word := make([]byte, WordSize)
		if v {
			word[WordSize-1] = 1
		}
		return word, nil
	case TFixedBytes:
		v, err := contract.BytesOf(value)
		if err != nil {
			return nil, contract.ErrorCodeInvalidParam.Wrapf(err, "fail to encode bytes%d param:%v", t.Size, value)
		}
		if len(v) != t.Size {
			return nil, contract.ErrorCodeValueRange.Errorf(
				"mismatch bytes%d length actual:%d", t.Size, len(v))
		}
		word := make([]byte, WordSize)
		copy(word, v)
		return word, nil
	default:
		return nil, contract.ErrorCodeTypeSyntax.Errorf("not packable type:%s", t.String())
	}
}

// checkIntegerRange validates the value against the declared bit width,
// full word for the sign bit of intN.
func checkIntegerRange(t Type, i *big.Int) error {
	if t.Tag == TUint {
		if i.Sign() < 0 || i.BitLen() > t.Size {
			return contract.ErrorCodeValueRange.Errorf(
				"out of range value:%s for type:%s", i.String(), t.String())
		}
		return nil
	}
	max := new(big.Int).Lsh(oneWord, uint(t.Size-1))
	min := new(big.Int).Neg(max)
	if i.Cmp(min) < 0 || i.Cmp(max) >= 0 {
		return contract.ErrorCodeValueRange.Errorf(
			"out of range value:%s for type:%s", i.String(), t.String())
	}
	return nil
}

// packBytes encodes the length word followed by right-padded content.
func packBytes(b []byte) []byte {
	padded := (len(b) + WordSize - 1) / WordSize * WordSize
	r := make([]byte, WordSize+padded)
	copy(r, packOffset(len(b)))
	copy(r[WordSize:], b)
	return r
}

func packOffset(v int) []byte {
	word := make([]byte, WordSize)
	big.NewInt(int64(v)).FillBytes(word)
	return word
}

// elementsOf normalizes the argument of an array type to a value slice.
func elementsOf(value interface{}) ([]interface{}, error) {
	if l, ok := value.([]interface{}); ok {
		return l, nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		l := make([]interface{}, rv.Len())
		for i := range l {
			l[i] = rv.Index(i).Interface()
		}
		return l, nil
	default:
		return nil, contract.ErrorCodeInvalidParam.Errorf("fail to encode, not array param:%v", value)
	}
}

// fieldValuesOf orders the argument of a tuple type by the declared
// field sequence, accepting Struct, Params or a plain map.
func fieldValuesOf(t Type, value interface{}) ([]interface{}, error) {
	var params contract.Params
	switch v := value.(type) {
	case contract.Struct:
		params = v.Params()
	case *contract.Struct:
		params = v.Params()
	case contract.Params:
		params = v
	case map[string]interface{}:
		params = v
	default:
		return nil, contract.ErrorCodeInvalidParam.Errorf("fail to encode, not struct param:%v", value)
	}
	fields := make([]interface{}, len(t.Fields))
	for i, f := range t.Fields {
		fv, ok := params[f.Name]
		if !ok {
			return nil, contract.ErrorCodeArgumentCount.Errorf("absent field:%s", f.Name)
		}
		fields[i] = fv
	}
	return fields, nil
}
