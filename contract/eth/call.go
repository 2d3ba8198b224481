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
	"github.com/icon-project/btp2/common/log"

	"github.com/icon-project/call-sdk/contract"
)

// EncodeCall builds calldata for the method, the selector followed by
// the argument block.
func EncodeCall(name string, paramTypes []Type, args []interface{}) ([]byte, error) {
	if len(args) != len(paramTypes) {
		return nil, contract.ErrorCodeArgumentCount.Errorf(
			"mismatch arguments expected:%d actual:%d", len(paramTypes), len(args))
	}
	b, err := encodeComponents(paramTypes, args)
	if err != nil {
		return nil, err
	}
	return append(MethodSelector(name, paramTypes), b...), nil
}

// EncodeParams encodes the argument block without the selector, the
// layout of event data and of constructor arguments.
func EncodeParams(types []Type, args []interface{}) ([]byte, error) {
	if len(args) != len(types) {
		return nil, contract.ErrorCodeArgumentCount.Errorf(
			"mismatch arguments expected:%d actual:%d", len(types), len(args))
	}
	return encodeComponents(types, args)
}

// DecodeResult decodes return data into the declared output values.
// Empty data against a non-empty output list fails, eth_call on a
// reverted or non-contract target returns '0x'.
func DecodeResult(data []byte, outputTypes []Type) ([]interface{}, error) {
	if len(outputTypes) == 0 {
		return nil, nil
	}
	if len(data) == 0 {
		return nil, contract.ErrorCodeEmptyResult.Errorf(
			"empty result for %d outputs", len(outputTypes))
	}
	return decodeComponents(outputTypes, data)
}

// DecodeParams decodes an argument block, the counterpart of
// EncodeParams.
func DecodeParams(data []byte, types []Type) ([]interface{}, error) {
	return decodeComponents(types, data)
}

// EncodeCallFor resolves the method from the contract definition and
// encodes calldata from named params.
func EncodeCallFor(method *contract.MethodSpec, params contract.Params) ([]byte, error) {
	types, err := ParseTypes(method.Inputs)
	if err != nil {
		return nil, err
	}
	args := make([]interface{}, len(method.Inputs))
	for i, in := range method.Inputs {
		v, ok := params[in.Name]
		if !ok {
			return nil, contract.ErrorCodeArgumentCount.Errorf("absent param:%s", in.Name)
		}
		args[i] = v
	}
	b, err := EncodeCall(method.Name, types, args)
	if err != nil {
		return nil, err
	}
	log.Tracef("EncodeCallFor method:%s calldata:%#x", method.Name, b)
	return b, nil
}

// DecodeResultFor decodes return data by the declared outputs of the
// method. A single output is returned bare, multiple outputs as a
// slice.
func DecodeResultFor(method *contract.MethodSpec, data []byte) (interface{}, error) {
	types, err := ParseTypes(method.Outputs)
	if err != nil {
		return nil, err
	}
	values, err := DecodeResult(data, types)
	if err != nil {
		return nil, err
	}
	switch len(values) {
	case 0:
		return nil, nil
	case 1:
		return values[0], nil
	default:
		return values, nil
	}
}
