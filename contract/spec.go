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
	"encoding/hex"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/icon-project/btp2/common/errors"
)

// Integer is 0x-prefixed hexadecimal representation of integer value,
// could be negative as '-0x..'
type Integer string

func (i Integer) clearPrefix() string {
	s := string(i)
	if strings.HasPrefix(s, "0x") {
		s = s[2:]
	} else if strings.HasPrefix(s, "-0x") {
		s = "-" + s[3:]
	}
	return s
}

func (i Integer) AsUint64() (uint64, error) {
	return strconv.ParseUint(i.clearPrefix(), 16, 64)
}

func (i Integer) AsInt64() (int64, error) {
	return strconv.ParseInt(i.clearPrefix(), 16, 64)
}

func (i Integer) AsBigInt() (*big.Int, error) {
	r, ok := new(big.Int), false
	if r, ok = r.SetString(i.clearPrefix(), 16); !ok {
		return nil, errors.New("fail to convert big.Int")
	}
	return r, nil
}

func FromUint64(i uint64) Integer {
	return Integer("0x" + strconv.FormatUint(i, 16))
}

func FromInt64(i int64) Integer {
	return Integer("0x" + strconv.FormatInt(i, 16))
}

func FromBytes(b []byte) Integer {
	return Integer("0x" + hex.EncodeToString(b))
}

type Boolean bool
type String string
type Bytes []byte
type Address string

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal("0x" + hex.EncodeToString(b))
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := BytesOf(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

type KeyValue struct {
	Key   string
	Value interface{}
}

// Struct is ordered, named field list. Fields keep the declaration order of
// the contract definition, Params() is provided for by-name access.
type Struct struct {
	Name   string
	Fields []KeyValue
}

func (s Struct) Params() Params {
	p := make(Params)
	for _, f := range s.Fields {
		p[f.Key] = f.Value
	}
	return p
}

type HashValue interface {
	Match(v interface{}) bool
	Bytes() []byte
}

// ArgumentSpec describes single input or output of the contract definition,
// the Type is the ABI type string as 'uint256[3][]', tuple types carry
// the field definitions in Components.
type ArgumentSpec struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Components []*ArgumentSpec `json:"components,omitempty"`
	Indexed    bool            `json:"indexed,omitempty"`
}

type MethodSpec struct {
	Name            string          `json:"name"`
	Inputs          []*ArgumentSpec `json:"inputs"`
	Outputs         []*ArgumentSpec `json:"outputs,omitempty"`
	StateMutability string          `json:"stateMutability,omitempty"`
	Constant        bool            `json:"constant,omitempty"`
	Payable         bool            `json:"payable,omitempty"`

	InputMap map[string]*ArgumentSpec `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (s *MethodSpec) UnmarshalJSON(data []byte) error {
	type tSpec MethodSpec
	if err := json.Unmarshal(data, (*tSpec)(s)); err != nil {
		return err
	}
	s.InputMap = make(map[string]*ArgumentSpec)
	for _, v := range s.Inputs {
		s.InputMap[v.Name] = v
	}
	return nil
}

// ReadOnly reports whether the method could be served by call without
// a transaction. Solidity emits StateMutability since v0.4.16, the legacy
// Constant flag covers definitions compiled before that.
func (s *MethodSpec) ReadOnly() bool {
	switch s.StateMutability {
	case "view", "pure":
		return true
	case "":
		return s.Constant
	default:
		return false
	}
}

func (s *MethodSpec) IsPayable() bool {
	return s.StateMutability == "payable" || s.Payable
}

type EventSpec struct {
	Name      string          `json:"name"`
	Inputs    []*ArgumentSpec `json:"inputs"`
	Anonymous bool            `json:"anonymous,omitempty"`

	InputMap map[string]*ArgumentSpec `json:"-"`
	Indexed  int                      `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (s *EventSpec) UnmarshalJSON(data []byte) error {
	type tSpec EventSpec
	if err := json.Unmarshal(data, (*tSpec)(s)); err != nil {
		return err
	}
	s.InputMap = make(map[string]*ArgumentSpec)
	for _, v := range s.Inputs {
		s.InputMap[v.Name] = v
		if v.Indexed {
			s.Indexed++
		}
	}
	return nil
}

type Spec struct {
	Methods []*MethodSpec
	Events  []*EventSpec

	MethodMap map[string]*MethodSpec
	EventMap  map[string]*EventSpec
}

// UnmarshalJSON implements json.Unmarshaler interface,
// accepts the standard contract ABI definition, a JSON array of
// function/event/constructor entries.
func (s *Spec) UnmarshalJSON(data []byte) error {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.Methods = make([]*MethodSpec, 0)
	s.Events = make([]*EventSpec, 0)
	s.MethodMap = make(map[string]*MethodSpec)
	s.EventMap = make(map[string]*EventSpec)
	for _, raw := range entries {
		e := struct {
			Type string `json:"type"`
		}{}
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		switch e.Type {
		case "function", "":
			m := &MethodSpec{}
			if err := json.Unmarshal(raw, m); err != nil {
				return err
			}
			s.Methods = append(s.Methods, m)
			s.MethodMap[m.Name] = m
		case "event":
			v := &EventSpec{}
			if err := json.Unmarshal(raw, v); err != nil {
				return err
			}
			s.Events = append(s.Events, v)
			s.EventMap[v.Name] = v
		case "constructor", "fallback", "receive", "error":
			//no method to expose
		default:
			return errors.Errorf("not supported entry type:%s", e.Type)
		}
	}
	return nil
}

// ParseSpec parses the contract definition from b, accepts the ABI JSON
// array or an artifact object wrapping it as 'abi' field.
func ParseSpec(b []byte) (*Spec, error) {
	s := &Spec{}
	if err := json.Unmarshal(b, s); err != nil {
		wrapped := struct {
			ABI json.RawMessage `json:"abi"`
		}{}
		if wErr := json.Unmarshal(b, &wrapped); wErr != nil || len(wrapped.ABI) == 0 {
			return nil, errors.Wrapf(err, "fail to ParseSpec err:%s", err.Error())
		}
		if err = json.Unmarshal(wrapped.ABI, s); err != nil {
			return nil, errors.Wrapf(err, "fail to ParseSpec err:%s", err.Error())
		}
	}
	return s, nil
}

func ParamsTypeCheck(s *MethodSpec, params Params) error {
	if len(params) != len(s.Inputs) {
		return ErrorCodeArgumentCount.Errorf(
			"invalid length params method:%s expected:%d actual:%d",
			s.Name, len(s.Inputs), len(params))
	}
	for k := range params {
		if _, ok := s.InputMap[k]; !ok {
			return ErrorCodeInvalidParam.Errorf("not found param name:%s", k)
		}
	}
	return nil
}
