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
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/icon-project/btp2/common/errors"

	"github.com/icon-project/call-sdk/contract"
)

func NewTxID(h common.Hash) contract.TxID {
	return contract.Bytes(h.Bytes())
}

func IsSuccess(txr *types.Receipt) bool {
	return txr.Status == types.ReceiptStatusSuccessful
}

// revertSelector is the selector of Error(string), the encoding of the
// revert reason a node returns as error data.
var revertSelector = MethodSelector("Error", []Type{{Tag: TString, str: "string"}})

type TxFailure struct {
	Reason string
	Data   contract.Bytes
}

func (f *TxFailure) Error() string {
	if len(f.Reason) > 0 {
		return fmt.Sprintf("execution reverted: %s", f.Reason)
	}
	return "execution reverted"
}

// NewTxFailure extracts the revert data of a node error, nil when the
// error carries none.
func NewTxFailure(err error) *TxFailure {
	de, ok := err.(interface{ ErrorData() interface{} })
	if !ok {
		return nil
	}
	s, ok := de.ErrorData().(string)
	if !ok {
		return nil
	}
	b, dErr := hex.DecodeString(stripHexPrefix(s))
	if dErr != nil || len(b) == 0 {
		return nil
	}
	f := &TxFailure{Data: b}
	if len(b) >= SelectorSize && bytes.Equal(b[:SelectorSize], revertSelector) {
		if values, dErr := DecodeParams(b[SelectorSize:], []Type{{Tag: TString, str: "string"}}); dErr == nil {
			f.Reason = string(values[0].(contract.String))
		}
	}
	return f
}

func stripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

type TxResult struct {
	*types.Receipt
	failure *TxFailure
	events  []contract.BaseEvent
}

func NewTxResult(txr *types.Receipt, txf *TxFailure) contract.TxResult {
	r := &TxResult{
		Receipt: txr,
		failure: txf,
		events:  make([]contract.BaseEvent, len(txr.Logs)),
	}
	for i, l := range txr.Logs {
		r.events[i] = NewBaseEvent(*l)
	}
	return r
}

func (r *TxResult) Success() bool {
	return IsSuccess(r.Receipt)
}

func (r *TxResult) Events() []contract.BaseEvent {
	return r.events
}

func (r *TxResult) BlockID() contract.BlockID {
	return contract.Bytes(r.BlockHash.Bytes())
}

func (r *TxResult) BlockHeight() int64 {
	return r.BlockNumber.Int64()
}

func (r *TxResult) TxID() contract.TxID {
	return NewTxID(r.TxHash)
}

func (r *TxResult) Failure() *TxFailure {
	return r.failure
}

func NewBaseEvent(l types.Log) *BaseEvent {
	var sig EventSignature
	if len(l.Topics) > 0 {
		sig = EventSignature(l.Topics[0].String())
	}
	return &BaseEvent{
		Log:       l,
		signature: sig,
		indexed:   len(l.Topics) - 1,
	}
}

type BaseEvent struct {
	types.Log
	signature EventSignature
	indexed   int
}

func (e *BaseEvent) Address() contract.Address {
	return contract.Address(e.Log.Address.String())
}

func (e *BaseEvent) SignatureMatcher() contract.SignatureMatcher {
	return e.signature
}

func (e *BaseEvent) Indexed() int {
	return e.indexed
}

func (e *BaseEvent) IndexedValue(i int) contract.EventIndexedValue {
	if i < e.indexed {
		return EventIndexedValue(e.Topics[i+1].String())
	}
	return nil
}

type EventSignature string

func (s EventSignature) Match(v string) bool {
	return string(s) == common.BytesToHash(Keccak256([]byte(v))).String()
}

type EventIndexedValue string

func (i EventIndexedValue) Match(v interface{}) bool {
	t, err := NewTopic(v)
	if err != nil {
		return false
	}
	return string(i) == t.String()
}

// NewTopic computes the topic word of an indexed value, value kinds
// occupy the word directly, dynamic kinds store their hash.
func NewTopic(value interface{}) (common.Hash, error) {
	switch v := value.(type) {
	case contract.Integer:
		// sign picks the full-width type, the two's complement word is
		// identical either way and uint256 values above 2^255-1 must pass
		// the range check
		t := Type{Tag: TUint, Size: 256, str: "uint256"}
		if i, err := v.AsBigInt(); err != nil {
			return common.Hash{}, err
		} else if i.Sign() < 0 {
			t = Type{Tag: TInt, Size: 256, str: "int256"}
		}
		b, err := packWord(t, v)
		if err != nil {
			return common.Hash{}, err
		}
		return common.BytesToHash(b), nil
	case contract.Boolean:
		b, err := packWord(Type{Tag: TBool, str: "bool"}, v)
		if err != nil {
			return common.Hash{}, err
		}
		return common.BytesToHash(b), nil
	case contract.Address:
		b, err := packWord(Type{Tag: TAddress, str: "address"}, v)
		if err != nil {
			return common.Hash{}, err
		}
		return common.BytesToHash(b), nil
	case contract.String:
		return common.BytesToHash(Keccak256([]byte(v))), nil
	case contract.Bytes:
		return common.BytesToHash(Keccak256(v)), nil
	default:
		p, err := contract.ParamOf(value)
		if err != nil {
			return common.Hash{}, errors.Errorf("not supported topic value %T", value)
		}
		return NewTopic(p)
	}
}

// HashValue stands in for an indexed dynamic value, the log keeps the
// hash only.
type HashValue []byte

func (h HashValue) Match(v interface{}) bool {
	var b []byte
	switch t := v.(type) {
	case contract.String:
		b = []byte(t)
	case string:
		b = []byte(t)
	case contract.Bytes:
		b = t
	case []byte:
		b = t
	default:
		return false
	}
	return bytes.Equal(h, Keccak256(b))
}

func (h HashValue) Bytes() []byte {
	return h
}

func (h HashValue) String() string {
	return hex.EncodeToString(h)
}

type Event struct {
	contract.BaseEvent
	signature string
	name      string
	params    contract.Params
}

func (e *Event) Signature() string {
	return e.signature
}

func (e *Event) Name() string {
	return e.name
}

func (e *Event) Params() contract.Params {
	return e.params
}

const (
	failIfNotMatchedInEventFilter = true
)

type EventFilter struct {
	spec      *contract.EventSpec
	address   contract.Address
	signature string
	types     []Type
	params    contract.Params
}

func NewEventFilter(s *contract.EventSpec, address contract.Address, params contract.Params) (contract.EventFilter, error) {
	types, err := ParseTypes(s.Inputs)
	if err != nil {
		return nil, err
	}
	return &EventFilter{
		spec:      s,
		address:   address,
		signature: Signature(s.Name, types),
		types:     types,
		params:    params,
	}, nil
}

func (f *EventFilter) Signature() string {
	return f.signature
}

func (f *EventFilter) Address() contract.Address {
	return f.address
}

// Filter decodes the event when it matches the definition and the
// filter params, indexed values of dynamic types match by hash.
func (f *EventFilter) Filter(event contract.BaseEvent) (contract.Event, error) {
	if f.address != event.Address() {
		if failIfNotMatchedInEventFilter {
			return nil, errors.Errorf("address expect:%v actual:%v",
				f.address, event.Address())
		}
		return nil, nil
	}
	if !event.SignatureMatcher().Match(f.signature) {
		if failIfNotMatchedInEventFilter {
			return nil, errors.Errorf("signature expect:%v", f.signature)
		}
		return nil, nil
	}
	if event.Indexed() != f.spec.Indexed {
		if failIfNotMatchedInEventFilter {
			return nil, errors.Errorf("indexed expect:%v actual:%v",
				f.spec.Indexed, event.Indexed())
		}
		return nil, nil
	}
	l, ok := event.(*BaseEvent)
	if !ok {
		return nil, errors.Errorf("invalid type event %T", event)
	}
	params, err := f.decodeParams(l)
	if err != nil {
		return nil, err
	}
	for k, p := range f.params {
		v := params[k]
		matched := false
		if hv, ok := v.(HashValue); ok {
			matched = hv.Match(p)
		} else if matched, err = f.matchParam(k, p, v); err != nil {
			return nil, err
		}
		if !matched {
			if failIfNotMatchedInEventFilter {
				return nil, errors.Errorf("name:%s expect:%v actual:%v", k, p, v)
			}
			return nil, nil
		}
	}
	return &Event{
		BaseEvent: event,
		signature: f.signature,
		name:      f.spec.Name,
		params:    params,
	}, nil
}

func (f *EventFilter) decodeParams(l *BaseEvent) (contract.Params, error) {
	params := make(contract.Params)
	dataTypes := make([]Type, 0)
	dataNames := make([]string, 0)
	topicIdx := 1
	for i, s := range f.spec.Inputs {
		t := f.types[i]
		if s.Indexed {
			topic := l.Topics[topicIdx]
			topicIdx++
			if t.IsDynamic() || t.Tag == TTuple || t.Tag == TArray {
				params[s.Name] = HashValue(topic.Bytes())
			} else {
				v, err := decodeStatic(t, topic.Bytes())
				if err != nil {
					return nil, err
				}
				params[s.Name] = v
			}
			continue
		}
		dataTypes = append(dataTypes, t)
		dataNames = append(dataNames, s.Name)
	}
	if len(dataTypes) > 0 {
		values, err := DecodeParams(l.Data, dataTypes)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			params[dataNames[i]] = v
		}
	}
	return params, nil
}

// matchParam compares the expected filter value with the decoded one by
// their encodings, a value kind agnostic equality.
func (f *EventFilter) matchParam(name string, expect, actual interface{}) (bool, error) {
	t, err := ParseType(f.spec.InputMap[name].Type, f.spec.InputMap[name].Components)
	if err != nil {
		return false, err
	}
	eb, err := encodeValue(t, expect)
	if err != nil {
		return false, contract.ErrorCodeInvalidParam.Wrapf(err, "invalid filter param:%s err:%s", name, err.Error())
	}
	ab, err := encodeValue(t, actual)
	if err != nil {
		return false, err
	}
	return bytes.Equal(eb, ab), nil
}
