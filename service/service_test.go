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

package service

import (
	"testing"

	"github.com/icon-project/btp2/common/log"
	"github.com/stretchr/testify/assert"

	"github.com/icon-project/call-sdk/contract"
)

const testSpec = `[
	{"type": "function", "name": "balanceOf", "stateMutability": "view",
		"inputs": [{"name": "owner", "type": "address"}],
		"outputs": [{"name": "", "type": "uint256"}]},
	{"type": "function", "name": "transfer", "stateMutability": "nonpayable",
		"inputs": [{"name": "to", "type": "address"}, {"name": "value", "type": "uint256"}],
		"outputs": [{"name": "", "type": "bool"}]}
]`

type testHandler struct {
	spec    contract.Spec
	address contract.Address

	invoked   []string
	called    []string
	invokeErr error
}

func (h *testHandler) Invoke(method string, params contract.Params, options contract.Options) (contract.TxID, error) {
	h.invoked = append(h.invoked, method)
	if h.invokeErr != nil {
		err := h.invokeErr
		h.invokeErr = nil
		return nil, err
	}
	return contract.Bytes{0x01}, nil
}

func (h *testHandler) Call(method string, params contract.Params, options contract.Options) (contract.ReturnValue, error) {
	h.called = append(h.called, method)
	return contract.FromUint64(42), nil
}

func (h *testHandler) EventFilter(name string, params contract.Params) (contract.EventFilter, error) {
	return nil, contract.ErrorCodeNotFoundEvent.Errorf("not found event:%s", name)
}

func (h *testHandler) Spec() contract.Spec {
	return h.spec
}

func (h *testHandler) Address() contract.Address {
	return h.address
}

type testAdaptor struct {
	networkType string
	h           *testHandler
}

func (a *testAdaptor) NetworkType() string {
	return a.networkType
}

func (a *testAdaptor) GetResult(id contract.TxID) (contract.TxResult, error) {
	return nil, contract.ErrorCodeNotFoundTransaction.Errorf("not found txID:%+v", id)
}

func (a *testAdaptor) Handler(spec []byte, address contract.Address) (contract.Handler, error) {
	s, err := contract.ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	a.h = &testHandler{spec: *s, address: address}
	return a.h, nil
}

func newTestService(t *testing.T) (*DefaultService, *testAdaptor) {
	a := &testAdaptor{networkType: "eth"}
	networks := map[string]Network{
		"testnet": {
			NetworkType: "eth",
			Adaptor:     a,
			Options: contract.Options{
				"ContractAddress": "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4",
			},
		},
	}
	s, err := NewDefaultService("token", networks, map[string][]byte{"eth": []byte(testSpec)}, log.GlobalLogger())
	if err != nil {
		assert.FailNow(t, "fail to NewDefaultService", err)
	}
	return s, a
}

func Test_DefaultService(t *testing.T) {
	s, a := newTestService(t)
	assert.Equal(t, "token", s.Name())

	spec, err := s.Spec("testnet")
	assert.NoError(t, err)
	assert.NotNil(t, spec.MethodMap["balanceOf"])

	ret, err := s.Call("testnet", "balanceOf", contract.Params{"owner": "0x01"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, contract.FromUint64(42), ret)
	assert.Equal(t, []string{"balanceOf"}, a.h.called)

	txID, err := s.Invoke("testnet", "transfer", contract.Params{}, nil)
	assert.NoError(t, err)
	assert.NotNil(t, txID)

	_, err = s.Call("mainnet", "balanceOf", nil, nil)
	assert.Error(t, err)

	_, err = s.Spec("mainnet")
	assert.Error(t, err)
}

type testSigner struct {
	address string
	signed  [][]byte
}

func (s *testSigner) Address() string {
	return s.address
}

func (s *testSigner) Sign(data []byte) ([]byte, error) {
	s.signed = append(s.signed, data)
	return []byte("signature"), nil
}

func (s *testSigner) NetworkType() string {
	return "eth"
}

func Test_SignerService(t *testing.T) {
	s, a := newTestService(t)
	w := &testSigner{address: "0xAb8483F64d9C6d1EcF9b849Ae677dD3315835cb2"}
	ss, err := NewSignerService(s, map[string]Signer{"testnet": w}, log.GlobalLogger())
	assert.NoError(t, err)
	assert.Equal(t, "token", ss.Name())

	hash := []byte{0xaa, 0xbb}
	options, err := contract.EncodeOptions(struct {
		From contract.Address
	}{From: contract.Address(w.address)})
	assert.NoError(t, err)
	a.h.invokeErr = contract.NewRequireSignatureError(hash, options)

	txID, err := ss.Invoke("testnet", "transfer", contract.Params{}, nil)
	assert.NoError(t, err)
	assert.NotNil(t, txID)
	// first attempt collects the hash, second carries the signature
	assert.Equal(t, []string{"transfer", "transfer"}, a.h.invoked)
	assert.Equal(t, [][]byte{hash}, w.signed)

	_, err = ss.Invoke("mainnet", "transfer", nil, nil)
	assert.Error(t, err)
}
