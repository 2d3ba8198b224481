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
	"encoding/hex"

	"github.com/icon-project/btp2/common/errors"
	"github.com/icon-project/btp2/common/log"
	"github.com/icon-project/btp2/common/wallet"

	"github.com/icon-project/call-sdk/contract"
	"github.com/icon-project/call-sdk/contract/eth"
)

type Signer interface {
	Address() string
	Sign(data []byte) ([]byte, error)
	NetworkType() string
}

type defaultSigner struct {
	w           wallet.Wallet
	networkType string
}

func NewDefaultSigner(w wallet.Wallet, networkType string) Signer {
	return &defaultSigner{w: w, networkType: networkType}
}

func (s *defaultSigner) Address() string {
	return s.w.Address()
}

func (s *defaultSigner) Sign(data []byte) ([]byte, error) {
	return s.w.Sign(data)
}

func (s *defaultSigner) NetworkType() string {
	return s.networkType
}

// PrepareToSign fills the 'from' of the invoke options with the signer
// address. With force, an options value of a foreign network type fails
// instead of passing through.
func PrepareToSign(options contract.Options, s Signer, force bool) (contract.Options, error) {
	switch s.NetworkType() {
	case eth.NetworkTypeEth, eth.NetworkTypeBSC:
		opt := &eth.InvokeOptions{}
		if err := contract.DecodeOptions(options, opt); err != nil {
			return nil, err
		}
		if len(opt.From) == 0 {
			opt.From = contract.Address(s.Address())
		}
		return contract.EncodeOptions(opt)
	default:
		if force {
			return nil, errors.Errorf("not support network type:%s", s.NetworkType())
		}
		return options, nil
	}
}

// Sign signs the hash of a RequireSignatureError flow and returns the
// options carrying the signature for the second invoke.
func Sign(data []byte, options contract.Options, s Signer) (contract.Options, error) {
	sig, err := s.Sign(data)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to Sign err:%s", err.Error())
	}
	switch s.NetworkType() {
	case eth.NetworkTypeEth, eth.NetworkTypeBSC:
		opt := &eth.InvokeOptions{}
		if err = contract.DecodeOptions(options, opt); err != nil {
			return nil, err
		}
		if opt.From != contract.Address(s.Address()) {
			return nil, errors.Errorf("mismatch from expect:%s actual:%s", s.Address(), opt.From)
		}
		opt.Signature = sig
		return contract.EncodeOptions(opt)
	default:
		return nil, errors.Errorf("not support network type:%s", s.NetworkType())
	}
}

type SignerService struct {
	s    Service
	wMap map[string]Signer
	l    log.Logger
}

func NewSignerService(s Service, signers map[string]Signer, l log.Logger) (*SignerService, error) {
	return &SignerService{
		s:    s,
		wMap: signers,
		l:    l,
	}, nil
}

func (s *SignerService) Name() string {
	return s.s.Name()
}

func (s *SignerService) Networks() []string {
	return s.s.Networks()
}

func (s *SignerService) Spec(network string) (contract.Spec, error) {
	return s.s.Spec(network)
}

func (s *SignerService) signer(network string) (Signer, error) {
	w, ok := s.wMap[network]
	if !ok {
		return nil, errors.Errorf("not found signer network:%s", network)
	}
	return w, nil
}

// Invoke drives the two-phase invocation, the first attempt collects
// the hash to sign, the second carries the signature.
func (s *SignerService) Invoke(network, method string, params contract.Params, options contract.Options) (contract.TxID, error) {
	w, err := s.signer(network)
	if err != nil {
		return nil, err
	}
	opt, err := PrepareToSign(options, w, false)
	if err != nil {
		return nil, err
	}
	txID, err := s.s.Invoke(network, method, params, opt)
	if err != nil {
		if rse, ok := err.(contract.RequireSignatureError); ok {
			s.l.Debugf("sign network:%s data:%s", network, hex.EncodeToString(rse.Data()))
			if opt, err = Sign(rse.Data(), rse.Options(), w); err != nil {
				return nil, err
			}
			return s.s.Invoke(network, method, params, opt)
		}
		return nil, err
	}
	return txID, nil
}

func (s *SignerService) Call(network, method string, params contract.Params, options contract.Options) (contract.ReturnValue, error) {
	return s.s.Call(network, method, params, options)
}

func (s *SignerService) EventFilters(network string, nameToParams map[string][]contract.Params) ([]contract.EventFilter, error) {
	return s.s.EventFilters(network, nameToParams)
}
