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
	"sort"

	"github.com/icon-project/btp2/common/errors"
	"github.com/icon-project/btp2/common/log"

	"github.com/icon-project/call-sdk/contract"
)

type DefaultServiceOptions struct {
	ContractAddress contract.Address
}

// DefaultService serves a single contract deployed on each of its
// networks, the handler of each network bound at construction.
type DefaultService struct {
	name string
	m    map[string]contract.Handler
	l    log.Logger
}

func NewDefaultService(name string, networks map[string]Network, typeToSpec map[string][]byte, l log.Logger) (*DefaultService, error) {
	hMap := make(map[string]contract.Handler)
	for network, n := range networks {
		opt := &DefaultServiceOptions{}
		if err := contract.DecodeOptions(n.Options, &opt); err != nil {
			return nil, err
		}
		h, err := n.Adaptor.Handler(typeToSpec[n.NetworkType], opt.ContractAddress)
		if err != nil {
			return nil, err
		}
		hMap[network] = h
	}
	return &DefaultService{
		name: name,
		m:    hMap,
		l:    l,
	}, nil
}

func (s *DefaultService) Name() string {
	return s.name
}

func (s *DefaultService) Networks() []string {
	networks := make([]string, 0, len(s.m))
	for network := range s.m {
		networks = append(networks, network)
	}
	sort.Strings(networks)
	return networks
}

func (s *DefaultService) handler(network string) (contract.Handler, error) {
	h, ok := s.m[network]
	if !ok {
		return nil, errors.Errorf("not found handler network:%s", network)
	}
	return h, nil
}

func (s *DefaultService) Spec(network string) (contract.Spec, error) {
	h, err := s.handler(network)
	if err != nil {
		return contract.Spec{}, err
	}
	return h.Spec(), nil
}

func (s *DefaultService) Invoke(network, method string, params contract.Params, options contract.Options) (contract.TxID, error) {
	h, err := s.handler(network)
	if err != nil {
		return nil, err
	}
	return h.Invoke(method, params, options)
}

func (s *DefaultService) Call(network, method string, params contract.Params, options contract.Options) (contract.ReturnValue, error) {
	h, err := s.handler(network)
	if err != nil {
		return nil, err
	}
	return h.Call(method, params, options)
}

func (s *DefaultService) EventFilters(network string, nameToParams map[string][]contract.Params) ([]contract.EventFilter, error) {
	h, err := s.handler(network)
	if err != nil {
		return nil, err
	}
	return EventFilters(nameToParams, func(name string) (contract.Handler, error) {
		return h, nil
	})
}
