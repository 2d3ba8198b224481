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
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/icon-project/btp2/common/errors"
	"github.com/icon-project/btp2/common/log"

	"github.com/icon-project/call-sdk/contract"
)

func NewHandler(spec []byte, address common.Address, a *Adaptor, l log.Logger) (contract.Handler, error) {
	s, err := contract.ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	return &Handler{
		spec:    *s,
		address: address,
		a:       a,
		l:       l,
		signer:  types.LatestSignerForChainID(a.chainID),
	}, nil
}

type Handler struct {
	spec    contract.Spec
	address common.Address
	a       *Adaptor
	l       log.Logger

	signer types.Signer
}

func (h *Handler) method(name string, readonly bool) (*contract.MethodSpec, error) {
	m, ok := h.spec.MethodMap[name]
	if !ok {
		return nil, contract.ErrorCodeNotFoundMethod.Errorf("not found method:%s", name)
	}
	if m.ReadOnly() != readonly {
		return nil, contract.ErrorCodeMismatchReadonly.Errorf(
			"mismatch readonly, method:%s expected:%v", name, readonly)
	}
	return m, nil
}

func (h *Handler) callData(m *contract.MethodSpec, params contract.Params) ([]byte, error) {
	if err := contract.ParamsTypeCheck(m, params); err != nil {
		return nil, err
	}
	b, err := EncodeCallFor(m, params)
	if err != nil {
		return nil, err
	}
	h.l.Tracef("callData method:%s data:%#x", m.Name, b)
	return b, nil
}

type InvokeOptions struct {
	From      contract.Address
	Value     contract.Integer
	GasPrice  contract.Integer
	GasLimit  contract.Integer
	GasFeeCap contract.Integer
	GasTipCap contract.Integer
	Nonce     contract.Integer
	Signature contract.Bytes
	Estimate  contract.Boolean
}

type baseTx struct {
	ChainID   *big.Int
	To        *common.Address `rlp:"nil"` // nil means contract creation
	Data      []byte          // contract invocation input data
	Value     *big.Int        // wei amount
	GasLimit  uint64          // gas limit
	Nonce     uint64          // nonce of sender account
	GasPrice  *big.Int        // wei per gas for LegacyTx
	GasTipCap *big.Int        // wei per gas for DynamicFeeTx
	GasFeeCap *big.Int        // wei per gas for DynamicFeeTx
}

func (p *baseTx) TxData() types.TxData {
	if p.GasPrice != nil {
		return &types.LegacyTx{
			Nonce:    p.Nonce,
			Gas:      p.GasLimit,
			Value:    p.Value,
			GasPrice: p.GasPrice,
			To:       p.To,
			Data:     p.Data,
		}
	} else {
		return &types.DynamicFeeTx{
			Nonce:     p.Nonce,
			Gas:       p.GasLimit,
			Value:     p.Value,
			ChainID:   p.ChainID,
			GasFeeCap: p.GasFeeCap,
			GasTipCap: p.GasTipCap,
			To:        p.To,
			Data:      p.Data,
		}
	}
}

func (h *Handler) newBaseTx(opt *InvokeOptions, data []byte) (p *baseTx, err error) {
	p = &baseTx{
		ChainID:  h.a.chainID,
		To:       &h.address,
		Data:     data,
		GasLimit: DefaultGasLimit,
	}
	if len(opt.Value) > 0 {
		if p.Value, err = opt.Value.AsBigInt(); err != nil {
			return nil, contract.ErrorCodeInvalidOption.Wrapf(err, "invalid 'Value' err:%s", err.Error())
		}
	}
	if len(opt.GasLimit) > 0 {
		if p.GasLimit, err = opt.GasLimit.AsUint64(); err != nil {
			return nil, contract.ErrorCodeInvalidOption.Wrapf(err, "invalid 'GasLimit' err:%s", err.Error())
		}
	}
	if len(opt.Nonce) > 0 {
		if p.Nonce, err = opt.Nonce.AsUint64(); err != nil {
			return nil, contract.ErrorCodeInvalidOption.Wrapf(err, "invalid 'Nonce' err:%s", err.Error())
		}
	}
	if len(opt.GasPrice) > 0 {
		if p.GasPrice, err = opt.GasPrice.AsBigInt(); err != nil {
			return nil, contract.ErrorCodeInvalidOption.Wrapf(err, "invalid 'GasPrice' err:%s", err.Error())
		}
	}
	if len(opt.GasFeeCap) > 0 {
		if p.GasFeeCap, err = opt.GasFeeCap.AsBigInt(); err != nil {
			return nil, contract.ErrorCodeInvalidOption.Wrapf(err, "invalid 'GasFeeCap' err:%s", err.Error())
		}
	}
	if len(opt.GasTipCap) > 0 {
		if p.GasTipCap, err = opt.GasTipCap.AsBigInt(); err != nil {
			return nil, contract.ErrorCodeInvalidOption.Wrapf(err, "invalid 'GasTipCap' err:%s", err.Error())
		}
	}
	if p.GasPrice != nil && (p.GasFeeCap != nil || p.GasTipCap != nil) {
		return nil, contract.ErrorCodeInvalidOption.Errorf("both GasPrice and (GasFeeCap or GasTipCap) specified")
	}
	if opt.Estimate {
		gasLimit, err := h.a.EstimateGas(context.Background(), ethereum.CallMsg{
			To:    &h.address,
			Data:  p.Data,
			Value: p.Value,
		})
		if err != nil {
			return nil, err
		}
		if len(opt.GasLimit) == 0 {
			p.GasLimit = gasLimit
			opt.GasLimit, _ = contract.IntegerOf(gasLimit)
		}
	}
	return p, nil
}

func (h *Handler) prepareSign(opt *InvokeOptions, p *baseTx) (optUpdated bool, err error) {
	if len(opt.GasLimit) == 0 {
		opt.GasLimit = contract.MustIntegerOf(p.GasLimit)
		optUpdated = true
	}
	if len(opt.Nonce) == 0 {
		if len(opt.From) == 0 {
			return false, contract.ErrorCodeInvalidOption.Errorf("required 'from'")
		}
		if !common.IsHexAddress(string(opt.From)) {
			return false, contract.ErrorCodeInvalidOption.Errorf("invalid 'from'")
		}
		from := common.HexToAddress(string(opt.From))
		if p.Nonce, err = h.a.PendingNonceAt(context.Background(), from); err != nil {
			return false, errors.Wrapf(err, "fail to PendingNonceAt err:%s", err.Error())
		}
		opt.Nonce = contract.MustIntegerOf(p.Nonce)
		optUpdated = true
	}
	if p.GasPrice == nil {
		if p.GasFeeCap == nil || p.GasTipCap == nil {
			var head *types.Header
			if head, err = h.a.HeaderByNumber(context.Background(), nil); err != nil {
				return false, errors.Wrapf(err, "fail to HeaderByNumber err:%s", err.Error())
			}
			if head.BaseFee != nil {
				if p.GasTipCap == nil {
					if p.GasTipCap, err = h.a.SuggestGasTipCap(context.Background()); err != nil {
						return false, errors.Wrapf(err, "fail to SuggestGasTipCap err:%s", err.Error())
					}
					opt.GasTipCap = contract.MustIntegerOf(p.GasTipCap)
					optUpdated = true
				}
				if p.GasFeeCap == nil {
					p.GasFeeCap = new(big.Int).Add(
						p.GasTipCap,
						new(big.Int).Mul(head.BaseFee, big.NewInt(2)),
					)
					opt.GasFeeCap = contract.MustIntegerOf(p.GasFeeCap)
					optUpdated = true
				}
				if p.GasFeeCap.Cmp(p.GasTipCap) < 0 {
					return false, contract.ErrorCodeInvalidOption.Errorf(
						"GasFeeCap (%v) < GasTipCap (%v)", p.GasFeeCap, p.GasTipCap)
				}
			} else {
				if p.GasPrice, err = h.a.SuggestGasPrice(context.Background()); err != nil {
					return false, err
				}
				opt.GasPrice = contract.MustIntegerOf(p.GasPrice)
				optUpdated = true
			}
		}
	}
	return optUpdated, nil
}

func (h *Handler) Invoke(method string, params contract.Params, options contract.Options) (contract.TxID, error) {
	m, err := h.method(method, false)
	if err != nil {
		return nil, err
	}
	data, err := h.callData(m, params)
	if err != nil {
		return nil, err
	}
	opt := &InvokeOptions{}
	if err = contract.DecodeOptions(options, opt); err != nil {
		return nil, err
	}
	if len(opt.Value) > 0 && !m.IsPayable() {
		return nil, contract.ErrorCodeInvalidOption.Errorf("not payable method:%s", method)
	}
	p, err := h.newBaseTx(opt, data)
	if err != nil {
		return nil, err
	}
	if len(opt.Signature) == 0 {
		optUpdated := false
		if optUpdated, err = h.prepareSign(opt, p); err != nil {
			return nil, err
		}
		if optUpdated {
			if options, err = contract.EncodeOptions(opt); err != nil {
				return nil, err
			}
		}
		return nil, contract.NewRequireSignatureError(h.signer.Hash(types.NewTx(p.TxData())).Bytes(), options)
	}
	tx, err := types.NewTx(p.TxData()).WithSignature(h.signer, opt.Signature)
	if err != nil {
		return nil, contract.ErrorCodeInvalidOption.Wrapf(err, "fail to WithSignature err:%s", err.Error())
	}
	if err = h.a.SendTransaction(context.Background(), tx); err != nil {
		return nil, errors.Wrapf(err, "fail to SendTransaction err:%s", err.Error())
	}
	return NewTxID(tx.Hash()), nil
}

type CallOption struct {
	From contract.Address
}

func (h *Handler) Call(method string, params contract.Params, options contract.Options) (contract.ReturnValue, error) {
	m, err := h.method(method, true)
	if err != nil {
		return nil, err
	}
	data, err := h.callData(m, params)
	if err != nil {
		return nil, err
	}
	p := ethereum.CallMsg{
		To:   &h.address,
		Data: data,
	}
	opt := &CallOption{}
	if err = contract.DecodeOptions(options, opt); err != nil {
		return nil, err
	}
	if len(opt.From) > 0 {
		p.From = common.HexToAddress(string(opt.From))
	}
	var bs []byte
	if bs, err = h.a.CallContract(context.Background(), p, nil); err != nil {
		return nil, errors.Wrapf(err, "fail to CallContract err:%s", err.Error())
	}
	return DecodeResultFor(m, bs)
}

func (h *Handler) EventFilter(name string, params contract.Params) (contract.EventFilter, error) {
	s, ok := h.spec.EventMap[name]
	if !ok {
		return nil, contract.ErrorCodeNotFoundEvent.Errorf("not found event:%s", name)
	}
	for k := range params {
		if _, ok = s.InputMap[k]; !ok {
			return nil, contract.ErrorCodeInvalidParam.Errorf("not found param name:%s", k)
		}
	}
	return NewEventFilter(s, contract.Address(h.address.String()), params)
}

func (h *Handler) Spec() contract.Spec {
	return h.spec
}

func (h *Handler) Address() contract.Address {
	return contract.Address(h.address.String())
}
