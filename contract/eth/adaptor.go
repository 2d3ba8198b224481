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
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	ethLog "github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/icon-project/btp2/common/errors"
	"github.com/icon-project/btp2/common/log"

	"github.com/icon-project/call-sdk/contract"
)

const (
	NetworkTypeEth           = "eth"
	NetworkTypeBSC           = "bsc"
	DefaultGetResultInterval = 2 * time.Second
)

var (
	DefaultGasLimit = uint64(8000000)
	NetworkTypes    = []string{
		NetworkTypeEth,
		NetworkTypeBSC,
	}
)

func init() {
	contract.RegisterAdaptorFactory(NewAdaptor, NetworkTypes...)
}

type Adaptor struct {
	*ethclient.Client
	chainID     *big.Int
	networkType string
	opt         AdaptorOption
	l           log.Logger
}

type AdaptorOption struct {
	TransportLogLevel contract.LogLevel `json:"transport_log_level,omitempty"`
}

func NewAdaptor(networkType string, endpoint string, options contract.Options, l log.Logger) (contract.Adaptor, error) {
	opt := &AdaptorOption{}
	if err := contract.DecodeOptions(options, &opt); err != nil {
		return nil, err
	}
	opt.TransportLogLevel = contract.LogLevel(contract.EnsureTransportLogLevel(opt.TransportLogLevel.Level()))
	ethLog.Root().SetHandler(ethLog.FuncHandler(func(r *ethLog.Record) error {
		l.Log(log.Level(r.Lvl+1), r.Msg)
		return nil
	}))
	rc, err := rpc.DialOptions(
		context.Background(),
		endpoint,
		rpc.WithHTTPClient(contract.NewHttpClient(opt.TransportLogLevel.Level(), l)))
	if err != nil {
		return nil, err
	}
	c := ethclient.NewClient(rc)
	chainID, err := c.ChainID(context.Background())
	if err != nil {
		return nil, errors.Wrapf(err, "fail to ChainID err:%s", err.Error())
	}
	return &Adaptor{
		Client:      c,
		chainID:     chainID,
		networkType: networkType,
		opt:         *opt,
		l:           l,
	}, nil
}

func (a *Adaptor) NetworkType() string {
	return a.networkType
}

func (a *Adaptor) GetResult(id contract.TxID) (contract.TxResult, error) {
	txh, err := contract.BytesOf(id)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to BytesOf, invalid id err:%s", err.Error())
	}
	txr, err := a.TransactionReceipt(context.Background(), common.BytesToHash(txh))
	if err != nil {
		if err == ethereum.NotFound {
			return nil, contract.ErrorCodeNotFoundTransaction.Wrapf(err, "not found txID:%+v", id)
		}
		return nil, errors.Wrapf(err, "fail to TransactionReceipt err:%s", err.Error())
	}
	var txf *TxFailure
	if !IsSuccess(txr) {
		if txf, err = a.TransactionFailureReason(context.Background(), txr.TxHash, txr.BlockNumber); err != nil {
			a.l.Debugf("fail to TransactionFailureReason txID:%+v err:%+v", id, err)
		}
	}
	return NewTxResult(txr, txf), nil
}

func (a *Adaptor) Handler(spec []byte, address contract.Address) (contract.Handler, error) {
	if !common.IsHexAddress(string(address)) {
		return nil, errors.Errorf("invalid address:%s", address)
	}
	return NewHandler(spec, common.HexToAddress(string(address)), a, a.l)
}

// TransactionReceipt waits out the pending state of the transaction
// before asking for the receipt.
func (a *Adaptor) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for {
		_, pending, err := a.Client.TransactionByHash(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if pending {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(DefaultGetResultInterval):
			}
			continue
		}
		return a.Client.TransactionReceipt(ctx, txHash)
	}
}

// TransactionFailureReason replays the failed transaction as a call at
// its block, the node reports the revert reason of the replay.
func (a *Adaptor) TransactionFailureReason(ctx context.Context, txHash common.Hash, blockNumber *big.Int) (*TxFailure, error) {
	tx, pending, err := a.Client.TransactionByHash(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, errors.New("transaction is pending")
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, err
	}
	p := ethereum.CallMsg{
		From:     from,
		To:       tx.To(),
		Gas:      tx.Gas(),
		GasPrice: tx.GasPrice(),
		Value:    tx.Value(),
		Data:     tx.Data(),
	}
	_, err = a.Client.CallContract(ctx, p, blockNumber)
	f := NewTxFailure(err)
	if f == nil {
		return nil, err
	}
	return f, nil
}

func (a *Adaptor) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	r, err := a.Client.EstimateGas(ctx, msg)
	if err != nil {
		if txf := NewTxFailure(err); txf != nil {
			return r, txf
		}
		return r, err
	}
	return r, nil
}

// FilterEvents fetches the logs of the block matching the filters and
// decodes them.
func (a *Adaptor) FilterEvents(ctx context.Context, efs []contract.EventFilter, blockHash common.Hash) ([]contract.Event, error) {
	if len(efs) == 0 {
		return nil, errors.New("EventFilter required")
	}
	fq := ethereum.FilterQuery{BlockHash: &blockHash}
	for _, f := range efs {
		fq.Addresses = append(fq.Addresses, common.HexToAddress(string(f.Address())))
	}
	logs, err := a.Client.FilterLogs(ctx, fq)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to FilterLogs err:%s", err.Error())
	}
	events := make([]contract.Event, 0)
	for _, el := range logs {
		be := NewBaseEvent(el)
		for _, f := range efs {
			if e, _ := f.Filter(be); e != nil {
				events = append(events, e)
			}
		}
	}
	return events, nil
}
