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

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/icon-project/btp2/common/errors"
	"github.com/icon-project/btp2/common/log"

	"github.com/icon-project/call-sdk/contract"
	"github.com/icon-project/call-sdk/contract/eth"
	"github.com/icon-project/call-sdk/service"
)

type Client struct {
	*http.Client
	baseUrl       string
	baseApiUrl    string
	networkToType map[string]string
	lv            log.Level
	l             log.Logger
}

func NewClient(url string, networkToType map[string]string, transportLogLevel log.Level, l log.Logger) *Client {
	l = Logger(l)
	return &Client{
		Client:        contract.NewHttpClient(transportLogLevel, l),
		baseUrl:       url,
		baseApiUrl:    url + GroupUrlApi,
		networkToType: networkToType,
		lv:            transportLogLevel,
		l:             l,
	}
}

func (c *Client) apiUrl(format string, args ...interface{}) string {
	return c.baseApiUrl + fmt.Sprintf(format, args...)
}

func (c *Client) do(method, url string, reqPtr, respPtr interface{}) (resp *http.Response, err error) {
	var reqBody io.Reader
	if reqPtr != nil {
		var b []byte
		if b, err = json.Marshal(reqPtr); err != nil {
			c.l.Debugf("fail to encode Request err:%+v", err)
			return nil, err
		}
		reqBody = bytes.NewReader(b)
	}
	if !strings.HasPrefix(url, c.baseApiUrl) {
		url = c.baseApiUrl + url
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		c.l.Debugf("fail to NewRequest err:%+v", err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.l.Debugf("url=%s", req.URL)
	if resp, err = c.Client.Do(req); err != nil {
		return
	}
	if resp.StatusCode/100 != 2 {
		er := &ErrorResponse{}
		if err = UnmarshalBody(resp.Body, er); err != nil {
			c.l.Debugf("fail to decode ErrorResponse err:%+v", err)
			err = errors.Errorf("server response not success, StatusCode:%d",
				resp.StatusCode)
			return
		}
		err = er
		return
	}
	if respPtr != nil {
		if err = UnmarshalBody(resp.Body, respPtr); err != nil {
			c.l.Debugf("fail to decode resp err:%+v", err)
			return
		}
	}
	return
}

func (c *Client) GetResult(network string, id contract.TxID) (interface{}, error) {
	var txr interface{}
	nt, ok := c.networkToType[network]
	if ok {
		switch nt {
		case eth.NetworkTypeEth, eth.NetworkTypeBSC:
			txr = &eth.TxResult{}
		default:
			txr = new(interface{})
		}
	}
	_, err := c.do(http.MethodGet, c.apiUrl("/%s/result/%s", network, id), nil, txr)
	if err != nil {
		return nil, err
	}
	return txr, nil
}

func (c *Client) invoke(url string, req interface{}, s service.Signer) (contract.TxID, error) {
	var (
		p   *contract.Options
		opt contract.Options
		err error
	)
	if s != nil {
		switch t := req.(type) {
		case *Request:
			p = &t.Options
		case *ContractRequest:
			p = &t.Options
		}
		if opt, err = service.PrepareToSign(*p, s, true); err != nil {
			return nil, err
		}
		*p = opt
	}
	var txId contract.TxID
	_, err = c.do(http.MethodPost, url, req, &txId)
	if s != nil && err != nil && contract.ErrorCodeRequireSignature.Equals(err) {
		er := err.(*ErrorResponse)
		rse := &RequireSignatureError{}
		if err = er.UnmarshalData(rse); err != nil {
			return nil, err
		}
		if opt, err = service.Sign(rse.Data, rse.Options, s); err != nil {
			return nil, err
		}
		*p = opt
		_, err = c.do(http.MethodPost, url, req, &txId)
		return txId, err
	}
	return txId, err
}

func (c *Client) Invoke(network string, addr contract.Address, method string, req *ContractRequest, s service.Signer) (contract.TxID, error) {
	return c.invoke(c.apiUrl("/%s/%s/%s", network, addr, method), req, s)
}

func (c *Client) ServiceInvoke(network, svc, method string, req *Request, s service.Signer) (contract.TxID, error) {
	return c.invoke(c.apiUrl("/%s/%s/%s", network, svc, method), req, s)
}

func (c *Client) Call(network string, addr contract.Address, method string, req *ContractRequest, resp interface{}) (*http.Response, error) {
	return c.do(http.MethodGet, c.apiUrl("/%s/%s/%s", network, addr, method), req, resp)
}

func (c *Client) ServiceCall(network, svc, method string, req *Request, resp interface{}) (*http.Response, error) {
	return c.do(http.MethodGet, c.apiUrl("/%s/%s/%s", network, svc, method), req, resp)
}

func (c *Client) Encode(req *EncodeRequest) (contract.Bytes, error) {
	resp := &EncodeResponse{}
	if _, err := c.do(http.MethodPost, c.apiUrl("%s/encode", GroupUrlCodec), req, resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) Decode(req *DecodeRequest) (interface{}, error) {
	resp := &DecodeResponse{}
	if _, err := c.do(http.MethodPost, c.apiUrl("%s/decode", GroupUrlCodec), req, resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}
