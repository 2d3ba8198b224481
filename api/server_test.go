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
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/icon-project/btp2/common/log"
	"github.com/stretchr/testify/assert"

	"github.com/icon-project/call-sdk/contract"
)

const (
	testNetwork     = "eth_test"
	testNetworkType = "eth"
	testAddress     = "0x4B20993Bc481177ec7E8f571ceCaE8A9e22C02db"
)

const testServerSpec = `[
  {
    "type": "function",
    "name": "totalSupply",
    "inputs": [],
    "outputs": [{"name": "", "type": "uint256"}],
    "stateMutability": "view"
  },
  {
    "type": "function",
    "name": "transfer",
    "inputs": [
      {"name": "_to", "type": "address"},
      {"name": "_value", "type": "uint256"}
    ],
    "outputs": [{"name": "", "type": "bool"}],
    "stateMutability": "nonpayable"
  }
]`

type testServerHandler struct {
	spec    contract.Spec
	address contract.Address

	callResult   contract.ReturnValue
	invokeResult contract.TxID
}

func (h *testServerHandler) Invoke(method string, params contract.Params, options contract.Options) (contract.TxID, error) {
	return h.invokeResult, nil
}

func (h *testServerHandler) Call(method string, params contract.Params, options contract.Options) (contract.ReturnValue, error) {
	return h.callResult, nil
}

func (h *testServerHandler) EventFilter(name string, params contract.Params) (contract.EventFilter, error) {
	return nil, contract.ErrorCodeNotFoundEvent.Errorf("not found event:%s", name)
}

func (h *testServerHandler) Spec() contract.Spec {
	return h.spec
}

func (h *testServerHandler) Address() contract.Address {
	return h.address
}

type testServerAdaptor struct {
	h *testServerHandler
}

func (a *testServerAdaptor) NetworkType() string {
	return testNetworkType
}

func (a *testServerAdaptor) GetResult(id contract.TxID) (contract.TxResult, error) {
	return nil, contract.ErrorCodeNotFoundTransaction.Errorf("not found transaction:%v", id)
}

func (a *testServerAdaptor) Handler(spec []byte, address contract.Address) (contract.Handler, error) {
	s, err := contract.ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	a.h.spec = *s
	a.h.address = address
	return a.h, nil
}

func newTestServer() *Server {
	l := log.GlobalLogger()
	s := NewServer("localhost:0", log.DebugLevel, l)
	s.AddAdaptor(testNetwork, &testServerAdaptor{h: &testServerHandler{
		callResult:   contract.Integer("0x3e8"),
		invokeResult: contract.Bytes{0x01, 0x02},
	}})
	s.RegisterAPIHandler(s.e.Group(GroupUrlApi))
	return s
}

func serve(s *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reqBody = bytes.NewBuffer(b)
	}
	req := httptest.NewRequest(method, target, reqBody)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func Test_CodecEncode(t *testing.T) {
	s := newTestServer()
	req := &EncodeRequest{
		Method: "transfer",
		Inputs: []*contract.ArgumentSpec{
			{Name: "_to", Type: "address"},
			{Name: "_value", Type: "uint256"},
		},
		Params: contract.Params{
			"_to":    "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4",
			"_value": contract.Integer("0x3e8"),
		},
	}
	rec := serve(s, http.MethodPost, "/api/codec/encode", req)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := &EncodeResponse{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	expected := "a9059cbb" +
		"0000000000000000000000005b38da6a701c568545dcfcb03fcb875f56beddc4" +
		"00000000000000000000000000000000000000000000000000000000000003e8"
	assert.Equal(t, expected, hex.EncodeToString(resp.Data))
}

func Test_CodecEncodeInvalid(t *testing.T) {
	s := newTestServer()

	//absent method name
	rec := serve(s, http.MethodPost, "/api/codec/encode", &EncodeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	//out of range value
	rec = serve(s, http.MethodPost, "/api/codec/encode", &EncodeRequest{
		Method: "f",
		Inputs: []*contract.ArgumentSpec{{Name: "v", Type: "uint8"}},
		Params: contract.Params{"v": contract.Integer("0x100")},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	er := &ErrorResponse{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), er))
	assert.True(t, contract.ErrorCodeValueRange.Equals(er))

	//invalid type string
	rec = serve(s, http.MethodPost, "/api/codec/encode", &EncodeRequest{
		Method: "f",
		Inputs: []*contract.ArgumentSpec{{Name: "v", Type: "uint7"}},
		Params: contract.Params{"v": contract.Integer("0x1")},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	er = &ErrorResponse{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), er))
	assert.True(t, contract.ErrorCodeTypeSyntax.Equals(er))
}

func Test_CodecDecode(t *testing.T) {
	s := newTestServer()
	req := &DecodeRequest{
		Outputs: []*contract.ArgumentSpec{{Name: "", Type: "uint256"}},
		Data:    append(make(contract.Bytes, 30), 0x03, 0xe8),
	}
	rec := serve(s, http.MethodPost, "/api/codec/decode", req)
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := &DecodeResponse{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	assert.Equal(t, "0x3e8", resp.Value)
}

func Test_CodecDecodeTruncated(t *testing.T) {
	s := newTestServer()
	req := &DecodeRequest{
		Outputs: []*contract.ArgumentSpec{{Name: "", Type: "uint256"}},
		Data:    make(contract.Bytes, 16),
	}
	rec := serve(s, http.MethodPost, "/api/codec/decode", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	er := &ErrorResponse{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), er))
	assert.True(t, contract.ErrorCodeTruncatedData.Equals(er))
}

func Test_ServerContractService(t *testing.T) {
	s := newTestServer()

	//register by request carrying the contract definition
	req := &ContractRequest{Spec: json.RawMessage(testServerSpec)}
	rec := serve(s, http.MethodGet,
		"/api/"+testNetwork+"/"+testAddress+"/totalSupply", req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var ret interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ret))
	assert.Equal(t, "0x3e8", ret)

	//registered service resolved without the definition on next request
	assert.NotNil(t, s.GetService(ContractServiceName(testNetwork, testAddress)))
	rec = serve(s, http.MethodGet,
		"/api/"+testNetwork+"/"+testAddress+"/totalSupply", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	//readonly method rejects POST
	rec = serve(s, http.MethodPost,
		"/api/"+testNetwork+"/"+testAddress+"/totalSupply", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	//writable method via POST
	rec = serve(s, http.MethodPost,
		"/api/"+testNetwork+"/"+testAddress+"/transfer",
		&ContractRequest{Request: Request{Params: contract.Params{
			"_to":    "0x5B38Da6a701c568545dCfcB03FcB875f56beddC4",
			"_value": contract.Integer("0x3e8"),
		}}})
	assert.Equal(t, http.StatusOK, rec.Code)

	//unknown method
	rec = serve(s, http.MethodGet,
		"/api/"+testNetwork+"/"+testAddress+"/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	//unknown network
	rec = serve(s, http.MethodGet, "/api/unknown/"+testAddress+"/totalSupply", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_ServerResultNotFound(t *testing.T) {
	s := newTestServer()
	rec := serve(s, http.MethodGet, "/api/"+testNetwork+"/result/0x0102", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	er := &ErrorResponse{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), er))
	assert.True(t, contract.ErrorCodeNotFoundTransaction.Equals(er))
}

func Test_ServerOpenAPIDoc(t *testing.T) {
	s := newTestServer()
	rec := serve(s, http.MethodGet, "/api/doc", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	doc := make(map[string]interface{})
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, openapi3Version, doc["openapi"])
}
