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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/icon-project/btp2/common/errors"
	"github.com/icon-project/btp2/common/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/icon-project/call-sdk/contract"
	"github.com/icon-project/call-sdk/contract/eth"
	"github.com/icon-project/call-sdk/service"
)

const (
	ParamNetwork          = "network"
	ParamTxID             = "txID"
	ParamServiceOrAddress = "serviceOrAddress"
	ParamMethod           = "method"
	ContextAdaptor        = "adaptor"
	ContextService        = "service"
	ContextRequest        = "request"
	GroupUrlApi           = "/api"
	GroupUrlCodec         = "/codec"
)

func Logger(l log.Logger) log.Logger {
	return l.WithFields(log.Fields{log.FieldKeyModule: "api"})
}

type Server struct {
	e    *echo.Echo
	addr string
	aMap map[string]contract.Adaptor
	sMap map[string]service.Service
	oasp *OpenAPISpecProvider
	mtx  sync.RWMutex
	lv   log.Level
	l    log.Logger
}

func NewServer(addr string, transportLogLevel log.Level, l log.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = HttpErrorHandler
	l = Logger(l)
	return &Server{
		e:    e,
		addr: addr,
		aMap: make(map[string]contract.Adaptor),
		sMap: make(map[string]service.Service),
		oasp: NewOpenAPISpecProvider(l),
		lv:   contract.EnsureTransportLogLevel(transportLogLevel),
		l:    l,
	}
}

func (s *Server) AddAdaptor(network string, a contract.Adaptor) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.aMap[network] = a
	s.oasp.PutNetworkToNetworkType(network, a.NetworkType())
}

func (s *Server) GetAdaptor(network string) contract.Adaptor {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.aMap[network]
}

func (s *Server) AddService(svc service.Service) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.sMap[svc.Name()] = svc
	if err := s.oasp.Merge(svc); err != nil {
		s.l.Warnf("fail to Merge OpenAPISpec service:%s err:%+v", svc.Name(), err)
	}
}

func (s *Server) GetService(name string) service.Service {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.sMap[name]
}

func (s *Server) Start() error {
	s.l.Infoln("starting the server")
	// CORS middleware
	s.e.Use(
		middleware.CORSWithConfig(middleware.CORSConfig{
			MaxAge: 3600,
		}),
		middleware.Recover())
	s.RegisterAPIHandler(s.e.Group(GroupUrlApi))
	return s.e.Start(s.addr)
}

type Request struct {
	Params  contract.Params  `json:"params" query:"params"`
	Options contract.Options `json:"options" query:"options"`
}

type ContractRequest struct {
	Request
	Spec json.RawMessage `json:"spec,omitempty" query:"spec"`
}

type EncodeRequest struct {
	Method string                   `json:"method" validate:"required"`
	Inputs []*contract.ArgumentSpec `json:"inputs"`
	Params contract.Params          `json:"params"`
}

type EncodeResponse struct {
	Data contract.Bytes `json:"data"`
}

type DecodeRequest struct {
	Outputs []*contract.ArgumentSpec `json:"outputs" validate:"required"`
	Data    contract.Bytes           `json:"data"`
}

type DecodeResponse struct {
	Value interface{} `json:"value"`
}

func (s *Server) RegisterAPIHandler(g *echo.Group) {
	s.RegisterCodecHandler(g.Group(GroupUrlCodec))

	g.GET("/doc", func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.oasp.Get(c.QueryParam("service")))
	})

	generalApi := g.Group("/:" + ParamNetwork)
	generalApi.Use(middleware.BodyDump(func(c echo.Context, reqBody []byte, resBody []byte) {
		s.l.Debugf("url=%s", c.Request().RequestURI)
		s.l.Logf(s.lv, "request=%s", reqBody)
		s.l.Logf(s.lv, "response=%s", resBody)
	}), func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := c.Param(ParamNetwork)
			a := s.GetAdaptor(p)
			if a == nil {
				return echo.NewHTTPError(http.StatusNotFound,
					fmt.Sprintf("Network(%s) not found", p))
			}
			c.Set(ContextAdaptor, a)
			return next(c)
		}
	})
	generalApi.GET("/result/:"+ParamTxID, func(c echo.Context) error {
		a := c.Get(ContextAdaptor).(contract.Adaptor)
		p := c.Param(ParamTxID)
		ret, err := a.GetResult(p)
		if err != nil {
			s.l.Debugf("fail to GetResult err:%+v", err)
			return err
		}
		return c.JSON(http.StatusOK, ret)
	})

	serviceApi := generalApi.Group("/:" + ParamServiceOrAddress + "/:" + ParamMethod)
	serviceApi.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := &ContractRequest{}
			if err := BindQueryParamsAndUnmarshalBody(c, req); err != nil {
				s.l.Debugf("fail to BindQueryParamsAndUnmarshalBody err:%+v", err)
				return echo.ErrBadRequest
			}
			if err := c.Validate(req); err != nil {
				s.l.Debugf("fail to Validate err:%+v", err)
				return err
			}
			c.Set(ContextRequest, &req.Request)

			network := c.Param(ParamNetwork)
			p := c.Param(ParamServiceOrAddress)
			svc := s.GetService(p)
			if svc == nil {
				address := contract.Address(p)
				if len(req.Spec) > 0 {
					a := c.Get(ContextAdaptor).(contract.Adaptor)
					var err error
					if svc, err = NewContractService(a, req.Spec, address, network, s.l); err != nil {
						s.l.Debugf("fail to NewContractService err:%+v", err)
						return err
					}
					s.AddService(svc)
				} else if svc = s.GetService(ContractServiceName(network, address)); svc == nil {
					return echo.NewHTTPError(http.StatusNotFound,
						fmt.Sprintf("Service(%s) not found", p))
				}
			}
			c.Set(ContextService, svc)

			spec, err := svc.Spec(network)
			if err != nil {
				s.l.Debugf("fail to Spec err:%+v", err)
				return err
			}
			pm := c.Param(ParamMethod)
			m, found := spec.MethodMap[pm]
			if !found {
				return echo.NewHTTPError(http.StatusNotFound,
					fmt.Sprintf("Method(%s) not found", pm))
			}
			hm := c.Request().Method
			if m.ReadOnly() {
				if hm != http.MethodGet {
					return echo.NewHTTPError(http.StatusMethodNotAllowed,
						fmt.Sprintf("HttpMethod(%s) not allowed, use GET", hm))
				}
			} else {
				if hm != http.MethodPost {
					return echo.NewHTTPError(http.StatusMethodNotAllowed,
						fmt.Sprintf("HttpMethod(%s) not allowed, use POST", hm))
				}
			}
			return next(c)
		}
	})
	serviceApi.POST("", func(c echo.Context) error {
		var (
			txID contract.TxID
			err  error
		)
		req := c.Get(ContextRequest).(*Request)
		svc := c.Get(ContextService).(service.Service)
		network := c.Param(ParamNetwork)
		method := c.Param(ParamMethod)
		txID, err = svc.Invoke(network, method, req.Params, req.Options)
		if err != nil {
			s.l.Errorf("fail to Invoke err:%+v", err)
			return err
		}
		return c.JSON(http.StatusOK, txID)
	})
	serviceApi.GET("", func(c echo.Context) error {
		var (
			ret contract.ReturnValue
			err error
		)
		req := c.Get(ContextRequest).(*Request)
		svc := c.Get(ContextService).(service.Service)
		network := c.Param(ParamNetwork)
		method := c.Param(ParamMethod)
		ret, err = svc.Call(network, method, req.Params, req.Options)
		if err != nil {
			s.l.Errorf("fail to Call err:%+v", err)
			return err
		}
		return c.JSON(http.StatusOK, ret)
	})
}

func (s *Server) RegisterCodecHandler(g *echo.Group) {
	g.POST("/encode", func(c echo.Context) error {
		req := &EncodeRequest{}
		if err := UnmarshalRequestBody(c, req); err != nil {
			s.l.Debugf("fail to UnmarshalRequestBody err:%+v", err)
			return echo.ErrBadRequest
		}
		if err := c.Validate(req); err != nil {
			s.l.Debugf("fail to Validate err:%+v", err)
			return err
		}
		m := &contract.MethodSpec{
			Name:   req.Method,
			Inputs: req.Inputs,
		}
		b, err := eth.EncodeCallFor(m, req.Params)
		if err != nil {
			s.l.Debugf("fail to EncodeCallFor err:%+v", err)
			return echo.NewHTTPError(http.StatusBadRequest, err)
		}
		return c.JSON(http.StatusOK, &EncodeResponse{Data: b})
	})
	g.POST("/decode", func(c echo.Context) error {
		req := &DecodeRequest{}
		if err := UnmarshalRequestBody(c, req); err != nil {
			s.l.Debugf("fail to UnmarshalRequestBody err:%+v", err)
			return echo.ErrBadRequest
		}
		if err := c.Validate(req); err != nil {
			s.l.Debugf("fail to Validate err:%+v", err)
			return err
		}
		m := &contract.MethodSpec{
			Outputs: req.Outputs,
		}
		v, err := eth.DecodeResultFor(m, req.Data)
		if err != nil {
			s.l.Debugf("fail to DecodeResultFor err:%+v", err)
			return echo.NewHTTPError(http.StatusBadRequest, err)
		}
		return c.JSON(http.StatusOK, &DecodeResponse{Value: v})
	})
}

func (s *Server) Stop() error {
	s.l.Infoln("shutting down the server")

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}

func BindQueryParamsAndUnmarshalBody(c echo.Context, v interface{}) error {
	if ContainsMapTypeInStructType(reflect.TypeOf(v)) {
		if err := UnmarshalQueryParams(c, v); err != nil {
			return err
		}
	} else {
		if err := c.Bind(v); err != nil && err != echo.ErrUnsupportedMediaType {
			return err
		}
	}
	return UnmarshalRequestBody(c, v)
}

func QueryParamsToMap(c echo.Context) (map[string]interface{}, error) {
	m := make(map[string]interface{})
	for k, v := range c.QueryParams() {
		tm := m
		if start := strings.IndexByte(k, '['); start > 0 && k[len(k)-1] == ']' {
			l := []string{k[:start]}
			l = append(l, strings.Split(k[start+1:len(k)-1], "][")...)
			var (
				elem interface{}
				ok   = false
				last = len(l) - 1
			)
			for i, p := range l {
				if i < last {
					if elem, ok = tm[p]; !ok {
						cm := make(map[string]interface{})
						tm[p] = cm
						tm = cm
					} else if tm, ok = elem.(map[string]interface{}); ok {
						continue
					} else {
						return nil, errors.Errorf("fail cast k:%s i:%d p:%s", k, i, p)
					}
				} else {
					k = p
				}
			}
		}
		switch len(v) {
		case 0:
			tm[k] = nil
		case 1:
			tm[k] = v[0]
		default:
			tm[k] = v
		}
	}
	return m, nil
}

func ContainsMapTypeInStructType(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).Type.Kind() == reflect.Map {
				return true
			} else if t.Field(i).Type.Kind() == reflect.Struct {
				if ContainsMapTypeInStructType(t.Field(i).Type) {
					return true
				}
			}
		}
	}
	return false
}

func UnmarshalQueryParams(c echo.Context, v interface{}) error {
	m, err := QueryParamsToMap(c)
	if err != nil {
		return err
	}
	if len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func UnmarshalRequestBody(c echo.Context, v interface{}) error {
	if c.Request().ContentLength == 0 {
		return nil
	}
	return UnmarshalBody(c.Request().Body, v)
}

func UnmarshalBody(b io.ReadCloser, v interface{}) error {
	defer b.Close()
	if err := json.NewDecoder(b).Decode(v); err != nil {
		return err
	}
	return nil
}
