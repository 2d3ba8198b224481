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
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/icon-project/btp2/common/log"

	"github.com/icon-project/call-sdk/contract"
	"github.com/icon-project/call-sdk/contract/eth"
	"github.com/icon-project/call-sdk/service"
)

const (
	openapi3Version     = "3.0.3"
	infoTitlePrefix     = "Call SDK "
	infoTitleSuffix     = " - OpenAPI " + openapi3Version
	infoDefaultVersion  = "0.1.0"
	tagReadonly         = "Readonly"
	tagWritable         = "Writable"
	tagGeneral          = "General"
	tagCodec            = "Codec"
	schemaRefPrefix     = "#/components/schemas/"
	schemaTxID          = "TxID"
	schemaRequest       = "Request"
	schemaOptions       = "Options"
	schemaErrorResponse = "ErrorResponse"
	schemaEncodeRequest = "EncodeRequest"
	schemaDecodeRequest = "DecodeRequest"
	parameterRefPrefix  = "#/components/parameters/"
)

var (
	methodNameRegexp  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	infoLicenseApache = &openapi3.License{
		Name: "Apache 2.0",
		URL:  "http://www.apache.org/licenses/LICENSE-2.0.html",
	}
	externalDocs = &openapi3.ExternalDocs{
		Description: "Find out more about Call SDK",
		URL:         "https://github.com/icon-project/call-sdk",
	}
	integerSchema = openapi3.NewOneOfSchema(
		openapi3.NewStringSchema().WithPattern("^(0x|\\-0x)(0|[1-9a-f][0-9a-f]*)$"),
		openapi3.NewStringSchema().WithPattern("^(|\\-)(0|[1-9][0-9]*)$"),
		openapi3.NewIntegerSchema(),
	)
	booleanSchema = openapi3.NewBoolSchema()
	stringSchema  = openapi3.NewStringSchema()
	bytesSchema   = openapi3.NewOneOfSchema(
		openapi3.NewStringSchema().WithPattern("^0x([0-9a-f][0-9a-f])*$"),
		openapi3.NewBytesSchema(),
	)
	addressSchema = openapi3.NewStringSchema().WithPattern("^0x[0-9a-fA-F]{40}$")
	//ArgumentSpec is self-referential through Components, schema built by
	//hand with the nesting cut at a plain object
	argumentSchema = newArgumentSchema()
	defaultSchemas = map[string]*openapi3.Schema{
		schemaTxID:          bytesSchema,
		schemaRequest:       MustGenerateSchema(&Request{}),
		schemaOptions:       openapi3.NewObjectSchema(),
		schemaErrorResponse: MustGenerateSchema(&ErrorResponse{}),
		schemaEncodeRequest: newEncodeRequestSchema(),
		schemaDecodeRequest: newDecodeRequestSchema(),
	}
	defaultTags = openapi3.Tags{
		NewTag(tagReadonly, "Readonly contract method"),
		NewTag(tagWritable, "Writable contract method"),
	}
)

func newArgumentSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("name", stringSchema).
		WithProperty("type", stringSchema).
		WithProperty("components", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema())).
		WithProperty("indexed", booleanSchema)
	s.Required = []string{"type"}
	return s
}

func newEncodeRequestSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("method", stringSchema).
		WithProperty("inputs", openapi3.NewArraySchema().WithItems(argumentSchema)).
		WithProperty("params", openapi3.NewObjectSchema())
	s.Required = []string{"method"}
	return s
}

func newDecodeRequestSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("outputs", openapi3.NewArraySchema().WithItems(argumentSchema)).
		WithProperty("data", bytesSchema)
	s.Required = []string{"outputs"}
	return s
}

func MustGenerateSchema(v interface{}) *openapi3.Schema {
	ref, err := openapi3gen.NewSchemaRefForValue(v, nil)
	if err != nil {
		log.Panicf("%+v", err)
	}
	return ref.Value
}

func DefaultSchemaRef(name string) *openapi3.SchemaRef {
	if s, ok := defaultSchemas[name]; ok {
		return openapi3.NewSchemaRef(schemaRefPrefix+name, s)
	}
	return nil
}

func NewSchemas() openapi3.Schemas {
	schemas := make(openapi3.Schemas)
	for k, s := range defaultSchemas {
		schemas[k] = s.NewRef()
	}
	return schemas
}

func NewTags() openapi3.Tags {
	tags := make(openapi3.Tags, len(defaultTags))
	copy(tags, defaultTags)
	return tags
}

func TagsIndex(ts openapi3.Tags, name string) int {
	for i, t := range ts {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func NewTag(name, desc string) *openapi3.Tag {
	return &openapi3.Tag{
		Name:        name,
		Description: desc,
	}
}

// TypeToSchemaRef maps the parsed ABI type to the JSON schema of its
// request and response representation.
func TypeToSchemaRef(t eth.Type) *openapi3.SchemaRef {
	var schema *openapi3.Schema
	switch t.Tag {
	case eth.TUint, eth.TInt:
		schema = integerSchema
	case eth.TAddress:
		schema = addressSchema
	case eth.TBool:
		schema = booleanSchema
	case eth.TString:
		schema = stringSchema
	case eth.TBytes, eth.TFixedBytes:
		schema = bytesSchema
	case eth.TArray, eth.TSlice:
		schema = openapi3.NewArraySchema()
		schema.Items = TypeToSchemaRef(*t.Elem)
		if t.Tag == eth.TArray {
			size := uint64(t.Size)
			schema.MinItems = size
			schema.MaxItems = &size
		}
	case eth.TTuple:
		schema = openapi3.NewObjectSchema()
		for _, f := range t.Fields {
			schema.WithPropertyRef(f.Name, TypeToSchemaRef(f.Type))
			schema.Required = append(schema.Required, f.Name)
		}
	default:
		schema = openapi3.NewObjectSchema()
		schema.Description = t.Tag.String()
	}
	return schema.NewRef()
}

// ArgumentsToObjectSchema builds the params object schema, all declared
// arguments required.
func ArgumentsToObjectSchema(args []*contract.ArgumentSpec) (*openapi3.Schema, error) {
	schema := openapi3.NewObjectSchema()
	for _, arg := range args {
		t, err := eth.ParseType(arg.Type, arg.Components)
		if err != nil {
			return nil, err
		}
		schema.WithPropertyRef(arg.Name, TypeToSchemaRef(t))
		schema.Required = append(schema.Required, arg.Name)
	}
	return schema, nil
}

func OutputsToSchemaRef(outputs []*contract.ArgumentSpec) (*openapi3.SchemaRef, error) {
	switch len(outputs) {
	case 0:
		return openapi3.NewObjectSchema().NewRef(), nil
	case 1:
		t, err := eth.ParseType(outputs[0].Type, outputs[0].Components)
		if err != nil {
			return nil, err
		}
		return TypeToSchemaRef(t), nil
	default:
		schema := openapi3.NewArraySchema()
		schema.Items = openapi3.NewObjectSchema().NewRef()
		return schema.NewRef(), nil
	}
}

func NewPathParameterWithSchema(name string, s *openapi3.Schema) *openapi3.Parameter {
	return openapi3.NewPathParameter(name).WithRequired(true).WithSchema(s)
}

func NewPathParameterWithSchemaRef(name string, sr *openapi3.SchemaRef) *openapi3.Parameter {
	p := openapi3.NewPathParameter(name).WithRequired(true)
	p.Schema = sr
	return p
}

func PutParameter(pm openapi3.ParametersMap, p *openapi3.Parameter) *openapi3.ParameterRef {
	pm[p.Name] = &openapi3.ParameterRef{Value: p}
	return &openapi3.ParameterRef{Ref: parameterRefPrefix + p.Name, Value: p}
}

func NewParameters(ps ...*openapi3.Parameter) openapi3.Parameters {
	parameters := make(openapi3.Parameters, 0)
	for _, p := range ps {
		pr := &openapi3.ParameterRef{
			Value: p,
		}
		parameters = append(parameters, pr)
	}
	return parameters
}

func NewSuccessResponse() *openapi3.Response {
	return openapi3.NewResponse().WithDescription("Successful operation")
}

func NewSuccessResponseWithSchema(s *openapi3.Schema) *openapi3.Response {
	return NewSuccessResponse().WithJSONSchema(s)
}

func NewSuccessResponseWithSchemaRef(sr *openapi3.SchemaRef) *openapi3.Response {
	return NewSuccessResponse().WithJSONSchemaRef(sr)
}

func ResponsesWithResponse(m openapi3.Responses, status int, resp *openapi3.Response) openapi3.Responses {
	if m == nil {
		m = make(openapi3.Responses)
	}
	m[strconv.FormatInt(int64(status), 10)] = &openapi3.ResponseRef{
		Value: resp,
	}
	return m
}

func NewStringEnumSchema(strs ...string) *openapi3.Schema {
	values := make([]interface{}, len(strs))
	for i := 0; i < len(strs); i++ {
		values[i] = strs[i]
	}
	return openapi3.NewStringSchema().WithEnum(values...)
}

func NewOpenAPISpec(name string) openapi3.T {
	return openapi3.T{
		OpenAPI: openapi3Version,
		Info: &openapi3.Info{
			Title:   infoTitlePrefix + name + infoTitleSuffix,
			Version: infoDefaultVersion,
			License: infoLicenseApache,
		},
		ExternalDocs: externalDocs,
		Tags:         NewTags(),
		Paths:        make(openapi3.Paths),
		Components: &openapi3.Components{
			Schemas:    NewSchemas(),
			Parameters: make(openapi3.ParametersMap),
		},
	}
}

// NewServiceOpenAPISpec documents every method of the service, the
// methods of each network resolved from the contract definition bound
// to that network.
func NewServiceOpenAPISpec(s service.Service) (openapi3.T, error) {
	oas := NewOpenAPISpec(s.Name())
	oas.Tags = append(oas.Tags, NewTag(s.Name(), fmt.Sprintf("%s Service", s.Name())))
	networks := s.Networks()
	networkParam := NewPathParameterWithSchema(ParamNetwork, NewStringEnumSchema(networks...))
	documented := make(map[string]bool)
	for _, network := range networks {
		spec, err := s.Spec(network)
		if err != nil {
			return oas, err
		}
		for _, m := range spec.Methods {
			if !methodNameRegexp.MatchString(m.Name) || documented[m.Name] {
				continue
			}
			documented[m.Name] = true
			pi, err := NewPathItemForMethodSpec(s.Name(), m)
			if err != nil {
				return oas, err
			}
			pi.Parameters = NewParameters(networkParam)
			path := fmt.Sprintf("%s/{%s}/%s/%s", GroupUrlApi, ParamNetwork, s.Name(), m.Name)
			oas.Paths[path] = pi
		}
	}
	return oas, nil
}

func NewPathItemForMethodSpec(serviceName string, m *contract.MethodSpec) (*openapi3.PathItem, error) {
	params, err := ArgumentsToObjectSchema(m.Inputs)
	if err != nil {
		return nil, err
	}
	req := openapi3.NewObjectSchema().
		WithPropertyRef("options", DefaultSchemaRef(schemaOptions)).
		WithProperty("params", params)
	pi := &openapi3.PathItem{}
	if m.ReadOnly() {
		output, err := OutputsToSchemaRef(m.Outputs)
		if err != nil {
			return nil, err
		}
		pi.Get = &openapi3.Operation{
			Tags:       []string{tagReadonly, serviceName},
			Parameters: NewParameters(openapi3.NewQueryParameter("request").WithSchema(req)),
			Responses: ResponsesWithResponse(nil, http.StatusOK,
				NewSuccessResponseWithSchemaRef(output)),
		}
	} else {
		pi.Post = &openapi3.Operation{
			Tags: []string{tagWritable, serviceName},
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithContent(
					openapi3.NewContentWithJSONSchema(req)),
			},
			Responses: ResponsesWithResponse(nil, http.StatusOK,
				NewSuccessResponseWithSchemaRef(DefaultSchemaRef(schemaTxID))),
		}
	}
	return pi, nil
}

type OpenAPISpecProvider struct {
	n2nt  map[string]string
	nt2ns map[string][]string
	s2d   map[string]openapi3.T
	d     openapi3.T
	npr   *openapi3.ParameterRef //Network ParameterRef
	gpi   openapi3.Paths
	mtx   sync.RWMutex
	l     log.Logger
}

func NewOpenAPISpecProvider(l log.Logger) *OpenAPISpecProvider {
	oas := NewOpenAPISpec("")
	oas.Tags = append(openapi3.Tags{
		NewTag(tagGeneral, "General purpose"),
		NewTag(tagCodec, "Calldata codec"),
	}, oas.Tags...)

	oas.Paths[GroupUrlApi+GroupUrlCodec+"/encode"] = &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:    []string{tagCodec},
			Summary: "Encode method call to calldata",
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithContent(
					openapi3.NewContentWithJSONSchema(DefaultSchemaRef(schemaEncodeRequest).Value)),
			},
			Responses: ResponsesWithResponse(nil, http.StatusOK,
				NewSuccessResponseWithSchema(MustGenerateSchema(&EncodeResponse{}))),
		},
	}
	oas.Paths[GroupUrlApi+GroupUrlCodec+"/decode"] = &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:    []string{tagCodec},
			Summary: "Decode return data by declared outputs",
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithContent(
					openapi3.NewContentWithJSONSchema(DefaultSchemaRef(schemaDecodeRequest).Value)),
			},
			Responses: ResponsesWithResponse(nil, http.StatusOK,
				NewSuccessResponseWithSchema(MustGenerateSchema(&DecodeResponse{}))),
		},
	}

	gpi := make(openapi3.Paths)
	npr := PutParameter(oas.Components.Parameters, NewPathParameterWithSchema(ParamNetwork, NewStringEnumSchema()))

	tpr := PutParameter(oas.Components.Parameters, NewPathParameterWithSchemaRef(ParamTxID, DefaultSchemaRef(schemaTxID)))
	gru, grpi := newGetResultPathItem(npr, tpr)
	gpi[gru] = grpi

	as := openapi3.NewOneOfSchema(openapi3.NewStringSchema())
	as.OneOf = append(as.OneOf, addressSchema.NewRef())
	apr := PutParameter(oas.Components.Parameters, NewPathParameterWithSchema(ParamServiceOrAddress, as))
	mpr := PutParameter(oas.Components.Parameters, NewPathParameterWithSchema(ParamMethod, openapi3.NewStringSchema()))
	mu, mpi := newMethodAPIPathItem(npr, apr, mpr)
	gpi[mu] = mpi

	for k, v := range gpi {
		oas.Paths[k] = v
	}
	return &OpenAPISpecProvider{
		n2nt:  make(map[string]string),
		nt2ns: make(map[string][]string),
		s2d:   make(map[string]openapi3.T),
		d:     oas,
		npr:   npr,
		gpi:   gpi,
		l:     l,
	}
}

func newGetResultPathItem(npr, tpr *openapi3.ParameterRef) (string, *openapi3.PathItem) {
	pi := &openapi3.PathItem{
		Parameters: openapi3.Parameters{npr, tpr},
		Get: &openapi3.Operation{
			Tags:    []string{tagGeneral},
			Summary: "Get result of transaction with given TxID",
			Responses: ResponsesWithResponse(nil, http.StatusOK,
				NewSuccessResponseWithSchema(openapi3.NewObjectSchema())),
		},
	}
	return fmt.Sprintf("%s/{%s}/result/{%s}", GroupUrlApi, npr.Value.Name, tpr.Value.Name), pi
}

func newMethodAPIPathItem(npr, apr, mpr *openapi3.ParameterRef) (string, *openapi3.PathItem) {
	pi := &openapi3.PathItem{
		Parameters: openapi3.Parameters{npr, apr, mpr},
		Get: &openapi3.Operation{
			Tags:    []string{tagGeneral, tagReadonly},
			Summary: "Call readonly method",
			Parameters: NewParameters(openapi3.NewQueryParameter("request").
				WithSchema(DefaultSchemaRef(schemaRequest).Value)),
			Responses: ResponsesWithResponse(nil, http.StatusOK,
				NewSuccessResponseWithSchema(openapi3.NewObjectSchema())),
		},
		Post: &openapi3.Operation{
			Tags:    []string{tagGeneral, tagWritable},
			Summary: "Invoke writable method",
			RequestBody: &openapi3.RequestBodyRef{
				Value: openapi3.NewRequestBody().WithContent(
					openapi3.NewContentWithJSONSchema(DefaultSchemaRef(schemaRequest).Value)),
			},
			Responses: ResponsesWithResponse(nil, http.StatusOK,
				NewSuccessResponseWithSchemaRef(DefaultSchemaRef(schemaTxID))),
		},
	}
	return fmt.Sprintf("%s/{%s}/{%s}/{%s}", GroupUrlApi, npr.Value.Name, apr.Value.Name, mpr.Value.Name), pi
}

func (o *OpenAPISpecProvider) Get(name string) openapi3.T {
	o.mtx.RLock()
	defer o.mtx.RUnlock()

	if len(name) == 0 {
		return o.d
	}
	return o.s2d[name]
}

func (o *OpenAPISpecProvider) PutNetworkToNetworkType(network, networkType string) {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	if ont, ok := o.n2nt[network]; ok {
		if ont == networkType {
			return
		}
		o.l.Debugf("update networkType network:%s old:%s new:%s", network, ont, networkType)
		ons, _ := service.StringSetRemove(o.nt2ns[ont], network)
		o.nt2ns[ont] = ons
		if len(ons) == 0 {
			delete(o.nt2ns, ont)
			if i := TagsIndex(o.d.Tags, ont); i >= 0 {
				o.d.Tags = append(o.d.Tags[:i], o.d.Tags[i+1:]...)
			}
		} else {
			o.d.Tags.Get(ont).Description = strings.Join(ons, ",")
		}
	} else {
		nps := o.npr.Value.Schema.Value
		nps.Enum = append(nps.Enum, network)
	}
	o.n2nt[network] = networkType
	ns, ok := service.StringSetAdd(o.nt2ns[networkType], network)
	o.nt2ns[networkType] = ns
	if ok {
		desc := strings.Join(ns, ",")
		if t := o.d.Tags.Get(networkType); t == nil {
			o.d.Tags = append(o.d.Tags, NewTag(networkType, desc))
		} else {
			t.Description = desc
		}
	}
	o.l.Debugf("PutNetworkToNetworkType network:%s", network)
}

func (o *OpenAPISpecProvider) Merge(svc service.Service) error {
	o.mtx.Lock()
	defer o.mtx.Unlock()

	name := svc.Name()
	if old, ok := o.s2d[name]; ok {
		o.l.Debugf("replace OpenAPISpec service:%s", name)
		for k := range old.Paths {
			delete(o.d.Paths, k)
		}
	}
	ss, err := NewServiceOpenAPISpec(svc)
	if err != nil {
		return err
	}
	o.s2d[name] = ss
	for _, v := range ss.Tags {
		i := TagsIndex(o.d.Tags, v.Name)
		if i >= 0 {
			o.d.Tags[i] = v
		} else {
			o.d.Tags = append(o.d.Tags, v)
		}
	}
	for k, v := range ss.Paths {
		if _, ok := o.d.Paths[k]; ok {
			o.l.Warnf("overwrite OpenAPI path:%s service:%s", k, name)
		}
		o.d.Paths[k] = v
	}
	return nil
}
