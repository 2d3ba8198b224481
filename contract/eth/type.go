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
	"strconv"
	"strings"

	"github.com/icon-project/call-sdk/contract"
)

type TypeTag int

const (
	TUnknown TypeTag = iota
	TUint
	TInt
	TAddress
	TBool
	TString
	TBytes
	TFixedBytes
	TTuple
	TArray
	TSlice
)

var typeTagNames = []string{
	"Unknown", "Uint", "Int", "Address", "Bool", "String",
	"Bytes", "FixedBytes", "Tuple", "Array", "Slice",
}

func (t TypeTag) String() string {
	return typeTagNames[t]
}

type Field struct {
	Name string
	Type Type
}

// Type is the parsed representation of the ABI type string.
// Size holds the bit width for TUint/TInt, the byte width for TFixedBytes
// and the element count for TArray. Immutable after ParseType, so the
// dynamic-ness derived by IsDynamic stays consistent.
type Type struct {
	Tag    TypeTag
	Size   int
	Elem   *Type
	Fields []Field

	str string
}

// String returns the canonical type name, as 'uint256' not 'uint',
// tuples as the parenthesized list of the canonical field types.
func (t Type) String() string {
	return t.str
}

// IsDynamic reports whether the encoding of the type has variable length.
// string, bytes and T[] are dynamic, T[k] and tuples propagate the
// dynamic-ness of their elements.
func (t Type) IsDynamic() bool {
	switch t.Tag {
	case TString, TBytes, TSlice:
		return true
	case TArray:
		return t.Elem.IsDynamic()
	case TTuple:
		for _, f := range t.Fields {
			if f.Type.IsDynamic() {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// HeadSize returns the number of bytes the type occupies in the head of
// the enclosing argument block. Dynamic types occupy single offset word,
// static arrays and tuples are encoded in-place.
func (t Type) HeadSize() int {
	if t.IsDynamic() {
		return WordSize
	}
	switch t.Tag {
	case TArray:
		return t.Size * t.Elem.HeadSize()
	case TTuple:
		total := 0
		for _, f := range t.Fields {
			total += f.Type.HeadSize()
		}
		return total
	default:
		return WordSize
	}
}

// ParseType parses the ABI type string into Type, scanning trailing
// '[..]' groups right-to-left, empty brackets for dynamic size.
// Components supply the field definitions of tuple base types, the type
// string alone does not carry them.
func ParseType(s string, components []*contract.ArgumentSpec) (Type, error) {
	if strings.Count(s, "[") != strings.Count(s, "]") {
		return Type{}, contract.ErrorCodeTypeSyntax.Errorf("unbalanced brackets in type:%s", s)
	}
	if strings.HasSuffix(s, "]") {
		i := strings.LastIndex(s, "[")
		if i < 1 {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("invalid array type:%s", s)
		}
		elem, err := ParseType(s[:i], components)
		if err != nil {
			return Type{}, err
		}
		dim := s[i+1 : len(s)-1]
		if dim == "" {
			return Type{
				Tag:  TSlice,
				Elem: &elem,
				str:  elem.str + "[]",
			}, nil
		}
		size, err := strconv.Atoi(dim)
		if err != nil || size <= 0 {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("invalid array dimension:%s in type:%s", dim, s)
		}
		return Type{
			Tag:  TArray,
			Size: size,
			Elem: &elem,
			str:  elem.str + "[" + dim + "]",
		}, nil
	}
	return parseBaseType(s, components)
}

func parseBaseType(s string, components []*contract.ArgumentSpec) (Type, error) {
	keyword, size, err := splitTypeKeyword(s)
	if err != nil {
		return Type{}, err
	}
	switch keyword {
	case "uint", "int":
		if size == 0 {
			size = 256
		}
		if size%8 != 0 || size > 256 {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("invalid bit width:%d in type:%s", size, s)
		}
		tag := TUint
		if keyword == "int" {
			tag = TInt
		}
		return Type{Tag: tag, Size: size, str: keyword + strconv.Itoa(size)}, nil
	case "address":
		if size != 0 {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("invalid type:%s", s)
		}
		return Type{Tag: TAddress, str: "address"}, nil
	case "bool":
		if size != 0 {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("invalid type:%s", s)
		}
		return Type{Tag: TBool, str: "bool"}, nil
	case "string":
		if size != 0 {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("invalid type:%s", s)
		}
		return Type{Tag: TString, str: "string"}, nil
	case "bytes":
		if size == 0 {
			return Type{Tag: TBytes, str: "bytes"}, nil
		}
		if size > WordSize {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("invalid byte width:%d in type:%s", size, s)
		}
		return Type{Tag: TFixedBytes, Size: size, str: "bytes" + strconv.Itoa(size)}, nil
	case "tuple":
		if size != 0 {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("invalid type:%s", s)
		}
		if len(components) == 0 {
			return Type{}, contract.ErrorCodeTypeSyntax.Errorf("tuple type requires components")
		}
		fields := make([]Field, len(components))
		names := make([]string, len(components))
		for i, c := range components {
			ft, err := ParseType(c.Type, c.Components)
			if err != nil {
				return Type{}, err
			}
			fields[i] = Field{Name: c.Name, Type: ft}
			names[i] = ft.str
		}
		return Type{
			Tag:    TTuple,
			Fields: fields,
			str:    "(" + strings.Join(names, ",") + ")",
		}, nil
	default:
		return Type{}, contract.ErrorCodeTypeSyntax.Errorf("not supported type:%s", s)
	}
}

// splitTypeKeyword splits 'uint256' into keyword 'uint' and size 256,
// zero size when the keyword has no numeric suffix.
func splitTypeKeyword(s string) (string, int, error) {
	i := 0
	for i < len(s) && (s[i] >= 'a' && s[i] <= 'z') {
		i++
	}
	if i == 0 {
		return "", 0, contract.ErrorCodeTypeSyntax.Errorf("invalid type:%s", s)
	}
	if i == len(s) {
		return s, 0, nil
	}
	size, err := strconv.Atoi(s[i:])
	if err != nil || size <= 0 {
		return "", 0, contract.ErrorCodeTypeSyntax.Errorf("invalid type:%s", s)
	}
	return s[:i], size, nil
}

// ParseTypes parses the ordered argument list of the contract definition.
func ParseTypes(specs []*contract.ArgumentSpec) ([]Type, error) {
	types := make([]Type, len(specs))
	for i, s := range specs {
		t, err := ParseType(s.Type, s.Components)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}
	return types, nil
}
