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
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Signature(t *testing.T) {
	assert.Equal(t, "transfer(address,uint256)",
		Signature("transfer", []Type{mustType(t, "address"), mustType(t, "uint256")}))
	assert.Equal(t, "baz(uint32,bool)",
		Signature("baz", []Type{mustType(t, "uint32"), mustType(t, "bool")}))
	assert.Equal(t, "f(uint256,uint32[],bytes10,bytes)",
		Signature("f", []Type{
			mustType(t, "uint"),
			mustType(t, "uint32[]"),
			mustType(t, "bytes10"),
			mustType(t, "bytes"),
		}))
}

func Test_Selector(t *testing.T) {
	args := []struct {
		signature string
		selector  string
	}{
		{"transfer(address,uint256)", "a9059cbb"},
		{"baz(uint32,bool)", "cdcd77c0"},
		{"sam(bytes,bool,uint256[])", "a5643bf2"},
		{"balanceOf(address)", "70a08231"},
	}
	for _, arg := range args {
		assert.Equal(t, arg.selector, hex.EncodeToString(Selector(arg.signature)), arg.signature)
	}
}

func Test_SelectorStability(t *testing.T) {
	s1 := Selector("transfer(address,uint256)")
	s2 := Selector("transfer(address,uint256)")
	assert.Equal(t, s1, s2)
	assert.Equal(t, SelectorSize, len(s1))
}
