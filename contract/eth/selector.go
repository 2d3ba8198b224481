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
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/sha3"
)

// SelectorSize is the length of the method selector prefixed to calldata.
const SelectorSize = 4

var selectorCache, _ = lru.New(256)

// Signature returns the canonical method signature,
// as 'transfer(address,uint256)'.
func Signature(name string, types []Type) string {
	args := make([]string, len(types))
	for i, t := range types {
		args[i] = t.String()
	}
	return name + "(" + strings.Join(args, ",") + ")"
}

// Selector returns the first four bytes of the Keccak-256 hash of the
// canonical signature. Results are cached by signature, a contract
// surface reuses the same few methods for its lifetime.
func Selector(signature string) []byte {
	if v, ok := selectorCache.Get(signature); ok {
		return v.([]byte)
	}
	s := Keccak256([]byte(signature))[:SelectorSize]
	selectorCache.Add(signature, s)
	return s
}

// MethodSelector returns the selector of the method with the given name
// and argument types.
func MethodSelector(name string, types []Type) []byte {
	return Selector(Signature(name, types))
}

func Keccak256(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}
