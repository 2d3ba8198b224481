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

func StringSetIndex(l []string, v string) int {
	for i, elem := range l {
		if elem == v {
			return i
		}
	}
	return -1
}

func StringSetAdd(l []string, v string) ([]string, bool) {
	i := StringSetIndex(l, v)
	if i < 0 {
		return append(l, v), true
	}
	return l, false
}

func StringSetRemove(l []string, v string) ([]string, bool) {
	i := StringSetIndex(l, v)
	if i >= 0 {
		return append(l[:i], l[i+1:]...), true
	}
	return l, false
}
