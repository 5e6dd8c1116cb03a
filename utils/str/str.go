/*
 * Copyright 2025 The AopKit Authors.
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

// Package str provides utility functions for string manipulation commonly used
// across the AopKit codebase: simple pattern matching for bean names, random
// string generation and value-to-string conversion.
package str

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// SimpleMatch matches a name against a simple pattern. Supported styles:
// exact match, "xxx*" prefix match, "*xxx" suffix match and "*xxx*" substring
// match. A bare "*" matches everything.
func SimpleMatch(pattern, name string) bool {
	if pattern == "*" {
		return true
	}
	starPrefix := strings.HasPrefix(pattern, "*")
	starSuffix := strings.HasSuffix(pattern, "*")
	switch {
	case starPrefix && starSuffix:
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case starPrefix:
		return strings.HasSuffix(name, pattern[1:])
	case starSuffix:
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return pattern == name
	}
}

// SimpleMatchAny reports whether the name matches any of the patterns.
func SimpleMatchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if SimpleMatch(pattern, name) {
			return true
		}
	}
	return false
}

const randomStrOptions = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const randomStrOptionsLen = len(randomStrOptions)

// RandomStr 创建指定长度的随机字符
func RandomStr(num int) string {
	var builder strings.Builder
	for i := 0; i < num; i++ {
		builder.WriteByte(randomStrOptions[rand.Intn(randomStrOptionsLen)])
	}
	return builder.String()
}

// ToString input的值转成字符串,忽略错误
func ToString(input interface{}) string {
	if input == nil {
		return ""
	}
	switch v := input.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", input)
	}
}

// Contains 判断列表是否包含指定字符串
func Contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
