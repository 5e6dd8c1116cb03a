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

package aop

import (
	"errors"
	"reflect"

	"github.com/aopkit/aopkit/api/types"
)

// shared test fixtures

type Greeter interface {
	Greet(name string) string
}

type Adder interface {
	Add(a, b int) int
}

var errDivideByZero = errors.New("divide by zero")

type greetService struct {
	prefix string
	calls  int
}

func (s *greetService) Greet(name string) string {
	s.calls++
	return s.prefix + name
}

func (s *greetService) Add(a, b int) int {
	s.calls++
	return a + b
}

func (s *greetService) Divide(a, b int) (int, error) {
	s.calls++
	if b == 0 {
		return 0, errDivideByZero
	}
	return a / b, nil
}

var greeterType = reflect.TypeOf((*Greeter)(nil)).Elem()
var adderType = reflect.TypeOf((*Adder)(nil)).Elem()

// recordingInterceptor appends its name to a shared trace on every call.
type recordingInterceptor struct {
	name  string
	trace *[]string
	order int
}

func (r *recordingInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	*r.trace = append(*r.trace, r.name)
	return invocation.Proceed()
}

func (r *recordingInterceptor) Order() int { return r.order }

// argThresholdMatcher is a runtime matcher that only lets calls through when
// the first int argument is at least the threshold.
type argThresholdMatcher struct {
	threshold int
}

func (m argThresholdMatcher) Matches(reflect.Method, reflect.Type) bool { return true }

func (m argThresholdMatcher) IsRuntime() bool { return true }

func (m argThresholdMatcher) MatchesArgs(_ reflect.Method, _ reflect.Type, args []interface{}) bool {
	if len(args) == 0 {
		return false
	}
	v, ok := args[0].(int)
	return ok && v >= m.threshold
}

func newTestConfig() types.Config {
	config := types.NewConfig()
	config.AdapterRegistry = NewAdviceAdapterRegistry()
	return config
}
