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

package advice

import (
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/aopkit/aopkit/aop"
	"github.com/aopkit/aopkit/test/assert"
)

func methodOf(t *testing.T, name string) reflect.Method {
	t.Helper()
	method, ok := reflect.TypeOf(&calcService{}).MethodByName(name)
	if !ok {
		t.Fatalf("no method %s", name)
	}
	return method
}

func TestScriptMethodMatcherStatic(t *testing.T) {
	script := `function Matches(method, argCount, args) {
		return method == "Double" && argCount == 1;
	}`
	matcher, err := NewScriptMethodMatcher(newTestConfig(), script)
	assert.Nil(t, err)
	assert.False(t, matcher.IsRuntime())

	targetType := reflect.TypeOf(&calcService{})
	assert.True(t, matcher.Matches(methodOf(t, "Double"), targetType))
	assert.False(t, matcher.Matches(methodOf(t, "Flaky"), targetType))
}

func TestScriptMethodMatcherDynamic(t *testing.T) {
	script := `function Matches(method, argCount, args) {
		if (!args) {
			return true;
		}
		return args[0] > 10;
	}`
	matcher, err := NewDynamicScriptMethodMatcher(newTestConfig(), script)
	assert.Nil(t, err)
	assert.True(t, matcher.IsRuntime())

	targetType := reflect.TypeOf(&calcService{})
	// the static check of a dynamic matcher always passes
	assert.True(t, matcher.Matches(methodOf(t, "Double"), targetType))
	assert.True(t, matcher.MatchesArgs(methodOf(t, "Double"), targetType, []interface{}{20}))
	assert.False(t, matcher.MatchesArgs(methodOf(t, "Double"), targetType, []interface{}{5}))
}

func TestScriptMethodMatcherErrorMeansNoMatch(t *testing.T) {
	logger := &capturingLogger{}
	config := newTestConfig()
	config.Logger = logger

	matcher, err := NewScriptMethodMatcher(config, `function Matches(method, argCount, args) {
		throw new Error("boom");
	}`)
	assert.Nil(t, err)
	assert.False(t, matcher.Matches(methodOf(t, "Double"), reflect.TypeOf(&calcService{})))
	assert.True(t, len(logger.all()) > 0)
}

func TestScriptMethodMatcherNonBoolResult(t *testing.T) {
	matcher, err := NewScriptMethodMatcher(newTestConfig(), `function Matches(method, argCount, args) {
		return "yes";
	}`)
	assert.Nil(t, err)
	assert.False(t, matcher.Matches(methodOf(t, "Double"), reflect.TypeOf(&calcService{})))
}

func TestScriptMethodMatcherBadScript(t *testing.T) {
	_, err := NewScriptMethodMatcher(newTestConfig(), `function Matches( {`)
	assert.NotNil(t, err)
}

func TestScriptPointcutThroughProxy(t *testing.T) {
	config := newTestConfig()
	pointcut, err := NewScriptPointcut(config, `function Matches(method, argCount, args) {
		return method == "Double";
	}`, false)
	assert.Nil(t, err)

	interceptor := &countingInterceptor{}
	svc := &calcService{}
	factory := aop.NewProxyFactoryFor(svc, config)
	err = factory.AddAdvisor(aop.NewPointcutAdvisor(pointcut, interceptor))
	assert.Nil(t, err)
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	results, err := proxy.Invoke("Double", 3)
	assert.Nil(t, err)
	assert.Equal(t, 6, results[0])
	assert.Equal(t, int32(1), atomic.LoadInt32(&interceptor.calls))

	_, err = proxy.Invoke("Flaky")
	assert.Nil(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&interceptor.calls))
}
