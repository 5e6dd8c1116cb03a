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
	"reflect"
	"testing"

	"github.com/aopkit/aopkit/test/assert"
)

func TestLazyInitTargetSourceCreatesOnce(t *testing.T) {
	created := 0
	ts := NewLazyInitTargetSource(reflect.TypeOf(&greetService{}), func() (interface{}, error) {
		created++
		return &greetService{prefix: "lazy "}, nil
	})
	assert.False(t, ts.IsStatic())
	assert.Equal(t, 0, created)

	first, err := ts.GetTarget()
	assert.Nil(t, err)
	second, err := ts.GetTarget()
	assert.Nil(t, err)
	assert.Equal(t, 1, created)
	assert.True(t, first == second)
}

func TestLazyTargetThroughProxy(t *testing.T) {
	created := 0
	ts := NewLazyInitTargetSource(reflect.TypeOf(&greetService{}), func() (interface{}, error) {
		created++
		return &greetService{prefix: "lazy "}, nil
	})
	factory := NewProxyFactory(newTestConfig())
	factory.SetTargetSource(ts)
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)
	assert.Equal(t, 0, created)

	result, err := proxy.Invoke("Greet", "bob")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"lazy bob"}, result)
	assert.Equal(t, 1, created)
}

func TestHotSwappableTargetSource(t *testing.T) {
	a := &greetService{prefix: "a "}
	b := &greetService{prefix: "b "}
	ts := NewHotSwappableTargetSource(a)

	factory := NewProxyFactory(newTestConfig())
	factory.SetTargetSource(ts)
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	result, err := proxy.Invoke("Greet", "x")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"a x"}, result)

	old := ts.Swap(b)
	assert.True(t, old == interface{}(a))

	result, err = proxy.Invoke("Greet", "x")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"b x"}, result)
}

func TestPrototypeTargetSourceReleases(t *testing.T) {
	created, released := 0, 0
	ts := NewPrototypeTargetSource(reflect.TypeOf(&greetService{}),
		func() (interface{}, error) {
			created++
			return &greetService{prefix: "p "}, nil
		},
		func(interface{}) { released++ },
	)

	factory := NewProxyFactory(newTestConfig())
	factory.SetTargetSource(ts)
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	for i := 0; i < 3; i++ {
		_, err = proxy.Invoke("Greet", "x")
		assert.Nil(t, err)
	}
	assert.Equal(t, 3, created)
	assert.Equal(t, 3, released)
}

func TestEmptyTargetSourceDefaults(t *testing.T) {
	as := NewAdvisedSupport(newTestConfig())
	ts := as.TargetSource()
	assert.True(t, ts.IsStatic())
	target, err := ts.GetTarget()
	assert.Nil(t, err)
	assert.Nil(t, target)
	assert.Nil(t, as.TargetType())
}
