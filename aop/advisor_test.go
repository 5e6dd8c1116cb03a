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

// Stamped is an interface the greet service does not implement; it is served
// by an introduction delegate in the tests below.
type Stamped interface {
	Stamp() string
}

type stampDelegate struct {
	value string
}

func (d *stampDelegate) Stamp() string { return d.value }

var stampedType = reflect.TypeOf((*Stamped)(nil)).Elem()

func TestDelegatingIntroduction(t *testing.T) {
	delegate := NewDelegatingIntroductionInterceptor(&stampDelegate{value: "v1"})
	assert.True(t, delegate.ImplementsInterface(stampedType))
	assert.False(t, delegate.ImplementsInterface(greeterType))

	advisor := NewIntroductionAdvisor(nil, delegate, stampedType)
	assert.Nil(t, advisor.ValidateInterfaces())

	factory := NewProxyFactoryFor(&greetService{prefix: "hi "}, newTestConfig())
	assert.Nil(t, factory.AddInterface(greeterType))
	assert.Nil(t, factory.AddAdvisor(advisor))
	proxy, err := factory.GetProxy()
	assert.Nil(t, err)

	// the introduced method is served by the delegate
	result, err := proxy.Invoke("Stamp")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"v1"}, result)

	// methods the delegate does not declare still reach the target
	result, err = proxy.Invoke("Greet", "bob")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"hi bob"}, result)
}

func TestIntroductionAdvisorValidation(t *testing.T) {
	delegate := NewDelegatingIntroductionInterceptor(&stampDelegate{})
	advisor := NewIntroductionAdvisor(nil, delegate, greeterType)
	assert.NotNil(t, advisor.ValidateInterfaces())

	// AddAdvisor validates and refuses the advisor
	factory := NewProxyFactoryFor(&greetService{}, newTestConfig())
	assert.NotNil(t, factory.AddAdvisor(advisor))
}

func TestIntroductionAddsProxiedInterface(t *testing.T) {
	delegate := NewDelegatingIntroductionInterceptor(&stampDelegate{value: "x"})
	advisor := NewIntroductionAdvisor(nil, delegate, stampedType)

	factory := NewProxyFactoryFor(&greetService{}, newTestConfig())
	assert.Nil(t, factory.AddInterface(greeterType))
	assert.Nil(t, factory.AddAdvisor(advisor))

	found := false
	for _, intf := range factory.ProxiedInterfaces() {
		if intf == stampedType {
			found = true
		}
	}
	assert.True(t, found)
	assert.True(t, factory.HasIntroductions(reflect.TypeOf(&greetService{})))
}

func TestIntroductionClassFilterLimitsTargets(t *testing.T) {
	delegate := NewDelegatingIntroductionInterceptor(&stampDelegate{value: "x"})
	onlyGreeters := TypeClassFilter(greeterType)
	advisor := NewIntroductionAdvisor(onlyGreeters, delegate, stampedType)

	assert.False(t, CanApply(advisor, reflect.TypeOf("a string"), false))
	assert.True(t, CanApply(advisor, reflect.TypeOf(&greetService{}), false))
}
