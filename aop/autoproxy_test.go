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

	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/test/assert"
)

// fakeRegistry is a minimal BeanRegistry for creator tests.
type fakeRegistry struct {
	beans       map[string]interface{}
	aliases     map[string][]string
	roles       map[string]types.Role
	interfaces  map[string][]reflect.Type
	inCreation  map[string]bool
	creationErr map[string]error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		beans:       map[string]interface{}{},
		aliases:     map[string][]string{},
		roles:       map[string]types.Role{},
		interfaces:  map[string][]reflect.Type{},
		inCreation:  map[string]bool{},
		creationErr: map[string]error{},
	}
}

func (r *fakeRegistry) BeanNamesForType(t reflect.Type) []string {
	var names []string
	for name, bean := range r.beans {
		if reflect.TypeOf(bean).Implements(t) {
			names = append(names, name)
		}
	}
	for name := range r.creationErr {
		names = append(names, name)
	}
	return names
}

func (r *fakeRegistry) ContainsBean(name string) bool {
	_, ok := r.beans[name]
	return ok
}

func (r *fakeRegistry) GetBean(name string) (interface{}, error) {
	if err, ok := r.creationErr[name]; ok {
		return nil, err
	}
	if bean, ok := r.beans[name]; ok {
		return bean, nil
	}
	return nil, &types.BeanCreationError{BeanName: name, Err: errNotFound}
}

func (r *fakeRegistry) IsCurrentlyInCreation(name string) bool { return r.inCreation[name] }

func (r *fakeRegistry) Aliases(name string) []string { return r.aliases[name] }

func (r *fakeRegistry) Role(name string) types.Role { return r.roles[name] }

func (r *fakeRegistry) Interfaces(name string) []reflect.Type { return r.interfaces[name] }

var errNotFound = &types.BeanCreationError{BeanName: "?", Err: nil}

func TestBeanNameCreatorMatchesPatterns(t *testing.T) {
	reg := newFakeRegistry()
	creator := NewBeanNameAutoProxyCreator(reg, newTestConfig(), "*Service")

	svc := &greetService{prefix: "hi "}
	replaced, err := creator.AfterInitialization(svc, "greetService")
	assert.Nil(t, err)
	proxy, ok := replaced.(types.AopProxy)
	assert.True(t, ok)
	result, err := proxy.Invoke("Greet", "bob")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"hi bob"}, result)

	// non-matching names pass through untouched
	other := &greetService{}
	replaced, err = creator.AfterInitialization(other, "somethingElse")
	assert.Nil(t, err)
	assert.True(t, sameInstance(other, replaced))
}

func TestBeanNameCreatorMatchesAliases(t *testing.T) {
	reg := newFakeRegistry()
	reg.aliases["raw"] = []string{"greetService"}
	creator := NewBeanNameAutoProxyCreator(reg, newTestConfig(), "greet*")

	replaced, err := creator.AfterInitialization(&greetService{}, "raw")
	assert.Nil(t, err)
	_, ok := replaced.(types.AopProxy)
	assert.True(t, ok)
}

func TestCreatorSkipsInfrastructureAndOriginals(t *testing.T) {
	reg := newFakeRegistry()
	creator := NewBeanNameAutoProxyCreator(reg, newTestConfig(), "*")

	var trace []string
	infra := &recordingInterceptor{name: "i", trace: &trace}
	replaced, err := creator.AfterInitialization(infra, "someInterceptor")
	assert.Nil(t, err)
	assert.True(t, sameInstance(infra, replaced))

	svc := &greetService{}
	replaced, err = creator.AfterInitialization(svc, "greetService"+types.OriginalInstanceSuffix)
	assert.Nil(t, err)
	assert.True(t, sameInstance(svc, replaced))
}

func TestCreatorIdempotentAcrossPhases(t *testing.T) {
	reg := newFakeRegistry()
	creator := NewBeanNameAutoProxyCreator(reg, newTestConfig(), "greet*")

	svc := &greetService{}
	early, err := creator.EarlyBeanReference(svc, "greetService")
	assert.Nil(t, err)
	_, ok := early.(types.AopProxy)
	assert.True(t, ok)

	// the after-initialization phase sees the same raw instance and must not
	// wrap it a second time
	late, err := creator.AfterInitialization(svc, "greetService")
	assert.Nil(t, err)
	assert.True(t, sameInstance(svc, late))
}

func TestCreatorWrapsWhenInstanceChangedAfterEarlyReference(t *testing.T) {
	reg := newFakeRegistry()
	creator := NewBeanNameAutoProxyCreator(reg, newTestConfig(), "greet*")

	svc := &greetService{}
	_, err := creator.EarlyBeanReference(svc, "greetService")
	assert.Nil(t, err)

	// a different instance surfaced after initialization: wrap it
	other := &greetService{}
	late, err := creator.AfterInitialization(other, "greetService")
	assert.Nil(t, err)
	_, ok := late.(types.AopProxy)
	assert.True(t, ok)
}

func TestCreatorUsesDeclaredInterfaces(t *testing.T) {
	reg := newFakeRegistry()
	reg.interfaces["greetService"] = []reflect.Type{greeterType}
	creator := NewBeanNameAutoProxyCreator(reg, newTestConfig(), "greet*")

	replaced, err := creator.AfterInitialization(&greetService{}, "greetService")
	assert.Nil(t, err)
	proxy := replaced.(types.AopProxy)
	assert.True(t, proxy.IsInterfaceProxy())
	_, err = proxy.Invoke("Add", 1, 2)
	assert.NotNil(t, err)
}

func TestBeforeInstantiationWithTargetSourceCreator(t *testing.T) {
	reg := newFakeRegistry()
	reg.beans["greetService"] = &greetService{}
	creator := NewBeanNameAutoProxyCreator(reg, newTestConfig(), "greet*")
	creator.TargetSourceCreators = []types.TargetSourceCreator{
		types.TargetSourceCreatorFunc(func(beanType reflect.Type, beanName string) types.TargetSource {
			if beanName == "greetService" {
				return NewSingletonTargetSource(&greetService{prefix: "custom "})
			}
			return nil
		}),
	}

	bean, err := creator.BeforeInstantiation(reflect.TypeOf(&greetService{}), "greetService")
	assert.Nil(t, err)
	assert.NotNil(t, bean)
	proxy := bean.(types.AopProxy)
	result, err := proxy.Invoke("Greet", "x")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"custom x"}, result)

	// the proxy type is predictable afterwards
	predicted := creator.PredictBeanType(reflect.TypeOf(&greetService{}), "greetService")
	assert.Equal(t, reflect.TypeOf(proxy), predicted)
}

func TestCustomTargetSourceProxiedWithoutAdvisors(t *testing.T) {
	var trace []string
	reg := newFakeRegistry()
	reg.beans["greetService"] = &greetService{}
	reg.beans["commonLog"] = types.Interceptor(&recordingInterceptor{name: "common", trace: &trace})

	creator := NewAdvisorAutoProxyCreator(reg, newTestConfig())
	creator.CommonInterceptorNames = []string{"commonLog"}
	creator.TargetSourceCreators = []types.TargetSourceCreator{
		types.TargetSourceCreatorFunc(func(beanType reflect.Type, beanName string) types.TargetSource {
			if beanName == "greetService" {
				return NewSingletonTargetSource(&greetService{prefix: "custom "})
			}
			return nil
		}),
	}

	// no advisor bean matches, the claimed target source still short-circuits
	// instantiation with a proxy carrying the common interceptors
	bean, err := creator.BeforeInstantiation(reflect.TypeOf(&greetService{}), "greetService")
	assert.Nil(t, err)
	assert.NotNil(t, bean)
	proxy := bean.(types.AopProxy)
	result, err := proxy.Invoke("Greet", "x")
	assert.Nil(t, err)
	assert.Equal(t, []interface{}{"custom x"}, result)
	assert.Equal(t, []string{"common"}, trace)

	// later phases leave the target-sourced bean alone
	raw := &greetService{}
	late, err := creator.AfterInitialization(raw, "greetService")
	assert.Nil(t, err)
	assert.True(t, sameInstance(raw, late))
}

func TestAdvisorCreatorAppliesEligibleAdvisors(t *testing.T) {
	var trace []string
	reg := newFakeRegistry()
	reg.beans["greetAdvisor"] = NewPointcutAdvisor(
		NewNameMatchMethodPointcut("Greet"),
		&recordingInterceptor{name: "greet", trace: &trace},
	)
	creator := NewAdvisorAutoProxyCreator(reg, newTestConfig())

	replaced, err := creator.AfterInitialization(&greetService{prefix: "hi "}, "greetService")
	assert.Nil(t, err)
	proxy, ok := replaced.(types.AopProxy)
	assert.True(t, ok)

	_, err = proxy.Invoke("Greet", "bob")
	assert.Nil(t, err)
	assert.Equal(t, []string{"greet"}, trace)

	// the advisor's pointcut does not match Add, so no advice runs
	trace = nil
	_, err = proxy.Invoke("Add", 1, 2)
	assert.Nil(t, err)
	assert.Equal(t, 0, len(trace))
}

func TestAdvisorCreatorLeavesUnmatchedBeansAlone(t *testing.T) {
	reg := newFakeRegistry()
	creator := NewAdvisorAutoProxyCreator(reg, newTestConfig())

	svc := &greetService{}
	replaced, err := creator.AfterInitialization(svc, "greetService")
	assert.Nil(t, err)
	assert.True(t, sameInstance(svc, replaced))
}

func TestInfrastructureCreatorFiltersByRole(t *testing.T) {
	var trace []string
	reg := newFakeRegistry()
	reg.beans["appAdvisor"] = NewAdvisorForAdvice(&recordingInterceptor{name: "app", trace: &trace})
	reg.beans["infraAdvisor"] = NewAdvisorForAdvice(&recordingInterceptor{name: "infra", trace: &trace})
	reg.roles["infraAdvisor"] = types.RoleInfrastructure

	creator := NewInfrastructureAdvisorAutoProxyCreator(reg, newTestConfig())
	replaced, err := creator.AfterInitialization(&greetService{}, "greetService")
	assert.Nil(t, err)
	proxy := replaced.(types.AopProxy)

	_, err = proxy.Invoke("Add", 1, 2)
	assert.Nil(t, err)
	assert.Equal(t, []string{"infra"}, trace)
}

func TestCommonInterceptorsApplyFirst(t *testing.T) {
	var trace []string
	reg := newFakeRegistry()
	reg.beans["commonLog"] = types.Interceptor(&recordingInterceptor{name: "common", trace: &trace})
	reg.beans["greetAdvisor"] = NewAdvisorForAdvice(&recordingInterceptor{name: "specific", trace: &trace})

	creator := NewAdvisorAutoProxyCreator(reg, newTestConfig())
	creator.CommonInterceptorNames = []string{"commonLog"}

	replaced, err := creator.AfterInitialization(&greetService{}, "greetService")
	assert.Nil(t, err)
	proxy := replaced.(types.AopProxy)
	_, err = proxy.Invoke("Add", 1, 2)
	assert.Nil(t, err)
	assert.Equal(t, []string{"common", "specific"}, trace)
}

func TestCreatorExtendAdvisorsExposesInvocation(t *testing.T) {
	var sawExposed bool
	probe := interceptorFunc(func(inv types.MethodInvocation) ([]interface{}, error) {
		_, err := CurrentInvocation(inv)
		sawExposed = err == nil
		return inv.Proceed()
	})
	reg := newFakeRegistry()
	reg.beans["probeAdvisor"] = NewAdvisorForAdvice(probe)

	creator := NewAdvisorAutoProxyCreator(reg, newTestConfig())
	creator.ExtendAdvisors = ExtendWithExposeInvocation

	replaced, err := creator.AfterInitialization(&greetService{prefix: "hi "}, "greetService")
	assert.Nil(t, err)
	proxy := replaced.(types.AopProxy)

	results, err := proxy.Invoke("Greet", "bob")
	assert.Nil(t, err)
	assert.Equal(t, "hi bob", results[0])
	assert.True(t, sawExposed)
}
