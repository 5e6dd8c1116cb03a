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
	"fmt"
	"reflect"

	"github.com/aopkit/aopkit/api/types"
)

// DefaultPointcutAdvisor pairs a pointcut with any advice shape. With the
// TruePointcut it degenerates into the plain advice wrapper that always
// contributes its interceptors.
type DefaultPointcutAdvisor struct {
	pointcut types.Pointcut
	advice   types.Advice
	order    int
}

var (
	_ types.PointcutAdvisor = (*DefaultPointcutAdvisor)(nil)
	_ types.Ordered         = (*DefaultPointcutAdvisor)(nil)
)

// NewPointcutAdvisor pairs the given pointcut and advice. A nil pointcut
// means the advice applies everywhere.
func NewPointcutAdvisor(pointcut types.Pointcut, advice types.Advice) *DefaultPointcutAdvisor {
	if pointcut == nil {
		pointcut = TruePointcut
	}
	return &DefaultPointcutAdvisor{pointcut: pointcut, advice: advice, order: LowestPrecedence}
}

// NewAdvisorForAdvice wraps plain advice into an advisor that applies to every
// method of every target.
func NewAdvisorForAdvice(advice types.Advice) *DefaultPointcutAdvisor {
	return NewPointcutAdvisor(TruePointcut, advice)
}

// WithOrder sets the execution order of this advisor. The smaller the value,
// the higher the priority.
func (a *DefaultPointcutAdvisor) WithOrder(order int) *DefaultPointcutAdvisor {
	a.order = order
	return a
}

// Order returns the explicitly set order, or the advice's own order when none
// was set.
func (a *DefaultPointcutAdvisor) Order() int {
	if a.order == LowestPrecedence {
		if ordered, ok := a.advice.(types.Ordered); ok {
			return ordered.Order()
		}
	}
	return a.order
}

func (a *DefaultPointcutAdvisor) Advice() types.Advice { return a.advice }

func (a *DefaultPointcutAdvisor) Pointcut() types.Pointcut { return a.pointcut }

func (a *DefaultPointcutAdvisor) Contribute(assembly types.ChainAssembly, method reflect.Method, targetType reflect.Type) {
	ContributePointcutAdvisor(a, assembly, method, targetType)
}

// ContributePointcutAdvisor implements the chain contribution of a pointcut
// advisor: re-check the class filter unless the configuration is pre-filtered,
// evaluate the method matcher (introduction-aware when supported), then add
// the adapted interceptors, deferred behind the matcher when it is a runtime
// one. Custom PointcutAdvisor implementations delegate their Contribute here.
func ContributePointcutAdvisor(advisor types.PointcutAdvisor, assembly types.ChainAssembly, method reflect.Method, targetType reflect.Type) {
	pc := advisor.Pointcut()
	if !assembly.PreFiltered() && !pc.ClassFilter().Matches(targetType) {
		return
	}
	mm := pc.MethodMatcher()
	var match bool
	if iamm, ok := mm.(types.IntroductionAwareMethodMatcher); ok {
		match = iamm.MatchesWithIntroductions(method, targetType, assembly.HasIntroductions())
	} else {
		match = mm.Matches(method, targetType)
	}
	if !match {
		return
	}
	interceptors := assembly.Adapt(advisor.Advice())
	if mm.IsRuntime() {
		assembly.AppendDynamic(mm, interceptors...)
	} else {
		assembly.Append(interceptors...)
	}
}

// DefaultIntroductionAdvisor adds the interfaces served by an introduction
// interceptor to every target accepted by its class filter.
type DefaultIntroductionAdvisor struct {
	classFilter types.ClassFilter
	interfaces  []reflect.Type
	advice      types.IntroductionInterceptor
	order       int
}

var (
	_ types.IntroductionAdvisor = (*DefaultIntroductionAdvisor)(nil)
	_ types.Ordered             = (*DefaultIntroductionAdvisor)(nil)
)

// NewIntroductionAdvisor creates an introduction advisor for the given
// interceptor and the interface types it should introduce. A nil class filter
// applies the introduction to every target.
func NewIntroductionAdvisor(classFilter types.ClassFilter, advice types.IntroductionInterceptor, interfaces ...reflect.Type) *DefaultIntroductionAdvisor {
	if classFilter == nil {
		classFilter = TrueClassFilter
	}
	return &DefaultIntroductionAdvisor{
		classFilter: classFilter,
		interfaces:  interfaces,
		advice:      advice,
		order:       LowestPrecedence,
	}
}

// WithOrder sets the execution order of this advisor.
func (a *DefaultIntroductionAdvisor) WithOrder(order int) *DefaultIntroductionAdvisor {
	a.order = order
	return a
}

// Order returns the explicitly set order, or the advice's own order when none
// was set.
func (a *DefaultIntroductionAdvisor) Order() int {
	if a.order == LowestPrecedence {
		if ordered, ok := a.advice.(types.Ordered); ok {
			return ordered.Order()
		}
	}
	return a.order
}

func (a *DefaultIntroductionAdvisor) Advice() types.Advice { return a.advice }

func (a *DefaultIntroductionAdvisor) ClassFilter() types.ClassFilter { return a.classFilter }

func (a *DefaultIntroductionAdvisor) Interfaces() []reflect.Type { return a.interfaces }

func (a *DefaultIntroductionAdvisor) ValidateInterfaces() error {
	for _, intf := range a.interfaces {
		if intf.Kind() != reflect.Interface {
			return fmt.Errorf("introduced type %s is not an interface", intf)
		}
		if !a.advice.ImplementsInterface(intf) {
			return fmt.Errorf("introduction interceptor %T does not implement interface %s", a.advice, intf)
		}
	}
	return nil
}

func (a *DefaultIntroductionAdvisor) Contribute(assembly types.ChainAssembly, _ reflect.Method, targetType reflect.Type) {
	if assembly.PreFiltered() || a.classFilter.Matches(targetType) {
		assembly.Append(assembly.Adapt(a.advice)...)
	}
}

// DelegatingIntroductionInterceptor serves introduced methods by dispatching
// them to a delegate object; methods the delegate does not declare proceed
// down the chain to the target.
type DelegatingIntroductionInterceptor struct {
	Delegate interface{}
}

var _ types.IntroductionInterceptor = (*DelegatingIntroductionInterceptor)(nil)

// NewDelegatingIntroductionInterceptor creates an introduction interceptor
// backed by the given delegate.
func NewDelegatingIntroductionInterceptor(delegate interface{}) *DelegatingIntroductionInterceptor {
	return &DelegatingIntroductionInterceptor{Delegate: delegate}
}

func (d *DelegatingIntroductionInterceptor) ImplementsInterface(intf reflect.Type) bool {
	return intf.Kind() == reflect.Interface && reflect.TypeOf(d.Delegate).Implements(intf)
}

func (d *DelegatingIntroductionInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	delegateType := reflect.TypeOf(d.Delegate)
	if _, ok := delegateType.MethodByName(invocation.Method().Name); ok {
		return invokeReflectively(d.Delegate, invocation.Method().Name, invocation.Arguments())
	}
	return invocation.Proceed()
}
