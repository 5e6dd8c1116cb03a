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

	"github.com/aopkit/aopkit/api/types"
)

// CurrentInvocationAttribute is the attribute key under which the expose
// interceptor publishes the entry invocation. Clones share the attribute bag,
// so the entry record stays reachable through the whole chain.
const CurrentInvocationAttribute = "aopkit.currentInvocation"

// ErrNoExposedInvocation is returned by CurrentInvocation when no expose
// interceptor ran on this call.
var ErrNoExposedInvocation = errors.New("no exposed invocation: add an ExposeInvocationAdvisor as the first advisor")

// ExposeInvocationInterceptor publishes the invocation it sees under
// CurrentInvocationAttribute. It runs ahead of every other interceptor, so
// downstream advice can reach the entry record even through clones.
type ExposeInvocationInterceptor struct{}

var _ types.Interceptor = ExposeInvocationInterceptor{}
var _ types.PriorityOrdered = ExposeInvocationInterceptor{}

func (ExposeInvocationInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	invocation.SetAttribute(CurrentInvocationAttribute, invocation)
	return invocation.Proceed()
}

func (ExposeInvocationInterceptor) Order() int { return HighestPrecedence + 1 }

func (ExposeInvocationInterceptor) PriorityOrdered() {}

// NewExposeInvocationAdvisor wraps the expose interceptor in a
// match-everything advisor that sorts ahead of application advisors.
func NewExposeInvocationAdvisor() types.PointcutAdvisor {
	return NewPointcutAdvisor(TruePointcut, ExposeInvocationInterceptor{})
}

// ExtendWithExposeInvocation is an ExtendAdvisors hook for the advisor-driven
// auto-proxy creator: every bean that gets advisors also gets the expose
// advisor at the head of its chain.
func ExtendWithExposeInvocation(advisors []types.Advisor) []types.Advisor {
	if len(advisors) == 0 {
		return advisors
	}
	return append([]types.Advisor{NewExposeInvocationAdvisor()}, advisors...)
}

// CurrentInvocation returns the entry invocation of the running call. The
// given invocation may be any clone from the same call.
func CurrentInvocation(invocation types.MethodInvocation) (types.MethodInvocation, error) {
	value, ok := invocation.Attribute(CurrentInvocationAttribute)
	if !ok {
		return nil, ErrNoExposedInvocation
	}
	exposed, ok := value.(types.MethodInvocation)
	if !ok {
		return nil, ErrNoExposedInvocation
	}
	return exposed, nil
}
