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
	"sync"

	"github.com/aopkit/aopkit/api/types"
)

// DefaultAdviceAdapterRegistry adapts foreign advice shapes (BeforeAdvice,
// AfterReturningAdvice, ThrowsAdvice) into interceptors. It is an explicit
// object with container lifetime, injected by reference wherever adaptation is
// needed.
type DefaultAdviceAdapterRegistry struct {
	mu       sync.RWMutex
	adapters []types.AdviceAdapter
}

var _ types.AdviceAdapterRegistry = (*DefaultAdviceAdapterRegistry)(nil)

// NewAdviceAdapterRegistry creates a registry preloaded with the standard
// before, after-returning and throws adapters.
func NewAdviceAdapterRegistry() *DefaultAdviceAdapterRegistry {
	r := &DefaultAdviceAdapterRegistry{}
	r.Register(beforeAdviceAdapter{})
	r.Register(afterReturningAdviceAdapter{})
	r.Register(throwsAdviceAdapter{})
	return r
}

// Register adds an adapter for a new advice shape.
func (r *DefaultAdviceAdapterRegistry) Register(adapter types.AdviceAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, adapter)
}

// Supports reports whether the advice is an interceptor or adaptable to one.
func (r *DefaultAdviceAdapterRegistry) Supports(advice types.Advice) bool {
	if _, ok := advice.(types.Interceptor); ok {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adapter := range r.adapters {
		if adapter.Supports(advice) {
			return true
		}
	}
	return false
}

// Adapt returns the interceptors for the advice. An interceptor passes
// through as-is; other shapes go through every supporting adapter, so one
// advice object may contribute several interceptors. Unsupported advice
// yields nil.
func (r *DefaultAdviceAdapterRegistry) Adapt(advice types.Advice) []types.Interceptor {
	var interceptors []types.Interceptor
	if interceptor, ok := advice.(types.Interceptor); ok {
		interceptors = append(interceptors, interceptor)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adapter := range r.adapters {
		if adapter.Supports(advice) {
			interceptors = append(interceptors, adapter.Interceptor(advice))
		}
	}
	return interceptors
}

type beforeAdviceAdapter struct{}

func (beforeAdviceAdapter) Supports(advice types.Advice) bool {
	_, ok := advice.(types.BeforeAdvice)
	return ok
}

func (beforeAdviceAdapter) Interceptor(advice types.Advice) types.Interceptor {
	return &beforeAdviceInterceptor{advice: advice.(types.BeforeAdvice)}
}

type beforeAdviceInterceptor struct {
	advice types.BeforeAdvice
}

func (i *beforeAdviceInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	if err := i.advice.Before(invocation.Method(), invocation.Arguments(), invocation.Target()); err != nil {
		return nil, err
	}
	return invocation.Proceed()
}

type afterReturningAdviceAdapter struct{}

func (afterReturningAdviceAdapter) Supports(advice types.Advice) bool {
	_, ok := advice.(types.AfterReturningAdvice)
	return ok
}

func (afterReturningAdviceAdapter) Interceptor(advice types.Advice) types.Interceptor {
	return &afterReturningAdviceInterceptor{advice: advice.(types.AfterReturningAdvice)}
}

type afterReturningAdviceInterceptor struct {
	advice types.AfterReturningAdvice
}

func (i *afterReturningAdviceInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	result, err := invocation.Proceed()
	if err != nil {
		return result, err
	}
	if err := i.advice.AfterReturning(result, invocation.Method(), invocation.Arguments(), invocation.Target()); err != nil {
		return result, err
	}
	return result, nil
}

type throwsAdviceAdapter struct{}

func (throwsAdviceAdapter) Supports(advice types.Advice) bool {
	_, ok := advice.(types.ThrowsAdvice)
	return ok
}

func (throwsAdviceAdapter) Interceptor(advice types.Advice) types.Interceptor {
	return &throwsAdviceInterceptor{advice: advice.(types.ThrowsAdvice)}
}

type throwsAdviceInterceptor struct {
	advice types.ThrowsAdvice
}

func (i *throwsAdviceInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	result, err := invocation.Proceed()
	if err != nil {
		// notify only; the original error propagates unchanged
		i.advice.AfterThrowing(invocation.Method(), invocation.Arguments(), invocation.Target(), err)
	}
	return result, err
}
