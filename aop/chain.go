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

	"github.com/aopkit/aopkit/api/types"
)

// ChainBuilder assembles the interceptor chain for one method from a proxy
// configuration. Each advisor contributes its own entries through the
// ChainAssembly it receives; the builder never inspects advisor internals.
//
// ChainBuilder 根据代理配置为单个方法装配拦截器链。每个 Advisor 通过收到的
// ChainAssembly 贡献自己的链元素；builder 从不窥探 Advisor 的内部结构。
type ChainBuilder struct {
	registry types.AdviceAdapterRegistry
}

// NewChainBuilder creates a builder backed by the given adapter registry.
// A nil registry falls back to a registry with the standard adapters.
func NewChainBuilder(registry types.AdviceAdapterRegistry) *ChainBuilder {
	if registry == nil {
		registry = NewAdviceAdapterRegistry()
	}
	return &ChainBuilder{registry: registry}
}

// Supports reports whether the builder can turn the advice into interceptors.
func (b *ChainBuilder) Supports(advice types.Advice) bool {
	if _, ok := advice.(types.Interceptor); ok {
		return true
	}
	return b.registry.Supports(advice)
}

// InterceptorsForMethod builds the chain for one method. Entries are either
// types.Interceptor values or InterceptorAndDynamicMethodMatcher pairs for
// advisors whose pointcut needs the runtime arguments.
func (b *ChainBuilder) InterceptorsForMethod(advised *AdvisedSupport, method reflect.Method, targetType reflect.Type) []interface{} {
	advisors := advised.Advisors()
	assembly := &chainAssembly{
		builder:     b,
		advised:     advised,
		targetType:  targetType,
		entries:     make([]interface{}, 0, len(advisors)),
		preFiltered: advised.IsPreFiltered(),
	}
	for _, advisor := range advisors {
		advisor.Contribute(assembly, method, targetType)
	}
	return assembly.entries
}

// chainAssembly is the per-method build context handed to each advisor.
type chainAssembly struct {
	builder     *ChainBuilder
	advised     *AdvisedSupport
	targetType  reflect.Type
	entries     []interface{}
	preFiltered bool

	// hasIntroductions is computed lazily, at most once per assembly.
	introductionsChecked bool
	introductionsPresent bool
}

var _ types.ChainAssembly = (*chainAssembly)(nil)

func (a *chainAssembly) PreFiltered() bool { return a.preFiltered }

func (a *chainAssembly) HasIntroductions() bool {
	if !a.introductionsChecked {
		a.introductionsPresent = a.advised.HasIntroductions(a.targetType)
		a.introductionsChecked = true
	}
	return a.introductionsPresent
}

func (a *chainAssembly) Append(interceptors ...types.Interceptor) {
	for _, interceptor := range interceptors {
		a.entries = append(a.entries, interceptor)
	}
}

func (a *chainAssembly) AppendDynamic(matcher types.MethodMatcher, interceptors ...types.Interceptor) {
	for _, interceptor := range interceptors {
		a.entries = append(a.entries, InterceptorAndDynamicMethodMatcher{
			Interceptor: interceptor,
			Matcher:     matcher,
		})
	}
}

func (a *chainAssembly) Adapt(advice types.Advice) []types.Interceptor {
	return a.builder.registry.Adapt(advice)
}
