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

package types

import "reflect"

// ClassFilter restricts a matching rule to a set of target types.
//
// ClassFilter 将匹配规则限制到一组目标类型。
type ClassFilter interface {
	// Matches reports whether the rule applies to the given target type.
	Matches(targetType reflect.Type) bool
}

// MethodMatcher decides whether advice applies to a particular method of a
// target type. A static matcher is evaluated once per proxy configuration and
// its result is cacheable; a runtime matcher must additionally be re-evaluated
// on every invocation with the actual call arguments.
//
// MethodMatcher 决定增强是否应用于目标类型的某个方法。静态匹配器在每个代理配置上
// 只求值一次，结果可缓存；运行时匹配器还必须在每次调用时使用实际参数重新求值。
type MethodMatcher interface {
	// Matches performs the static check for the given method and target type.
	Matches(method reflect.Method, targetType reflect.Type) bool
	// IsRuntime reports whether MatchesArgs must be re-evaluated per call.
	IsRuntime() bool
	// MatchesArgs performs the runtime check with the actual call arguments.
	// Only called when IsRuntime returns true and Matches already passed.
	MatchesArgs(method reflect.Method, targetType reflect.Type, args []interface{}) bool
}

// IntroductionAwareMethodMatcher is a MethodMatcher that wants to know whether
// any introduction advisor in the configuration matches the target type, so it
// can special-case introduced methods.
//
// IntroductionAwareMethodMatcher 是一种 MethodMatcher，它需要知道配置中是否有任何
// 引入 Advisor 匹配目标类型，以便对引入的方法做特殊处理。
type IntroductionAwareMethodMatcher interface {
	MethodMatcher
	MatchesWithIntroductions(method reflect.Method, targetType reflect.Type, hasIntroductions bool) bool
}

// Pointcut pairs a ClassFilter with a MethodMatcher.
//
// Pointcut 将 ClassFilter 与 MethodMatcher 配对。
type Pointcut interface {
	ClassFilter() ClassFilter
	MethodMatcher() MethodMatcher
}

// ChainAssembly collects the interceptors an advisor contributes for one
// (method, targetType) pair during chain building. It is only valid for the
// duration of a single chain-building call.
//
// ChainAssembly 在链构建期间收集一个 Advisor 为 (method, targetType) 贡献的拦截器。
// 它仅在单次链构建调用期间有效。
type ChainAssembly interface {
	// PreFiltered reports whether class filtering already happened upstream,
	// in which case advisors may skip re-checking their class filter.
	PreFiltered() bool
	// HasIntroductions reports whether any introduction advisor in the whole
	// configuration matches the target type. Computed lazily, once per
	// chain-building call.
	HasIntroductions() bool
	// Append adds interceptors that apply unconditionally at call time.
	Append(interceptors ...Interceptor)
	// AppendDynamic adds interceptors guarded by a runtime matcher that is
	// re-evaluated with the actual arguments on every invocation.
	AppendDynamic(matcher MethodMatcher, interceptors ...Interceptor)
	// Adapt converts an advice of any registered shape into interceptors.
	Adapt(advice Advice) []Interceptor
}

// Advisor pairs advice with the rule that decides where it applies. The closed
// variant set (pointcut advisor, introduction advisor, plain advice wrapper)
// dispatches through Contribute instead of runtime type inspection.
//
// Advisor 将增强与决定其应用位置的规则配对。封闭的变体集合（切点 Advisor、引入 Advisor、
// 普通增强包装器）通过 Contribute 进行分发，而不是运行时类型检查。
type Advisor interface {
	// Advice returns the advice carried by this advisor.
	Advice() Advice
	// Contribute appends the interceptors this advisor contributes for the
	// given method and target type to the assembly. Contribution order must
	// follow advisor order, since it encodes around/before/after semantics.
	Contribute(assembly ChainAssembly, method reflect.Method, targetType reflect.Type)
}

// PointcutAdvisor is an advisor driven by a Pointcut.
type PointcutAdvisor interface {
	Advisor
	Pointcut() Pointcut
}

// IntroductionAdvisor adds extra interfaces to a proxy, implemented by its
// advice, for every target type accepted by its class filter.
//
// IntroductionAdvisor 为其类过滤器接受的每个目标类型向代理添加额外接口，
// 这些接口由其增强实现。
type IntroductionAdvisor interface {
	Advisor
	ClassFilter() ClassFilter
	// Interfaces returns the additional interface types the proxy should expose.
	Interfaces() []reflect.Type
	// ValidateInterfaces fails when the advice cannot serve a declared interface.
	ValidateInterfaces() error
}

// AdviceAdapter converts one foreign advice shape into an interceptor.
type AdviceAdapter interface {
	// Supports reports whether this adapter understands the given advice.
	Supports(advice Advice) bool
	// Interceptor wraps the advice into an interceptor. Only called when
	// Supports returned true.
	Interceptor(advice Advice) Interceptor
}

// AdviceAdapterRegistry is an extensible mapping from advice shape to execution
// wrapper. It is an explicit object owned by the configuration, passed by
// reference into the chain builder and the auto-proxy creators, never a global.
//
// AdviceAdapterRegistry 是从增强形态到执行包装器的可扩展映射。它是由配置持有的
// 显式对象，通过引用传入链构建器和自动代理创建器，而不是全局变量。
type AdviceAdapterRegistry interface {
	// Register adds an adapter for a new advice shape.
	Register(adapter AdviceAdapter)
	// Supports reports whether the advice is an interceptor or adaptable to one.
	Supports(advice Advice) bool
	// Adapt returns the interceptors for the advice, or nil when unsupported.
	Adapt(advice Advice) []Interceptor
}
