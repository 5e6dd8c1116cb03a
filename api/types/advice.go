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

// The interfaces in this file describe advice: the extra behavior that a proxy
// runs around the real method invocation, similar to an interceptor or hook
// mechanism, but more powerful and flexible.
//
//   - Advice allows adding behavior (logging, metrics, caching, retries, security)
//     to a target object without modifying its original logic.
//   - Advice is attached to a proxy through an Advisor, which pairs it with a
//     matching rule (Pointcut) deciding where it applies.
//
// 本文件中的接口描述增强（advice）：代理在真实方法调用周围执行的额外行为，
// 类似拦截器或者 hook 机制，但是功能更加强大和灵活。
//
//   - 增强允许在不修改目标对象原有逻辑的情况下添加行为（日志、指标、缓存、重试、安全）。
//   - 增强通过 Advisor 附加到代理上，Advisor 将其与决定应用位置的匹配规则（Pointcut）配对。

// Advice is the marker for any advice shape. Concrete shapes are Interceptor,
// BeforeAdvice, AfterReturningAdvice and ThrowsAdvice; non-interceptor shapes
// are adapted to interceptors by an AdviceAdapterRegistry.
//
// Advice 是所有增强形态的标记接口。具体形态有 Interceptor、BeforeAdvice、
// AfterReturningAdvice 和 ThrowsAdvice；非拦截器形态由 AdviceAdapterRegistry
// 适配为拦截器。
type Advice interface{}

// Interceptor is around advice: it receives the in-flight invocation and decides
// whether and when to continue the chain by calling invocation.Proceed().
// Not calling Proceed short-circuits the chain.
//
// Interceptor 是环绕增强：它接收进行中的调用，并通过调用 invocation.Proceed()
// 决定是否以及何时继续执行链。不调用 Proceed 则短路整个链。
type Interceptor interface {
	Invoke(invocation MethodInvocation) ([]interface{}, error)
}

// BeforeAdvice runs before the target method. Returning an error aborts the
// invocation; the target method is not called.
//
// BeforeAdvice 在目标方法之前执行。返回错误会中止调用；目标方法不会被执行。
type BeforeAdvice interface {
	Before(method reflect.Method, args []interface{}, target interface{}) error
}

// AfterReturningAdvice runs after the target method returned normally.
// It sees the result but cannot replace it; returning an error fails the call.
//
// AfterReturningAdvice 在目标方法正常返回之后执行。它可以看到结果但不能替换结果；
// 返回错误会使本次调用失败。
type AfterReturningAdvice interface {
	AfterReturning(result []interface{}, method reflect.Method, args []interface{}, target interface{}) error
}

// ThrowsAdvice is notified when the target method or a later interceptor
// returned an error. The original error still propagates unchanged.
//
// ThrowsAdvice 在目标方法或后续拦截器返回错误时得到通知。原始错误仍然原样向上传播。
type ThrowsAdvice interface {
	AfterThrowing(method reflect.Method, args []interface{}, target interface{}, err error)
}

// IntroductionInterceptor is an interceptor that additionally implements one or
// more introduced interfaces on behalf of the target.
//
// IntroductionInterceptor 是一种拦截器，它代表目标对象额外实现一个或多个引入接口。
type IntroductionInterceptor interface {
	Interceptor
	// ImplementsInterface reports whether this interceptor can serve calls
	// declared by the given interface type.
	ImplementsInterface(intf reflect.Type) bool
}

// MethodInvocation is the per-call record handed to interceptors. It is created
// fresh at call entry and consumed within that call, or cloned explicitly for
// controlled re-invocation.
//
// MethodInvocation 是传递给拦截器的每次调用记录。它在调用入口新建，在该次调用内消费完毕，
// 或者被显式克隆用于受控的重复调用。
type MethodInvocation interface {
	// ID returns the unique id of this invocation. Clones share the id.
	ID() string
	// Method returns the invoked method, resolved against the concrete target
	// type when the target declares it.
	Method() reflect.Method
	// Arguments returns the current argument list. Interceptors may mutate it
	// in place or replace it via SetArguments before calling Proceed.
	Arguments() []interface{}
	// SetArguments replaces the argument list for the rest of this invocation.
	SetArguments(args ...interface{})
	// Target returns the object that ultimately executes the method. May be nil.
	Target() interface{}
	// TargetType returns the type of the target, or nil when there is none.
	TargetType() reflect.Type
	// Proxy returns the proxy this invocation was made through.
	Proxy() AopProxy
	// Proceed advances the chain: it runs the next matching interceptor, or the
	// real target method when the chain is exhausted.
	Proceed() ([]interface{}, error)
	// Clone returns an independent copy of this invocation with its own cursor
	// and argument list. Passing args replaces the clone's arguments. The
	// attribute bag stays shared between the original and all clones.
	Clone(args ...interface{}) MethodInvocation
	// SetAttribute stores a user attribute on this invocation.
	SetAttribute(key string, value interface{})
	// Attribute returns a user attribute previously stored on this invocation
	// or on any of its clones.
	Attribute(key string) (interface{}, bool)
}

// Ordered is implemented by advice and advisors that declare an execution
// order. The smaller the value, the higher the priority.
//
// Ordered 由声明执行顺序的增强和 Advisor 实现。值越小，优先级越高。
type Ordered interface {
	Order() int
}

// PriorityOrdered marks an Ordered value that sorts before every plain Ordered
// value regardless of its numeric order.
//
// PriorityOrdered 标记一个 Ordered 值：无论其数值顺序如何，都排在所有普通 Ordered 值之前。
type PriorityOrdered interface {
	Ordered
	// PriorityOrdered is a marker method with no behavior.
	PriorityOrdered()
}
