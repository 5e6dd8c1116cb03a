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

// AopProxy is the call surface of a proxy. Every proxy implements it, so it
// also serves as the default marker interface: a target whose type implements
// AopProxy is itself a proxy, and a configuration whose only declared interface
// is AopProxy carries no real user interfaces.
//
// AopProxy 是代理的调用入口。每个代理都实现它，因此它也充当默认标记接口：
// 类型实现了 AopProxy 的目标本身就是代理；声明的接口只有 AopProxy 的配置
// 不携带任何真正的用户接口。
type AopProxy interface {
	// Invoke runs the advice chain around the named method with the given
	// arguments and returns the method results. The trailing error return of
	// the target method, if declared, is split out as the error result.
	Invoke(method string, args ...interface{}) ([]interface{}, error)
	// TargetType returns the type of the proxied target, or nil.
	TargetType() reflect.Type
	// ProxiedInterfaces returns the interface types this proxy exposes,
	// including introduced interfaces.
	ProxiedInterfaces() []reflect.Type
	// IsInterfaceProxy reports whether this proxy dispatches over its declared
	// interfaces (interface strategy) rather than over the full method set of
	// the target type (subclass strategy).
	IsInterfaceProxy() bool
}

// AopProxyType is the reflect.Type of the AopProxy marker interface.
var AopProxyType = reflect.TypeOf((*AopProxy)(nil)).Elem()

// TargetSource supplies the object that actually executes a proxied method
// call. It decouples proxy identity from target instance identity, enabling
// pooling, lazy instantiation and hot swapping. A TargetSource is owned by
// exactly one proxy configuration.
//
// TargetSource 提供真正执行被代理方法调用的对象。它将代理身份与目标实例身份解耦，
// 支持池化、延迟实例化和热替换。一个 TargetSource 只归一个代理配置所有。
type TargetSource interface {
	// TargetType returns the type of targets returned by GetTarget, or nil
	// when it is not known in advance.
	TargetType() reflect.Type
	// IsStatic reports whether GetTarget always returns the same object, in
	// which case the caller may keep the returned target and skip ReleaseTarget.
	IsStatic() bool
	// GetTarget returns a target instance for one method invocation.
	GetTarget() (interface{}, error)
	// ReleaseTarget gives the instance obtained from GetTarget back.
	ReleaseTarget(target interface{}) error
}

// TargetSourceCreator produces a custom TargetSource for a bean, or nil when it
// has no opinion. Creators run in configured order; the first non-nil wins and
// short-circuits normal bean instantiation.
//
// TargetSourceCreator 为 bean 生成自定义 TargetSource，没有意见时返回 nil。
// 创建器按配置顺序执行；第一个非 nil 的结果生效并短路正常的 bean 实例化。
type TargetSourceCreator interface {
	TargetSource(beanType reflect.Type, beanName string) TargetSource
}

// TargetSourceCreatorFunc adapts a function to the TargetSourceCreator interface.
type TargetSourceCreatorFunc func(beanType reflect.Type, beanName string) TargetSource

func (f TargetSourceCreatorFunc) TargetSource(beanType reflect.Type, beanName string) TargetSource {
	return f(beanType, beanName)
}

// InfrastructureMarker marks framework-internal objects that must never be
// proxied by an auto-proxy creator, in addition to Advice, Advisor and
// Pointcut implementations which are always exempt.
//
// InfrastructureMarker 标记框架内部对象，自动代理创建器绝不能代理它们；
// 此外 Advice、Advisor 和 Pointcut 的实现始终豁免。
type InfrastructureMarker interface {
	AopInfrastructureBean()
}
