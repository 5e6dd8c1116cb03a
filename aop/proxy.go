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

// ExposedProxyAttribute is the invocation attribute key under which a proxy
// configured with ExposeProxy publishes itself.
const ExposedProxyAttribute = "aopkit.exposedProxy"

// AopProxyFactory turns a completed proxy configuration into a live proxy.
type AopProxyFactory interface {
	CreateAopProxy(advised *AdvisedSupport) (types.AopProxy, error)
}

// DefaultAopProxyFactory picks between the two proxy strategies:
//
//   - interface strategy: the proxy dispatches over the union of the declared
//     interfaces' methods. Chosen when the configuration declares at least one
//     real user interface and neither Optimize nor ProxyTargetClass is set.
//   - concrete strategy: the proxy dispatches over the full exported method
//     set of the target type. Chosen otherwise.
//
// When the target is itself a proxy, the concrete strategy degrades to the
// interface strategy over the inner proxy's interfaces, so stacking proxies
// never narrows the dispatchable surface.
//
// DefaultAopProxyFactory 在两种代理策略之间选择：接口策略按声明接口的方法并集
// 分发；具体类型策略按目标类型的全部导出方法分发。当目标本身就是代理时，具体
// 类型策略退化为针对内层代理接口的接口策略，保证叠加代理不会收窄可分发面。
type DefaultAopProxyFactory struct{}

var _ AopProxyFactory = (*DefaultAopProxyFactory)(nil)

func (f *DefaultAopProxyFactory) CreateAopProxy(advised *AdvisedSupport) (types.AopProxy, error) {
	flags := advised.Flags()
	targetType := advised.TargetType()

	if flags.Optimize || flags.ProxyTargetClass || !advised.hasUserSuppliedInterfaces() {
		if targetType == nil {
			return nil, fmt.Errorf("%w: concrete proxy needs a target type", ErrNoTarget)
		}
		if targetType.Implements(types.AopProxyType) {
			// target is already a proxy: degrade to interface dispatch over
			// the inner proxy's interfaces so stacking never narrows dispatch
			if target, err := advised.TargetSource().GetTarget(); err == nil {
				if inner, ok := target.(types.AopProxy); ok {
					for _, intf := range inner.ProxiedInterfaces() {
						if intf == types.AopProxyType {
							continue
						}
						if err := advised.AddInterface(intf); err != nil {
							return nil, err
						}
					}
				}
			}
			return newAopProxy(advised, nil), nil
		}
		return newAopProxy(advised, targetType), nil
	}
	return newAopProxy(advised, nil), nil
}

// aopProxy is the single proxy implementation. dispatchType non-nil selects
// the concrete strategy; nil selects the interface strategy.
type aopProxy struct {
	advised      *AdvisedSupport
	dispatchType reflect.Type
}

var _ types.AopProxy = (*aopProxy)(nil)

func newAopProxy(advised *AdvisedSupport, dispatchType reflect.Type) *aopProxy {
	return &aopProxy{advised: advised, dispatchType: dispatchType}
}

func (p *aopProxy) AopInfrastructureBean() {}

func (p *aopProxy) TargetType() reflect.Type {
	return p.advised.TargetType()
}

func (p *aopProxy) IsInterfaceProxy() bool {
	return p.dispatchType == nil
}

// ProxiedInterfaces returns the interfaces the proxy answers for, always
// including the AopProxy marker itself.
func (p *aopProxy) ProxiedInterfaces() []reflect.Type {
	return p.advised.ProxiedInterfaces()
}

// Advised returns the proxy configuration for introspection, or nil when the
// configuration is opaque.
func (p *aopProxy) Advised() *AdvisedSupport {
	if p.advised.Flags().Opaque {
		return nil
	}
	return p.advised
}

// resolveMethod finds the method the call names on the dispatch surface.
func (p *aopProxy) resolveMethod(methodName string) (reflect.Method, error) {
	if p.dispatchType != nil {
		if m, ok := p.dispatchType.MethodByName(methodName); ok {
			return m, nil
		}
		return reflect.Method{}, fmt.Errorf("%w: %s on %v", ErrMethodNotProxied, methodName, p.dispatchType)
	}
	for _, intf := range p.advised.ProxiedInterfaces() {
		if intf == types.AopProxyType {
			continue
		}
		if m, ok := intf.MethodByName(methodName); ok {
			return m, nil
		}
	}
	return reflect.Method{}, fmt.Errorf("%w: %s", ErrMethodNotProxied, methodName)
}

// Invoke runs one proxied call: resolve the method, obtain the target, build
// or fetch the chain, and drive the invocation. A static target source is
// resolved without release; a dynamic one is released after the call.
func (p *aopProxy) Invoke(methodName string, args ...interface{}) ([]interface{}, error) {
	method, err := p.resolveMethod(methodName)
	if err != nil {
		return nil, err
	}

	ts := p.advised.TargetSource()
	target, err := ts.GetTarget()
	if err != nil {
		return nil, err
	}
	if !ts.IsStatic() {
		defer func() {
			if releaseErr := ts.ReleaseTarget(target); releaseErr != nil {
				p.advised.Config().Logger.Printf("aop: release target: %v", releaseErr)
			}
		}()
	}
	targetType := ts.TargetType()
	if target != nil {
		targetType = reflect.TypeOf(target)
	}

	chain := p.advised.ChainForMethod(method, targetType)

	if len(chain) == 0 && target != nil {
		// no advice applies: call the target directly, skipping the
		// invocation record entirely
		if _, ok := targetType.MethodByName(methodName); ok {
			return invokeReflectively(target, methodName, args)
		}
	}

	invocation, err := NewMethodInvocation(p, target, targetType, methodName, args, chain)
	if err != nil {
		return nil, err
	}
	if p.advised.Flags().ExposeProxy {
		invocation.SetAttribute(ExposedProxyAttribute, types.AopProxy(p))
	}
	if onTrace := p.advised.Config().OnTrace; onTrace != nil {
		onTrace("aop: invoke %v.%s id=%s chain=%d", targetType, methodName, invocation.ID(), len(chain))
	}
	return invocation.Proceed()
}

// CurrentProxy returns the proxy a running invocation came through, when that
// proxy was configured with ExposeProxy.
func CurrentProxy(invocation types.MethodInvocation) (types.AopProxy, bool) {
	value, ok := invocation.Attribute(ExposedProxyAttribute)
	if !ok {
		return nil, false
	}
	proxy, ok := value.(types.AopProxy)
	return proxy, ok
}

// ProxyFactory is the programmatic entry point: configure a target, advisors
// and flags, then ask for a proxy.
//
//	factory := aop.NewProxyFactory(config)
//	factory.SetTarget(service)
//	_ = factory.AddAdvice(logging)
//	proxy, err := factory.GetProxy()
type ProxyFactory struct {
	*AdvisedSupport
	proxyFactory AopProxyFactory
}

// NewProxyFactory creates an empty programmatic proxy factory.
func NewProxyFactory(config types.Config) *ProxyFactory {
	return &ProxyFactory{
		AdvisedSupport: NewAdvisedSupport(config),
		proxyFactory:   &DefaultAopProxyFactory{},
	}
}

// NewProxyFactoryFor creates a factory preconfigured with the given target.
func NewProxyFactoryFor(target interface{}, config types.Config) *ProxyFactory {
	f := NewProxyFactory(config)
	f.SetTarget(target)
	return f
}

// GetProxy builds a proxy for the current configuration.
func (f *ProxyFactory) GetProxy() (types.AopProxy, error) {
	return f.proxyFactory.CreateAopProxy(f.AdvisedSupport)
}
