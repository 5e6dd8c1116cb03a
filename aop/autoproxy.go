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
	"strings"
	"sync"

	"github.com/aopkit/aopkit/api/types"
)

var (
	interceptorType  = reflect.TypeOf((*types.Interceptor)(nil)).Elem()
	beforeAdviceType = reflect.TypeOf((*types.BeforeAdvice)(nil)).Elem()
	afterAdviceType  = reflect.TypeOf((*types.AfterReturningAdvice)(nil)).Elem()
	throwsAdviceType = reflect.TypeOf((*types.ThrowsAdvice)(nil)).Elem()
	pointcutType     = reflect.TypeOf((*types.Pointcut)(nil)).Elem()
	infraMarkerType  = reflect.TypeOf((*types.InfrastructureMarker)(nil)).Elem()
)

// infrastructureTypes are the advice and machinery shapes that mark a bean as
// part of the AOP infrastructure itself. Advice has no methods of its own, so
// the concrete shapes stand in for it.
var infrastructureTypes = []reflect.Type{
	interceptorType, beforeAdviceType, afterAdviceType, throwsAdviceType,
	AdvisorType, pointcutType, infraMarkerType,
}

// proxyingPolicy decides which advisors apply to one bean. The base creator
// owns caching and lifecycle mechanics; concrete creators plug in a policy.
type proxyingPolicy interface {
	// advisorsForBean returns the advisors for the bean, or proxy=false when
	// the bean must not be proxied at all.
	advisorsForBean(beanType reflect.Type, beanName string, customTargetSource types.TargetSource) (advisors []types.Advisor, proxy bool, err error)
}

// AutoProxyCreator is a bean post-processor that replaces eligible beans with
// AOP proxies during container initialization. It hooks three phases:
//
//   - BeforeInstantiation: a custom target source may short-circuit normal
//     instantiation with an immediately created proxy.
//   - EarlyBeanReference: circular references force proxy creation before the
//     bean finishes initializing; the creator remembers the instance so the
//     later phase does not wrap it a second time.
//   - AfterInitialization: the normal path, wrapping the finished bean.
//
// Eligibility decisions are cached per bean so repeated passes are cheap and
// idempotent: a given bean is proxied at most once per creator.
//
// AutoProxyCreator 是一个 bean 后处理器，在容器初始化期间把符合条件的 bean
// 替换为 AOP 代理。资格判定按 bean 缓存，重复处理廉价且幂等：每个创建器对
// 同一 bean 最多代理一次。
type AutoProxyCreator struct {
	config   types.Config
	registry types.BeanRegistry
	policy   proxyingPolicy
	factory  AopProxyFactory

	// Flags are copied into every proxy configuration this creator builds.
	Flags ProxyFlags
	// FreezeProxy freezes each proxy configuration after assembly.
	FreezeProxy bool
	// CommonInterceptorNames are bean names of interceptors applied to every
	// proxied bean ahead of the bean-specific advisors.
	CommonInterceptorNames []string
	// ApplyCommonInterceptorsFirst controls whether common interceptors sort
	// before the bean-specific advisors. Defaults to true in NewAutoProxyCreator.
	ApplyCommonInterceptorsFirst bool
	// TargetSourceCreators are consulted in order during BeforeInstantiation;
	// the first non-nil target source wins and short-circuits instantiation.
	TargetSourceCreators []types.TargetSourceCreator

	// advisedBeans caches eligibility per cache key: true means "was proxied",
	// false means "do not proxy". Missing means undecided.
	advisedBeans sync.Map
	// proxyTypes caches the predicted proxy type for beans proxied during
	// BeforeInstantiation.
	proxyTypes sync.Map
	// targetSourced marks beans already proxied around a custom target source
	// during BeforeInstantiation; later phases leave them alone.
	targetSourced sync.Map
	// earlyProxyReferences records, by cache key, the raw instance a proxy was
	// already created for during circular-reference resolution.
	earlyProxyReferences sync.Map
}

var _ types.InstantiationAwareBeanPostProcessor = (*AutoProxyCreator)(nil)

func newAutoProxyCreator(registry types.BeanRegistry, config types.Config, policy proxyingPolicy) *AutoProxyCreator {
	return &AutoProxyCreator{
		config:                       config,
		registry:                     registry,
		policy:                       policy,
		factory:                      &DefaultAopProxyFactory{},
		ApplyCommonInterceptorsFirst: true,
	}
}

// sameInstance compares bean identity: pointer beans by address, other
// comparable kinds by value.
func sameInstance(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() == reflect.Pointer && vb.Kind() == reflect.Pointer {
		return va.Pointer() == vb.Pointer()
	}
	return va.Type() == vb.Type() && va.Type().Comparable() && a == b
}

// cacheKey identifies a bean across processing phases. Named beans key by
// name, factory beans with the dereference prefix; unnamed beans key by type.
func (c *AutoProxyCreator) cacheKey(beanType reflect.Type, beanName string) interface{} {
	if beanName != "" {
		if beanType != nil && beanType.Implements(factoryBeanType) {
			return types.FactoryBeanPrefix + beanName
		}
		return beanName
	}
	return beanType
}

var factoryBeanType = reflect.TypeOf((*types.FactoryBean)(nil)).Elem()

// isInfrastructureType reports whether the type is part of the AOP machinery
// itself. Such beans are never proxied.
func isInfrastructureType(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for _, infra := range infrastructureTypes {
		if t.Implements(infra) {
			return true
		}
	}
	return false
}

// shouldSkip reports beans excluded from proxying by convention. The raw
// companion of another bean keeps its original, unproxied identity.
func (c *AutoProxyCreator) shouldSkip(beanType reflect.Type, beanName string) bool {
	return strings.HasSuffix(beanName, types.OriginalInstanceSuffix)
}

// PredictBeanType returns the proxy type when this creator already built a
// proxy for the bean during BeforeInstantiation.
func (c *AutoProxyCreator) PredictBeanType(beanType reflect.Type, beanName string) reflect.Type {
	if beanName == "" {
		return nil
	}
	if t, ok := c.proxyTypes.Load(c.cacheKey(beanType, beanName)); ok {
		return t.(reflect.Type)
	}
	return nil
}

// BeforeInstantiation short-circuits bean instantiation with a proxy when a
// target source creator claims the bean.
func (c *AutoProxyCreator) BeforeInstantiation(beanType reflect.Type, beanName string) (interface{}, error) {
	key := c.cacheKey(beanType, beanName)
	if beanName == "" || !c.isTargetSourced(key) {
		if _, decided := c.advisedBeans.Load(key); decided {
			return nil, nil
		}
		if isInfrastructureType(beanType) || c.shouldSkip(beanType, beanName) {
			c.advisedBeans.Store(key, false)
			return nil, nil
		}
	}

	targetSource := c.customTargetSource(beanType, beanName)
	if targetSource == nil {
		return nil, nil
	}
	// A claimed target source always short-circuits instantiation with a
	// proxy. The bean-specific advisor list may be empty at this point;
	// common interceptors still apply.
	advisors, _, err := c.policy.advisorsForBean(beanType, beanName, targetSource)
	if err != nil {
		return nil, err
	}
	created, err := c.createProxy(beanType, beanName, advisors, targetSource)
	if err != nil {
		return nil, err
	}
	if beanName != "" {
		c.targetSourced.Store(key, true)
		c.advisedBeans.Store(key, true)
	}
	c.proxyTypes.Store(key, reflect.TypeOf(created))
	return created, nil
}

func (c *AutoProxyCreator) isTargetSourced(key interface{}) bool {
	_, ok := c.targetSourced.Load(key)
	return ok
}

func (c *AutoProxyCreator) customTargetSource(beanType reflect.Type, beanName string) types.TargetSource {
	if beanName == "" || !c.registry.ContainsBean(beanName) {
		return nil
	}
	for _, creator := range c.TargetSourceCreators {
		if ts := creator.TargetSource(beanType, beanName); ts != nil {
			return ts
		}
	}
	return nil
}

// EarlyBeanReference wraps a half-initialized bean whose reference escapes
// into a circular dependency. The raw instance is remembered so that
// AfterInitialization does not wrap the same instance again.
func (c *AutoProxyCreator) EarlyBeanReference(bean interface{}, beanName string) (interface{}, error) {
	key := c.cacheKey(reflect.TypeOf(bean), beanName)
	c.earlyProxyReferences.Store(key, bean)
	return c.wrapIfNecessary(bean, beanName, key)
}

// AfterInitialization wraps the finished bean in a proxy when advisors apply,
// unless an early reference already produced the proxy for this instance.
func (c *AutoProxyCreator) AfterInitialization(bean interface{}, beanName string) (interface{}, error) {
	if bean == nil {
		return nil, nil
	}
	key := c.cacheKey(reflect.TypeOf(bean), beanName)
	if early, ok := c.earlyProxyReferences.Load(key); ok {
		c.earlyProxyReferences.Delete(key)
		if sameInstance(early, bean) {
			// the proxy already replaced this exact instance earlier
			return bean, nil
		}
	}
	return c.wrapIfNecessary(bean, beanName, key)
}

// wrapIfNecessary is the single wrapping decision point shared by the early
// reference and after-initialization phases.
func (c *AutoProxyCreator) wrapIfNecessary(bean interface{}, beanName string, key interface{}) (interface{}, error) {
	if beanName != "" && c.isTargetSourced(key) {
		// already proxied around a custom target source
		return bean, nil
	}
	if decided, ok := c.advisedBeans.Load(key); ok && decided == false {
		return bean, nil
	}
	beanType := reflect.TypeOf(bean)
	if isInfrastructureType(beanType) || c.shouldSkip(beanType, beanName) {
		c.advisedBeans.Store(key, false)
		return bean, nil
	}

	advisors, proxy, err := c.policy.advisorsForBean(beanType, beanName, nil)
	if err != nil {
		return nil, err
	}
	if !proxy {
		c.advisedBeans.Store(key, false)
		return bean, nil
	}
	c.advisedBeans.Store(key, true)
	created, err := c.createProxy(beanType, beanName, advisors, NewSingletonTargetSource(bean))
	if err != nil {
		return nil, err
	}
	return created, nil
}

// createProxy assembles a proxy configuration for one bean and builds the proxy.
func (c *AutoProxyCreator) createProxy(beanType reflect.Type, beanName string,
	advisors []types.Advisor, targetSource types.TargetSource) (types.AopProxy, error) {

	advised := NewAdvisedSupport(c.config)
	flags := c.Flags
	advised.SetTargetSource(targetSource)

	if !flags.ProxyTargetClass {
		for _, intf := range c.registry.Interfaces(beanName) {
			if err := advised.AddInterface(intf); err != nil {
				return nil, err
			}
		}
	}

	resolved, err := c.buildAdvisors(advisors)
	if err != nil {
		return nil, err
	}
	for _, advisor := range resolved {
		if err := advised.AddAdvisor(advisor); err != nil {
			return nil, err
		}
	}

	if err := advised.SetFlags(flags); err != nil {
		return nil, err
	}
	// policy-returned advisors already passed the class filter for this bean
	advised.SetPreFiltered(c.advisorsPreFiltered())

	proxy, err := c.factory.CreateAopProxy(advised)
	if err != nil {
		return nil, err
	}
	if c.FreezeProxy {
		advised.Freeze()
	}
	c.trace("created proxy for bean %q type %v", beanName, beanType)
	return proxy, nil
}

// advisorsPreFiltered is overridden in spirit by the advisor-based creators,
// whose policies class-filter before returning. The base stays conservative.
func (c *AutoProxyCreator) advisorsPreFiltered() bool {
	if p, ok := c.policy.(interface{ preFiltered() bool }); ok {
		return p.preFiltered()
	}
	return false
}

// buildAdvisors merges the common interceptors with the bean-specific
// advisors, resolving common interceptor names through the registry.
func (c *AutoProxyCreator) buildAdvisors(specific []types.Advisor) ([]types.Advisor, error) {
	common, err := c.resolveCommonInterceptors()
	if err != nil {
		return nil, err
	}
	if len(common) == 0 {
		return specific, nil
	}
	all := make([]types.Advisor, 0, len(common)+len(specific))
	if c.ApplyCommonInterceptorsFirst {
		all = append(all, common...)
		return append(all, specific...), nil
	}
	all = append(all, specific...)
	return append(all, common...), nil
}

func (c *AutoProxyCreator) resolveCommonInterceptors() ([]types.Advisor, error) {
	if len(c.CommonInterceptorNames) == 0 {
		return nil, nil
	}
	advisors := make([]types.Advisor, 0, len(c.CommonInterceptorNames))
	for _, name := range c.CommonInterceptorNames {
		bean, err := c.registry.GetBean(name)
		if err != nil {
			return nil, fmt.Errorf("resolve common interceptor %q: %w", name, err)
		}
		if advisor, ok := bean.(types.Advisor); ok {
			advisors = append(advisors, advisor)
			continue
		}
		registry := c.config.AdapterRegistry
		if registry == nil {
			registry = NewAdviceAdapterRegistry()
		}
		if !registry.Supports(bean) {
			return nil, fmt.Errorf("common interceptor %q is neither advisor nor adaptable advice: %T", name, bean)
		}
		advisors = append(advisors, NewAdvisorForAdvice(bean))
	}
	return advisors, nil
}

func (c *AutoProxyCreator) trace(format string, v ...interface{}) {
	if c.config.OnTrace != nil {
		c.config.OnTrace(format, v...)
	}
}
