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
	"sync"

	"github.com/aopkit/aopkit/api/types"
)

// ProxyFlags are the construction-time switches of a proxy configuration.
type ProxyFlags struct {
	// ProxyTargetClass forces the subclass strategy: the proxy dispatches over
	// the full method set of the target type instead of declared interfaces.
	ProxyTargetClass bool
	// Optimize allows the factory to apply aggressive strategy choices; it
	// implies the subclass strategy.
	Optimize bool
	// ExposeProxy makes the proxy available to interceptors and the target
	// through the invocation record.
	ExposeProxy bool
	// Frozen forbids any advice change once the configuration is complete.
	Frozen bool
	// Opaque hides the Advised introspection interface from proxy clients.
	Opaque bool
}

// AdvisedSupport is the proxy configuration: the ordered advisor list, the
// target source, the proxy flags and the interfaces to implement. It is
// mutable until frozen; afterwards it is treated as immutable and is safely
// read-shared by all goroutines invoking the proxy.
//
// AdvisedSupport 是代理配置：有序的 Advisor 列表、目标源、代理标志以及要实现的接口。
// 冻结之前可变；冻结之后视为不可变，可被所有调用代理的 goroutine 安全地共享读取。
type AdvisedSupport struct {
	config types.Config
	flags  ProxyFlags

	mu           sync.RWMutex
	advisors     []types.Advisor
	interfaces   []reflect.Type
	targetSource types.TargetSource
	// preFiltered marks that advisors were already class-filtered for this
	// configuration's target, so chain building skips the class filter.
	preFiltered bool

	chainBuilder *ChainBuilder

	// methodCache caches the built chain per method. The chain builder itself
	// always recomputes from scratch; this configuration is the caller that
	// caches, keyed by method name plus signature so same-named methods from
	// different proxied interfaces do not share a chain.
	methodCache sync.Map
}

// NewAdvisedSupport creates an empty proxy configuration using the given
// shared Config for adapter lookup and logging.
func NewAdvisedSupport(config types.Config) *AdvisedSupport {
	return &AdvisedSupport{
		config:       config,
		chainBuilder: NewChainBuilder(config.AdapterRegistry),
	}
}

// Config returns the shared configuration.
func (as *AdvisedSupport) Config() types.Config { return as.config }

// Flags returns a copy of the proxy flags.
func (as *AdvisedSupport) Flags() ProxyFlags {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.flags
}

// SetFlags replaces the proxy flags. Fails once frozen.
func (as *AdvisedSupport) SetFlags(flags ProxyFlags) error {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.flags.Frozen {
		return ErrFrozen
	}
	as.flags = flags
	return nil
}

// Freeze forbids any further advice change.
func (as *AdvisedSupport) Freeze() {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.flags.Frozen = true
}

// IsFrozen reports whether the configuration is frozen.
func (as *AdvisedSupport) IsFrozen() bool {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.flags.Frozen
}

// SetTarget wraps the given object in a SingletonTargetSource.
func (as *AdvisedSupport) SetTarget(target interface{}) {
	as.SetTargetSource(NewSingletonTargetSource(target))
}

// SetTargetSource replaces the target source. A nil source resets to an empty one.
func (as *AdvisedSupport) SetTargetSource(ts types.TargetSource) {
	as.mu.Lock()
	defer as.mu.Unlock()
	if ts == nil {
		ts = EmptyTargetSource
	}
	as.targetSource = ts
}

// TargetSource returns the current target source, never nil.
func (as *AdvisedSupport) TargetSource() types.TargetSource {
	as.mu.RLock()
	defer as.mu.RUnlock()
	if as.targetSource == nil {
		return EmptyTargetSource
	}
	return as.targetSource
}

// TargetType returns the target source's target type, or nil.
func (as *AdvisedSupport) TargetType() reflect.Type {
	return as.TargetSource().TargetType()
}

// SetPreFiltered marks that advisors already passed class filtering for this
// configuration's target.
func (as *AdvisedSupport) SetPreFiltered(preFiltered bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.preFiltered = preFiltered
}

// IsPreFiltered reports whether advisors already passed class filtering.
func (as *AdvisedSupport) IsPreFiltered() bool {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return as.preFiltered
}

// AddInterface declares an interface the proxy should implement. The target
// must actually implement it unless an introduction advisor serves it.
func (as *AdvisedSupport) AddInterface(intf reflect.Type) error {
	if intf == nil || intf.Kind() != reflect.Interface {
		return fmt.Errorf("proxy interface must be an interface type, got %v", intf)
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.flags.Frozen {
		return ErrFrozen
	}
	for _, existing := range as.interfaces {
		if existing == intf {
			return nil
		}
	}
	as.interfaces = append(as.interfaces, intf)
	return nil
}

// ProxiedInterfaces returns the declared interfaces, including interfaces
// added by introduction advisors and the implicit AopProxy marker.
func (as *AdvisedSupport) ProxiedInterfaces() []reflect.Type {
	as.mu.RLock()
	defer as.mu.RUnlock()
	out := make([]reflect.Type, len(as.interfaces), len(as.interfaces)+1)
	copy(out, as.interfaces)
	return append(out, types.AopProxyType)
}

// hasUserSuppliedInterfaces reports whether any declared interface is a real
// user interface rather than the default AopProxy marker.
func (as *AdvisedSupport) hasUserSuppliedInterfaces() bool {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for _, intf := range as.interfaces {
		if intf != types.AopProxyType {
			return true
		}
	}
	return false
}

// AddAdvice appends advice wrapped in a match-everything advisor. Fails fast
// when no adapter understands the advice shape.
func (as *AdvisedSupport) AddAdvice(advice types.Advice) error {
	if !as.chainBuilder.Supports(advice) {
		return fmt.Errorf("%w: %T", ErrUnknownAdviceType, advice)
	}
	return as.AddAdvisor(NewAdvisorForAdvice(advice))
}

// AddAdvisor appends an advisor. An introduction advisor is validated and its
// interfaces become part of the proxied interface set.
func (as *AdvisedSupport) AddAdvisor(advisor types.Advisor) error {
	return as.AddAdvisorAt(-1, advisor)
}

// AddAdvisorAt inserts an advisor at the given position (-1 appends).
func (as *AdvisedSupport) AddAdvisorAt(pos int, advisor types.Advisor) error {
	if ia, ok := advisor.(types.IntroductionAdvisor); ok {
		if err := ia.ValidateInterfaces(); err != nil {
			return err
		}
		for _, intf := range ia.Interfaces() {
			if err := as.AddInterface(intf); err != nil {
				return err
			}
		}
	}
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.flags.Frozen {
		return ErrFrozen
	}
	if pos < 0 || pos >= len(as.advisors) {
		as.advisors = append(as.advisors, advisor)
	} else {
		as.advisors = append(as.advisors[:pos], append([]types.Advisor{advisor}, as.advisors[pos:]...)...)
	}
	as.adviceChangedLocked()
	return nil
}

// RemoveAdvisorAt removes the advisor at the given position.
func (as *AdvisedSupport) RemoveAdvisorAt(pos int) error {
	as.mu.Lock()
	defer as.mu.Unlock()
	if as.flags.Frozen {
		return ErrFrozen
	}
	if pos < 0 || pos >= len(as.advisors) {
		return fmt.Errorf("advisor index %d out of range [0, %d)", pos, len(as.advisors))
	}
	as.advisors = append(as.advisors[:pos], as.advisors[pos+1:]...)
	as.adviceChangedLocked()
	return nil
}

// Advisors returns a snapshot of the configured advisors in order.
func (as *AdvisedSupport) Advisors() []types.Advisor {
	as.mu.RLock()
	defer as.mu.RUnlock()
	out := make([]types.Advisor, len(as.advisors))
	copy(out, as.advisors)
	return out
}

// AdvisorCount returns the number of configured advisors.
func (as *AdvisedSupport) AdvisorCount() int {
	as.mu.RLock()
	defer as.mu.RUnlock()
	return len(as.advisors)
}

// adviceChangedLocked invalidates the per-method chain cache.
func (as *AdvisedSupport) adviceChangedLocked() {
	as.methodCache.Range(func(key, _ interface{}) bool {
		as.methodCache.Delete(key)
		return true
	})
}

// ChainForMethod returns the interceptor chain for the named method, building
// and caching it on first use. Static pointcut results are thereby evaluated
// once per method for the lifetime of the configuration; runtime matchers stay
// in the chain as deferred pairs.
func (as *AdvisedSupport) ChainForMethod(method reflect.Method, targetType reflect.Type) []interface{} {
	key := chainCacheKey{name: method.Name, signature: method.Type}
	if cached, ok := as.methodCache.Load(key); ok {
		return cached.([]interface{})
	}
	chain := as.chainBuilder.InterceptorsForMethod(as, method, targetType)
	actual, _ := as.methodCache.LoadOrStore(key, chain)
	return actual.([]interface{})
}

// chainCacheKey distinguishes same-named methods with different signatures.
type chainCacheKey struct {
	name      string
	signature reflect.Type
}

// HasIntroductions reports whether any introduction advisor matches the type.
func (as *AdvisedSupport) HasIntroductions(targetType reflect.Type) bool {
	as.mu.RLock()
	defer as.mu.RUnlock()
	for _, advisor := range as.advisors {
		if ia, ok := advisor.(types.IntroductionAdvisor); ok {
			if ia.ClassFilter().Matches(targetType) {
				return true
			}
		}
	}
	return false
}
