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

// Package registry provides an in-memory bean container implementing the
// types.BeanRegistry boundary. It drives the bean post-processor lifecycle the
// auto-proxy creators hook into: before-instantiation short-circuiting, early
// reference exposure for circular dependencies, and after-initialization
// replacement.
//
// registry 包提供实现 types.BeanRegistry 边界的内存 bean 容器。它驱动自动代理
// 创建器所挂接的 bean 后处理器生命周期：实例化前短路、循环依赖的早期引用暴露，
// 以及初始化后替换。
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/aopkit/aopkit/api/types"
)

// BeanDefinition describes one registered bean.
type BeanDefinition struct {
	// Name is the primary bean name, unique in the registry.
	Name string
	// Type is the declared bean type. Optional when Factory is set; the type
	// is then derived from the first created instance.
	Type reflect.Type
	// Factory creates the raw instance. Nil is only valid together with a
	// non-nil Instance.
	Factory func() (interface{}, error)
	// Instance is a pre-built singleton registered as-is. It still passes
	// through the after-initialization hooks on first retrieval.
	Instance interface{}
	// Init runs after instantiation and before the after-initialization
	// hooks. Dependencies on other beans are resolved here, so Init is where
	// circular references surface.
	Init func(bean interface{}) error
	// Singleton caches the created bean; false creates per retrieval.
	Singleton bool
	// Role classifies the definition; infrastructure roles are consulted by
	// role-filtering auto-proxy creators.
	Role types.Role
	// Aliases are alternative names for the bean.
	Aliases []string
	// Interfaces are the interface types the bean declares for proxying.
	Interfaces []reflect.Type
	// ProductType is the produced object type when the bean is a FactoryBean
	// and the product type is known without instantiation.
	ProductType reflect.Type
}

// InMemoryRegistry is a thread-safe bean container. Locks are never held
// across user code: factories, init functions and post-processors all run
// unlocked, with creation state tracked per bean name.
type InMemoryRegistry struct {
	config types.Config
	// parent is consulted for names this registry does not define.
	parent types.BeanRegistry

	mu          sync.Mutex
	definitions map[string]*BeanDefinition
	order       []string
	aliases     map[string]string
	singletons  map[string]interface{}
	// earlySingletons exposes half-initialized beans to cycles, after the
	// early-reference hooks ran on them.
	earlySingletons map[string]interface{}
	// rawEarly keeps the unprocessed instance for the exposedObject decision
	// at the end of creation.
	rawEarly   map[string]interface{}
	inCreation map[string]bool

	processors []types.BeanPostProcessor
}

var _ types.BeanRegistry = (*InMemoryRegistry)(nil)

// New creates an empty registry sharing the given configuration.
func New(config types.Config) *InMemoryRegistry {
	return &InMemoryRegistry{
		config:          config,
		definitions:     map[string]*BeanDefinition{},
		aliases:         map[string]string{},
		singletons:      map[string]interface{}{},
		earlySingletons: map[string]interface{}{},
		rawEarly:        map[string]interface{}{},
		inCreation:      map[string]bool{},
	}
}

// NewWithParent creates a registry that resolves names it does not define
// through the given parent.
func NewWithParent(config types.Config, parent types.BeanRegistry) *InMemoryRegistry {
	r := New(config)
	r.parent = parent
	return r
}

// AddPostProcessor appends a bean post-processor. Processors run in
// registration order on every bean created afterwards.
func (r *InMemoryRegistry) AddPostProcessor(processor types.BeanPostProcessor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors = append(r.processors, processor)
}

// Register adds a bean definition. Names and aliases must be unique.
func (r *InMemoryRegistry) Register(def *BeanDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("bean definition needs a name")
	}
	if def.Factory == nil && def.Instance == nil {
		return fmt.Errorf("bean %q needs a factory or an instance", def.Name)
	}
	if def.Type == nil && def.Instance != nil {
		def.Type = reflect.TypeOf(def.Instance)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[def.Name]; exists {
		return fmt.Errorf("bean %q already registered", def.Name)
	}
	if _, taken := r.aliases[def.Name]; taken {
		return fmt.Errorf("bean name %q collides with an alias", def.Name)
	}
	for _, alias := range def.Aliases {
		if _, exists := r.definitions[alias]; exists {
			return fmt.Errorf("alias %q collides with a bean name", alias)
		}
		if owner, taken := r.aliases[alias]; taken && owner != def.Name {
			return fmt.Errorf("alias %q already points to bean %q", alias, owner)
		}
	}
	r.definitions[def.Name] = def
	r.order = append(r.order, def.Name)
	for _, alias := range def.Aliases {
		r.aliases[alias] = def.Name
	}
	return nil
}

// RegisterInstance registers a pre-built singleton under the given name.
func (r *InMemoryRegistry) RegisterInstance(name string, instance interface{}) error {
	return r.Register(&BeanDefinition{Name: name, Instance: instance, Singleton: true})
}

// canonicalName resolves aliases to the primary bean name.
func (r *InMemoryRegistry) canonicalName(name string) string {
	if primary, ok := r.aliases[name]; ok {
		return primary
	}
	return name
}

// ContainsBean reports whether the name or alias is registered here or in a
// parent registry.
func (r *InMemoryRegistry) ContainsBean(name string) bool {
	name = dereferencedName(name)
	r.mu.Lock()
	_, ok := r.definitions[r.canonicalName(name)]
	r.mu.Unlock()
	if !ok && r.parent != nil {
		return r.parent.ContainsBean(name)
	}
	return ok
}

// IsCurrentlyInCreation reports whether the named bean is mid-construction.
func (r *InMemoryRegistry) IsCurrentlyInCreation(name string) bool {
	name = dereferencedName(name)
	r.mu.Lock()
	name = r.canonicalName(name)
	inCreation := r.inCreation[name]
	_, local := r.definitions[name]
	r.mu.Unlock()
	if !local && r.parent != nil {
		return r.parent.IsCurrentlyInCreation(name)
	}
	return inCreation
}

// Aliases returns the aliases of the named bean.
func (r *InMemoryRegistry) Aliases(name string) []string {
	r.mu.Lock()
	def, ok := r.definitions[r.canonicalName(name)]
	r.mu.Unlock()
	if !ok {
		if r.parent != nil {
			return r.parent.Aliases(name)
		}
		return nil
	}
	out := make([]string, len(def.Aliases))
	copy(out, def.Aliases)
	return out
}

// Role returns the declared role, RoleApplication for unknown names.
func (r *InMemoryRegistry) Role(name string) types.Role {
	r.mu.Lock()
	def, ok := r.definitions[r.canonicalName(name)]
	r.mu.Unlock()
	if ok {
		return def.Role
	}
	if r.parent != nil {
		return r.parent.Role(name)
	}
	return types.RoleApplication
}

// Interfaces returns the proxy interfaces the definition declares.
func (r *InMemoryRegistry) Interfaces(name string) []reflect.Type {
	r.mu.Lock()
	def, ok := r.definitions[r.canonicalName(name)]
	r.mu.Unlock()
	if !ok {
		if r.parent != nil {
			return r.parent.Interfaces(name)
		}
		return nil
	}
	if len(def.Interfaces) == 0 {
		return nil
	}
	out := make([]reflect.Type, len(def.Interfaces))
	copy(out, def.Interfaces)
	return out
}

var factoryBeanType = reflect.TypeOf((*types.FactoryBean)(nil)).Elem()

// BeanNamesForType returns, in registration order, the names of beans whose
// declared type is assignable to t. Factory beans are judged by their declared
// product type and never instantiated by the scan. Parent registry names come
// after local ones; a local definition shadows a parent one of the same name.
func (r *InMemoryRegistry) BeanNamesForType(t reflect.Type) []string {
	r.mu.Lock()
	var names []string
	for _, name := range r.order {
		def := r.definitions[name]
		candidate := def.Type
		if candidate != nil && candidate.Implements(factoryBeanType) {
			candidate = def.ProductType
		}
		if candidate == nil {
			continue
		}
		if typeMatches(candidate, t) {
			names = append(names, name)
		}
	}
	r.mu.Unlock()
	if r.parent != nil {
		for _, name := range r.parent.BeanNamesForType(t) {
			r.mu.Lock()
			_, shadowed := r.definitions[r.canonicalName(name)]
			r.mu.Unlock()
			if !shadowed {
				names = append(names, name)
			}
		}
	}
	return names
}

// sameInstance compares bean identity. Pointer beans compare by address;
// other comparable kinds fall back to value equality.
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

func typeMatches(candidate, query reflect.Type) bool {
	if query.Kind() == reflect.Interface {
		return candidate.Implements(query)
	}
	return candidate.AssignableTo(query)
}

func dereferencedName(name string) string {
	if len(name) > 0 && name[:1] == types.FactoryBeanPrefix {
		return name[1:]
	}
	return name
}

// GetBean returns the named bean, creating it on demand. The FactoryBeanPrefix
// returns the factory object itself instead of its product. A request for a
// bean that is mid-construction fails with a *types.BeanCreationError whose
// InCreation flag is set, which callers treat as the circular-reference signal.
//
// The in-creation signal assumes each bean is first resolved from a single
// goroutine; concurrent first lookups of the same singleton are the caller's
// to serialize, or the second caller may observe the in-creation error while
// the first is still constructing the bean.
func (r *InMemoryRegistry) GetBean(name string) (interface{}, error) {
	factoryRef := len(name) > 0 && name[:1] == types.FactoryBeanPrefix
	name = dereferencedName(name)

	r.mu.Lock()
	name = r.canonicalName(name)
	def, ok := r.definitions[name]
	if !ok {
		r.mu.Unlock()
		if r.parent != nil {
			if factoryRef {
				return r.parent.GetBean(types.FactoryBeanPrefix + name)
			}
			return r.parent.GetBean(name)
		}
		return nil, &types.BeanCreationError{BeanName: name, Err: fmt.Errorf("no bean definition")}
	}

	if bean, ok := r.singletons[name]; ok {
		r.mu.Unlock()
		return r.finishLookup(bean, factoryRef, name)
	}
	if r.inCreation[name] {
		// a cycle closed: serve the early reference when one is exposed
		if early, ok := r.earlySingletons[name]; ok {
			r.mu.Unlock()
			return r.finishLookup(early, factoryRef, name)
		}
		r.mu.Unlock()
		return nil, &types.BeanCreationError{BeanName: name, InCreation: true}
	}
	if def.Singleton {
		r.inCreation[name] = true
	}
	processors := r.processors
	r.mu.Unlock()

	bean, err := r.createBean(def, processors)

	r.mu.Lock()
	delete(r.inCreation, name)
	delete(r.earlySingletons, name)
	delete(r.rawEarly, name)
	if err == nil && def.Singleton {
		r.singletons[name] = bean
	}
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return r.finishLookup(bean, factoryRef, name)
}

// createBean runs the full creation lifecycle for one definition.
func (r *InMemoryRegistry) createBean(def *BeanDefinition, processors []types.BeanPostProcessor) (interface{}, error) {
	// phase 1: a processor may short-circuit instantiation entirely
	for _, processor := range processors {
		aware, ok := processor.(types.InstantiationAwareBeanPostProcessor)
		if !ok {
			continue
		}
		bean, err := aware.BeforeInstantiation(def.Type, def.Name)
		if err != nil {
			return nil, &types.BeanCreationError{BeanName: def.Name, Err: err}
		}
		if bean != nil {
			return r.applyAfterInitialization(bean, def.Name, processors)
		}
	}

	// phase 2: raw instantiation
	var raw interface{}
	var err error
	if def.Factory != nil {
		raw, err = def.Factory()
		if err != nil {
			return nil, &types.BeanCreationError{BeanName: def.Name, Err: err}
		}
	} else {
		raw = def.Instance
	}
	if def.Type == nil {
		def.Type = reflect.TypeOf(raw)
	}

	// phase 3: expose an early reference before Init runs, so that a
	// dependency cycle closing during Init observes this bean (possibly
	// already proxied) instead of failing
	if def.Singleton {
		early := raw
		for _, processor := range processors {
			if aware, ok := processor.(types.InstantiationAwareBeanPostProcessor); ok {
				wrapped, err := aware.EarlyBeanReference(early, def.Name)
				if err != nil {
					return nil, &types.BeanCreationError{BeanName: def.Name, Err: err}
				}
				if wrapped != nil {
					early = wrapped
				}
			}
		}
		r.mu.Lock()
		r.earlySingletons[def.Name] = early
		r.rawEarly[def.Name] = raw
		r.mu.Unlock()
	}

	// phase 4: initialization, where dependencies (and cycles) resolve
	if def.Init != nil {
		if err := def.Init(raw); err != nil {
			return nil, &types.BeanCreationError{BeanName: def.Name, Err: err}
		}
	}

	// phase 5: after-initialization hooks, then reconcile with the early
	// reference: when a cycle consumed the early reference and no hook
	// replaced the bean afterwards, the early reference is the bean
	bean, err := r.applyAfterInitialization(raw, def.Name, processors)
	if err != nil {
		return nil, err
	}
	if def.Singleton {
		r.mu.Lock()
		early, exposed := r.earlySingletons[def.Name]
		rawExposed := r.rawEarly[def.Name]
		r.mu.Unlock()
		if exposed && sameInstance(bean, rawExposed) && !sameInstance(early, rawExposed) {
			bean = early
		}
	}
	return bean, nil
}

func (r *InMemoryRegistry) applyAfterInitialization(bean interface{}, beanName string, processors []types.BeanPostProcessor) (interface{}, error) {
	for _, processor := range processors {
		replaced, err := processor.AfterInitialization(bean, beanName)
		if err != nil {
			return nil, &types.BeanCreationError{BeanName: beanName, Err: err}
		}
		if replaced != nil {
			bean = replaced
		}
	}
	return bean, nil
}

// finishLookup applies the factory-bean dereference rule to a resolved bean.
func (r *InMemoryRegistry) finishLookup(bean interface{}, factoryRef bool, name string) (interface{}, error) {
	factory, isFactory := bean.(types.FactoryBean)
	if factoryRef {
		if !isFactory {
			return nil, &types.BeanCreationError{BeanName: name, Err: fmt.Errorf("bean is not a factory bean")}
		}
		return bean, nil
	}
	if !isFactory {
		return bean, nil
	}
	product, err := factory.Object()
	if err != nil {
		return nil, &types.BeanCreationError{BeanName: name, Err: err}
	}
	return product, nil
}
