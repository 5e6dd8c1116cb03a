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
	"sync"

	"github.com/aopkit/aopkit/api/types"
)

// SingletonTargetSource holds one fixed target instance. It is static: the
// proxy resolves the target once and never releases it.
type SingletonTargetSource struct {
	target interface{}
}

var _ types.TargetSource = (*SingletonTargetSource)(nil)

// NewSingletonTargetSource wraps the given instance.
func NewSingletonTargetSource(target interface{}) *SingletonTargetSource {
	return &SingletonTargetSource{target: target}
}

func (s *SingletonTargetSource) TargetType() reflect.Type {
	return reflect.TypeOf(s.target)
}

func (s *SingletonTargetSource) IsStatic() bool { return true }

func (s *SingletonTargetSource) GetTarget() (interface{}, error) { return s.target, nil }

func (s *SingletonTargetSource) ReleaseTarget(interface{}) error { return nil }

// emptyTargetSource is the canonical no-target source, used by proxies that
// are served entirely by introductions.
type emptyTargetSource struct{}

// EmptyTargetSource is the shared no-target source.
var EmptyTargetSource types.TargetSource = emptyTargetSource{}

func (emptyTargetSource) TargetType() reflect.Type        { return nil }
func (emptyTargetSource) IsStatic() bool                  { return true }
func (emptyTargetSource) GetTarget() (interface{}, error) { return nil, nil }
func (emptyTargetSource) ReleaseTarget(interface{}) error { return nil }

// LazyInitTargetSource defers target creation to the first invocation through
// the proxy. The supplier runs at most once.
type LazyInitTargetSource struct {
	targetType reflect.Type
	supplier   func() (interface{}, error)

	once   sync.Once
	target interface{}
	err    error
}

var _ types.TargetSource = (*LazyInitTargetSource)(nil)

// NewLazyInitTargetSource creates a lazy source. The declared type lets
// pointcuts and the proxy factory work before the target exists.
func NewLazyInitTargetSource(targetType reflect.Type, supplier func() (interface{}, error)) *LazyInitTargetSource {
	return &LazyInitTargetSource{targetType: targetType, supplier: supplier}
}

func (s *LazyInitTargetSource) TargetType() reflect.Type { return s.targetType }

func (s *LazyInitTargetSource) IsStatic() bool { return false }

func (s *LazyInitTargetSource) GetTarget() (interface{}, error) {
	s.once.Do(func() {
		s.target, s.err = s.supplier()
	})
	return s.target, s.err
}

func (s *LazyInitTargetSource) ReleaseTarget(interface{}) error { return nil }

// HotSwappableTargetSource allows replacing the target behind a live proxy.
// Swap is atomic with respect to concurrent invocations.
type HotSwappableTargetSource struct {
	mu     sync.RWMutex
	target interface{}
}

var _ types.TargetSource = (*HotSwappableTargetSource)(nil)

// NewHotSwappableTargetSource starts with the given initial target.
func NewHotSwappableTargetSource(initial interface{}) *HotSwappableTargetSource {
	return &HotSwappableTargetSource{target: initial}
}

func (s *HotSwappableTargetSource) TargetType() reflect.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return reflect.TypeOf(s.target)
}

func (s *HotSwappableTargetSource) IsStatic() bool { return false }

func (s *HotSwappableTargetSource) GetTarget() (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target, nil
}

func (s *HotSwappableTargetSource) ReleaseTarget(interface{}) error { return nil }

// Swap replaces the target and returns the previous one.
func (s *HotSwappableTargetSource) Swap(newTarget interface{}) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.target
	s.target = newTarget
	return old
}

// PrototypeTargetSource creates a fresh target for every invocation through
// the proxy and releases it afterwards.
type PrototypeTargetSource struct {
	targetType reflect.Type
	factory    func() (interface{}, error)
	destroy    func(interface{})
}

var _ types.TargetSource = (*PrototypeTargetSource)(nil)

// NewPrototypeTargetSource creates a per-invocation source. destroy may be
// nil when released instances need no cleanup.
func NewPrototypeTargetSource(targetType reflect.Type, factory func() (interface{}, error), destroy func(interface{})) *PrototypeTargetSource {
	return &PrototypeTargetSource{targetType: targetType, factory: factory, destroy: destroy}
}

func (s *PrototypeTargetSource) TargetType() reflect.Type { return s.targetType }

func (s *PrototypeTargetSource) IsStatic() bool { return false }

func (s *PrototypeTargetSource) GetTarget() (interface{}, error) { return s.factory() }

func (s *PrototypeTargetSource) ReleaseTarget(target interface{}) error {
	if s.destroy != nil && target != nil {
		s.destroy(target)
	}
	return nil
}
