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

// AdvisorType is the reflected types.Advisor interface.
var AdvisorType = reflect.TypeOf((*types.Advisor)(nil)).Elem()

// AdvisorRetrievalHelper finds all eligible Advisor beans in a registry. The
// name scan runs once and is cached; bean resolution runs on every call so
// that advisors registered as prototypes stay fresh.
//
// Retrieval is deliberately cycle tolerant: an advisor bean that is itself
// mid-construction when auto-proxying asks for advisors is skipped for this
// round instead of failing the whole bean creation.
//
// AdvisorRetrievalHelper 在注册表中查找所有合格的 Advisor bean。名称扫描只运行
// 一次并被缓存。检索刻意容忍循环：当自动代理请求 Advisor 时，若某个 Advisor
// bean 本身正处于构建途中，则本轮跳过它，而不是让整个 bean 创建失败。
type AdvisorRetrievalHelper struct {
	registry types.BeanRegistry
	config   types.Config

	// IsEligible filters advisor beans by name before resolution. Nil accepts
	// every advisor bean.
	IsEligible func(name string) bool

	mu          sync.Mutex
	cachedNames []string
}

// NewAdvisorRetrievalHelper creates a helper over the given registry.
func NewAdvisorRetrievalHelper(registry types.BeanRegistry, config types.Config) *AdvisorRetrievalHelper {
	return &AdvisorRetrievalHelper{registry: registry, config: config}
}

// FindAdvisorBeans resolves all eligible advisor beans in registration order.
func (h *AdvisorRetrievalHelper) FindAdvisorBeans() ([]types.Advisor, error) {
	h.mu.Lock()
	names := h.cachedNames
	if names == nil {
		names = h.registry.BeanNamesForType(AdvisorType)
		h.cachedNames = names
	}
	h.mu.Unlock()

	advisors := make([]types.Advisor, 0, len(names))
	for _, name := range names {
		if h.IsEligible != nil && !h.IsEligible(name) {
			continue
		}
		if h.registry.IsCurrentlyInCreation(name) {
			h.trace("skipping currently created advisor %q", name)
			continue
		}
		bean, err := h.registry.GetBean(name)
		if err != nil {
			if types.IsCurrentlyInCreation(err) {
				h.trace("skipping advisor %q with circular reference: %v", name, err)
				continue
			}
			return nil, fmt.Errorf("resolve advisor bean %q: %w", name, err)
		}
		advisor, ok := bean.(types.Advisor)
		if !ok {
			return nil, fmt.Errorf("bean %q is registered as an advisor but is %T", name, bean)
		}
		advisors = append(advisors, advisor)
	}
	return advisors, nil
}

func (h *AdvisorRetrievalHelper) trace(format string, v ...interface{}) {
	if h.config.OnTrace != nil {
		h.config.OnTrace(format, v...)
	}
}
