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
	"github.com/aopkit/aopkit/utils/str"
)

// BeanNameAutoProxyCreator proxies every bean whose name, or any of its
// aliases, matches one of the configured patterns. Patterns use the simple
// wildcard forms "xxx*", "*xxx", "*xxx*" and "*". Matched beans receive the
// creator's common interceptors; the creator contributes no advisors of its
// own.
//
// A factory bean is only matched when a pattern explicitly names the
// dereferenced form, e.g. "&myFactory".
//
// BeanNameAutoProxyCreator 对名称或任一别名匹配所配置模式的 bean 进行代理。
// 工厂 bean 只有在模式显式写出解引用形式（如 "&myFactory"）时才会匹配。
type BeanNameAutoProxyCreator struct {
	*AutoProxyCreator
	patterns []string
}

// NewBeanNameAutoProxyCreator creates a name-matching creator for the given
// registry and patterns.
func NewBeanNameAutoProxyCreator(registry types.BeanRegistry, config types.Config, patterns ...string) *BeanNameAutoProxyCreator {
	c := &BeanNameAutoProxyCreator{patterns: patterns}
	c.AutoProxyCreator = newAutoProxyCreator(registry, config, c)
	return c
}

// SetPatterns replaces the name patterns.
func (c *BeanNameAutoProxyCreator) SetPatterns(patterns ...string) {
	c.patterns = patterns
}

func (c *BeanNameAutoProxyCreator) advisorsForBean(beanType reflect.Type, beanName string, _ types.TargetSource) ([]types.Advisor, bool, error) {
	if beanName == "" {
		return nil, false, nil
	}
	names := append([]string{beanName}, c.registry.Aliases(beanName)...)
	if beanType != nil && beanType.Implements(factoryBeanType) {
		for i, name := range names {
			names[i] = types.FactoryBeanPrefix + name
		}
	}
	for _, name := range names {
		if str.SimpleMatchAny(c.patterns, name) {
			return nil, true, nil
		}
	}
	return nil, false, nil
}
