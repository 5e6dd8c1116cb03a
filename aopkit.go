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

// Package aopkit is the entry facade. It wires a Config, a bean registry and
// an auto-proxy creator together for the common case, while the aop and
// registry packages stay available for fine-grained assembly.
//
//	config := aopkit.NewConfig()
//	reg := aopkit.NewRegistry(config)
//	reg.AddPostProcessor(aopkit.NewAdvisorAutoProxyCreator(reg, config))
//
// aopkit 是入口门面。它为常见场景把 Config、bean 注册表和自动代理创建器装配在
// 一起；需要细粒度装配时可直接使用 aop 与 registry 包。
package aopkit

import (
	"github.com/aopkit/aopkit/aop"
	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/registry"
)

// NewConfig creates a configuration with defaults, applies the options and
// fills in the standard advice adapter registry when none is configured.
func NewConfig(opts ...types.Option) types.Config {
	config := types.NewConfig(opts...)
	if config.AdapterRegistry == nil {
		config.AdapterRegistry = aop.NewAdviceAdapterRegistry()
	}
	return config
}

// NewRegistry creates an empty bean registry sharing the configuration.
func NewRegistry(config types.Config) *registry.InMemoryRegistry {
	return registry.New(config)
}

// NewProxyFactory creates a programmatic proxy factory.
func NewProxyFactory(config types.Config) *aop.ProxyFactory {
	return aop.NewProxyFactory(config)
}

// NewProxyFactoryFor creates a programmatic proxy factory around a target.
func NewProxyFactoryFor(target interface{}, config types.Config) *aop.ProxyFactory {
	return aop.NewProxyFactoryFor(target, config)
}

// NewAdvisorAutoProxyCreator creates an advisor-driven auto-proxy creator.
// Register it as a post-processor on the registry it observes.
func NewAdvisorAutoProxyCreator(reg types.BeanRegistry, config types.Config) *aop.AdvisorAutoProxyCreator {
	return aop.NewAdvisorAutoProxyCreator(reg, config)
}

// NewBeanNameAutoProxyCreator creates a name-pattern auto-proxy creator.
func NewBeanNameAutoProxyCreator(reg types.BeanRegistry, config types.Config, patterns ...string) *aop.BeanNameAutoProxyCreator {
	return aop.NewBeanNameAutoProxyCreator(reg, config, patterns...)
}
