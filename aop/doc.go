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

// Package aop provides the core functionality of the AopKit proxy framework.
// It includes the proxy configuration, the two proxy construction strategies,
// the advice chain builder, the invocation engine and the auto-proxy creation
// pipeline that plugs into a bean registry's lifecycle.
//
// Package aop 提供 AopKit 代理框架的核心功能。它包括代理配置、两种代理构建策略、
// 增强链构建器、调用引擎以及接入 bean 注册表生命周期的自动代理创建管道。
//
// Key components:
// 关键组件：
//   - AdvisedSupport: the mutable-until-frozen proxy configuration
//     AdvisedSupport：冻结前可变的代理配置
//   - DefaultAopProxyFactory: selects the interface or subclass proxy strategy
//     DefaultAopProxyFactory：选择接口代理或子类代理策略
//   - ChainBuilder: produces the per-method interceptor chain
//     ChainBuilder：生成每个方法的拦截器链
//   - ReflectiveMethodInvocation: the cursor-based chain-of-responsibility engine
//     ReflectiveMethodInvocation：基于游标的责任链引擎
//   - AutoProxyCreator: the bean lifecycle hook deciding per bean whether to proxy
//     AutoProxyCreator：按 bean 决定是否代理的生命周期钩子
//
// Control flow: the registry creates a bean, the auto-proxy creator intercepts
// creation, the advisor retrieval helper supplies candidate advisors, eligible
// advisors are sorted and handed to the proxy factory, and the proxy replaces
// the raw bean. At call time the chain builder produces the method-specific
// interceptor list (cached per method on the configuration) and the invocation
// engine executes it.
//
// 控制流：注册表创建 bean，自动代理创建器拦截创建过程，Advisor 检索助手提供候选
// Advisor，合格的 Advisor 排序后交给代理工厂，代理替换原始 bean。调用时链构建器
// 生成方法专属的拦截器列表（按方法缓存在配置上），由调用引擎执行。
package aop
