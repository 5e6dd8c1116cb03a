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

// Package advice provides ready-made interceptors for common cross-cutting
// concerns: call logging, metrics collection, result caching, concurrency
// throttling, retrying and asynchronous execution, plus a script-driven
// method matcher.
//
// Configurable interceptors follow the Config struct plus
// Init(types.Config, types.Configuration) convention and can therefore be
// populated from untyped configuration maps.
//
// advice 包提供面向常见横切关注点的现成拦截器：调用日志、指标采集、结果缓存、
// 并发限流、重试与异步执行，外加一个脚本驱动的方法匹配器。可配置的拦截器遵循
// Config 结构体加 Init(types.Config, types.Configuration) 的约定，因此可以从
// 无类型的配置 map 填充。
package advice
