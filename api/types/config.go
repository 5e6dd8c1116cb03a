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

package types

import "time"

// Config defines the shared configuration for the AOP infrastructure. One
// Config is typically shared by all proxy factories and auto-proxy creators
// of one container.
type Config struct {
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// Pool is the worker pool used for asynchronous advice execution. If not
	// configured, the go func method is used by the async advice.
	Pool Pool
	// Cache is the shared cache instance used by the result-caching advice.
	Cache Cache
	// AdapterRegistry maps foreign advice shapes to interceptors. When nil,
	// components fall back to a registry with the standard adapters.
	AdapterRegistry AdviceAdapterRegistry
	// Properties are global properties in key-value format, exposed to
	// expression and script pointcuts under the `global` variable.
	Properties Metadata
	// ScriptMaxExecutionTime is the maximum execution time for script
	// pointcuts, defaulting to 2000 milliseconds.
	ScriptMaxExecutionTime time.Duration
	// OnTrace is an optional callback for proxy lifecycle trace events such as
	// advisor retrieval skips and proxy creation. Used by tests and debugging.
	OnTrace func(format string, v ...interface{})
}

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
		Properties:             NewMetadata(),
	}

	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}
