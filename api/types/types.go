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

// Configuration holds the raw key-value settings of a configurable component,
// bound onto its typed config struct during Init.
//
// Configuration 保存可配置组件的原始键值设置，在 Init 期间绑定到其类型化配置结构上。
type Configuration map[string]interface{}

// Configurable is implemented by components (typically builtin advice) that
// accept raw configuration, mirroring the component Init lifecycle.
type Configurable interface {
	Init(config Config, configuration Configuration) error
}

// Metadata is a set of string properties.
type Metadata map[string]string

// NewMetadata creates an empty Metadata instance.
func NewMetadata() Metadata {
	return make(Metadata)
}

// PutValue sets a property. Empty keys are ignored.
func (md Metadata) PutValue(key, value string) {
	if key != "" {
		md[key] = value
	}
}

// GetValue returns the property value for key, or the empty string.
func (md Metadata) GetValue(key string) string {
	return md[key]
}

// Has reports whether the property exists.
func (md Metadata) Has(key string) bool {
	_, ok := md[key]
	return ok
}

// Copy returns an independent copy of the metadata.
func (md Metadata) Copy() Metadata {
	cp := make(Metadata, len(md))
	for k, v := range md {
		cp[k] = v
	}
	return cp
}

// Pool is the interface for a worker pool used to run tasks off the calling
// goroutine, e.g. by the async advice.
type Pool interface {
	// Submit schedules a task for execution.
	Submit(task func()) error
	// Release stops the pool and frees its resources.
	Release()
}
