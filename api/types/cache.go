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

// Cache is a general-purpose key-value cache with optional per-entry TTL,
// used by the result-caching advice.
type Cache interface {
	// Set stores a value. ttl is a duration string such as "10m"; an empty
	// string or "0" means the entry never expires.
	Set(key string, value interface{}, ttl string) error
	// Get returns the stored value, or nil when absent or expired.
	Get(key string) interface{}
	// Has reports whether the key exists and is not expired.
	Has(key string) bool
	// Delete removes the entry for key.
	Delete(key string) error
	// DeleteByPrefix removes all entries whose key starts with prefix.
	DeleteByPrefix(prefix string) error
	// GetByPrefix returns all live entries whose key starts with prefix.
	GetByPrefix(prefix string) map[string]interface{}
}
