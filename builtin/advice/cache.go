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

package advice

import (
	"errors"

	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/utils/maps"
	"github.com/aopkit/aopkit/utils/str"
)

// CacheInterceptorConfiguration 节点配置
type CacheInterceptorConfiguration struct {
	// TTL 缓存过期时间，例如 "10m"；空字符串表示不过期
	TTL string
	// KeyPrefix 缓存键前缀，用于隔离不同代理的缓存条目
	KeyPrefix string
}

// CacheInterceptor serves repeated calls from the shared types.Cache. Only
// successful results are cached; the key combines the prefix, the method name
// and the stringified arguments.
type CacheInterceptor struct {
	Config CacheInterceptorConfiguration
	cache  types.Cache
}

var _ types.Interceptor = (*CacheInterceptor)(nil)
var _ types.Configurable = (*CacheInterceptor)(nil)

// NewCacheInterceptor creates a caching interceptor over the given cache.
func NewCacheInterceptor(cache types.Cache, ttl string) *CacheInterceptor {
	return &CacheInterceptor{
		Config: CacheInterceptorConfiguration{TTL: ttl},
		cache:  cache,
	}
}

// Init 初始化
func (x *CacheInterceptor) Init(config types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	x.cache = config.Cache
	if x.cache == nil {
		return errors.New("cache interceptor needs a cache in the configuration")
	}
	return nil
}

func (x *CacheInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	key := x.cacheKey(invocation)
	if cached := x.cache.Get(key); cached != nil {
		if result, ok := cached.([]interface{}); ok {
			return result, nil
		}
	}
	result, err := invocation.Proceed()
	if err != nil {
		return result, err
	}
	if setErr := x.cache.Set(key, result, x.Config.TTL); setErr != nil {
		return result, setErr
	}
	return result, nil
}

func (x *CacheInterceptor) cacheKey(invocation types.MethodInvocation) string {
	key := x.Config.KeyPrefix + invocation.Method().Name
	for _, arg := range invocation.Arguments() {
		key += ":" + str.ToString(arg)
	}
	return key
}
