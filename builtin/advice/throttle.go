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
)

// ErrConcurrencyLimit is returned when a non-blocking throttle is saturated.
var ErrConcurrencyLimit = errors.New("concurrency limit reached")

// ConcurrencyThrottleInterceptorConfiguration 节点配置
type ConcurrencyThrottleInterceptorConfiguration struct {
	// Limit 最大并发调用数
	Limit int
	// Blocking 饱和时是否阻塞等待；false 时立即返回 ErrConcurrencyLimit
	Blocking bool
}

// ConcurrencyThrottleInterceptor bounds the number of concurrent calls
// passing through it. A blocking throttle waits for a slot; a non-blocking
// one fails fast with ErrConcurrencyLimit.
type ConcurrencyThrottleInterceptor struct {
	Config ConcurrencyThrottleInterceptorConfiguration
	slots  chan struct{}
}

var _ types.Interceptor = (*ConcurrencyThrottleInterceptor)(nil)
var _ types.Configurable = (*ConcurrencyThrottleInterceptor)(nil)

// NewConcurrencyThrottleInterceptor creates a blocking throttle with the
// given limit.
func NewConcurrencyThrottleInterceptor(limit int) *ConcurrencyThrottleInterceptor {
	x := &ConcurrencyThrottleInterceptor{
		Config: ConcurrencyThrottleInterceptorConfiguration{Limit: limit, Blocking: true},
	}
	x.slots = make(chan struct{}, limit)
	return x
}

// Init 初始化
func (x *ConcurrencyThrottleInterceptor) Init(_ types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if x.Config.Limit <= 0 {
		return errors.New("concurrency limit must be positive")
	}
	x.slots = make(chan struct{}, x.Config.Limit)
	return nil
}

func (x *ConcurrencyThrottleInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	if x.Config.Blocking {
		x.slots <- struct{}{}
	} else {
		select {
		case x.slots <- struct{}{}:
		default:
			return nil, ErrConcurrencyLimit
		}
	}
	defer func() { <-x.slots }()
	return invocation.Proceed()
}
