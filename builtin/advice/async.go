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
	"github.com/aopkit/aopkit/api/types"
)

// AsyncInterceptor runs the downstream chain in the background and returns
// immediately with no results. The invocation proceeds on a clone because it
// escapes the calling goroutine. Errors from the background run go to the
// OnError callback, or to the logger when no callback is set.
type AsyncInterceptor struct {
	pool   types.Pool
	logger types.Logger

	// OnError receives errors from background executions.
	OnError func(invocation types.MethodInvocation, err error)
	// OnResult receives results from successful background executions.
	OnResult func(invocation types.MethodInvocation, result []interface{})
}

var _ types.Interceptor = (*AsyncInterceptor)(nil)
var _ types.Configurable = (*AsyncInterceptor)(nil)

// NewAsyncInterceptor creates an async interceptor. A nil pool falls back to
// plain goroutines.
func NewAsyncInterceptor(pool types.Pool, logger types.Logger) *AsyncInterceptor {
	if logger == nil {
		logger = types.DefaultLogger()
	}
	return &AsyncInterceptor{pool: pool, logger: logger}
}

// Init 初始化
func (x *AsyncInterceptor) Init(config types.Config, _ types.Configuration) error {
	x.pool = config.Pool
	x.logger = config.Logger
	if x.logger == nil {
		x.logger = types.DefaultLogger()
	}
	return nil
}

func (x *AsyncInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	background := invocation.Clone()
	run := func() {
		result, err := background.Proceed()
		if err != nil {
			if x.OnError != nil {
				x.OnError(background, err)
			} else {
				x.logger.Printf("aop: async %s failed: %v", background.Method().Name, err)
			}
			return
		}
		if x.OnResult != nil {
			x.OnResult(background, result)
		}
	}
	if x.pool != nil {
		if err := x.pool.Submit(run); err != nil {
			return nil, err
		}
		return nil, nil
	}
	go run()
	return nil, nil
}
