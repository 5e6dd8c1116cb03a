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
	"time"

	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/utils/maps"
)

// RetryInterceptorConfiguration 节点配置
type RetryInterceptorConfiguration struct {
	// MaxAttempts 最大尝试次数，包含首次调用
	MaxAttempts int
	// Delay 两次尝试之间的等待时间，例如 "100ms"
	Delay string
}

// RetryInterceptor re-runs the downstream chain on failure. Each attempt
// proceeds on a fresh clone of the invocation, so downstream cursor state
// never leaks between attempts. The last error is returned when all attempts
// fail.
type RetryInterceptor struct {
	Config RetryInterceptorConfiguration
	delay  time.Duration

	// Retryable filters errors worth retrying. Nil retries every error.
	Retryable func(err error) bool
}

var _ types.Interceptor = (*RetryInterceptor)(nil)
var _ types.Configurable = (*RetryInterceptor)(nil)

// NewRetryInterceptor creates a retry interceptor with the given attempt
// budget and delay between attempts.
func NewRetryInterceptor(maxAttempts int, delay time.Duration) *RetryInterceptor {
	return &RetryInterceptor{
		Config: RetryInterceptorConfiguration{MaxAttempts: maxAttempts},
		delay:  delay,
	}
}

// Init 初始化
func (x *RetryInterceptor) Init(_ types.Config, configuration types.Configuration) error {
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return err
	}
	if x.Config.MaxAttempts <= 0 {
		return errors.New("retry needs at least one attempt")
	}
	if x.Config.Delay != "" {
		delay, err := time.ParseDuration(x.Config.Delay)
		if err != nil {
			return err
		}
		x.delay = delay
	}
	return nil
}

func (x *RetryInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	var result []interface{}
	var err error
	for attempt := 0; attempt < x.Config.MaxAttempts; attempt++ {
		if attempt > 0 && x.delay > 0 {
			time.Sleep(x.delay)
		}
		result, err = invocation.Clone().Proceed()
		if err == nil {
			return result, nil
		}
		if x.Retryable != nil && !x.Retryable(err) {
			return result, err
		}
	}
	return result, err
}
