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
	"time"

	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/utils/maps"
)

// LoggingInterceptorConfiguration 节点配置
type LoggingInterceptorConfiguration struct {
	// LogArguments 是否记录调用参数
	LogArguments bool
	// LogResults 是否记录调用结果
	LogResults bool
}

// LoggingInterceptor logs every proxied call with its outcome and duration
// through the shared types.Logger.
type LoggingInterceptor struct {
	Config LoggingInterceptorConfiguration
	logger types.Logger
}

var _ types.Interceptor = (*LoggingInterceptor)(nil)
var _ types.Configurable = (*LoggingInterceptor)(nil)

// NewLoggingInterceptor creates a logging interceptor with the given logger.
func NewLoggingInterceptor(logger types.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = types.DefaultLogger()
	}
	return &LoggingInterceptor{logger: logger}
}

// Init 初始化
func (x *LoggingInterceptor) Init(config types.Config, configuration types.Configuration) error {
	x.logger = config.Logger
	if x.logger == nil {
		x.logger = types.DefaultLogger()
	}
	return maps.Map2Struct(configuration, &x.Config)
}

func (x *LoggingInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	method := invocation.Method().Name
	if x.Config.LogArguments {
		x.logger.Printf("aop: call %s args=%v", method, invocation.Arguments())
	} else {
		x.logger.Printf("aop: call %s", method)
	}
	start := time.Now()
	result, err := invocation.Proceed()
	elapsed := time.Since(start)
	if err != nil {
		x.logger.Printf("aop: call %s failed after %s: %v", method, elapsed, err)
		return result, err
	}
	if x.Config.LogResults {
		x.logger.Printf("aop: call %s ok in %s result=%v", method, elapsed, result)
	} else {
		x.logger.Printf("aop: call %s ok in %s", method, elapsed)
	}
	return result, nil
}
