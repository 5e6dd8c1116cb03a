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
	"reflect"

	"github.com/aopkit/aopkit/aop"
	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/utils/js"
)

// ScriptFuncName is the JavaScript function a matcher script must define:
//
//	function Matches(method, argCount, args) {
//	    return method == "Transfer" && argCount > 0;
//	}
//
// args is null during the static check of a dynamic matcher and carries the
// actual call arguments during the runtime check.
const ScriptFuncName = "Matches"

// ScriptMethodMatcher matches methods with a JavaScript function executed by
// the embedded engine. Script execution is bounded by the configured
// ScriptMaxExecutionTime; a script error counts as no match.
//
// ScriptMethodMatcher 使用嵌入引擎执行的 JavaScript 函数来匹配方法。脚本执行
// 受配置的 ScriptMaxExecutionTime 约束；脚本出错按不匹配处理。
type ScriptMethodMatcher struct {
	// Dynamic makes the matcher a runtime matcher re-evaluated per call.
	Dynamic bool

	config types.Config
	engine *js.GojaJsEngine
}

var _ types.MethodMatcher = (*ScriptMethodMatcher)(nil)

// NewScriptMethodMatcher compiles the script and returns a static matcher.
func NewScriptMethodMatcher(config types.Config, script string) (*ScriptMethodMatcher, error) {
	return newScriptMethodMatcher(config, script, false)
}

// NewDynamicScriptMethodMatcher compiles the script and returns a runtime
// matcher whose script sees the actual call arguments.
func NewDynamicScriptMethodMatcher(config types.Config, script string) (*ScriptMethodMatcher, error) {
	return newScriptMethodMatcher(config, script, true)
}

func newScriptMethodMatcher(config types.Config, script string, dynamic bool) (*ScriptMethodMatcher, error) {
	engine, err := js.NewGojaJsEngine(config, script)
	if err != nil {
		return nil, err
	}
	return &ScriptMethodMatcher{Dynamic: dynamic, config: config, engine: engine}, nil
}

// NewScriptPointcut pairs a script matcher with a match-everything class filter.
func NewScriptPointcut(config types.Config, script string, dynamic bool) (types.Pointcut, error) {
	matcher, err := newScriptMethodMatcher(config, script, dynamic)
	if err != nil {
		return nil, err
	}
	return aop.NewPointcut(aop.TrueClassFilter, matcher), nil
}

func (x *ScriptMethodMatcher) Matches(method reflect.Method, targetType reflect.Type) bool {
	if x.Dynamic {
		return true
	}
	return x.run(method, nil)
}

func (x *ScriptMethodMatcher) IsRuntime() bool { return x.Dynamic }

func (x *ScriptMethodMatcher) MatchesArgs(method reflect.Method, targetType reflect.Type, args []interface{}) bool {
	return x.run(method, args)
}

func (x *ScriptMethodMatcher) run(method reflect.Method, args []interface{}) bool {
	argCount := method.Type.NumIn()
	if method.Func.IsValid() {
		// concrete methods carry the receiver as the first input
		argCount--
	}
	out, err := x.engine.Execute(ScriptFuncName, method.Name, argCount, args)
	if err != nil {
		if x.config.Logger != nil {
			x.config.Logger.Printf("script matcher error: %s", err.Error())
		}
		return false
	}
	result, ok := out.(bool)
	return ok && result
}
