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

package aop

import (
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/utils/str"
)

// TrueClassFilter matches every target type.
var TrueClassFilter types.ClassFilter = ClassFilterFunc(func(reflect.Type) bool { return true })

// TrueMethodMatcher statically matches every method.
var TrueMethodMatcher types.MethodMatcher = MethodMatcherFunc(func(reflect.Method, reflect.Type) bool { return true })

// TruePointcut matches everything. It is the pointcut of plain advice that
// carries no matching rule of its own.
var TruePointcut types.Pointcut = NewPointcut(TrueClassFilter, TrueMethodMatcher)

// ClassFilterFunc adapts a function to the types.ClassFilter interface.
type ClassFilterFunc func(targetType reflect.Type) bool

func (f ClassFilterFunc) Matches(targetType reflect.Type) bool {
	return f(targetType)
}

// MethodMatcherFunc adapts a function to a static types.MethodMatcher: the
// function is evaluated once per proxy configuration and never sees arguments.
type MethodMatcherFunc func(method reflect.Method, targetType reflect.Type) bool

func (f MethodMatcherFunc) Matches(method reflect.Method, targetType reflect.Type) bool {
	return f(method, targetType)
}

func (f MethodMatcherFunc) IsRuntime() bool { return false }

func (f MethodMatcherFunc) MatchesArgs(method reflect.Method, targetType reflect.Type, _ []interface{}) bool {
	return f(method, targetType)
}

// DynamicMethodMatcherFunc adapts a function to a runtime types.MethodMatcher:
// the static check always passes and the function is re-evaluated with the
// actual arguments on every invocation.
type DynamicMethodMatcherFunc func(method reflect.Method, targetType reflect.Type, args []interface{}) bool

func (f DynamicMethodMatcherFunc) Matches(reflect.Method, reflect.Type) bool { return true }

func (f DynamicMethodMatcherFunc) IsRuntime() bool { return true }

func (f DynamicMethodMatcherFunc) MatchesArgs(method reflect.Method, targetType reflect.Type, args []interface{}) bool {
	return f(method, targetType, args)
}

// pointcut is the default Pointcut implementation pairing a filter and a matcher.
type pointcut struct {
	classFilter   types.ClassFilter
	methodMatcher types.MethodMatcher
}

// NewPointcut pairs a class filter and a method matcher. Nil arguments default
// to the matching-everything variants.
func NewPointcut(cf types.ClassFilter, mm types.MethodMatcher) types.Pointcut {
	if cf == nil {
		cf = TrueClassFilter
	}
	if mm == nil {
		mm = TrueMethodMatcher
	}
	return &pointcut{classFilter: cf, methodMatcher: mm}
}

func (p *pointcut) ClassFilter() types.ClassFilter     { return p.classFilter }
func (p *pointcut) MethodMatcher() types.MethodMatcher { return p.methodMatcher }

// TypeClassFilter matches target types assignable to the given type, which is
// typically the reflect.Type of an interface or a concrete pointer type.
func TypeClassFilter(t reflect.Type) types.ClassFilter {
	return ClassFilterFunc(func(targetType reflect.Type) bool {
		if targetType == nil {
			return false
		}
		if targetType == t {
			return true
		}
		if t.Kind() == reflect.Interface {
			return targetType.Implements(t)
		}
		return targetType.AssignableTo(t)
	})
}

// NameMatchMethodPointcut matches methods whose name matches one of the mapped
// name patterns (exact, "xxx*", "*xxx" or "*xxx*"). It is a static pointcut
// with a class filter that accepts every type.
type NameMatchMethodPointcut struct {
	mappedNames []string
}

// NewNameMatchMethodPointcut creates a pointcut matching the given method name
// patterns.
func NewNameMatchMethodPointcut(mappedNames ...string) *NameMatchMethodPointcut {
	return &NameMatchMethodPointcut{mappedNames: mappedNames}
}

// AddMethodName adds another method name pattern.
func (p *NameMatchMethodPointcut) AddMethodName(name string) *NameMatchMethodPointcut {
	p.mappedNames = append(p.mappedNames, name)
	return p
}

func (p *NameMatchMethodPointcut) ClassFilter() types.ClassFilter { return TrueClassFilter }

func (p *NameMatchMethodPointcut) MethodMatcher() types.MethodMatcher { return p }

func (p *NameMatchMethodPointcut) Matches(method reflect.Method, _ reflect.Type) bool {
	return str.SimpleMatchAny(p.mappedNames, method.Name)
}

func (p *NameMatchMethodPointcut) IsRuntime() bool { return false }

func (p *NameMatchMethodPointcut) MatchesArgs(method reflect.Method, targetType reflect.Type, _ []interface{}) bool {
	return p.Matches(method, targetType)
}

// ExprPointcut matches methods with an expr-lang expression. The expression
// sees the variables `method` (name), `target` (type string), `argCount` and,
// for the dynamic variant, `args`. Global properties are available under
// `global`.
//
// Example: `method startsWith "Get" && target contains "Service"`.
//
// ExprPointcut 使用 expr 表达式匹配方法。表达式可以访问变量 `method`（名称）、
// `target`（类型字符串）、`argCount`，动态变体还可以访问 `args`。全局属性通过
// `global` 访问。
type ExprPointcut struct {
	// Expression is the expr-lang source of the matching rule.
	Expression string
	// Dynamic makes the pointcut a runtime matcher that re-evaluates the
	// expression with the actual arguments on every invocation.
	Dynamic bool

	config  types.Config
	program *vm.Program
}

// NewExprPointcut compiles a static expression pointcut.
func NewExprPointcut(config types.Config, expression string) (*ExprPointcut, error) {
	return newExprPointcut(config, expression, false)
}

// NewDynamicExprPointcut compiles a runtime expression pointcut whose
// expression additionally sees the `args` variable per invocation.
func NewDynamicExprPointcut(config types.Config, expression string) (*ExprPointcut, error) {
	return newExprPointcut(config, expression, true)
}

func newExprPointcut(config types.Config, expression string, dynamic bool) (*ExprPointcut, error) {
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &ExprPointcut{
		Expression: expression,
		Dynamic:    dynamic,
		config:     config,
		program:    program,
	}, nil
}

func (p *ExprPointcut) ClassFilter() types.ClassFilter { return TrueClassFilter }

func (p *ExprPointcut) MethodMatcher() types.MethodMatcher { return p }

func (p *ExprPointcut) Matches(method reflect.Method, targetType reflect.Type) bool {
	if p.Dynamic {
		// the static part of a dynamic expression pointcut always passes;
		// the decision is made per invocation with the actual arguments
		return true
	}
	return p.run(method, targetType, nil)
}

func (p *ExprPointcut) IsRuntime() bool { return p.Dynamic }

func (p *ExprPointcut) MatchesArgs(method reflect.Method, targetType reflect.Type, args []interface{}) bool {
	return p.run(method, targetType, args)
}

func (p *ExprPointcut) run(method reflect.Method, targetType reflect.Type, args []interface{}) bool {
	evn := map[string]interface{}{
		"method":   method.Name,
		"argCount": method.Type.NumIn() - 1,
	}
	if targetType != nil {
		evn["target"] = targetType.String()
	}
	if args != nil {
		evn["args"] = args
	}
	if len(p.config.Properties) != 0 {
		evn[GlobalKey] = map[string]string(p.config.Properties)
	}
	out, err := vm.Run(p.program, evn)
	if err != nil {
		if p.config.Logger != nil {
			p.config.Logger.Printf("expr pointcut %q error: %s", p.Expression, err.Error())
		}
		return false
	}
	result, ok := out.(bool)
	return ok && result
}

// GlobalKey is the variable name of the global properties inside expressions.
const GlobalKey = "global"

// UnionPointcut matches when either pointcut matches.
func UnionPointcut(a, b types.Pointcut) types.Pointcut {
	return NewPointcut(
		ClassFilterFunc(func(t reflect.Type) bool {
			return a.ClassFilter().Matches(t) || b.ClassFilter().Matches(t)
		}),
		composeMatchers(a.MethodMatcher(), b.MethodMatcher(), false),
	)
}

// IntersectionPointcut matches only when both pointcuts match.
func IntersectionPointcut(a, b types.Pointcut) types.Pointcut {
	return NewPointcut(
		ClassFilterFunc(func(t reflect.Type) bool {
			return a.ClassFilter().Matches(t) && b.ClassFilter().Matches(t)
		}),
		composeMatchers(a.MethodMatcher(), b.MethodMatcher(), true),
	)
}

// composedMatcher combines two method matchers. It is runtime when either part
// is runtime; the static halves of both parts still gate the runtime check.
type composedMatcher struct {
	a, b types.MethodMatcher
	both bool
}

func composeMatchers(a, b types.MethodMatcher, both bool) types.MethodMatcher {
	return &composedMatcher{a: a, b: b, both: both}
}

func (m *composedMatcher) Matches(method reflect.Method, targetType reflect.Type) bool {
	if m.both {
		return m.a.Matches(method, targetType) && m.b.Matches(method, targetType)
	}
	return m.a.Matches(method, targetType) || m.b.Matches(method, targetType)
}

func (m *composedMatcher) IsRuntime() bool {
	return m.a.IsRuntime() || m.b.IsRuntime()
}

func (m *composedMatcher) MatchesArgs(method reflect.Method, targetType reflect.Type, args []interface{}) bool {
	if m.both {
		return m.a.MatchesArgs(method, targetType, args) && m.b.MatchesArgs(method, targetType, args)
	}
	return m.a.MatchesArgs(method, targetType, args) || m.b.MatchesArgs(method, targetType, args)
}
