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
	"testing"

	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/test/assert"
)

func methodOf(t *testing.T, target interface{}, name string) reflect.Method {
	t.Helper()
	m, ok := reflect.TypeOf(target).MethodByName(name)
	assert.True(t, ok, "no method "+name)
	return m
}

func TestNameMatchMethodPointcut(t *testing.T) {
	svc := &greetService{}
	targetType := reflect.TypeOf(svc)
	greet := methodOf(t, svc, "Greet")
	add := methodOf(t, svc, "Add")

	pc := NewNameMatchMethodPointcut("Greet")
	assert.True(t, pc.MethodMatcher().Matches(greet, targetType))
	assert.False(t, pc.MethodMatcher().Matches(add, targetType))
	assert.False(t, pc.MethodMatcher().IsRuntime())

	wildcard := NewNameMatchMethodPointcut("G*", "*vide")
	assert.True(t, wildcard.MethodMatcher().Matches(greet, targetType))
	assert.True(t, wildcard.MethodMatcher().Matches(methodOf(t, svc, "Divide"), targetType))
	assert.False(t, wildcard.MethodMatcher().Matches(add, targetType))
}

func TestTypeClassFilter(t *testing.T) {
	filter := TypeClassFilter(greeterType)
	assert.True(t, filter.Matches(reflect.TypeOf(&greetService{})))
	assert.False(t, filter.Matches(reflect.TypeOf("not a greeter")))
}

func TestExprPointcutStatic(t *testing.T) {
	config := newTestConfig()
	pc, err := NewExprPointcut(config, `method == "Greet"`)
	assert.Nil(t, err)

	svc := &greetService{}
	targetType := reflect.TypeOf(svc)
	assert.True(t, pc.Matches(methodOf(t, svc, "Greet"), targetType))
	assert.False(t, pc.Matches(methodOf(t, svc, "Add"), targetType))
	assert.False(t, pc.IsRuntime())
}

func TestExprPointcutDynamic(t *testing.T) {
	config := newTestConfig()
	pc, err := NewDynamicExprPointcut(config, `method == "Add" && args != nil && args[0] >= 5`)
	assert.Nil(t, err)
	assert.True(t, pc.IsRuntime())

	svc := &greetService{}
	targetType := reflect.TypeOf(svc)
	add := methodOf(t, svc, "Add")
	// the static half of a dynamic pointcut always passes
	assert.True(t, pc.Matches(add, targetType))
	assert.True(t, pc.MatchesArgs(add, targetType, []interface{}{7, 1}))
	assert.False(t, pc.MatchesArgs(add, targetType, []interface{}{1, 1}))
}

func TestExprPointcutGlobalProperties(t *testing.T) {
	config := newTestConfig()
	config.Properties = types.NewMetadata()
	config.Properties.PutValue("env", "prod")
	pc, err := NewExprPointcut(config, `global.env == "prod"`)
	assert.Nil(t, err)

	svc := &greetService{}
	assert.True(t, pc.Matches(methodOf(t, svc, "Greet"), reflect.TypeOf(svc)))
}

func TestExprPointcutBadExpression(t *testing.T) {
	_, err := NewExprPointcut(newTestConfig(), `method ==`)
	assert.NotNil(t, err)
}

func TestComposedPointcuts(t *testing.T) {
	svc := &greetService{}
	targetType := reflect.TypeOf(svc)
	greet := methodOf(t, svc, "Greet")
	add := methodOf(t, svc, "Add")
	divide := methodOf(t, svc, "Divide")

	union := UnionPointcut(NewNameMatchMethodPointcut("Greet"), NewNameMatchMethodPointcut("Add"))
	assert.True(t, union.MethodMatcher().Matches(greet, targetType))
	assert.True(t, union.MethodMatcher().Matches(add, targetType))
	assert.False(t, union.MethodMatcher().Matches(divide, targetType))

	intersection := IntersectionPointcut(NewNameMatchMethodPointcut("*d*"), NewNameMatchMethodPointcut("Add"))
	assert.True(t, intersection.MethodMatcher().Matches(add, targetType))
	assert.False(t, intersection.MethodMatcher().Matches(divide, targetType))
}
