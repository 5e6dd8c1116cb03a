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
	"fmt"
	"reflect"

	"github.com/gofrs/uuid/v5"

	"github.com/aopkit/aopkit/api/types"
)

// InterceptorAndDynamicMethodMatcher is a chain entry whose interceptor only
// runs when its runtime matcher passes with the actual call arguments.
type InterceptorAndDynamicMethodMatcher struct {
	Interceptor types.Interceptor
	Matcher     types.MethodMatcher
}

// invocationAttributes is the lazily-created user attribute bag. It is held by
// pointer so that clones created before first access still share the map.
type invocationAttributes struct {
	m map[string]interface{}
}

// ReflectiveMethodInvocation executes an interceptor chain against one method
// call using an explicit cursor. The terminal state invokes the real target
// method via reflection.
//
// ReflectiveMethodInvocation 使用显式游标针对一次方法调用执行拦截器链。
// 终止状态通过反射调用真实的目标方法。
type ReflectiveMethodInvocation struct {
	id              string
	proxy           types.AopProxy
	target          interface{}
	targetType      reflect.Type
	method          reflect.Method
	hasTargetMethod bool
	args            []interface{}
	chain           []interface{}

	// cursor starts at -1 (no interceptor invoked yet); cursor == len(chain)-1
	// is the terminal state that invokes the target method.
	cursor int

	attributes *invocationAttributes
}

var _ types.MethodInvocation = (*ReflectiveMethodInvocation)(nil)

// NewMethodInvocation creates the per-call record for one proxied method call.
// methodName is resolved against the concrete target type when the target
// declares it, so interface methods execute as their most specific override.
func NewMethodInvocation(proxy types.AopProxy, target interface{}, targetType reflect.Type,
	methodName string, args []interface{}, chain []interface{}) (*ReflectiveMethodInvocation, error) {

	inv := &ReflectiveMethodInvocation{
		proxy:      proxy,
		target:     target,
		targetType: targetType,
		args:       args,
		chain:      chain,
		cursor:     -1,
		attributes: &invocationAttributes{},
	}
	if id, err := uuid.NewV4(); err == nil {
		inv.id = id.String()
	}

	if targetType != nil {
		if m, ok := targetType.MethodByName(methodName); ok {
			inv.method = m
			inv.hasTargetMethod = true
			return inv, nil
		}
	}
	// no target method: the call can only be served by an introduction
	// interceptor, so look the method up on the proxied interfaces
	if proxy != nil {
		for _, intf := range proxy.ProxiedInterfaces() {
			if m, ok := intf.MethodByName(methodName); ok {
				inv.method = m
				return inv, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMethodNotProxied, methodName)
}

func (inv *ReflectiveMethodInvocation) ID() string { return inv.id }

func (inv *ReflectiveMethodInvocation) Method() reflect.Method { return inv.method }

func (inv *ReflectiveMethodInvocation) Arguments() []interface{} { return inv.args }

func (inv *ReflectiveMethodInvocation) SetArguments(args ...interface{}) { inv.args = args }

func (inv *ReflectiveMethodInvocation) Target() interface{} { return inv.target }

func (inv *ReflectiveMethodInvocation) TargetType() reflect.Type { return inv.targetType }

func (inv *ReflectiveMethodInvocation) Proxy() types.AopProxy { return inv.proxy }

// Proceed advances the chain by one position. Interceptors call it to continue
// toward the target method; not calling it short-circuits the call. A dynamic
// entry whose matcher rejects the actual arguments is skipped by re-entering
// at the next position.
func (inv *ReflectiveMethodInvocation) Proceed() ([]interface{}, error) {
	if inv.cursor == len(inv.chain)-1 {
		return inv.invokeJoinpoint()
	}
	inv.cursor++
	entry := inv.chain[inv.cursor]
	if dynamic, ok := entry.(InterceptorAndDynamicMethodMatcher); ok {
		if dynamic.Matcher.MatchesArgs(inv.method, inv.targetType, inv.args) {
			return dynamic.Interceptor.Invoke(inv)
		}
		// dynamic matching failed: skip this interceptor and proceed with
		// the next entry in the chain
		return inv.Proceed()
	}
	return entry.(types.Interceptor).Invoke(inv)
}

// invokeJoinpoint invokes the real target method with the current arguments.
func (inv *ReflectiveMethodInvocation) invokeJoinpoint() ([]interface{}, error) {
	if !inv.hasTargetMethod {
		// a target that is itself a proxy forwards through its own chain
		if inner, ok := inv.target.(types.AopProxy); ok {
			return inner.Invoke(inv.method.Name, inv.args...)
		}
		return nil, fmt.Errorf("%w: %s has no target implementation", ErrMethodNotProxied, inv.method.Name)
	}
	return invokeReflectively(inv.target, inv.method.Name, inv.args)
}

// Clone returns an independent copy of this invocation: same chain and target
// references, own cursor, own argument slice. Passing args replaces the
// clone's arguments. The user attribute bag stays shared by reference between
// the original and all clones, so attributes set in one are visible in all.
func (inv *ReflectiveMethodInvocation) Clone(args ...interface{}) types.MethodInvocation {
	cp := *inv
	if len(args) > 0 {
		cp.args = args
	} else {
		cp.args = make([]interface{}, len(inv.args))
		copy(cp.args, inv.args)
	}
	return &cp
}

func (inv *ReflectiveMethodInvocation) SetAttribute(key string, value interface{}) {
	if inv.attributes.m == nil {
		inv.attributes.m = make(map[string]interface{})
	}
	inv.attributes.m[key] = value
}

func (inv *ReflectiveMethodInvocation) Attribute(key string) (interface{}, bool) {
	if inv.attributes.m == nil {
		return nil, false
	}
	v, ok := inv.attributes.m[key]
	return v, ok
}

// invokeReflectively calls the named method on the receiver with the given
// arguments. The trailing error return of the method, if declared, is split
// out as the error result. Panics from the method propagate unchanged.
func invokeReflectively(receiver interface{}, methodName string, args []interface{}) ([]interface{}, error) {
	rv := reflect.ValueOf(receiver)
	m := rv.MethodByName(methodName)
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %s on %T", ErrMethodNotProxied, methodName, receiver)
	}
	mt := m.Type()

	in, err := buildCallArgs(mt, methodName, args)
	if err != nil {
		return nil, err
	}

	out := m.Call(in)

	results := make([]interface{}, 0, len(out))
	var callErr error
	for i, v := range out {
		if i == len(out)-1 && mt.Out(i) == errorType {
			if !v.IsNil() {
				callErr = v.Interface().(error)
			}
			continue
		}
		results = append(results, v.Interface())
	}
	return results, callErr
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// buildCallArgs converts the untyped argument list into reflect values
// matching the method signature, handling nil arguments and variadic tails.
func buildCallArgs(mt reflect.Type, methodName string, args []interface{}) ([]reflect.Value, error) {
	numIn := mt.NumIn()
	if mt.IsVariadic() {
		if len(args) < numIn-1 {
			return nil, fmt.Errorf("method %s expects at least %d args, got %d", methodName, numIn-1, len(args))
		}
	} else if len(args) != numIn {
		return nil, fmt.Errorf("method %s expects %d args, got %d", methodName, numIn, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var paramType reflect.Type
		if mt.IsVariadic() && i >= numIn-1 {
			paramType = mt.In(numIn - 1).Elem()
		} else {
			paramType = mt.In(i)
		}
		if arg == nil {
			in[i] = reflect.Zero(paramType)
			continue
		}
		av := reflect.ValueOf(arg)
		if !av.Type().AssignableTo(paramType) {
			if av.Type().ConvertibleTo(paramType) {
				av = av.Convert(paramType)
			} else {
				return nil, fmt.Errorf("method %s arg %d: %s is not assignable to %s", methodName, i, av.Type(), paramType)
			}
		}
		in[i] = av
	}
	return in, nil
}
