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

import (
	"errors"
	"fmt"
	"reflect"
)

// This file defines the boundary between the AOP core and its bean container
// collaborator. The core only consumes from the container: bean lookup by type
// and name, construction-state queries and bean definition metadata.
//
// 本文件定义 AOP 核心与其 bean 容器协作者之间的边界。核心只从容器消费：
// 按类型和名称查找 bean、构建状态查询以及 bean 定义元数据。

const (
	// FactoryBeanPrefix dereferences the factory object itself instead of the
	// object it produces, e.g. GetBean("&myFactory").
	FactoryBeanPrefix = "&"
	// OriginalInstanceSuffix denotes the raw, unproxied companion of another
	// bean, exposed for internal wiring. Such beans are never proxied.
	OriginalInstanceSuffix = ".ORIGINAL"
)

// Role classifies a bean definition.
type Role int

const (
	// RoleApplication marks an ordinary, user-declared bean.
	RoleApplication Role = iota
	// RoleInfrastructure marks a bean that is internal to the framework
	// configuration and not meant for user consumption.
	RoleInfrastructure
)

// BeanRegistry is the container-facing view the AOP core depends on.
//
// BeanRegistry 是 AOP 核心所依赖的面向容器的视图。
type BeanRegistry interface {
	// BeanNamesForType returns the names of all beans assignable to the given
	// type, across the registry hierarchy, without initializing factory beans.
	// Names come back in registration order.
	BeanNamesForType(t reflect.Type) []string
	// ContainsBean reports whether a bean with the given name or alias exists.
	ContainsBean(name string) bool
	// GetBean returns the bean with the given name, creating it on demand.
	// Construction failures come back as a *BeanCreationError whose cause
	// chain distinguishes the "currently in creation" cycle case.
	GetBean(name string) (interface{}, error)
	// IsCurrentlyInCreation reports whether the named bean is mid-construction.
	IsCurrentlyInCreation(name string) bool
	// Aliases returns all known aliases of the named bean, without the name itself.
	Aliases(name string) []string
	// Role returns the definition role of the named bean. Unknown names report
	// RoleApplication.
	Role(name string) Role
	// Interfaces returns the interface types the named bean declares for
	// proxying purposes, or nil when the definition declares none.
	Interfaces(name string) []reflect.Type
}

// FactoryBean is implemented by beans that produce another object. GetBean on
// the plain name returns the product; the FactoryBeanPrefix returns the
// factory itself.
type FactoryBean interface {
	// Object returns the object this factory produces.
	Object() (interface{}, error)
	// ObjectType returns the type of the produced object without producing it,
	// or nil when the type is not known in advance.
	ObjectType() reflect.Type
}

// BeanPostProcessor hooks into bean initialization. The AOP auto-proxy
// creators implement it to replace fully initialized beans with proxies.
type BeanPostProcessor interface {
	// AfterInitialization runs after a bean is fully initialized and may
	// return a replacement (typically a proxy) for the bean.
	AfterInitialization(bean interface{}, beanName string) (interface{}, error)
}

// InstantiationAwareBeanPostProcessor additionally hooks into the phases
// before instantiation and during circular-reference resolution.
type InstantiationAwareBeanPostProcessor interface {
	BeanPostProcessor
	// BeforeInstantiation may return a bean (typically a proxy around a custom
	// target source) to short-circuit normal instantiation, or nil to proceed.
	BeforeInstantiation(beanType reflect.Type, beanName string) (interface{}, error)
	// EarlyBeanReference wraps a bean whose reference must be exposed before
	// its initialization completes, because another bean under construction
	// needs it. The same instance must not be wrapped again later.
	EarlyBeanReference(bean interface{}, beanName string) (interface{}, error)
	// PredictBeanType returns the eventual type of the bean after processing,
	// or nil when no prediction is possible.
	PredictBeanType(beanType reflect.Type, beanName string) reflect.Type
}

// BeanCreationError reports a failure while creating a named bean. InCreation
// marks the specific cycle condition "the bean is currently being created",
// which callers treat as a control-flow signal rather than a fatal error.
//
// BeanCreationError 报告创建命名 bean 时的失败。InCreation 标记特定的循环条件
// “该 bean 正在创建中”，调用方将其视为控制流信号而不是致命错误。
type BeanCreationError struct {
	BeanName   string
	InCreation bool
	Err        error
}

func (e *BeanCreationError) Error() string {
	if e.InCreation {
		return fmt.Sprintf("bean %q is currently in creation", e.BeanName)
	}
	return fmt.Sprintf("error creating bean %q: %v", e.BeanName, e.Err)
}

func (e *BeanCreationError) Unwrap() error {
	return e.Err
}

// IsCurrentlyInCreation walks the cause chain of err and reports whether its
// root cause is the "currently in creation" cycle condition.
func IsCurrentlyInCreation(err error) bool {
	for err != nil {
		var bce *BeanCreationError
		if !errors.As(err, &bce) {
			return false
		}
		if bce.InCreation {
			return true
		}
		err = bce.Err
	}
	return false
}
