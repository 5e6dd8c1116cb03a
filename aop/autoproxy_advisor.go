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
	"strings"

	"github.com/aopkit/aopkit/api/types"
)

// CanApply reports whether the advisor can apply to any method of the target
// type. It is the per-class pre-filter used by the advisor-driven creators; a
// plain advisor without a pointcut applies everywhere.
func CanApply(advisor types.Advisor, targetType reflect.Type, hasIntroductions bool) bool {
	switch a := advisor.(type) {
	case types.IntroductionAdvisor:
		return a.ClassFilter().Matches(targetType)
	case types.PointcutAdvisor:
		return canApplyPointcut(a.Pointcut(), targetType, hasIntroductions)
	default:
		return true
	}
}

func canApplyPointcut(pointcut types.Pointcut, targetType reflect.Type, hasIntroductions bool) bool {
	if !pointcut.ClassFilter().Matches(targetType) {
		return false
	}
	matcher := pointcut.MethodMatcher()
	introductionAware, isIntroductionAware := matcher.(types.IntroductionAwareMethodMatcher)
	for i := 0; i < targetType.NumMethod(); i++ {
		method := targetType.Method(i)
		if isIntroductionAware {
			if introductionAware.MatchesWithIntroductions(method, targetType, hasIntroductions) {
				return true
			}
		} else if matcher.Matches(method, targetType) {
			return true
		}
	}
	return false
}

// FindAdvisorsThatCanApply keeps the candidates applicable to the target
// type. Introduction advisors are evaluated first, because their presence
// widens what an introduction-aware matcher accepts for the remaining ones.
func FindAdvisorsThatCanApply(candidates []types.Advisor, targetType reflect.Type) []types.Advisor {
	eligible := make([]types.Advisor, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := candidate.(types.IntroductionAdvisor); ok && CanApply(candidate, targetType, false) {
			eligible = append(eligible, candidate)
		}
	}
	hasIntroductions := len(eligible) > 0
	for _, candidate := range candidates {
		if _, ok := candidate.(types.IntroductionAdvisor); ok {
			continue
		}
		if CanApply(candidate, targetType, hasIntroductions) {
			eligible = append(eligible, candidate)
		}
	}
	return eligible
}

// AdvisorAutoProxyCreator proxies every bean to which at least one Advisor
// bean in the registry applies. Candidate advisors come from the registry via
// an AdvisorRetrievalHelper; they are class-filtered per bean, extended by the
// ExtendAdvisors hook and sorted into precedence order.
//
// AdvisorAutoProxyCreator 对注册表中至少有一个 Advisor bean 适用的 bean 进行
// 代理。候选 Advisor 按 bean 做类过滤，经 ExtendAdvisors 钩子扩展后按优先级排序。
type AdvisorAutoProxyCreator struct {
	*AutoProxyCreator
	retrieval *AdvisorRetrievalHelper

	// AdvisorBeanNamePrefix restricts candidate advisors to beans whose name
	// carries the prefix. Empty accepts every advisor bean.
	AdvisorBeanNamePrefix string
	// ExtendAdvisors may add creator-supplied advisors, for example an
	// expose-invocation advisor at the head of the list.
	ExtendAdvisors func(advisors []types.Advisor) []types.Advisor
}

// NewAdvisorAutoProxyCreator creates an advisor-driven creator over the registry.
func NewAdvisorAutoProxyCreator(registry types.BeanRegistry, config types.Config) *AdvisorAutoProxyCreator {
	c := &AdvisorAutoProxyCreator{}
	c.AutoProxyCreator = newAutoProxyCreator(registry, config, c)
	c.retrieval = NewAdvisorRetrievalHelper(registry, config)
	c.retrieval.IsEligible = c.isEligibleAdvisorBean
	return c
}

func (c *AdvisorAutoProxyCreator) isEligibleAdvisorBean(name string) bool {
	if c.AdvisorBeanNamePrefix == "" {
		return true
	}
	return strings.HasPrefix(name, c.AdvisorBeanNamePrefix)
}

// advisorsForBean is the proxyingPolicy hook: advisors already passed the
// class filter here, so the proxy configuration is marked pre-filtered.
func (c *AdvisorAutoProxyCreator) advisorsForBean(beanType reflect.Type, beanName string, _ types.TargetSource) ([]types.Advisor, bool, error) {
	candidates, err := c.retrieval.FindAdvisorBeans()
	if err != nil {
		return nil, false, err
	}
	eligible := FindAdvisorsThatCanApply(candidates, beanType)
	if c.ExtendAdvisors != nil {
		eligible = c.ExtendAdvisors(eligible)
	}
	if len(eligible) == 0 {
		return nil, false, nil
	}
	SortAdvisors(eligible)
	return eligible, true, nil
}

func (c *AdvisorAutoProxyCreator) preFiltered() bool { return true }

// NewInfrastructureAdvisorAutoProxyCreator creates an advisor-driven creator
// that only considers advisor beans declared with RoleInfrastructure. It backs
// framework-driven proxying that must not accidentally pick up application
// advisors.
func NewInfrastructureAdvisorAutoProxyCreator(registry types.BeanRegistry, config types.Config) *AdvisorAutoProxyCreator {
	c := NewAdvisorAutoProxyCreator(registry, config)
	c.retrieval.IsEligible = func(name string) bool {
		return registry.Role(name) == types.RoleInfrastructure
	}
	return c
}
