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
	"math"
	"sort"

	"github.com/aopkit/aopkit/api/types"
)

// LowestPrecedence is the order value assigned to items that declare no
// explicit order. They sort last, in unspecified relative order.
const LowestPrecedence = math.MaxInt32

// HighestPrecedence is the order value of items that must run first.
const HighestPrecedence = math.MinInt32

// OrderOf resolves the effective order value of an item. An advisor that does
// not declare an order itself inherits the order of its advice.
func OrderOf(item interface{}) int {
	if ordered, ok := item.(types.Ordered); ok {
		return ordered.Order()
	}
	if advisor, ok := item.(types.Advisor); ok {
		if ordered, ok := advisor.Advice().(types.Ordered); ok {
			return ordered.Order()
		}
	}
	return LowestPrecedence
}

// isPriority reports whether an item (or, for advisors, its advice) carries
// the priority capability that sorts before all plain items.
func isPriority(item interface{}) bool {
	if _, ok := item.(types.PriorityOrdered); ok {
		return true
	}
	if advisor, ok := item.(types.Advisor); ok {
		if _, ok := advisor.Advice().(types.PriorityOrdered); ok {
			return true
		}
	}
	return false
}

// OrderLess is the two-tier comparison used everywhere advisors or advice are
// sorted: every priority-flagged item sorts before every plain item, then
// ascending numeric order decides within each group. This contract is relied
// upon by advice that must observe or prepare state for later advice.
func OrderLess(a, b interface{}) bool {
	pa, pb := isPriority(a), isPriority(b)
	if pa != pb {
		return pa
	}
	return OrderOf(a) < OrderOf(b)
}

// SortAdvisors sorts advisors in place by OrderLess, keeping the original
// order of items that compare equal.
func SortAdvisors(advisors []types.Advisor) {
	sort.SliceStable(advisors, func(i, j int) bool {
		return OrderLess(advisors[i], advisors[j])
	})
}
