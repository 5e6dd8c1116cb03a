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
	"sync/atomic"
	"time"

	"github.com/aopkit/aopkit/api/types"
)

// MetricsSnapshot is a point-in-time view of the counters of a
// MetricsInterceptor.
type MetricsSnapshot struct {
	Calls         int64
	Failures      int64
	InFlight      int64
	TotalDuration time.Duration
	MaxDuration   time.Duration
}

// MetricsInterceptor counts calls, failures and durations across all methods
// it intercepts. All counters are atomic; Snapshot is safe during traffic.
type MetricsInterceptor struct {
	calls      int64
	failures   int64
	inFlight   int64
	totalNanos int64
	maxNanos   int64
}

var _ types.Interceptor = (*MetricsInterceptor)(nil)

// NewMetricsInterceptor creates an interceptor with zeroed counters.
func NewMetricsInterceptor() *MetricsInterceptor {
	return &MetricsInterceptor{}
}

func (x *MetricsInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	atomic.AddInt64(&x.calls, 1)
	atomic.AddInt64(&x.inFlight, 1)
	start := time.Now()
	result, err := invocation.Proceed()
	elapsed := time.Since(start).Nanoseconds()
	atomic.AddInt64(&x.inFlight, -1)
	atomic.AddInt64(&x.totalNanos, elapsed)
	for {
		max := atomic.LoadInt64(&x.maxNanos)
		if elapsed <= max || atomic.CompareAndSwapInt64(&x.maxNanos, max, elapsed) {
			break
		}
	}
	if err != nil {
		atomic.AddInt64(&x.failures, 1)
	}
	return result, err
}

// Snapshot returns the current counter values.
func (x *MetricsInterceptor) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Calls:         atomic.LoadInt64(&x.calls),
		Failures:      atomic.LoadInt64(&x.failures),
		InFlight:      atomic.LoadInt64(&x.inFlight),
		TotalDuration: time.Duration(atomic.LoadInt64(&x.totalNanos)),
		MaxDuration:   time.Duration(atomic.LoadInt64(&x.maxNanos)),
	}
}

// Reset zeroes all counters except the in-flight gauge.
func (x *MetricsInterceptor) Reset() {
	atomic.StoreInt64(&x.calls, 0)
	atomic.StoreInt64(&x.failures, 0)
	atomic.StoreInt64(&x.totalNanos, 0)
	atomic.StoreInt64(&x.maxNanos, 0)
}
