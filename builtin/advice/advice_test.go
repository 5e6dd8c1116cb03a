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
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aopkit/aopkit/aop"
	"github.com/aopkit/aopkit/api/types"
	"github.com/aopkit/aopkit/test/assert"
	"github.com/aopkit/aopkit/utils/cache"
)

// test fixtures

var errFlaky = errors.New("flaky failure")

type calcService struct {
	calls        int32
	failuresLeft int32
}

func (s *calcService) Double(n int) int {
	atomic.AddInt32(&s.calls, 1)
	return n * 2
}

func (s *calcService) Flaky() (string, error) {
	atomic.AddInt32(&s.calls, 1)
	if atomic.AddInt32(&s.failuresLeft, -1) >= 0 {
		return "", errFlaky
	}
	return "ok", nil
}

// gateService blocks inside Work until released, to hold a throttle slot open.
type gateService struct {
	entered chan struct{}
	release chan struct{}
}

func (s *gateService) Work() string {
	s.entered <- struct{}{}
	<-s.release
	return "done"
}

type capturingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *capturingLogger) Printf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func (l *capturingLogger) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

type countingInterceptor struct {
	calls int32
}

func (i *countingInterceptor) Invoke(invocation types.MethodInvocation) ([]interface{}, error) {
	atomic.AddInt32(&i.calls, 1)
	return invocation.Proceed()
}

// inlinePool runs submitted tasks synchronously for deterministic async tests.
type inlinePool struct {
	submitted int32
}

func (p *inlinePool) Submit(task func()) error {
	atomic.AddInt32(&p.submitted, 1)
	task()
	return nil
}

func (p *inlinePool) Release() {}

func newTestConfig() types.Config {
	config := types.NewConfig()
	config.AdapterRegistry = aop.NewAdviceAdapterRegistry()
	return config
}

func newProxy(t *testing.T, target interface{}, config types.Config, advices ...types.Advice) types.AopProxy {
	t.Helper()
	factory := aop.NewProxyFactoryFor(target, config)
	for _, adv := range advices {
		if err := factory.AddAdvice(adv); err != nil {
			t.Fatal(err)
		}
	}
	proxy, err := factory.GetProxy()
	if err != nil {
		t.Fatal(err)
	}
	return proxy
}

func TestLoggingInterceptor(t *testing.T) {
	logger := &capturingLogger{}
	config := newTestConfig()
	config.Logger = logger

	x := &LoggingInterceptor{}
	err := x.Init(config, types.Configuration{"logArguments": true, "logResults": true})
	assert.Nil(t, err)
	assert.True(t, x.Config.LogArguments)

	svc := &calcService{}
	proxy := newProxy(t, svc, config, x)
	results, err := proxy.Invoke("Double", 21)
	assert.Nil(t, err)
	assert.Equal(t, 42, results[0])

	lines := logger.all()
	assert.Equal(t, 2, len(lines))
	assert.True(t, strings.Contains(lines[0], "Double"))
	assert.True(t, strings.Contains(lines[0], "[21]"))
	assert.True(t, strings.Contains(lines[1], "[42]"))
}

func TestLoggingInterceptorFailure(t *testing.T) {
	logger := &capturingLogger{}
	config := newTestConfig()
	config.Logger = logger

	svc := &calcService{failuresLeft: 1}
	proxy := newProxy(t, svc, config, NewLoggingInterceptor(logger))
	_, err := proxy.Invoke("Flaky")
	assert.True(t, errors.Is(err, errFlaky))

	lines := logger.all()
	assert.Equal(t, 2, len(lines))
	assert.True(t, strings.Contains(lines[1], "failed"))
}

func TestMetricsInterceptor(t *testing.T) {
	config := newTestConfig()
	metrics := NewMetricsInterceptor()
	svc := &calcService{failuresLeft: 1}
	proxy := newProxy(t, svc, config, metrics)

	_, err := proxy.Invoke("Double", 2)
	assert.Nil(t, err)
	_, err = proxy.Invoke("Flaky")
	assert.NotNil(t, err)

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot.Calls)
	assert.Equal(t, int64(1), snapshot.Failures)
	assert.Equal(t, int64(0), snapshot.InFlight)
	assert.True(t, snapshot.TotalDuration >= snapshot.MaxDuration)

	metrics.Reset()
	assert.Equal(t, int64(0), metrics.Snapshot().Calls)
}

func TestThrottleNonBlocking(t *testing.T) {
	config := newTestConfig()
	throttle := NewConcurrencyThrottleInterceptor(1)
	throttle.Config.Blocking = false

	svc := &gateService{entered: make(chan struct{}, 1), release: make(chan struct{}, 1)}
	proxy := newProxy(t, svc, config, throttle)

	done := make(chan error, 1)
	go func() {
		_, err := proxy.Invoke("Work")
		done <- err
	}()
	<-svc.entered

	// the single slot is held, the second call must fail fast
	_, err := proxy.Invoke("Work")
	assert.True(t, errors.Is(err, ErrConcurrencyLimit))

	svc.release <- struct{}{}
	assert.Nil(t, <-done)
}

func TestThrottleBlocking(t *testing.T) {
	config := newTestConfig()
	throttle := NewConcurrencyThrottleInterceptor(1)

	svc := &gateService{entered: make(chan struct{}, 2), release: make(chan struct{}, 2)}
	proxy := newProxy(t, svc, config, throttle)

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := proxy.Invoke("Work")
			done <- err
		}()
	}

	// only one call may be inside the target while the slot is held
	<-svc.entered
	time.Sleep(50 * time.Millisecond)
	select {
	case <-svc.entered:
		t.Fatal("second call entered past the throttle")
	default:
	}

	svc.release <- struct{}{}
	<-svc.entered
	svc.release <- struct{}{}
	assert.Nil(t, <-done)
	assert.Nil(t, <-done)
}

func TestThrottleInit(t *testing.T) {
	x := &ConcurrencyThrottleInterceptor{}
	assert.NotNil(t, x.Init(newTestConfig(), types.Configuration{"limit": 0}))
	assert.Nil(t, x.Init(newTestConfig(), types.Configuration{"limit": 2, "blocking": true}))
	assert.Equal(t, 2, x.Config.Limit)
}

func TestCacheInterceptor(t *testing.T) {
	memCache := cache.NewMemoryCache(time.Minute)
	defer memCache.Stop()
	config := newTestConfig()
	config.Cache = memCache

	x := &CacheInterceptor{}
	err := x.Init(config, types.Configuration{"ttl": "1m", "keyPrefix": "calc:"})
	assert.Nil(t, err)

	svc := &calcService{}
	proxy := newProxy(t, svc, config, x)

	results, err := proxy.Invoke("Double", 2)
	assert.Nil(t, err)
	assert.Equal(t, 4, results[0])
	results, err = proxy.Invoke("Double", 2)
	assert.Nil(t, err)
	assert.Equal(t, 4, results[0])
	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.calls))
	assert.True(t, memCache.Has("calc:Double:2"))

	// a different argument misses the cache
	_, err = proxy.Invoke("Double", 3)
	assert.Nil(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&svc.calls))
}

func TestCacheInterceptorSkipsErrors(t *testing.T) {
	memCache := cache.NewMemoryCache(time.Minute)
	defer memCache.Stop()
	config := newTestConfig()
	config.Cache = memCache

	svc := &calcService{failuresLeft: 2}
	proxy := newProxy(t, svc, config, NewCacheInterceptor(memCache, ""))

	_, err := proxy.Invoke("Flaky")
	assert.NotNil(t, err)
	_, err = proxy.Invoke("Flaky")
	assert.NotNil(t, err)
	// failures hit the target every time
	assert.Equal(t, int32(2), atomic.LoadInt32(&svc.calls))
}

func TestCacheInterceptorInitNeedsCache(t *testing.T) {
	x := &CacheInterceptor{}
	assert.NotNil(t, x.Init(newTestConfig(), types.Configuration{}))
}

func TestRetryInterceptorRecovers(t *testing.T) {
	config := newTestConfig()
	svc := &calcService{failuresLeft: 2}
	proxy := newProxy(t, svc, config, NewRetryInterceptor(3, 0))

	results, err := proxy.Invoke("Flaky")
	assert.Nil(t, err)
	assert.Equal(t, "ok", results[0])
	assert.Equal(t, int32(3), atomic.LoadInt32(&svc.calls))
}

func TestRetryInterceptorExhausted(t *testing.T) {
	config := newTestConfig()
	svc := &calcService{failuresLeft: 5}
	proxy := newProxy(t, svc, config, NewRetryInterceptor(2, 0))

	_, err := proxy.Invoke("Flaky")
	assert.True(t, errors.Is(err, errFlaky))
	assert.Equal(t, int32(2), atomic.LoadInt32(&svc.calls))
}

func TestRetryInterceptorRetryableFilter(t *testing.T) {
	config := newTestConfig()
	retry := NewRetryInterceptor(5, 0)
	retry.Retryable = func(err error) bool { return false }

	svc := &calcService{failuresLeft: 5}
	proxy := newProxy(t, svc, config, retry)

	_, err := proxy.Invoke("Flaky")
	assert.NotNil(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.calls))
}

func TestRetryInterceptorInit(t *testing.T) {
	x := &RetryInterceptor{}
	assert.NotNil(t, x.Init(newTestConfig(), types.Configuration{"maxAttempts": 0}))
	assert.Nil(t, x.Init(newTestConfig(), types.Configuration{"maxAttempts": 2, "delay": "5ms"}))
	assert.Equal(t, 5*time.Millisecond, x.delay)
	assert.NotNil(t, x.Init(newTestConfig(), types.Configuration{"maxAttempts": 2, "delay": "not-a-duration"}))
}

func TestAsyncInterceptorWithPool(t *testing.T) {
	config := newTestConfig()
	pool := &inlinePool{}
	async := NewAsyncInterceptor(pool, nil)

	var captured []interface{}
	async.OnResult = func(_ types.MethodInvocation, result []interface{}) {
		captured = result
	}

	svc := &calcService{}
	proxy := newProxy(t, svc, config, async)
	results, err := proxy.Invoke("Double", 21)
	assert.Nil(t, err)
	assert.Nil(t, results)

	// the inline pool ran the clone synchronously
	assert.Equal(t, int32(1), atomic.LoadInt32(&pool.submitted))
	assert.Equal(t, []interface{}{42}, captured)
	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.calls))
}

func TestAsyncInterceptorGoroutineFallback(t *testing.T) {
	config := newTestConfig()
	async := NewAsyncInterceptor(nil, nil)

	errs := make(chan error, 1)
	async.OnError = func(_ types.MethodInvocation, err error) {
		errs <- err
	}

	svc := &calcService{failuresLeft: 1}
	proxy := newProxy(t, svc, config, async)
	_, err := proxy.Invoke("Flaky")
	assert.Nil(t, err)

	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, errFlaky))
	case <-time.After(2 * time.Second):
		t.Fatal("background error never arrived")
	}
}
