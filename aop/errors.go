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

import "errors"

var (
	// ErrFrozen is returned by configuration mutators once the proxy
	// configuration has been frozen.
	ErrFrozen = errors.New("proxy configuration is frozen, no advice changes allowed")

	// ErrNoTarget is returned when a proxy is requested for a configuration
	// that has neither a resolvable target class nor proxy interfaces.
	ErrNoTarget = errors.New("cannot create proxy: no target class and no proxy interfaces available")

	// ErrMethodNotProxied is returned when a method is invoked on a proxy that
	// does not expose it through its interfaces or target method set.
	ErrMethodNotProxied = errors.New("method is not exposed by this proxy")

	// ErrUnknownAdviceType is returned when an advice matches no registered
	// adapter and is not an interceptor.
	ErrUnknownAdviceType = errors.New("advice is neither an interceptor nor a supported advice type")
)
