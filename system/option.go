// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package system

import (
	"slices"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/message"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a system.
	Apply(sys *System)
}

// enforce compilation error
var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*System)

// Apply applies the option to the system
func (f OptionFunc) Apply(sys *System) {
	f(sys)
}

// WithCapacity sets the number of slots of the shared mailbox
func WithCapacity(capacity int) Option {
	return OptionFunc(func(sys *System) {
		sys.capacity = capacity
	})
}

// WithInboxCapacity sets how many messages each inbox can hold
func WithInboxCapacity(capacity int) Option {
	return OptionFunc(func(sys *System) {
		sys.inboxCapacity = capacity
	})
}

// WithSenders replaces the producers. Every sender sends exactly one message,
// so the dispatcher expects exactly len(senders) messages.
func WithSenders(senders ...Sender) Option {
	return OptionFunc(func(sys *System) {
		sys.senders = slices.Clone(senders)
	})
}

// WithConsumers replaces the registered consumer identities. Each one owns an inbox.
func WithConsumers(ids ...message.Identity) Option {
	return OptionFunc(func(sys *System) {
		sys.consumers = slices.Clone(ids)
	})
}

// WithLogger sets the system logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(sys *System) {
		sys.logger = logger
	})
}

// WithOperationTimeout bounds every send and receive on the shared mailbox.
// Zero, the default, lets them block until the run is cancelled.
func WithOperationTimeout(timeout time.Duration) Option {
	return OptionFunc(func(sys *System) {
		sys.operationTimeout = timeout
	})
}

// WithProducerDelay sets how long each producer works before sending its message
func WithProducerDelay(delay time.Duration) Option {
	return OptionFunc(func(sys *System) {
		sys.producerDelay = delay
	})
}

// WithMeterProvider sets the OpenTelemetry MeterProvider. The global one is used by default.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(sys *System) {
		sys.meterProvider = provider
	})
}

// WithRunID sets the identifier attached to every log entry of a run.
// A random UUID is generated for each run by default.
func WithRunID(id string) Option {
	return OptionFunc(func(sys *System) {
		sys.runID = id
	})
}
