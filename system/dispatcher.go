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
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/postbox/errors"
	"github.com/tochemey/postbox/internal/metric"
	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/mailbox"
	"github.com/tochemey/postbox/message"
)

const (
	dropUnregistered = "unregistered"
	dropInboxFull    = "inbox_full"
	dropSealed       = "sealed"
)

// Dispatcher receives a fixed number of messages from the mailbox and routes
// each one into the inbox of its destination.
//
// Whatever the outcome of Run, every inbox is sealed and Done is closed when
// Run returns; that is the only signal consumers wait on.
type Dispatcher struct {
	mailbox  mailbox.Mailbox
	inboxes  map[message.Identity]*Inbox
	expected int
	timeout  time.Duration
	logger   log.Logger
	metric   *metric.DispatchMetric

	processed *atomic.Int64
	dropped   *atomic.Int64

	done     chan struct{}
	doneOnce sync.Once
}

func newDispatcher(mb mailbox.Mailbox, inboxes []*Inbox, expected int, timeout time.Duration, logger log.Logger, instruments *metric.DispatchMetric) *Dispatcher {
	routes := make(map[message.Identity]*Inbox, len(inboxes))
	for _, inbox := range inboxes {
		routes[inbox.Owner()] = inbox
	}
	return &Dispatcher{
		mailbox:   mb,
		inboxes:   routes,
		expected:  expected,
		timeout:   timeout,
		logger:    logger,
		metric:    instruments,
		processed: atomic.NewInt64(0),
		dropped:   atomic.NewInt64(0),
		done:      make(chan struct{}),
	}
}

// Run performs exactly the expected number of receives.
func (x *Dispatcher) Run(ctx context.Context) error {
	defer x.finish()
	x.logger.Info("Mailbox dispatcher started - waiting for messages...")

	for x.processed.Load() < int64(x.expected) {
		receiveCtx, cancel := withTimeout(ctx, x.timeout)
		msg, err := x.mailbox.ReceiveContext(receiveCtx)
		cancel()
		if err != nil {
			return err
		}

		x.route(ctx, msg)
		x.processed.Inc()
	}

	x.logger.Infof("Mailbox dispatcher finished processing %d messages", x.processed.Load())
	return nil
}

// Done is closed once the dispatch phase is over and every inbox is sealed.
func (x *Dispatcher) Done() <-chan struct{} {
	return x.done
}

// Processed returns the number of messages received so far
func (x *Dispatcher) Processed() int64 {
	return x.processed.Load()
}

// Dropped returns the number of received messages that could not be routed
func (x *Dispatcher) Dropped() int64 {
	return x.dropped.Load()
}

func (x *Dispatcher) route(ctx context.Context, msg message.Message) {
	destination, value := message.Decode(msg.Payload())
	target := message.Identity(destination)
	x.logger.Infof("Mailbox processed message - destination: %s, value: %d", target, value)

	inbox, ok := x.inboxes[target]
	if !ok {
		x.drop(ctx, msg, dropUnregistered, gerrors.NewErrUnregisteredDestination(target))
		return
	}

	if err := inbox.deliver(msg); err != nil {
		reason := dropInboxFull
		if errors.Is(err, gerrors.ErrInboxSealed) {
			reason = dropSealed
		}
		x.drop(ctx, msg, reason, err)
		return
	}

	if x.metric != nil {
		x.metric.RecordDelivered(ctx, target.String())
	}
}

func (x *Dispatcher) drop(ctx context.Context, msg message.Message, reason string, err error) {
	x.dropped.Inc()
	if x.metric != nil {
		x.metric.RecordDropped(ctx, reason)
	}
	x.logger.Errorf("Mailbox dropped message %s from %s: %v", msg, msg.Origin(), err)
}

func (x *Dispatcher) finish() {
	x.doneOnce.Do(func() {
		for _, inbox := range x.inboxes {
			inbox.seal()
		}
		close(x.done)
	})
}
