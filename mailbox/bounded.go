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

package mailbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	otelmetric "go.opentelemetry.io/otel/metric"

	gerrors "github.com/tochemey/postbox/errors"
	"github.com/tochemey/postbox/internal/metric"
	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/message"
)

// Bounded is a fixed-capacity ring of messages guarded by one mutex and two
// condition variables, notFull and notEmpty.
//
// Invariants, holding whenever mu is not held:
//   - 0 <= count <= len(slots)
//   - head is the next insertion slot and tail the next removal slot, both
//     advancing modulo len(slots)
//   - the count slots starting at tail hold valid messages, every other slot
//     holds the zero Message
//
// Every insertion signals exactly one waiter on notEmpty and every removal
// exactly one waiter on notFull. Waiters always re-check their predicate.
type Bounded struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	slots []message.Message
	head  int
	tail  int
	count int

	disposed         bool
	waitingSenders   int
	waitingReceivers int

	logger       log.Logger
	metric       *metric.MailboxMetric
	registration otelmetric.Registration
}

// enforce compilation error
var _ Mailbox = (*Bounded)(nil)

// New creates a Bounded mailbox holding at most capacity messages, with every slot cleared.
// Capacity must be a positive integer.
func New(capacity int, opts ...Option) (*Bounded, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("mailbox capacity=(%d) %w", capacity, gerrors.ErrInvalidCapacity)
	}

	mailbox := &Bounded{
		slots:  make([]message.Message, capacity),
		logger: log.DiscardLogger,
	}
	mailbox.notFull = sync.NewCond(&mailbox.mu)
	mailbox.notEmpty = sync.NewCond(&mailbox.mu)

	for _, opt := range opts {
		opt.Apply(mailbox)
	}

	if mailbox.metric != nil {
		registration, err := mailbox.metric.ObserveDepth(func() int64 { return int64(mailbox.Len()) })
		if err != nil {
			return nil, fmt.Errorf("failed to observe mailbox depth: %w", err)
		}
		mailbox.registration = registration
	}

	return mailbox, nil
}

// Send inserts msg at the head of the ring, blocking while the mailbox is full.
func (x *Bounded) Send(msg message.Message) error {
	return x.SendContext(context.Background(), msg)
}

// SendContext inserts msg at the head of the ring, blocking while the mailbox is
// full or until ctx is done.
func (x *Bounded) SendContext(ctx context.Context, msg message.Message) error {
	start := time.Now()

	x.mu.Lock()
	var stop func() bool
	for x.count == len(x.slots) && !x.disposed {
		if ctx.Err() != nil {
			break
		}
		if stop == nil {
			stop = x.wakeOnDone(ctx, x.notFull)
		}
		x.waitingSenders++
		x.notFull.Wait()
		x.waitingSenders--
	}

	if x.disposed || x.count == len(x.slots) {
		disposed := x.disposed
		x.mu.Unlock()
		release(stop)
		if disposed {
			return gerrors.ErrMailboxDisposed
		}
		return contextError(ctx)
	}

	x.slots[x.head] = msg
	x.head = (x.head + 1) % len(x.slots)
	x.count++
	depth := x.count
	x.notEmpty.Signal()
	x.mu.Unlock()
	release(stop)

	waited := time.Since(start)
	if x.metric != nil {
		x.metric.RecordSend(ctx, waited)
	}
	x.logger.Debugf("message %s from %s inserted (%d/%d) after %s", msg, msg.Origin(), depth, len(x.slots), waited)
	return nil
}

// Receive removes the message at the tail of the ring, blocking while the mailbox is empty.
func (x *Bounded) Receive() (message.Message, error) {
	return x.ReceiveContext(context.Background())
}

// ReceiveContext removes the message at the tail of the ring, blocking while the
// mailbox is empty or until ctx is done.
func (x *Bounded) ReceiveContext(ctx context.Context) (message.Message, error) {
	start := time.Now()

	x.mu.Lock()
	var stop func() bool
	for x.count == 0 && !x.disposed {
		if ctx.Err() != nil {
			break
		}
		if stop == nil {
			stop = x.wakeOnDone(ctx, x.notEmpty)
		}
		x.waitingReceivers++
		x.notEmpty.Wait()
		x.waitingReceivers--
	}

	if x.disposed || x.count == 0 {
		disposed := x.disposed
		x.mu.Unlock()
		release(stop)
		if disposed {
			return message.Message{}, gerrors.ErrMailboxDisposed
		}
		return message.Message{}, contextError(ctx)
	}

	msg := x.slots[x.tail]
	x.slots[x.tail] = message.Message{}
	x.tail = (x.tail + 1) % len(x.slots)
	x.count--
	depth := x.count
	x.notFull.Signal()
	x.mu.Unlock()
	release(stop)

	waited := time.Since(start)
	if x.metric != nil {
		x.metric.RecordReceive(ctx, waited)
	}
	x.logger.Debugf("message %s from %s removed (%d/%d) after %s", msg, msg.Origin(), depth, len(x.slots), waited)
	return msg, nil
}

// Len returns the current number of unread messages.
// The value is a snapshot and may change immediately after the call.
func (x *Bounded) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.count
}

// Cap returns the capacity of the mailbox
func (x *Bounded) Cap() int {
	return len(x.slots)
}

// IsEmpty reports whether the mailbox currently holds no message.
func (x *Bounded) IsEmpty() bool {
	return x.Len() == 0
}

// IsFull reports whether the mailbox is currently at capacity.
func (x *Bounded) IsFull() bool {
	return x.Len() == len(x.slots)
}

// Dispose wakes every blocked sender and receiver, which then return
// ErrMailboxDisposed, and stops reporting the mailbox depth. Unread messages
// are discarded. Calling Dispose more than once is a no-op.
func (x *Bounded) Dispose() {
	x.mu.Lock()
	if x.disposed {
		x.mu.Unlock()
		return
	}
	x.disposed = true
	unread := x.count
	x.notFull.Broadcast()
	x.notEmpty.Broadcast()
	x.mu.Unlock()

	if x.registration != nil {
		if err := x.registration.Unregister(); err != nil {
			x.logger.Warnf("failed to unregister mailbox depth observer: %v", err)
		}
	}
	x.logger.Debugf("mailbox disposed with %d unread message(s)", unread)
}

// waiting returns how many senders and receivers are blocked right now.
func (x *Bounded) waiting() (senders, receivers int) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.waitingSenders, x.waitingReceivers
}

// wakeOnDone broadcasts cond once ctx is done so that its waiters can observe
// the context error. It must be called with mu held.
func (x *Bounded) wakeOnDone(ctx context.Context, cond *sync.Cond) func() bool {
	if ctx.Done() == nil {
		return nil
	}
	return context.AfterFunc(ctx, func() {
		x.mu.Lock()
		cond.Broadcast()
		x.mu.Unlock()
	})
}

func release(stop func() bool) {
	if stop != nil {
		stop()
	}
}

func contextError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", gerrors.ErrMailboxTimeout, err)
	}
	return err
}
