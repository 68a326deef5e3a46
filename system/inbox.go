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
	"fmt"
	"sync"

	"github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/postbox/errors"
	"github.com/tochemey/postbox/message"
)

// Inbox holds the messages routed to one consumer.
//
// It has two phases separated by Seal. Before Seal only the dispatcher
// delivers into it; after Seal only its consumer reads it. Deliveries after
// Seal and reads before Seal are rejected, so the phase boundary cannot be
// crossed by accident.
type Inbox struct {
	owner    message.Identity
	capacity int
	ring     *queue.RingBuffer
	sealed   *atomic.Bool

	drainOnce sync.Once
	received  []message.Message
}

// NewInbox creates an empty Inbox for owner holding at most capacity messages.
func NewInbox(owner message.Identity, capacity int) (*Inbox, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("inbox=(%s) capacity=(%d) %w", owner, capacity, gerrors.ErrInvalidCapacity)
	}
	return &Inbox{
		owner:    owner,
		capacity: capacity,
		// the ring rounds its size up to a power of two, capacity is enforced by deliver
		ring:   queue.NewRingBuffer(uint64(capacity)),
		sealed: atomic.NewBool(false),
	}, nil
}

// Owner returns the identity of the consumer owning the inbox
func (x *Inbox) Owner() message.Identity {
	return x.owner
}

// Capacity returns the maximum number of messages the inbox holds
func (x *Inbox) Capacity() int {
	return x.capacity
}

// IsSealed reports whether the dispatch phase of the inbox is over
func (x *Inbox) IsSealed() bool {
	return x.sealed.Load()
}

// Messages returns the delivered messages in delivery order.
// It fails with ErrInboxNotSealed until the dispatcher has sealed the inbox.
func (x *Inbox) Messages() ([]message.Message, error) {
	if !x.sealed.Load() {
		return nil, fmt.Errorf("inbox=(%s) %w", x.owner, gerrors.ErrInboxNotSealed)
	}

	x.drainOnce.Do(func() {
		x.received = make([]message.Message, 0, x.ring.Len())
		for x.ring.Len() > 0 {
			item, err := x.ring.Get()
			if err != nil {
				break
			}
			x.received = append(x.received, item.(message.Message))
		}
		x.ring.Dispose()
	})

	out := make([]message.Message, len(x.received))
	copy(out, x.received)
	return out, nil
}

// deliver appends msg. Only the dispatcher calls it, before sealing.
func (x *Inbox) deliver(msg message.Message) error {
	if x.sealed.Load() {
		return fmt.Errorf("inbox=(%s) %w", x.owner, gerrors.ErrInboxSealed)
	}
	if x.ring.Len() >= uint64(x.capacity) {
		return gerrors.NewErrInboxFull(x.owner)
	}
	if ok, err := x.ring.Offer(msg); err != nil || !ok {
		return gerrors.NewErrInboxFull(x.owner)
	}
	return nil
}

// seal ends the dispatch phase
func (x *Inbox) seal() {
	x.sealed.Store(true)
}
