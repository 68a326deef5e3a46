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

	"github.com/tochemey/postbox/message"
)

// Mailbox is a bounded, blocking, FIFO buffer shared by many producers and
// a dispatcher.
//
// Blocking behavior
//   - Send blocks while the mailbox is full and Receive blocks while it is
//     empty. Neither ever drops a message nor spins.
//   - The Context variants bound the wait: a deadline yields ErrMailboxTimeout,
//     a cancellation yields the context error. An operation that can proceed
//     without waiting always proceeds.
//
// Resource management
//   - Dispose releases every blocked caller with ErrMailboxDisposed. The
//     mailbox must not be used afterwards.
type Mailbox interface {
	// Send inserts msg, waiting for space when the mailbox is full.
	Send(msg message.Message) error
	// SendContext is Send bounded by ctx.
	SendContext(ctx context.Context, msg message.Message) error
	// Receive removes the oldest message, waiting for one when the mailbox is empty.
	Receive() (message.Message, error)
	// ReceiveContext is Receive bounded by ctx.
	ReceiveContext(ctx context.Context) (message.Message, error)
	// Len returns a snapshot of the number of unread messages.
	Len() int
	// Cap returns the fixed capacity.
	Cap() int
	// Dispose releases blocked callers and the resources of the mailbox.
	Dispose()
}
