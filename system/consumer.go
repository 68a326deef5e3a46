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

	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/message"
)

// Consumer reports the content of its inbox once the dispatch phase is over.
// It never mutates shared state.
type Consumer struct {
	inbox        *Inbox
	dispatchDone <-chan struct{}
	logger       log.Logger
}

func newConsumer(inbox *Inbox, dispatchDone <-chan struct{}, logger log.Logger) *Consumer {
	return &Consumer{
		inbox:        inbox,
		dispatchDone: dispatchDone,
		logger:       logger,
	}
}

// Run blocks until the dispatcher is done or ctx is, then reports every message
// of the inbox and returns them.
func (x *Consumer) Run(ctx context.Context) ([]message.Message, error) {
	owner := x.inbox.Owner()
	x.logger.Infof("Starting %s - waiting for messages...", owner)

	select {
	case <-x.dispatchDone:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	messages, err := x.inbox.Messages()
	if err != nil {
		return nil, err
	}

	for _, msg := range messages {
		_, value := message.Decode(msg.Payload())
		x.logger.Infof("%s received message: %d from %s", owner, value, msg.Origin())
	}
	return messages, nil
}
