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
	"time"

	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/mailbox"
	"github.com/tochemey/postbox/message"
)

// Producer builds one message and sends it exactly once. It never retries.
type Producer struct {
	sender  Sender
	mailbox mailbox.Mailbox
	delay   time.Duration
	timeout time.Duration
	logger  log.Logger
}

func newProducer(sender Sender, mb mailbox.Mailbox, delay, timeout time.Duration, logger log.Logger) *Producer {
	return &Producer{
		sender:  sender,
		mailbox: mb,
		delay:   delay,
		timeout: timeout,
		logger:  logger,
	}
}

// Run waits for the processing delay, then sends the message.
// It returns when the send has completed or failed.
func (x *Producer) Run(ctx context.Context) error {
	x.logger.Infof("Starting %s - will send value %d to %s", x.sender.ID, x.sender.Value, x.sender.Destination)

	if x.delay > 0 {
		timer := time.NewTimer(x.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	msg := message.New(x.sender.ID, x.sender.Destination, x.sender.Value)

	sendCtx, cancel := withTimeout(ctx, x.timeout)
	defer cancel()
	if err := x.mailbox.SendContext(sendCtx, msg); err != nil {
		return err
	}

	x.logger.Infof("Message sent to mailbox - sender: %s, data: %s", x.sender.ID, msg)
	x.logger.Infof("%s finished sending", x.sender.ID)
	return nil
}
