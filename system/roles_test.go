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
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	gerrors "github.com/tochemey/postbox/errors"
	"github.com/tochemey/postbox/internal/metric"
	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/mailbox"
	"github.com/tochemey/postbox/message"
)

var errBroken = errors.New("broken mailbox")

// brokenMailbox fails every operation
type brokenMailbox struct{}

var _ mailbox.Mailbox = brokenMailbox{}

func (brokenMailbox) Send(message.Message) error { return errBroken }

func (brokenMailbox) SendContext(context.Context, message.Message) error { return errBroken }

func (brokenMailbox) Receive() (message.Message, error) { return message.Message{}, errBroken }

func (brokenMailbox) ReceiveContext(context.Context) (message.Message, error) {
	return message.Message{}, errBroken
}

func (brokenMailbox) Len() int { return 0 }

func (brokenMailbox) Cap() int { return 1 }

func (brokenMailbox) Dispose() {}

func newInboxes(t *testing.T, capacity int, owners ...message.Identity) []*Inbox {
	t.Helper()
	inboxes := make([]*Inbox, 0, len(owners))
	for _, owner := range owners {
		inbox, err := NewInbox(owner, capacity)
		require.NoError(t, err)
		inboxes = append(inboxes, inbox)
	}
	return inboxes
}

func isClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func TestProducer(t *testing.T) {
	t.Run("sends exactly one message", func(t *testing.T) {
		mb, err := mailbox.New(2)
		require.NoError(t, err)
		defer mb.Dispose()

		buffer := new(bytes.Buffer)
		sender := Sender{ID: message.A, Destination: message.E, Value: 10}
		producer := newProducer(sender, mb, time.Millisecond, 0, log.NewConsole(log.InfoLevel, buffer))
		require.NoError(t, producer.Run(context.Background()))

		require.Equal(t, 1, mb.Len())
		msg, err := mb.Receive()
		require.NoError(t, err)
		assert.Equal(t, message.A, msg.Origin())
		assert.Equal(t, message.E, msg.Destination())
		assert.EqualValues(t, 10, msg.Value())

		output := buffer.String()
		assert.Contains(t, output, "Starting Thread A - will send value 10 to Thread E")
		assert.Contains(t, output, "Message sent to mailbox - sender: Thread A, data: 0x040A")
		assert.Contains(t, output, "Thread A finished sending")
	})
	t.Run("times out on a full mailbox", func(t *testing.T) {
		mb, err := mailbox.New(1)
		require.NoError(t, err)
		defer mb.Dispose()
		require.NoError(t, mb.Send(message.New(message.B, message.F, 20)))

		sender := Sender{ID: message.A, Destination: message.E, Value: 10}
		producer := newProducer(sender, mb, 0, 20*time.Millisecond, log.DiscardLogger)
		err = producer.Run(context.Background())
		require.ErrorIs(t, err, gerrors.ErrMailboxTimeout)
		assert.Equal(t, 1, mb.Len())
	})
	t.Run("stops waiting for its delay when cancelled", func(t *testing.T) {
		mb, err := mailbox.New(1)
		require.NoError(t, err)
		defer mb.Dispose()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		sender := Sender{ID: message.A, Destination: message.E, Value: 10}
		producer := newProducer(sender, mb, time.Hour, 0, log.DiscardLogger)
		require.ErrorIs(t, producer.Run(ctx), context.Canceled)
		assert.Zero(t, mb.Len())
	})
}

func TestDispatcher(t *testing.T) {
	t.Run("routes every message to its destination", func(t *testing.T) {
		mb, err := mailbox.New(4)
		require.NoError(t, err)
		defer mb.Dispose()
		for _, sender := range DefaultSenders() {
			require.NoError(t, mb.Send(message.New(sender.ID, sender.Destination, sender.Value)))
		}

		inboxes := newInboxes(t, 1, DefaultConsumerIDs()...)
		dispatcher := newDispatcher(mb, inboxes, 4, 0, log.DiscardLogger, nil)
		require.NoError(t, dispatcher.Run(context.Background()))

		assert.EqualValues(t, 4, dispatcher.Processed())
		assert.Zero(t, dispatcher.Dropped())
		assert.True(t, isClosed(dispatcher.Done()))

		for i, inbox := range inboxes {
			require.True(t, inbox.IsSealed())
			messages, err := inbox.Messages()
			require.NoError(t, err)
			require.Len(t, messages, 1)
			assert.Equal(t, DefaultSenders()[i].ID, messages[0].Origin())
			assert.Equal(t, DefaultSenders()[i].Value, messages[0].Value())
		}
	})
	t.Run("drops unregistered destinations without touching other inboxes", func(t *testing.T) {
		mb, err := mailbox.New(2)
		require.NoError(t, err)
		defer mb.Dispose()
		require.NoError(t, mb.Send(message.New(message.A, message.Identity(9), 10)))
		require.NoError(t, mb.Send(message.New(message.B, message.F, 20)))

		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		instruments, err := metric.NewDispatchMetric(provider.Meter("test"))
		require.NoError(t, err)

		buffer := new(bytes.Buffer)
		inboxes := newInboxes(t, 2, message.E, message.F)
		dispatcher := newDispatcher(mb, inboxes, 2, 0, log.NewConsole(log.InfoLevel, buffer), instruments)
		require.NoError(t, dispatcher.Run(context.Background()))

		assert.EqualValues(t, 2, dispatcher.Processed())
		assert.EqualValues(t, 1, dispatcher.Dropped())

		received, err := inboxes[0].Messages()
		require.NoError(t, err)
		assert.Empty(t, received)

		received, err = inboxes[1].Messages()
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, message.B, received[0].Origin())

		assert.Contains(t, buffer.String(), gerrors.ErrUnregisteredDestination.Error())
		assert.Contains(t, buffer.String(), "Thread 9")

		var data metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &data))
		counts := make(map[string]int64)
		for _, scope := range data.ScopeMetrics {
			for _, m := range scope.Metrics {
				if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
					for _, point := range sum.DataPoints {
						counts[m.Name] += point.Value
					}
				}
			}
		}
		assert.EqualValues(t, 1, counts["dispatcher.dropped.count"])
		assert.EqualValues(t, 1, counts["dispatcher.delivered.count"])
	})
	t.Run("drops messages for a full inbox", func(t *testing.T) {
		mb, err := mailbox.New(3)
		require.NoError(t, err)
		defer mb.Dispose()
		require.NoError(t, mb.Send(message.New(message.A, message.E, 10)))
		require.NoError(t, mb.Send(message.New(message.B, message.E, 20)))
		require.NoError(t, mb.Send(message.New(message.C, message.G, 30)))

		inboxes := newInboxes(t, 1, message.E, message.G)
		dispatcher := newDispatcher(mb, inboxes, 3, 0, log.DiscardLogger, nil)
		require.NoError(t, dispatcher.Run(context.Background()))
		assert.EqualValues(t, 1, dispatcher.Dropped())

		received, err := inboxes[0].Messages()
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, message.A, received[0].Origin())

		received, err = inboxes[1].Messages()
		require.NoError(t, err)
		require.Len(t, received, 1)
		assert.Equal(t, message.C, received[0].Origin())
	})
	t.Run("seals inboxes when the mailbox fails", func(t *testing.T) {
		inboxes := newInboxes(t, 1, message.E, message.F)
		dispatcher := newDispatcher(brokenMailbox{}, inboxes, 4, 0, log.DiscardLogger, nil)

		err := dispatcher.Run(context.Background())
		require.ErrorIs(t, err, errBroken)
		assert.Zero(t, dispatcher.Processed())
		assert.True(t, isClosed(dispatcher.Done()))
		for _, inbox := range inboxes {
			assert.True(t, inbox.IsSealed())
		}
	})
	t.Run("times out waiting for a message", func(t *testing.T) {
		mb, err := mailbox.New(1)
		require.NoError(t, err)
		defer mb.Dispose()

		inboxes := newInboxes(t, 1, message.E)
		dispatcher := newDispatcher(mb, inboxes, 1, 20*time.Millisecond, log.DiscardLogger, nil)
		err = dispatcher.Run(context.Background())
		require.ErrorIs(t, err, gerrors.ErrMailboxTimeout)
		assert.True(t, isClosed(dispatcher.Done()))
	})
}

func TestConsumer(t *testing.T) {
	t.Run("reports its inbox once dispatch is done", func(t *testing.T) {
		inbox, err := NewInbox(message.E, 2)
		require.NoError(t, err)
		require.NoError(t, inbox.deliver(message.New(message.A, message.E, 10)))

		done := make(chan struct{})
		buffer := new(bytes.Buffer)
		consumer := newConsumer(inbox, done, log.NewConsole(log.InfoLevel, buffer))

		result := make(chan []message.Message, 1)
		go func() {
			messages, err := consumer.Run(context.Background())
			assert.NoError(t, err)
			result <- messages
		}()

		inbox.seal()
		close(done)

		select {
		case messages := <-result:
			require.Len(t, messages, 1)
			assert.EqualValues(t, 10, messages[0].Value())
		case <-time.After(time.Second):
			t.Fatal("consumer did not finish")
		}
		assert.Contains(t, buffer.String(), "Thread E received message: 10 from Thread A")
	})
	t.Run("gives up when cancelled", func(t *testing.T) {
		inbox, err := NewInbox(message.E, 1)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		consumer := newConsumer(inbox, make(chan struct{}), log.DiscardLogger)
		messages, err := consumer.Run(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Nil(t, messages)
	})
}
