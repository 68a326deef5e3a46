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
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	gerrors "github.com/tochemey/postbox/errors"
	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/message"
)

func TestNew(t *testing.T) {
	t.Run("with the defaults", func(t *testing.T) {
		sys, err := New()
		require.NoError(t, err)
		assert.Equal(t, DefaultCapacity, sys.capacity)
		assert.Equal(t, DefaultInboxCapacity, sys.inboxCapacity)
		assert.Len(t, sys.senders, DefaultProducers)
		assert.Len(t, sys.consumers, DefaultConsumers)
		assert.Equal(t, log.DefaultLogger, sys.logger)
	})
	t.Run("with options", func(t *testing.T) {
		provider := noop.NewMeterProvider()
		sys, err := New(
			WithCapacity(1),
			WithInboxCapacity(2),
			WithSenders(Sender{ID: message.A, Destination: message.B, Value: 1}),
			WithConsumers(message.B),
			WithLogger(log.DiscardLogger),
			WithOperationTimeout(time.Second),
			WithProducerDelay(time.Millisecond),
			WithMeterProvider(provider),
			WithRunID("run-1"),
		)
		require.NoError(t, err)
		assert.Equal(t, 1, sys.capacity)
		assert.Equal(t, 2, sys.inboxCapacity)
		assert.Equal(t, []Sender{{ID: message.A, Destination: message.B, Value: 1}}, sys.senders)
		assert.Equal(t, []message.Identity{message.B}, sys.consumers)
		assert.Equal(t, log.DiscardLogger, sys.logger)
		assert.Equal(t, time.Second, sys.operationTimeout)
		assert.Equal(t, time.Millisecond, sys.producerDelay)
		assert.Equal(t, provider, sys.meterProvider)
		assert.Equal(t, "run-1", sys.runID)
	})
	t.Run("does not share the senders slice", func(t *testing.T) {
		senders := DefaultSenders()
		sys, err := New(WithSenders(senders...))
		require.NoError(t, err)
		senders[0].Value = 99
		assert.EqualValues(t, 10, sys.senders[0].Value)
	})

	testCases := []struct {
		name       string
		opts       []Option
		violations []string
	}{
		{
			name:       "zero mailbox capacity",
			opts:       []Option{WithCapacity(0)},
			violations: []string{"the [mailbox capacity] must be greater than zero, got 0"},
		},
		{
			name:       "negative inbox capacity",
			opts:       []Option{WithInboxCapacity(-1)},
			violations: []string{"the [inbox capacity] must be greater than zero, got -1"},
		},
		{
			name:       "no producers",
			opts:       []Option{WithSenders()},
			violations: []string{"the [producers] must be greater than zero, got 0"},
		},
		{
			name: "no consumers",
			opts: []Option{WithConsumers()},
			violations: []string{
				"the [consumers] must be greater than zero, got 0",
				"the [destinations] references unregistered values",
			},
		},
		{
			name:       "missing logger",
			opts:       []Option{WithLogger(nil)},
			violations: []string{"the [logger] is required"},
		},
		{
			name: "unregistered destination",
			opts: []Option{WithSenders(
				Sender{ID: message.A, Destination: message.E, Value: 10},
				Sender{ID: message.B, Destination: message.Identity(9), Value: 20},
			)},
			violations: []string{"the [destinations] references unregistered values: [Thread 9]"},
		},
		{
			name: "duplicate producers",
			opts: []Option{WithSenders(
				Sender{ID: message.A, Destination: message.E, Value: 10},
				Sender{ID: message.A, Destination: message.F, Value: 20},
			)},
			violations: []string{"the [producers] contains duplicates: [Thread A]"},
		},
		{
			name:       "duplicate consumers",
			opts:       []Option{WithConsumers(message.E, message.F, message.G, message.H, message.E)},
			violations: []string{"the [consumers] contains duplicates: [Thread E]"},
		},
		{
			name: "inbox overflow",
			opts: []Option{
				WithInboxCapacity(1),
				WithSenders(
					Sender{ID: message.A, Destination: message.E, Value: 10},
					Sender{ID: message.B, Destination: message.E, Value: 20},
				),
			},
			violations: []string{"the [destinations] exceeds 1 occurrences for: [Thread E]"},
		},
		{
			name: "every violation is reported",
			opts: []Option{WithCapacity(0), WithInboxCapacity(0)},
			violations: []string{
				"the [mailbox capacity] must be greater than zero",
				"the [inbox capacity] must be greater than zero",
				"the [destinations] exceeds 0 occurrences",
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sys, err := New(tc.opts...)
			require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
			require.Nil(t, sys)
			for _, violation := range tc.violations {
				assert.Contains(t, err.Error(), violation)
			}
		})
	}
}

func TestRun(t *testing.T) {
	t.Run("with the defaults", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		sys, err := New(
			WithLogger(log.NewConsole(log.InfoLevel, buffer)),
			WithMeterProvider(noop.NewMeterProvider()),
			WithRunID("default-run"),
		)
		require.NoError(t, err)

		report, err := sys.Run(context.Background())
		require.NoError(t, err)
		require.NotNil(t, report)

		assert.Equal(t, "default-run", report.RunID)
		assert.EqualValues(t, 4, report.Processed)
		assert.Zero(t, report.Dropped)
		require.Len(t, report.Deliveries, 4)

		for _, sender := range DefaultSenders() {
			received := report.Deliveries[sender.Destination]
			require.Len(t, received, 1, "deliveries of %s", sender.Destination)
			assert.Equal(t, sender.ID, received[0].Origin())
			assert.Equal(t, sender.Value, received[0].Value())
		}

		output := buffer.String()
		assert.Contains(t, output, "=== Concurrent mailbox system ===")
		assert.Contains(t, output, "Message sent to mailbox - sender: Thread A, data: 0x040A")
		assert.Contains(t, output, "Mailbox processed message - destination: Thread H, value: 40")
		assert.Contains(t, output, "Thread E received message: 10 from Thread A")
		assert.Contains(t, output, "Thread F received message: 20 from Thread B")
		assert.Contains(t, output, "Thread G received message: 30 from Thread C")
		assert.Contains(t, output, "Thread H received message: 40 from Thread D")
		assert.Contains(t, output, "=== All roles finished successfully")
		assert.Contains(t, output, "default-run")

		// no log line is interleaved with another
		for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
			assert.Equal(t, 1, strings.Count(line, "default-run"), line)
		}
	})
	t.Run("generates a run id", func(t *testing.T) {
		sys, err := New(WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		first, err := sys.Run(context.Background())
		require.NoError(t, err)
		second, err := sys.Run(context.Background())
		require.NoError(t, err)

		assert.NotEmpty(t, first.RunID)
		assert.NotEqual(t, first.RunID, second.RunID)
	})
	t.Run("with a single slot mailbox under random delays", func(t *testing.T) {
		for run := 0; run < 50; run++ {
			sys, err := New(
				WithCapacity(1),
				WithLogger(log.DiscardLogger),
				WithProducerDelay(time.Duration(rand.IntN(500))*time.Microsecond),
			)
			require.NoError(t, err)

			report, err := sys.Run(context.Background())
			require.NoError(t, err, "run %d", run)
			require.EqualValues(t, 4, report.Processed)
			require.Zero(t, report.Dropped)
			for _, sender := range DefaultSenders() {
				received := report.Deliveries[sender.Destination]
				require.Len(t, received, 1)
				require.Equal(t, sender.ID, received[0].Origin())
				require.Equal(t, sender.Value, received[0].Value())
			}
		}
	})
	t.Run("with many producers sharing destinations", func(t *testing.T) {
		senders := make([]Sender, 0, 8)
		for i := 0; i < 8; i++ {
			senders = append(senders, Sender{
				ID:          message.Identity(i),
				Destination: message.Identity(10 + i%2),
				Value:       byte(i),
			})
		}
		sys, err := New(
			WithCapacity(2),
			WithInboxCapacity(4),
			WithSenders(senders...),
			WithConsumers(message.Identity(10), message.Identity(11)),
			WithLogger(log.DiscardLogger),
		)
		require.NoError(t, err)

		report, err := sys.Run(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 8, report.Processed)
		assert.Len(t, report.Deliveries[message.Identity(10)], 4)
		assert.Len(t, report.Deliveries[message.Identity(11)], 4)
		for destination, received := range report.Deliveries {
			for _, msg := range received {
				assert.Equal(t, destination, msg.Destination())
			}
		}
	})
	t.Run("records metrics", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		sys, err := New(WithLogger(log.DiscardLogger), WithMeterProvider(provider))
		require.NoError(t, err)

		_, err = sys.Run(context.Background())
		require.NoError(t, err)

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
		assert.EqualValues(t, 4, counts["mailbox.sent.count"])
		assert.EqualValues(t, 4, counts["mailbox.received.count"])
		assert.EqualValues(t, 4, counts["dispatcher.delivered.count"])
		assert.Zero(t, counts["dispatcher.dropped.count"])
	})
	t.Run("a failing role cancels the others", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		sys, err := New(
			WithLogger(log.NewConsole(log.InfoLevel, buffer)),
			WithOperationTimeout(30*time.Millisecond),
			WithProducerDelay(time.Hour),
		)
		require.NoError(t, err)

		report, err := sys.Run(context.Background())
		require.Error(t, err)
		require.ErrorIs(t, err, gerrors.ErrMailboxTimeout)

		var roleErr *gerrors.RoleError
		require.True(t, errors.As(err, &roleErr))
		assert.Equal(t, "dispatcher", roleErr.Role())

		require.NotNil(t, report)
		assert.Zero(t, report.Processed)
		for _, received := range report.Deliveries {
			assert.Empty(t, received)
		}
		assert.Contains(t, buffer.String(), "role failed")
		assert.NotContains(t, buffer.String(), "All roles finished successfully")
	})
	t.Run("stops when the caller gives up", func(t *testing.T) {
		sys, err := New(
			WithLogger(log.DiscardLogger),
			WithProducerDelay(time.Hour),
		)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()

		report, err := sys.Run(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		var roleErr *gerrors.RoleError
		assert.True(t, errors.As(err, &roleErr))
		require.NotNil(t, report)
		assert.Zero(t, report.Processed)
	})
}
