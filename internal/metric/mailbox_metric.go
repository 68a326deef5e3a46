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

package metric

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	sendOperation    = "send"
	receiveOperation = "receive"
)

// MailboxMetric groups the OpenTelemetry instruments of a bounded mailbox.
//
// Instruments:
//   - mailbox.sent.count      (Int64Counter)
//   - mailbox.received.count  (Int64Counter)
//   - mailbox.wait.duration   (Float64Histogram, unit: ms, attribute: operation)
//   - mailbox.depth           (Int64ObservableGauge)
type MailboxMetric struct {
	meter         metric.Meter
	sentCount     metric.Int64Counter
	receivedCount metric.Int64Counter
	waitDuration  metric.Float64Histogram
	depth         metric.Int64ObservableGauge
}

// NewMailboxMetric creates the mailbox instruments using the provided Meter.
// It returns an error if any instrument cannot be created so telemetry
// initialization failures are surfaced early.
func NewMailboxMetric(meter metric.Meter) (*MailboxMetric, error) {
	instruments := MailboxMetric{meter: meter}
	var err error

	if instruments.sentCount, err = meter.Int64Counter(
		"mailbox.sent.count",
		metric.WithDescription("Total number of messages inserted into the mailbox"),
	); err != nil {
		return nil, err
	}

	if instruments.receivedCount, err = meter.Int64Counter(
		"mailbox.received.count",
		metric.WithDescription("Total number of messages removed from the mailbox"),
	); err != nil {
		return nil, err
	}

	if instruments.waitDuration, err = meter.Float64Histogram(
		"mailbox.wait.duration",
		metric.WithDescription("Time spent blocked on a full or an empty mailbox"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if instruments.depth, err = meter.Int64ObservableGauge(
		"mailbox.depth",
		metric.WithDescription("Number of unread messages in the mailbox"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// RecordSend records one insertion and how long the sender was blocked.
func (x *MailboxMetric) RecordSend(ctx context.Context, waited time.Duration) {
	x.sentCount.Add(ctx, 1)
	x.recordWait(ctx, sendOperation, waited)
}

// RecordReceive records one removal and how long the receiver was blocked.
func (x *MailboxMetric) RecordReceive(ctx context.Context, waited time.Duration) {
	x.receivedCount.Add(ctx, 1)
	x.recordWait(ctx, receiveOperation, waited)
}

// ObserveDepth registers a callback reporting the current depth on every collection.
// Unregister the returned registration once the mailbox is disposed.
func (x *MailboxMetric) ObserveDepth(depth func() int64) (metric.Registration, error) {
	return x.meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		observer.ObserveInt64(x.depth, depth())
		return nil
	}, x.depth)
}

func (x *MailboxMetric) recordWait(ctx context.Context, operation string, waited time.Duration) {
	x.waitDuration.Record(ctx,
		float64(waited)/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("operation", operation)))
}
