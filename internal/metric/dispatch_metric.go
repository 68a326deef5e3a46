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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DispatchMetric groups the instruments of the dispatcher.
//
// Instruments:
//   - dispatcher.delivered.count (Int64Counter, attribute: destination)
//   - dispatcher.dropped.count   (Int64Counter, attribute: reason)
type DispatchMetric struct {
	deliveredCount metric.Int64Counter
	droppedCount   metric.Int64Counter
}

// NewDispatchMetric creates the dispatcher instruments using the provided Meter.
func NewDispatchMetric(meter metric.Meter) (*DispatchMetric, error) {
	var instruments DispatchMetric
	var err error

	if instruments.deliveredCount, err = meter.Int64Counter(
		"dispatcher.delivered.count",
		metric.WithDescription("Total number of messages routed into an inbox"),
	); err != nil {
		return nil, err
	}

	if instruments.droppedCount, err = meter.Int64Counter(
		"dispatcher.dropped.count",
		metric.WithDescription("Total number of messages the dispatcher could not route"),
	); err != nil {
		return nil, err
	}

	return &instruments, nil
}

// RecordDelivered counts a message routed to destination.
func (x *DispatchMetric) RecordDelivered(ctx context.Context, destination string) {
	x.deliveredCount.Add(ctx, 1, metric.WithAttributes(attribute.String("destination", destination)))
}

// RecordDropped counts a message that could not be routed.
func (x *DispatchMetric) RecordDropped(ctx context.Context, reason string) {
	x.droppedCount.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
