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
	"fmt"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/postbox/errors"
	imetric "github.com/tochemey/postbox/internal/metric"
	"github.com/tochemey/postbox/internal/validation"
	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/mailbox"
	"github.com/tochemey/postbox/message"
)

// System wires producers, one dispatcher and consumers around a single
// bounded mailbox. A System is immutable once created and every call to Run
// builds a fresh mailbox and fresh inboxes.
type System struct {
	capacity         int
	inboxCapacity    int
	senders          []Sender
	consumers        []message.Identity
	logger           log.Logger
	operationTimeout time.Duration
	producerDelay    time.Duration
	meterProvider    metric.MeterProvider
	runID            string
}

// Report describes a completed run
type Report struct {
	// RunID identifies the run in the logs
	RunID string
	// Processed is the number of messages the dispatcher received
	Processed int64
	// Dropped is the number of received messages that could not be routed
	Dropped int64
	// Deliveries holds, per consumer, the messages read from its inbox in delivery order
	Deliveries map[message.Identity][]message.Message
}

// New creates a System from the default configuration and the given options.
// The configuration is validated before anything is spawned; every violation
// is reported in the returned error, which wraps ErrInvalidConfig.
func New(opts ...Option) (*System, error) {
	sys := &System{
		capacity:      DefaultCapacity,
		inboxCapacity: DefaultInboxCapacity,
		senders:       DefaultSenders(),
		consumers:     DefaultConsumerIDs(),
		logger:        log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(sys)
	}

	if err := sys.validate(); err != nil {
		return nil, gerrors.NewErrInvalidConfig(err)
	}
	return sys, nil
}

// Run spawns the dispatcher, the producers and the consumers, then joins
// the producers, the dispatcher and the consumers in that order before
// disposing of the mailbox.
//
// The first role to fail cancels the others and is the error returned.
// The Report is returned even when the run failed.
func (sys *System) Run(ctx context.Context) (*Report, error) {
	runID := sys.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := sys.logger.With("run", runID)
	logger.Info("=== Concurrent mailbox system ===")

	provider := imetric.NewProvider(imetric.WithMeterProvider(sys.meterProvider))
	mailboxMetric, err := imetric.NewMailboxMetric(provider.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create mailbox instruments: %w", err)
	}
	dispatchMetric, err := imetric.NewDispatchMetric(provider.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher instruments: %w", err)
	}

	mb, err := mailbox.New(sys.capacity, mailbox.WithLogger(logger), mailbox.WithMetric(mailboxMetric))
	if err != nil {
		return nil, err
	}
	defer mb.Dispose()

	inboxes := make([]*Inbox, 0, len(sys.consumers))
	for _, id := range sys.consumers {
		inbox, err := NewInbox(id, sys.inboxCapacity)
		if err != nil {
			return nil, err
		}
		inboxes = append(inboxes, inbox)
	}

	dispatcher := newDispatcher(mb, inboxes, len(sys.senders), sys.operationTimeout, logger, dispatchMetric)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var producers, dispatching, consumers errgroup.Group
	spawn := func(group *errgroup.Group, role string, fn func(context.Context) error) {
		group.Go(func() error {
			if err := fn(ctx); err != nil {
				roleErr := gerrors.NewRoleError(role, err)
				cancel(roleErr)
				return roleErr
			}
			return nil
		})
	}

	spawn(&dispatching, "dispatcher", dispatcher.Run)

	for _, sender := range sys.senders {
		producer := newProducer(sender, mb, sys.producerDelay, sys.operationTimeout, logger)
		spawn(&producers, "producer "+sender.ID.String(), producer.Run)
	}

	deliveries := make([][]message.Message, len(inboxes))
	for i, inbox := range inboxes {
		consumer := newConsumer(inbox, dispatcher.Done(), logger)
		spawn(&consumers, "consumer "+inbox.Owner().String(), func(ctx context.Context) error {
			messages, err := consumer.Run(ctx)
			deliveries[i] = messages
			return err
		})
	}

	err = multierr.Combine(producers.Wait(), dispatching.Wait(), consumers.Wait())
	mb.Dispose()

	report := &Report{
		RunID:      runID,
		Processed:  dispatcher.Processed(),
		Dropped:    dispatcher.Dropped(),
		Deliveries: make(map[message.Identity][]message.Message, len(inboxes)),
	}
	for i, inbox := range inboxes {
		report.Deliveries[inbox.Owner()] = deliveries[i]
	}

	if err != nil {
		for _, roleErr := range multierr.Errors(err) {
			logger.Errorf("role failed: %v", roleErr)
		}
		// report the failure that cancelled the run rather than its echoes
		var first *gerrors.RoleError
		if errors.As(context.Cause(ctx), &first) {
			return report, first
		}
		return report, err
	}

	logger.Infof("=== All roles finished successfully: %d processed, %d dropped ===", report.Processed, report.Dropped)
	return report, nil
}

// validate checks the configuration before any role is spawned
func (sys *System) validate() error {
	destinations := make([]message.Identity, 0, len(sys.senders))
	ids := make([]message.Identity, 0, len(sys.senders))
	for _, sender := range sys.senders {
		destinations = append(destinations, sender.Destination)
		ids = append(ids, sender.ID)
	}

	return validation.New(validation.AllErrors()).
		AddValidator(validation.NewPositiveValidator("mailbox capacity", sys.capacity)).
		AddValidator(validation.NewPositiveValidator("inbox capacity", sys.inboxCapacity)).
		AddValidator(validation.NewPositiveValidator("producers", len(sys.senders))).
		AddValidator(validation.NewPositiveValidator("consumers", len(sys.consumers))).
		AddAssertion(sys.logger != nil, "the [logger] is required").
		AddValidator(validation.NewUniqueValidator("producers", ids)).
		AddValidator(validation.NewUniqueValidator("consumers", sys.consumers)).
		AddValidator(validation.NewMembershipValidator("destinations", goset.NewSet(sys.consumers...), destinations)).
		AddValidator(validation.NewMaxOccurrenceValidator("destinations", destinations, sys.inboxCapacity)).
		Validate()
}
