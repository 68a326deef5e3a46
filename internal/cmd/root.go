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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/tochemey/postbox/log"
	"github.com/tochemey/postbox/system"
)

// Execute runs the root command until it completes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

type runOptions struct {
	capacity      int
	inboxCapacity int
	timeout       time.Duration
	delay         time.Duration
	logLevel      string
	json          bool
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "postbox",
		Short: "Bounded mailbox shared by producers, a dispatcher and consumers",
		Long: `postbox starts four producers (Thread A to D) that each send one encoded
message into a shared bounded mailbox. A single dispatcher drains the mailbox
and routes every message into the inbox of its destination (Thread E to H),
and the consumers report what they received once dispatching is over.

Without flags the compiled-in defaults are used.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.capacity, "capacity", system.DefaultCapacity, "number of slots of the shared mailbox")
	flags.IntVar(&opts.inboxCapacity, "inbox-capacity", system.DefaultInboxCapacity, "maximum number of messages per consumer inbox")
	flags.DurationVar(&opts.timeout, "timeout", 0, "bound on every mailbox send and receive (0 waits forever)")
	flags.DurationVar(&opts.delay, "delay", 0, "processing time of each producer before it sends")
	flags.StringVar(&opts.logLevel, "log-level", log.InfoLevel.String(), "log level: debug, info, warn, error")
	flags.BoolVar(&opts.json, "json", false, "write logs as JSON")
	return cmd
}

func run(cmd *cobra.Command, opts *runOptions) (err error) {
	level, err := log.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	var logger log.Logger = log.NewConsole(level, cmd.OutOrStdout())
	if opts.json {
		logger = log.NewZap(level, cmd.OutOrStdout())
	}
	defer func() {
		err = multierr.Append(err, logger.Flush())
	}()

	sys, err := system.New(
		system.WithCapacity(opts.capacity),
		system.WithInboxCapacity(opts.inboxCapacity),
		system.WithOperationTimeout(opts.timeout),
		system.WithProducerDelay(opts.delay),
		system.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	_, err = sys.Run(cmd.Context())
	return err
}
