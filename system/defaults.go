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

import "github.com/tochemey/postbox/message"

const (
	// DefaultCapacity is the number of slots of the shared mailbox
	DefaultCapacity = 12
	// DefaultProducers is the number of producers of the default configuration
	DefaultProducers = 4
	// DefaultConsumers is the number of consumers of the default configuration
	DefaultConsumers = 4
	// DefaultInboxCapacity is the maximum number of messages an inbox holds
	DefaultInboxCapacity = 4
)

// Sender describes one producer: its identity and the single message it sends.
type Sender struct {
	ID          message.Identity
	Destination message.Identity
	Value       byte
}

// DefaultSenders returns A->E:10, B->F:20, C->G:30 and D->H:40.
func DefaultSenders() []Sender {
	return []Sender{
		{ID: message.A, Destination: message.E, Value: 10},
		{ID: message.B, Destination: message.F, Value: 20},
		{ID: message.C, Destination: message.G, Value: 30},
		{ID: message.D, Destination: message.H, Value: 40},
	}
}

// DefaultConsumerIDs returns E, F, G and H.
func DefaultConsumerIDs() []message.Identity {
	return []message.Identity{message.E, message.F, message.G, message.H}
}
