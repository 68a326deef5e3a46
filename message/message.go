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

package message

import "fmt"

// Message is the unit carried by the mailbox.
// Its fields are unexported to enforce immutability; it is always copied by value.
// The zero Message is invalid and is what an emptied mailbox slot holds.
type Message struct {
	payload int
	origin  Identity
	valid   bool
}

// New creates a valid Message sent by origin, carrying value for destination.
func New(origin, destination Identity, value byte) Message {
	return Message{
		payload: Encode(byte(destination), value),
		origin:  origin,
		valid:   true,
	}
}

// Payload returns the encoded destination and value.
func (m Message) Payload() int {
	return m.payload
}

// Origin returns the identity of the sender.
func (m Message) Origin() Identity {
	return m.origin
}

// IsValid reports whether the message was built with New.
func (m Message) IsValid() bool {
	return m.valid
}

// Destination returns the identity decoded from the payload.
func (m Message) Destination() Identity {
	destination, _ := Decode(m.payload)
	return Identity(destination)
}

// Value returns the data byte decoded from the payload.
func (m Message) Value() byte {
	_, value := Decode(m.payload)
	return value
}

// String renders the payload as four hex digits.
func (m Message) String() string {
	return fmt.Sprintf("0x%04X", m.payload)
}
