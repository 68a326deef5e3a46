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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCapacity is returned when a mailbox or an inbox is created with a capacity below one.
	ErrInvalidCapacity = errors.New("capacity must be greater than zero")

	// ErrInvalidConfig is returned when the startup validation of a system configuration fails.
	// The wrapped error carries every violation found.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnregisteredDestination indicates that a message targets an identity that owns no inbox.
	ErrUnregisteredDestination = errors.New("destination is not registered")

	// ErrInboxFull is returned when the dispatcher delivers more messages to an inbox than it can hold.
	ErrInboxFull = errors.New("inbox is full")

	// ErrInboxSealed is returned when a delivery is attempted after the dispatch phase has ended.
	ErrInboxSealed = errors.New("inbox is sealed")

	// ErrInboxNotSealed is returned when an inbox is read before the dispatch phase has ended.
	ErrInboxNotSealed = errors.New("inbox is not sealed")

	// ErrMailboxDisposed is returned by blocking mailbox operations once the mailbox has been disposed.
	ErrMailboxDisposed = errors.New("mailbox has been disposed")

	// ErrMailboxTimeout is returned when a mailbox operation did not complete before its deadline.
	// It is distinct from the mailbox merely being full or empty, which only blocks.
	ErrMailboxTimeout = errors.New("mailbox operation timed out")
)

// NewErrUnregisteredDestination formats an ErrUnregisteredDestination with the given destination.
func NewErrUnregisteredDestination(destination fmt.Stringer) error {
	return fmt.Errorf("destination=(%s) %w", destination, ErrUnregisteredDestination)
}

// NewErrInboxFull formats an ErrInboxFull with the given inbox owner.
func NewErrInboxFull(owner fmt.Stringer) error {
	return fmt.Errorf("inbox=(%s) %w", owner, ErrInboxFull)
}

// NewErrInvalidConfig wraps the validation violations with ErrInvalidConfig.
func NewErrInvalidConfig(err error) error {
	return errors.Join(ErrInvalidConfig, err)
}

// RoleError defines the failure of one of the roles
// spawned by the supervisor
type RoleError struct {
	role string
	err  error
}

// enforce compilation error
var _ error = (*RoleError)(nil)

// NewRoleError creates an instance of RoleError
func NewRoleError(role string, err error) *RoleError {
	return &RoleError{role: role, err: err}
}

// Role returns the name of the failed role
func (e *RoleError) Role() string {
	return e.role
}

// Error implements the standard error interface
func (e *RoleError) Error() string {
	return fmt.Sprintf("%s: %v", e.role, e.err)
}

func (e *RoleError) Unwrap() error {
	return e.err
}
