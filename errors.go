// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterq

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrClosed indicates the queue has been filled and no further items
// will be accepted or, for Get, that the queue is filled and drained.
//
// ErrClosed is the terminal signal of the stream, not a failure. Every
// Get issued after the queue is filled and empty returns it, not only
// the first one.
var ErrClosed = errors.New("iterq: queue closed")

// ErrNoProducers indicates Put was called while no producer is registered.
// Producers must call AddProducer before their first Put.
var ErrNoProducers = errors.New("iterq: no registered producers")

// ErrFull indicates TryPut cannot proceed because the buffer is at capacity.
//
// ErrFull wraps [iox.ErrWouldBlock], so [IsWouldBlock] reports true for it.
var ErrFull = fmt.Errorf("iterq: queue full: %w", iox.ErrWouldBlock)

// ErrEmpty indicates TryGet cannot proceed because the buffer holds no
// items and the queue is not yet filled.
//
// ErrEmpty wraps [iox.ErrWouldBlock], so [IsWouldBlock] reports true for it.
var ErrEmpty = fmt.Errorf("iterq: queue empty: %w", iox.ErrWouldBlock)

// ErrInvariant is matched by the value TaskDone panics with when it is
// called more times than items were retrieved.
var ErrInvariant = errors.New("iterq: invariant violation")

// InvariantError is the panic value for a broken counter invariant.
// It signals a programming error in the caller; recovering from it and
// continuing risks silent data loss.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return "iterq: " + e.Op + ": " + e.Msg
}

// Is reports whether target is [ErrInvariant].
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}

// IsClosed reports whether err is, or wraps, [ErrClosed].
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsWouldBlock reports whether err indicates the operation would block.
// True for [ErrFull] and [ErrEmpty].
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// [ErrClosed] is treated as a control flow signal as well.
func IsSemantic(err error) bool {
	return IsClosed(err) || iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, would-block errors, and [ErrClosed].
func IsNonFailure(err error) bool {
	return IsClosed(err) || iox.IsNonFailure(err)
}
