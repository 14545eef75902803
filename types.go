// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterq

import (
	"context"
	"iter"
)

// Interface is the combined producer-consumer surface of a closable queue.
//
// *Queue[T] implements Interface[T]. Collaborators such as scanners and
// worker pools accept the narrower Producer or Consumer views.
type Interface[T any] interface {
	Producer[T]
	Consumer[T]
	Countable

	// Join blocks until the queue is filled and then until it is done.
	Join(ctx context.Context) error
	Len() int
	Cap() int
}

// Producer is the interface for adding items to a closable queue.
//
// A producer registers with AddProducer before its first Put and calls
// Finish exactly once when it will add no more items.
type Producer[T any] interface {
	// AddProducer registers n producers and returns the registered count.
	// Returns ErrClosed if the queue is already filled.
	AddProducer(n int) (int, error)

	// Finish unregisters one producer. Returns true if this call filled
	// the queue. A no-op returning false when no producer is registered.
	Finish() bool

	// Put adds an item, blocking while the buffer is full.
	// Returns ErrClosed after the queue is filled, ErrNoProducers if no
	// producer is registered, or ctx.Err() if ctx ends first.
	Put(ctx context.Context, item T) error

	// TryPut adds an item without blocking.
	// Returns ErrFull instead of blocking.
	TryPut(item T) error
}

// Consumer is the interface for draining a closable queue.
//
// Every item returned by Get or TryGet, or yielded by All, must be
// acknowledged with exactly one TaskDone call.
type Consumer[T any] interface {
	// Get removes and returns the head item, blocking while the buffer is
	// empty. Returns ErrClosed once the queue is filled and drained.
	Get(ctx context.Context) (T, error)

	// TryGet removes and returns the head item without blocking.
	// Returns ErrEmpty instead of blocking, ErrClosed when filled and drained.
	TryGet() (T, error)

	// TaskDone acknowledges one retrieved item.
	TaskDone()

	// All returns a single-pass sequence of items that ends when the
	// queue is closed and drained, or ctx ends.
	All(ctx context.Context) iter.Seq[T]
}

// Countable reports the number of acknowledged items.
type Countable interface {
	Count() int64
}
