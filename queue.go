// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterq

import (
	"context"
	"log/slog"
	"sync"

	"code.hybscloud.com/atomix"
)

// Queue is a closable multi-producer multi-consumer FIFO queue with
// completion detection.
//
// Producers register with AddProducer and announce completion with Finish.
// When the last registered producer finishes the queue becomes filled: Put
// fails with ErrClosed from then on, and Get fails with ErrClosed once the
// remaining items are drained. The queue is done when it is filled, empty,
// and every retrieved item has been acknowledged with TaskDone.
//
// All state lives behind one mutex. Blocking operations never hold the
// mutex while suspended; they park on a broadcast channel and re-check
// their condition after waking, so a cancelled call leaves no trace.
//
// Memory: O(maxsize), or O(peak length) when unbounded
type Queue[T any] struct {
	mu        sync.Mutex
	buf       *ring[T]
	producers int // Registered, not yet finished
	wip       int // Retrieved, not yet acknowledged

	readable broadcast // Item added or queue filled
	writable broadcast // Item removed or queue filled
	settled  broadcast // Queue filled or done

	filled atomix.Bool  // Written under mu, read lock-free
	count  atomix.Int64 // Acknowledged items

	countItems bool
	logger     *slog.Logger
}

// NewQueue creates a queue holding at most maxsize items (0 = unbounded)
// with item counting enabled.
//
// Panics if maxsize < 0.
func NewQueue[T any](maxsize int) *Queue[T] {
	return Build[T](New(maxsize))
}

func newQueue[T any](opts Options) *Queue[T] {
	logger := opts.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Queue[T]{
		buf:        newRing[T](opts.maxsize),
		readable:   newBroadcast(),
		writable:   newBroadcast(),
		settled:    newBroadcast(),
		countItems: opts.countItems,
		logger:     logger,
	}
}

// =============================================================================
// Producer lifecycle
// =============================================================================

// AddProducer registers n producers and returns the number of registered
// producers after the call.
// Returns ErrClosed if the queue is already filled.
//
// Panics if n < 1.
func (q *Queue[T]) AddProducer(n int) (int, error) {
	if n < 1 {
		panic("iterq: producer count must be >= 1")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.filled.Load() {
		return q.producers, ErrClosed
	}
	q.producers += n
	return q.producers, nil
}

// Finish unregisters one producer.
//
// When the last producer finishes the queue becomes filled and every
// goroutine blocked in Get, Put or Join wakes up. Returns true only for
// the call that filled the queue. Calling Finish with no registered
// producer is a no-op that returns false.
func (q *Queue[T]) Finish() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.producers == 0 {
		return false
	}
	q.producers--
	if q.producers > 0 {
		return false
	}
	return q.fillLocked()
}

// FinishAll unregisters every producer and fills the queue.
// Returns true if this call filled the queue, false if it already was.
func (q *Queue[T]) FinishAll() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.producers = 0
	return q.fillLocked()
}

// Shutdown fills the queue regardless of registered producers.
//
// Shutdown is the abort path. Items already buffered are kept and stay
// drainable through Get; nothing is discarded.
func (q *Queue[T]) Shutdown() {
	if q.FinishAll() {
		q.logger.Debug("queue shut down", "pending", q.Len())
	}
}

func (q *Queue[T]) fillLocked() bool {
	if q.filled.Load() {
		return false
	}
	q.filled.StoreRelease(true)
	q.readable.notify()
	q.writable.notify()
	q.settled.notify()
	q.logger.Debug("queue filled", "pending", q.buf.len(), "wip", q.wip)
	return true
}

// =============================================================================
// Put / Get
// =============================================================================

// Put appends item, blocking while the buffer is full.
//
// Returns ErrClosed if the queue is filled, including when it becomes
// filled while Put is blocked; the item is not added in that case.
// Returns ErrNoProducers if no producer is registered.
// Returns ctx.Err() if ctx ends before the item is added.
func (q *Queue[T]) Put(ctx context.Context, item T) error {
	q.mu.Lock()
	for {
		if err := q.checkPutLocked(); err != nil {
			q.mu.Unlock()
			return err
		}
		if q.buf.enqueue(item) {
			q.readable.notify()
			q.mu.Unlock()
			return nil
		}
		wake := q.writable.wait()
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
		q.mu.Lock()
	}
}

// TryPut appends item without blocking.
// Returns ErrFull if the buffer is at capacity; otherwise the same errors
// as Put.
func (q *Queue[T]) TryPut(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.checkPutLocked(); err != nil {
		return err
	}
	if !q.buf.enqueue(item) {
		return ErrFull
	}
	q.readable.notify()
	return nil
}

func (q *Queue[T]) checkPutLocked() error {
	if q.filled.Load() {
		return ErrClosed
	}
	if q.producers == 0 {
		return ErrNoProducers
	}
	return nil
}

// Get removes and returns the head item, blocking while the buffer is
// empty and the queue is not filled.
//
// Every returned item counts as work in progress until TaskDone.
// Returns ErrClosed, to every caller, once the queue is filled and drained.
// Returns ctx.Err() if ctx ends first.
func (q *Queue[T]) Get(ctx context.Context) (T, error) {
	q.mu.Lock()
	for {
		if item, ok := q.getLocked(); ok {
			q.mu.Unlock()
			return item, nil
		}
		if q.filled.Load() {
			q.mu.Unlock()
			var zero T
			return zero, ErrClosed
		}
		wake := q.readable.wait()
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-wake:
		}
		q.mu.Lock()
	}
}

// TryGet removes and returns the head item without blocking.
// Returns ErrEmpty if the buffer is empty and the queue is not filled,
// ErrClosed if it is empty and filled.
func (q *Queue[T]) TryGet() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if item, ok := q.getLocked(); ok {
		return item, nil
	}
	var zero T
	if q.filled.Load() {
		return zero, ErrClosed
	}
	return zero, ErrEmpty
}

func (q *Queue[T]) getLocked() (T, bool) {
	item, ok := q.buf.dequeue()
	if ok {
		q.wip++
		q.writable.notify()
	}
	return item, ok
}

// TaskDone acknowledges one item obtained from Get, TryGet or All.
//
// Panics with an *InvariantError (matching ErrInvariant) when there is no
// unacknowledged item. That is a bug in the caller: counters would
// otherwise drift and Join could return while items are still in flight.
func (q *Queue[T]) TaskDone() {
	q.mu.Lock()
	if q.wip == 0 {
		q.mu.Unlock()
		panic(&InvariantError{Op: "TaskDone", Msg: "called more times than items were retrieved"})
	}
	q.wip--
	if q.countItems {
		q.count.Add(1)
	}
	if q.doneLocked() {
		q.settled.notify()
		q.logger.Debug("queue done", "count", q.count.Load())
	}
	q.mu.Unlock()
}

// =============================================================================
// Completion
// =============================================================================

// Join blocks until the queue is filled, then until it is done: drained,
// with every retrieved item acknowledged.
//
// The two phases let a coordinator report "no more input" separately from
// "all input processed"; use WaitFilled for the first phase alone.
// Returns ctx.Err() if ctx ends first; a nil return implies IsDone.
func (q *Queue[T]) Join(ctx context.Context) error {
	q.logger.Debug("waiting for queue to be filled")
	if err := q.WaitFilled(ctx); err != nil {
		return err
	}
	q.logger.Debug("waiting for queue to be done")
	if err := q.waitSettled(ctx, q.doneLocked); err != nil {
		return err
	}
	q.logger.Debug("queue joined")
	return nil
}

// WaitFilled blocks until the queue is filled or ctx ends.
func (q *Queue[T]) WaitFilled(ctx context.Context) error {
	return q.waitSettled(ctx, q.filled.Load)
}

func (q *Queue[T]) waitSettled(ctx context.Context, cond func() bool) error {
	q.mu.Lock()
	for !cond() {
		wake := q.settled.wait()
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}
		q.mu.Lock()
	}
	q.mu.Unlock()
	return nil
}

func (q *Queue[T]) doneLocked() bool {
	return q.filled.Load() && q.buf.len() == 0 && q.wip == 0
}

// =============================================================================
// Observers
// =============================================================================

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.len()
}

// Empty reports whether the buffer holds no items.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether the buffer is at capacity. Always false when
// unbounded.
func (q *Queue[T]) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.full()
}

// Cap returns the buffer limit, 0 when unbounded.
func (q *Queue[T]) Cap() int {
	return q.buf.limit
}

// IsFilled reports whether the queue accepts no further items.
func (q *Queue[T]) IsFilled() bool {
	return q.filled.LoadAcquire()
}

// IsDone reports whether the queue is filled, drained, and every
// retrieved item has been acknowledged.
func (q *Queue[T]) IsDone() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.doneLocked()
}

// Producers returns the number of registered producers that have not
// finished.
func (q *Queue[T]) Producers() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.producers
}

// WIP returns the number of retrieved items not yet acknowledged.
func (q *Queue[T]) WIP() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.wip
}

// Count returns the number of items acknowledged with TaskDone.
// Always 0 when counting is disabled.
func (q *Queue[T]) Count() int64 {
	return q.count.Load()
}
