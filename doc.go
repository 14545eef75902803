// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package iterq provides a closable FIFO queue for multiple producers and
// multiple consumers, with completion detection.
//
// A plain channel tells consumers the stream ended only when a single
// owner closes it. Queue instead tracks any number of independent
// producers: each registers, adds items, and announces when it is done.
// When the last one finishes the queue is filled, and consumers learn it
// by receiving [ErrClosed] once the remaining items are drained.
//
// # Quick Start
//
//	q := iterq.NewQueue[string](1024)  // bounded, blocks producers at 1024 items
//	q := iterq.NewQueue[Job](0)        // unbounded
//
// Builder API for additional settings:
//
//	q := iterq.Build[Job](iterq.New(256).CountItems(false).Logger(logger))
//
// # Producers
//
// Producers register before their first Put and finish exactly once:
//
//	if _, err := q.AddProducer(1); err != nil {
//	    return err // ErrClosed: the stream already ended
//	}
//	defer q.Finish()
//	for _, path := range paths {
//	    if err := q.Put(ctx, path); err != nil {
//	        return err
//	    }
//	}
//
// Finish returns true for the call that filled the queue. [Queue.Shutdown]
// fills the queue at once regardless of registered producers; buffered items
// stay drainable.
//
// # Consumers
//
// Every retrieved item is work in progress until acknowledged:
//
//	for {
//	    item, err := q.Get(ctx)
//	    if iterq.IsClosed(err) {
//	        break // filled and drained
//	    }
//	    if err != nil {
//	        return err // ctx ended
//	    }
//	    process(item)
//	    q.TaskDone()
//	}
//
// Range-over-func form:
//
//	for item := range q.All(ctx) {
//	    process(item)
//	    q.TaskDone()
//	}
//
// Acknowledgment is always explicit. A consumer that fails on an item may
// hand it elsewhere before calling TaskDone.
//
// # Completion
//
// [Queue.Join] waits in two phases: until the queue is filled, then until
// it is done (filled, drained, no unacknowledged items):
//
//	go scan(ctx, q)
//	go consume(ctx, q)
//	if err := q.Join(ctx); err != nil {
//	    return err
//	}
//	fmt.Println("processed", q.Count())
//
// # Error Handling
//
//	ErrClosed       stream ended (Put after fill, Get after fill + drain)
//	ErrFull         TryPut would block
//	ErrEmpty        TryGet would block
//	ErrNoProducers  Put without AddProducer
//
// ErrFull and ErrEmpty wrap [code.hybscloud.com/iox.ErrWouldBlock]:
//
//	iterq.IsWouldBlock(err)  // true for ErrFull / ErrEmpty
//	iterq.IsSemantic(err)    // true for control flow signals incl. ErrClosed
//	iterq.IsNonFailure(err)  // true for nil, would-block and ErrClosed
//
// Calling TaskDone more often than items were retrieved panics with an
// [*InvariantError]. It is a caller bug, not a runtime condition.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Put, Get, Join and WaitFilled
// block without holding the internal lock, and a call cancelled through
// its context leaves the queue unchanged.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors and
// [code.hybscloud.com/atomix] for lock-free observers.
package iterq
