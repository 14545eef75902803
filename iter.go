// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterq

import (
	"context"
	"iter"
)

// All returns a single-pass sequence over the queue's items.
//
// Each step calls Get. The sequence ends when Get returns ErrClosed or
// ctx ends, even if items are still buffered; check ctx.Err() afterwards
// to tell the two apart, or use Iter.
// The sequence does not acknowledge items: call TaskDone once per item.
//
//	for path := range q.All(ctx) {
//	    process(path)
//	    q.TaskDone()
//	}
func (q *Queue[T]) All(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for ctx.Err() == nil {
			item, err := q.Get(ctx)
			if err != nil {
				return
			}
			if !yield(item) {
				return
			}
		}
	}
}

// Iterator steps through a queue with explicit error reporting.
//
// Iterator is not restartable: once Next returns false it keeps returning
// false.
//
//	it := q.Iter(ctx)
//	for it.Next() {
//	    process(it.Item())
//	    q.TaskDone()
//	}
//	if err := it.Err(); err != nil {
//	    return err // ctx ended before the queue was drained
//	}
type Iterator[T any] struct {
	q    *Queue[T]
	ctx  context.Context
	item T
	err  error
	end  bool
}

// Iter returns an Iterator over q bound to ctx.
func (q *Queue[T]) Iter(ctx context.Context) *Iterator[T] {
	return &Iterator[T]{q: q, ctx: ctx}
}

// Next advances to the next item, blocking as Get does.
// Returns false when the queue is closed and drained, or on error.
func (it *Iterator[T]) Next() bool {
	if it.end {
		return false
	}
	err := it.ctx.Err()
	var item T
	if err == nil {
		item, err = it.q.Get(it.ctx)
	}
	if err != nil {
		var zero T
		it.item = zero
		it.end = true
		if !IsClosed(err) {
			it.err = err
		}
		return false
	}
	it.item = item
	return true
}

// Item returns the item fetched by the last successful Next.
func (it *Iterator[T]) Item() T {
	return it.item
}

// Err returns the error that ended iteration, nil when it ended because
// the queue was closed and drained.
func (it *Iterator[T]) Err() error {
	return it.err
}
