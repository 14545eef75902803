// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package workers drains an [iterq.Queue] with a fixed pool of goroutines.
package workers

import (
	"context"
	"log/slog"
	"time"

	"code.hybscloud.com/iterq"
	"golang.org/x/sync/errgroup"
)

// Queue is the queue surface the pool needs.
type Queue[T any] interface {
	iterq.Consumer[T]
	Shutdown()
}

// Func processes one item.
type Func[T any] func(ctx context.Context, item T) error

// Run starts n workers that consume q until it is closed and drained,
// calling fn for each item and acknowledging it afterwards.
//
// The first error returned by fn cancels the other workers and shuts the
// queue down, so producers blocked in Put return ErrClosed instead of
// waiting for consumers that are gone. Items still buffered at that point
// stay in the queue. Run returns the first error, ctx.Err() if ctx ended,
// or nil after a clean drain.
//
// Panics if n < 1.
func Run[T any](ctx context.Context, q Queue[T], n int, fn Func[T]) error {
	if n < 1 {
		panic("workers: worker count must be >= 1")
	}
	g, gctx := errgroup.WithContext(ctx)
	for range n {
		g.Go(func() error {
			for item := range q.All(gctx) {
				err := fn(gctx, item)
				q.TaskDone()
				if err != nil {
					q.Shutdown()
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Progress is a point-in-time view of a queue's counters.
type Progress struct {
	Processed int64
	Pending   int
	WIP       int
	Producers int
	Filled    bool
	Done      bool
}

// Observable is the queue surface Monitor reads.
type Observable interface {
	Count() int64
	Len() int
	WIP() int
	Producers() int
	IsFilled() bool
	IsDone() bool
}

// Snapshot reads q's counters. The fields are read one after another and
// may be mutually inconsistent under concurrent use.
func Snapshot(q Observable) Progress {
	return Progress{
		Processed: q.Count(),
		Pending:   q.Len(),
		WIP:       q.WIP(),
		Producers: q.Producers(),
		Filled:    q.IsFilled(),
		Done:      q.IsDone(),
	}
}

// Monitor logs q's progress every interval until q is done or ctx ends.
// The moment q becomes filled is logged once.
func Monitor(ctx context.Context, q Observable, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	filled := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		p := Snapshot(q)
		if p.Filled && !filled {
			filled = true
			logger.Info("input complete", "processed", p.Processed, "pending", p.Pending)
		}
		logger.Info("progress",
			"processed", p.Processed,
			"pending", p.Pending,
			"wip", p.WIP,
			"producers", p.Producers)
		if p.Done {
			return
		}
	}
}
