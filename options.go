// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterq

import "log/slog"

// Options configures queue creation.
type Options struct {
	// Buffer limit (0 = unbounded)
	maxsize int

	// Progress counting via TaskDone
	countItems bool

	logger *slog.Logger
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// Bounded queue of file paths, progress counting on (default)
//	q := iterq.Build[string](iterq.New(1024))
//
//	// Unbounded queue without progress counting, logging to a handler
//	q := iterq.Build[Job](iterq.New(0).CountItems(false).Logger(logger))
type Builder struct {
	opts Options
}

// New creates a queue builder with the given buffer limit.
//
// maxsize is the exact number of items the buffer holds before Put blocks.
// A maxsize of 0 means unbounded.
//
// Panics if maxsize < 0.
func New(maxsize int) *Builder {
	if maxsize < 0 {
		panic("iterq: maxsize must be >= 0")
	}
	return &Builder{opts: Options{maxsize: maxsize, countItems: true}}
}

// CountItems enables or disables counting of acknowledged items.
//
// Counting is on by default. Disable it when several queues feed one
// progress total that the caller maintains itself; Count then stays 0.
func (b *Builder) CountItems(enabled bool) *Builder {
	b.opts.countItems = enabled
	return b
}

// Logger sets the logger used for lifecycle milestones (debug level).
// A nil logger discards output, which is also the default.
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.opts.logger = logger
	return b
}

// Build creates a Queue[T] from the builder configuration.
func Build[T any](b *Builder) *Queue[T] {
	return newQueue[T](b.opts)
}
