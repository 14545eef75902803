// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package iterq_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"code.hybscloud.com/iterq"
)

// =============================================================================
// Producer Lifecycle
// =============================================================================

// TestSingleProducerDrain puts five items from one producer, finishes, and
// drains them with Get/TaskDone. The sixth Get reports ErrClosed.
func TestSingleProducerDrain(t *testing.T) {
	ctx := context.Background()
	q := iterq.NewQueue[int](10)

	if n, err := q.AddProducer(1); err != nil || n != 1 {
		t.Fatalf("AddProducer: got (%d, %v), want (1, nil)", n, err)
	}
	for i := range 5 {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}
	if !q.Finish() {
		t.Fatal("Finish: got false, want true")
	}
	if q.Len() != 5 {
		t.Fatalf("Len: got %d, want 5", q.Len())
	}

	for i := range 5 {
		v, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if v != i {
			t.Fatalf("Get(%d): got %d, want %d", i, v, i)
		}
		q.TaskDone()
	}

	if _, err := q.Get(ctx); !errors.Is(err, iterq.ErrClosed) {
		t.Fatalf("Get after drain: got %v, want ErrClosed", err)
	}
	if q.Count() != 5 {
		t.Fatalf("Count: got %d, want 5", q.Count())
	}
	if !q.IsDone() {
		t.Fatal("IsDone: got false, want true")
	}
}

// TestFinishCountsProducers verifies the queue fills only after every
// registered producer finished, and that extra Finish calls are no-ops.
func TestFinishCountsProducers(t *testing.T) {
	q := iterq.NewQueue[int](0)

	if n, err := q.AddProducer(2); err != nil || n != 2 {
		t.Fatalf("AddProducer(2): got (%d, %v), want (2, nil)", n, err)
	}

	if q.Finish() {
		t.Fatal("first Finish: got true, want false")
	}
	if q.IsFilled() {
		t.Fatal("IsFilled after one Finish: got true, want false")
	}
	if q.Producers() != 1 {
		t.Fatalf("Producers: got %d, want 1", q.Producers())
	}

	if !q.Finish() {
		t.Fatal("second Finish: got false, want true")
	}
	if !q.IsFilled() {
		t.Fatal("IsFilled after second Finish: got false, want true")
	}

	// Further calls change nothing
	if q.Finish() {
		t.Fatal("extra Finish: got true, want false")
	}
	if q.FinishAll() {
		t.Fatal("FinishAll after fill: got true, want false")
	}
	q.Shutdown()
	if !q.IsFilled() {
		t.Fatal("IsFilled after Shutdown: got false, want true")
	}
	if !q.IsDone() {
		t.Fatal("IsDone: got false, want true")
	}
}

// TestFinishWithoutProducers verifies Finish does not fill a queue that has
// no registered producer.
func TestFinishWithoutProducers(t *testing.T) {
	q := iterq.NewQueue[int](0)

	if q.Finish() {
		t.Fatal("Finish: got true, want false")
	}
	if q.IsFilled() {
		t.Fatal("IsFilled: got true, want false")
	}
	if _, err := q.AddProducer(1); err != nil {
		t.Fatalf("AddProducer after no-op Finish: %v", err)
	}
}

// TestAddProducerAfterFill verifies producers cannot join a closed stream.
func TestAddProducerAfterFill(t *testing.T) {
	q := iterq.NewQueue[int](0)
	q.Shutdown()

	if _, err := q.AddProducer(1); !errors.Is(err, iterq.ErrClosed) {
		t.Fatalf("AddProducer after Shutdown: got %v, want ErrClosed", err)
	}
	if q.Producers() != 0 {
		t.Fatalf("Producers: got %d, want 0", q.Producers())
	}
}

// TestShutdownKeepsItems shuts down with two active producers and ten
// buffered items. Put fails, the items drain, then Get reports ErrClosed
// permanently.
func TestShutdownKeepsItems(t *testing.T) {
	ctx := context.Background()
	q := iterq.NewQueue[int](0)

	if _, err := q.AddProducer(2); err != nil {
		t.Fatalf("AddProducer: %v", err)
	}
	for i := range 10 {
		if err := q.Put(ctx, i); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	q.Shutdown()

	if err := q.Put(ctx, 99); !errors.Is(err, iterq.ErrClosed) {
		t.Fatalf("Put after Shutdown: got %v, want ErrClosed", err)
	}
	if err := q.TryPut(99); !errors.Is(err, iterq.ErrClosed) {
		t.Fatalf("TryPut after Shutdown: got %v, want ErrClosed", err)
	}
	if q.Producers() != 0 {
		t.Fatalf("Producers: got %d, want 0", q.Producers())
	}
	if q.Len() != 10 {
		t.Fatalf("Len: got %d, want 10", q.Len())
	}
	if q.IsDone() {
		t.Fatal("IsDone with buffered items: got true, want false")
	}

	for i := range 10 {
		v, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if v != i {
			t.Fatalf("Get(%d): got %d, want %d", i, v, i)
		}
		q.TaskDone()
	}

	for range 3 {
		if _, err := q.Get(ctx); !errors.Is(err, iterq.ErrClosed) {
			t.Fatalf("Get after drain: got %v, want ErrClosed", err)
		}
		if _, err := q.TryGet(); !errors.Is(err, iterq.ErrClosed) {
			t.Fatalf("TryGet after drain: got %v, want ErrClosed", err)
		}
	}
	if !q.IsDone() {
		t.Fatal("IsDone: got false, want true")
	}
}

// =============================================================================
// Put / Get Preconditions
// =============================================================================

// TestPutWithoutProducer verifies Put and TryPut refuse unregistered callers.
func TestPutWithoutProducer(t *testing.T) {
	q := iterq.NewQueue[int](4)

	if err := q.Put(context.Background(), 1); !errors.Is(err, iterq.ErrNoProducers) {
		t.Fatalf("Put: got %v, want ErrNoProducers", err)
	}
	if err := q.TryPut(1); !errors.Is(err, iterq.ErrNoProducers) {
		t.Fatalf("TryPut: got %v, want ErrNoProducers", err)
	}
	if !q.Empty() {
		t.Fatal("Empty: got false, want true")
	}
}

// TestTryPutTryGet tests the non-blocking variants at capacity and when empty.
func TestTryPutTryGet(t *testing.T) {
	q := iterq.NewQueue[int](3)

	if q.Cap() != 3 {
		t.Fatalf("Cap: got %d, want 3", q.Cap())
	}

	// Empty, not filled
	_, err := q.TryGet()
	if !errors.Is(err, iterq.ErrEmpty) {
		t.Fatalf("TryGet on empty: got %v, want ErrEmpty", err)
	}
	if !iterq.IsWouldBlock(err) {
		t.Fatal("IsWouldBlock(ErrEmpty): got false, want true")
	}

	if _, err := q.AddProducer(1); err != nil {
		t.Fatalf("AddProducer: %v", err)
	}

	// Capacity is exact, not rounded to a power of 2
	for i := range 3 {
		if err := q.TryPut(i + 100); err != nil {
			t.Fatalf("TryPut(%d): %v", i, err)
		}
	}
	err = q.TryPut(999)
	if !errors.Is(err, iterq.ErrFull) {
		t.Fatalf("TryPut on full: got %v, want ErrFull", err)
	}
	if !iterq.IsWouldBlock(err) {
		t.Fatal("IsWouldBlock(ErrFull): got false, want true")
	}
	if !q.Full() {
		t.Fatal("Full: got false, want true")
	}

	for i := range 3 {
		v, err := q.TryGet()
		if err != nil {
			t.Fatalf("TryGet(%d): %v", i, err)
		}
		if v != i+100 {
			t.Fatalf("TryGet(%d): got %d, want %d", i, v, i+100)
		}
	}
	if q.WIP() != 3 {
		t.Fatalf("WIP: got %d, want 3", q.WIP())
	}
	if _, err := q.TryGet(); !errors.Is(err, iterq.ErrEmpty) {
		t.Fatalf("TryGet on drained: got %v, want ErrEmpty", err)
	}
}

// TestUnboundedFIFO puts far more items than the initial ring size and
// reads them back in order.
func TestUnboundedFIFO(t *testing.T) {
	const n = 1000
	q := iterq.NewQueue[int](0)

	if q.Cap() != 0 {
		t.Fatalf("Cap: got %d, want 0", q.Cap())
	}
	if _, err := q.AddProducer(1); err != nil {
		t.Fatalf("AddProducer: %v", err)
	}

	// Interleave a few gets so the ring wraps before it grows
	want := make([]int, 0, n)
	got := make([]int, 0, n)
	for i := range n {
		if err := q.TryPut(i); err != nil {
			t.Fatalf("TryPut(%d): %v", i, err)
		}
		want = append(want, i)
		if i%7 == 0 {
			v, err := q.TryGet()
			if err != nil {
				t.Fatalf("TryGet: %v", err)
			}
			got = append(got, v)
		}
	}
	if q.Full() {
		t.Fatal("Full on unbounded: got true, want false")
	}
	q.Finish()

	for {
		v, err := q.TryGet()
		if errors.Is(err, iterq.ErrClosed) {
			break
		}
		if err != nil {
			t.Fatalf("TryGet: %v", err)
		}
		got = append(got, v)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("FIFO order broken: got %d items, first mismatch in %v", len(got), got[:min(len(got), 20)])
	}
}

// TestZeroValueItems verifies zero values are ordinary items.
func TestZeroValueItems(t *testing.T) {
	ctx := context.Background()
	q := iterq.NewQueue[*int](0)

	if _, err := q.AddProducer(1); err != nil {
		t.Fatalf("AddProducer: %v", err)
	}
	for range 3 {
		if err := q.Put(ctx, nil); err != nil {
			t.Fatalf("Put(nil): %v", err)
		}
	}
	q.Finish()

	for i := range 3 {
		v, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if v != nil {
			t.Fatalf("Get(%d): got %v, want nil", i, v)
		}
		q.TaskDone()
	}
	if !q.IsDone() {
		t.Fatal("IsDone: got false, want true")
	}
}

// =============================================================================
// Acknowledgment
// =============================================================================

// TestTaskDoneInvariant verifies excess TaskDone calls panic with an
// InvariantError and leave WIP at zero.
func TestTaskDoneInvariant(t *testing.T) {
	ctx := context.Background()
	q := iterq.NewQueue[int](0)
	q.AddProducer(1)
	q.Put(ctx, 1)
	q.Get(ctx)
	q.TaskDone()

	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected panic")
			}
			err, ok := r.(error)
			if !ok {
				t.Fatalf("panic value: got %T, want error", r)
			}
			if !errors.Is(err, iterq.ErrInvariant) {
				t.Fatalf("panic value: got %v, want ErrInvariant", err)
			}
			var ie *iterq.InvariantError
			if !errors.As(err, &ie) || ie.Op != "TaskDone" {
				t.Fatalf("panic value: got %#v, want *InvariantError{Op: TaskDone}", err)
			}
		}()
		q.TaskDone()
	}()

	if q.WIP() != 0 {
		t.Fatalf("WIP: got %d, want 0", q.WIP())
	}
	if q.Count() != 1 {
		t.Fatalf("Count: got %d, want 1", q.Count())
	}
}

// TestCountItemsDisabled verifies Count stays zero when counting is off.
func TestCountItemsDisabled(t *testing.T) {
	ctx := context.Background()
	q := iterq.Build[string](iterq.New(4).CountItems(false))

	q.AddProducer(1)
	q.Put(ctx, "a")
	q.Put(ctx, "b")
	q.Finish()
	for range q.All(ctx) {
		q.TaskDone()
	}

	if q.Count() != 0 {
		t.Fatalf("Count: got %d, want 0", q.Count())
	}
	if !q.IsDone() {
		t.Fatal("IsDone: got false, want true")
	}
}

// =============================================================================
// Builder and Logging
// =============================================================================

// TestJoinLogsMilestones verifies the injected logger sees the lifecycle.
func TestJoinLogsMilestones(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	q := iterq.Build[int](iterq.New(2).Logger(logger))
	ctx := context.Background()

	q.AddProducer(1)
	q.Put(ctx, 7)
	q.Finish()
	q.Get(ctx)
	q.TaskDone()

	if err := q.Join(ctx); err != nil {
		t.Fatalf("Join: %v", err)
	}

	out := buf.String()
	for _, msg := range []string{"queue filled", "queue done", "queue joined"} {
		if !strings.Contains(out, msg) {
			t.Fatalf("log output missing %q:\n%s", msg, out)
		}
	}
}

// TestErrorClassification tests the error helpers.
func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name                           string
		err                            error
		wouldBlock, semantic, nonFail bool
	}{
		{"nil", nil, false, false, true},
		{"ErrFull", iterq.ErrFull, true, true, true},
		{"ErrEmpty", iterq.ErrEmpty, true, true, true},
		{"ErrClosed", iterq.ErrClosed, false, true, true},
		{"ErrNoProducers", iterq.ErrNoProducers, false, false, false},
		{"Canceled", context.Canceled, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := iterq.IsWouldBlock(tt.err); got != tt.wouldBlock {
				t.Fatalf("IsWouldBlock: got %v, want %v", got, tt.wouldBlock)
			}
			if got := iterq.IsSemantic(tt.err); got != tt.semantic {
				t.Fatalf("IsSemantic: got %v, want %v", got, tt.semantic)
			}
			if got := iterq.IsNonFailure(tt.err); got != tt.nonFail {
				t.Fatalf("IsNonFailure: got %v, want %v", got, tt.nonFail)
			}
		})
	}
}

// TestPanics tests argument validation.
func TestPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"New_Negative", func() { iterq.New(-1) }},
		{"NewQueue_Negative", func() { iterq.NewQueue[int](-1) }},
		{"AddProducer_Zero", func() { iterq.NewQueue[int](1).AddProducer(0) }},
		{"AddProducer_Negative", func() { iterq.NewQueue[int](1).AddProducer(-2) }},
		{"TaskDone_Fresh", func() { iterq.NewQueue[int](1).TaskDone() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Fatal("expected panic")
				}
			}()
			tt.fn()
		})
	}
}
