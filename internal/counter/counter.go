// Package counter owns the durable invoice-number counter and the
// batch reservation protocol built on top of it.
//
// The counter's only job is "never hand out this number again". Once a
// reservation is persisted the numbers are spent, independent of whether
// the deliveries that follow succeed; failed deliveries are tracked by the
// archive outcome, not by reverting the counter.
package counter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nordview/invoicer/internal/domain"
)

// Key is the durable storage key holding the last invoice number issued,
// stored as a decimal string integer.
const Key = "LAST_INVOICE_NUMBER"

// ErrConflict is returned by conditional stores when another writer
// modified the counter between read and write. A reservation that loses
// the race must abort the run; retrying silently could issue numbers the
// concurrent run already handed out.
var ErrConflict = errors.New("counter: concurrent modification detected")

// Store is the durable counter backend.
type Store interface {
	// Get reads the current counter value. found is false when the key has
	// never been written; callers treat absence as zero.
	Get(ctx context.Context) (value int64, found bool, err error)

	// Put persists a new counter value. The write must be durable on
	// success: the reservation protocol depends on it.
	Put(ctx context.Context, value int64) error
}

// ConditionalStore is implemented by backends that can make the
// read-modify-write cycle an enforced invariant instead of a documented
// single-writer assumption.
type ConditionalStore interface {
	Store

	// PutIf persists next only if the stored value still equals prev
	// (prev == 0 also matches an absent key). Returns ErrConflict when the
	// counter moved underneath the caller.
	PutIf(ctx context.Context, prev, next int64) error
}

// Range is a contiguous block of reserved invoice numbers [Start, End].
type Range struct {
	Start int64
	End   int64
}

// Size returns the number of invoice numbers in the range.
func (r Range) Size() int64 {
	return r.End - r.Start + 1
}

// Numbers returns the reserved numbers in ascending order.
func (r Range) Numbers() []int64 {
	out := make([]int64, 0, r.Size())
	for n := r.Start; n <= r.End; n++ {
		out = append(out, n)
	}
	return out
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Allocator reserves contiguous invoice-number blocks against a Store.
type Allocator struct {
	store  Store
	logger *slog.Logger
}

// NewAllocator creates an allocator on top of the given store.
func NewAllocator(store Store, logger *slog.Logger) *Allocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{store: store, logger: logger}
}

// Reserve allocates a contiguous block of batchSize invoice numbers and
// persists the advanced counter before returning. The persist must succeed
// before any invoice is rendered or sent; on failure the whole run aborts,
// because proceeding risks issuing numbers that are never recorded as
// used, corrupting the monotonic guarantee on the next run.
//
// There is no rollback of a successful reservation. A render or send
// failure later in the batch still leaves its number consumed; the
// resulting gap in the sequence is accepted. (Flagged for product review:
// render failures spend a number with no artifact produced anywhere.)
func (a *Allocator) Reserve(ctx context.Context, batchSize int) (Range, error) {
	const op = "counter.reserve"

	if batchSize < 1 {
		return Range{}, domain.Errorf(domain.EINVALID, op, "batch size must be at least 1, got %d", batchSize)
	}

	last, found, err := a.store.Get(ctx)
	if err != nil {
		return Range{}, domain.Fatal(err, op, "failed to read invoice counter")
	}
	if !found {
		last = 0
	}

	r := Range{Start: last + 1, End: last + int64(batchSize)}

	if cs, ok := a.store.(ConditionalStore); ok {
		err = cs.PutIf(ctx, last, r.End)
	} else {
		err = a.store.Put(ctx, r.End)
	}
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return Range{}, domain.WrapError(err, domain.ECONFLICT, op, "another run advanced the counter")
		}
		return Range{}, domain.Fatal(err, op, "failed to persist invoice counter")
	}

	a.logger.Info("reserved invoice numbers",
		"start", r.Start,
		"end", r.End,
		"batch_size", batchSize,
	)

	return r, nil
}
