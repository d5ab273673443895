// Package limit implements the token-bucket bandwidth limiter: a
// per-session and per-lane budget, refilled by elapsed time and drained on
// send.
package limit

import "fmt"

// InsufficientBudgetError is returned by TryConsume when the bucket does
// not hold enough tokens.
type InsufficientBudgetError struct {
	Requested int
	Remaining int
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("requested %d bytes, only %d remaining in budget", e.Requested, e.Remaining)
}

// Bucket is a token bucket: a capacity and a current remaining balance.
type Bucket struct {
	capacity  int
	remaining int
}

// New returns a Bucket with the given capacity, starting full.
func New(capacity int) *Bucket {
	return &Bucket{capacity: capacity, remaining: capacity}
}

// Capacity returns the bucket's current capacity.
func (b *Bucket) Capacity() int { return b.capacity }

// Remaining returns the current balance.
func (b *Bucket) Remaining() int { return b.remaining }

// TryConsume debits n tokens, or returns an error leaving the bucket
// untouched if there aren't enough.
func (b *Bucket) TryConsume(n int) error {
	if n > b.remaining {
		return &InsufficientBudgetError{Requested: n, Remaining: b.remaining}
	}
	b.remaining -= n
	return nil
}

// TryConsumeIfAffordable is TryConsume without the error allocation: it
// reports whether n tokens were available and debits them if so.
func (b *Bucket) TryConsumeIfAffordable(n int) bool {
	return b.TryConsume(n) == nil
}

// RefillPortion adds capacity*f tokens, saturating at capacity. f is
// typically elapsedSeconds*bytesPerSec/capacity, but callers generally want
// RefillExact for that; RefillPortion exists for the fractional-of-capacity
// case used by tests and by the bandwidth-cap property.
func (b *Bucket) RefillPortion(f float64) {
	b.RefillExact(int(float64(b.capacity) * f))
}

// RefillExact adds n tokens, saturating at capacity.
func (b *Bucket) RefillExact(n int) {
	b.remaining += n
	if b.remaining > b.capacity {
		b.remaining = b.capacity
	}
}

// SetCapacity changes the bucket's capacity, clamping the current balance if
// it now exceeds the new capacity.
func (b *Bucket) SetCapacity(n int) {
	b.capacity = n
	if b.remaining > b.capacity {
		b.remaining = b.capacity
	}
}

// Composite is a read-through view over two or more underlying buckets: it
// reports the minimum remaining balance and consumes from all of them
// together or none at all. Grounded on the "min_of" composite-budget
// behaviour in aeronet_transport's limit.rs.
type Composite struct {
	buckets []*Bucket
}

// MinOf returns a Composite over the given buckets.
func MinOf(buckets ...*Bucket) *Composite {
	return &Composite{buckets: buckets}
}

// Remaining returns the smallest remaining balance among the underlying
// buckets.
func (c *Composite) Remaining() int {
	min := -1
	for _, b := range c.buckets {
		if min == -1 || b.Remaining() < min {
			min = b.Remaining()
		}
	}
	if min == -1 {
		return 0
	}
	return min
}

// TryConsume debits n tokens from every underlying bucket, or leaves all of
// them untouched and returns an error if any one of them can't afford it.
func (c *Composite) TryConsume(n int) error {
	if n > c.Remaining() {
		return &InsufficientBudgetError{Requested: n, Remaining: c.Remaining()}
	}
	for _, b := range c.buckets {
		_ = b.TryConsume(n)
	}
	return nil
}
