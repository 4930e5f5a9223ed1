package fritz

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

// Debounce forwards values from in, emitting a value only after quiet time d
// has passed without a newer one. Intermediate values inside a burst are
// dropped; the latest pending value is flushed when the input closes. Use it
// on data streams feeding expensive renders, not on action streams, where
// every action matters.
//
// The clock is injectable for deterministic tests; pass clockz.RealClock in
// production.
func Debounce[T any](ctx context.Context, in <-chan T, d time.Duration, clock clockz.Clock) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)

		var (
			timer      clockz.Timer
			pending    T
			hasPending bool
		)

		for {
			var timerC <-chan time.Time
			if timer != nil {
				timerC = timer.C()
			}

			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case v, ok := <-in:
				if !ok {
					if hasPending {
						select {
						case out <- pending:
						case <-ctx.Done():
						}
					}
					return
				}
				pending = v
				hasPending = true

				if timer == nil {
					timer = clock.NewTimer(d)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C():
						default:
						}
					}
					timer.Reset(d)
				}

			case <-timerC:
				if hasPending {
					select {
					case out <- pending:
						hasPending = false
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out
}

// DropDuplicates suppresses consecutive equal values on a stream. eq nil
// falls back to comparing with the == on any, which is only safe for
// comparable types; pass an explicit eq otherwise.
func DropDuplicates[T any](ctx context.Context, in <-chan T, eq func(a, b T) bool) <-chan T {
	if eq == nil {
		eq = func(a, b T) bool { return any(a) == any(b) }
	}
	out := make(chan T)
	go func() {
		defer close(out)
		var last T
		delivered := false
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				if delivered && eq(last, v) {
					continue
				}
				select {
				case out <- v:
					last = v
					delivered = true
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Combine merges the latest values of two streams through fn. Nothing is
// emitted until both inputs have produced a value; from then on every change
// on either side emits a fresh combination. A closed input keeps contributing
// its last value. The output closes when both inputs are closed or ctx ends.
//
// Typical use is deriving a view stream from two stores:
//
//	totals := fritz.Combine(ctx, items.Data(ctx), filter.Data(ctx), visibleCount)
func Combine[A, B, C any](ctx context.Context, a <-chan A, b <-chan B, fn func(A, B) C) <-chan C {
	out := make(chan C)
	go func() {
		defer close(out)

		var (
			lastA A
			lastB B
			haveA bool
			haveB bool
		)

		for a != nil || b != nil {
			select {
			case <-ctx.Done():
				return

			case v, ok := <-a:
				if !ok {
					a = nil
					continue
				}
				lastA, haveA = v, true

			case v, ok := <-b:
				if !ok {
					b = nil
					continue
				}
				lastB, haveB = v, true
			}

			if !haveA || !haveB {
				continue
			}
			select {
			case out <- fn(lastA, lastB):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// MapChan transforms every value of a stream. Useful for formatting data
// streams into strings for BindText and BindAttr:
//
//	fritz.BindText(ctx, label, fritz.MapChan(ctx, counter.Data(ctx), strconv.Itoa))
func MapChan[T, U any](ctx context.Context, in <-chan T, fn func(T) U) <-chan U {
	out := make(chan U)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- fn(v):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
