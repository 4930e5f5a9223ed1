package fritz

import (
	"context"
	"reflect"

	"github.com/zoobzio/capitan"
)

// LensedStore is a store derived from a parent through a lens. It has no
// state, queue or worker of its own: reads focus into the parent's committed
// value, and updates are rewritten into parent updates, so every write in a
// store tree funnels through the single critical section of the root.
//
// Derivation nests: a LensedStore can itself be the parent of further
// derived stores, with lens paths accumulating in the id.
type LensedStore[P, T any] struct {
	parent Store[P]
	lens   Lens[P, T]
	id     string
	eq     func(a, b T) bool
}

var _ Store[int] = (*LensedStore[[]int, int])(nil)

// Sub derives a store focused on a part of parent's value.
//
// Example:
//
//	app := fritz.NewRootStore(Model{User: User{Name: "jan"}}).Named("app")
//	user := fritz.Sub(app, fritz.NewLens("user",
//	    func(m Model) User { return m.User },
//	    func(m Model, u User) Model { m.User = u; return m },
//	))
func Sub[P, T any](parent Store[P], lens Lens[P, T]) *LensedStore[P, T] {
	return &LensedStore[P, T]{
		parent: parent,
		lens:   lens,
		id:     joinID(parent.ID(), lens.ID),
		eq:     func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
}

// Equality sets the comparison used to suppress duplicate emissions on this
// store's data stream. Default: reflect.DeepEqual. Must be called before
// Data.
func (s *LensedStore[P, T]) Equality(eq func(a, b T) bool) *LensedStore[P, T] {
	s.eq = eq
	return s
}

// ID returns the store's id: the parent's id extended with the lens path.
func (s *LensedStore[P, T]) ID() string {
	return s.id
}

// Current returns the focused part of the parent's committed value. The
// error matches ErrFocusNotFound when the lens cannot focus, for example
// after the focused list element has been removed.
func (s *LensedStore[P, T]) Current() (T, error) {
	p, err := s.parent.Current()
	if err != nil {
		var zero T
		return zero, err
	}
	return s.lens.Get(p)
}

// Enqueue rewrites the update into a parent update and submits it to the
// parent. Inside the parent's critical section the lens extracts the focused
// part, the update computes its replacement, and the lens builds the new
// parent value. A focus failure abandons the whole update.
func (s *LensedStore[P, T]) Enqueue(ctx context.Context, update Update[T]) error {
	return s.parent.Enqueue(ctx, func(ctx context.Context, parent P) (P, error) {
		focus, err := s.lens.Get(parent)
		if err != nil {
			return parent, err
		}
		next, err := update(ctx, focus)
		if err != nil {
			return parent, err
		}
		return s.lens.Set(parent, next)
	})
}

// Data returns a stream of the focused part of every value the parent
// commits, starting with the current one. Consecutive duplicate projections
// are suppressed, so unrelated changes elsewhere in the parent stay
// invisible to this store's subscribers. Parent values the lens cannot focus
// into are skipped.
func (s *LensedStore[P, T]) Data(ctx context.Context) <-chan T {
	upstream := s.parent.Data(ctx)
	out := make(chan T)

	go func() {
		defer close(out)
		var last T
		delivered := false
		for {
			select {
			case <-ctx.Done():
				return
			case p, ok := <-upstream:
				if !ok {
					return
				}
				t, err := s.lens.Get(p)
				if err != nil {
					capitan.Emit(ctx, StoreFocusDropped,
						KeyStoreID.Field(s.id),
						KeyLensID.Field(s.lens.ID),
						KeyError.Field(err.Error()),
					)
					continue
				}
				if delivered && s.eq(last, t) {
					continue
				}
				select {
				case out <- t:
					last = t
					delivered = true
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
