package fritz

import (
	"fmt"
	"strconv"
)

// Lens is a pure, bidirectional accessor that focuses on a part T of a larger
// value P. Get extracts the focused part; Set builds a new parent with the
// focused part replaced, leaving everything else untouched. Both directions
// must be side-effect free so a lens can run inside a store's critical
// section.
//
// Lenses obey the put-get law: after Set(p, v) succeeds, Get on the result
// yields v. Composition preserves the law, so a chain of lenses behaves like
// a single deep accessor.
type Lens[P, T any] struct {
	// ID is the path segment this lens contributes to derived store ids.
	// Composed lenses join their segments with dots; empty segments are
	// skipped, which keeps pure format conversions invisible in paths.
	ID string

	// Get extracts the focused part from the parent.
	Get func(parent P) (T, error)

	// Set returns a new parent with the focused part replaced. The parent
	// passed in is never mutated.
	Set func(parent P, value T) (P, error)
}

// NewLens builds a lens from total get and set functions, for focusing on
// parts that always exist (struct fields, tuple positions). Lenses over
// partial containers (lists, maps) should use IndexLens, KeyLens or
// ElementLens instead, which report missing focus as errors.
func NewLens[P, T any](id string, get func(P) T, set func(P, T) P) Lens[P, T] {
	return Lens[P, T]{
		ID:  id,
		Get: func(p P) (T, error) { return get(p), nil },
		Set: func(p P, v T) (P, error) { return set(p, v), nil },
	}
}

// Compose chains two lenses into one that focuses through both: the outer
// lens picks T out of P, the inner lens picks X out of T. Errors from either
// stage pass through unchanged, so a missing focus deep in a chain still
// matches ErrFocusNotFound.
func Compose[P, T, X any](outer Lens[P, T], inner Lens[T, X]) Lens[P, X] {
	return Lens[P, X]{
		ID: joinID(outer.ID, inner.ID),
		Get: func(p P) (X, error) {
			t, err := outer.Get(p)
			if err != nil {
				var zero X
				return zero, err
			}
			return inner.Get(t)
		},
		Set: func(p P, v X) (P, error) {
			t, err := outer.Get(p)
			if err != nil {
				return p, err
			}
			t, err = inner.Set(t, v)
			if err != nil {
				return p, err
			}
			return outer.Set(p, t)
		},
	}
}

// IndexLens focuses on the element at a fixed position of a list. Get and Set
// report an IndexNotFoundError when the position is outside the current
// bounds; a store applying an update through it abandons the update and keeps
// its previous value. Set copies the list, so earlier snapshots stay valid.
func IndexLens[T any](index int) Lens[[]T, T] {
	id := strconv.Itoa(index)
	return Lens[[]T, T]{
		ID: id,
		Get: func(list []T) (T, error) {
			if index < 0 || index >= len(list) {
				var zero T
				return zero, &IndexNotFoundError{LensID: id, Index: index, Len: len(list)}
			}
			return list[index], nil
		},
		Set: func(list []T, v T) ([]T, error) {
			if index < 0 || index >= len(list) {
				return list, &IndexNotFoundError{LensID: id, Index: index, Len: len(list)}
			}
			out := make([]T, len(list))
			copy(out, list)
			out[index] = v
			return out, nil
		},
	}
}

// KeyLens focuses on the value stored under a fixed key of a map. Both
// directions report a KeyNotFoundError when the key is absent; Set never
// inserts new keys, it only replaces. The map is copied on Set.
func KeyLens[K comparable, V any](key K) Lens[map[K]V, V] {
	id := fmt.Sprint(key)
	return Lens[map[K]V, V]{
		ID: id,
		Get: func(m map[K]V) (V, error) {
			v, ok := m[key]
			if !ok {
				var zero V
				return zero, &KeyNotFoundError{LensID: id, Key: key}
			}
			return v, nil
		},
		Set: func(m map[K]V, v V) (map[K]V, error) {
			if _, ok := m[key]; !ok {
				return m, &KeyNotFoundError{LensID: id, Key: key}
			}
			out := make(map[K]V, len(m))
			for k, old := range m {
				out[k] = old
			}
			out[key] = v
			return out, nil
		},
	}
}

// ElementLens focuses on a list element by stable identity rather than
// position, so the focus survives reordering. idOf must derive the identity
// from the element alone and stay stable across edits to the element's other
// fields. Set replaces the first element whose id matches; when no element
// matches, both directions report an ElementNotFoundError.
func ElementLens[T any, I comparable](element T, idOf func(T) I) Lens[[]T, T] {
	target := idOf(element)
	id := fmt.Sprint(target)
	return Lens[[]T, T]{
		ID: id,
		Get: func(list []T) (T, error) {
			for _, e := range list {
				if idOf(e) == target {
					return e, nil
				}
			}
			var zero T
			return zero, &ElementNotFoundError{LensID: id, ID: target}
		},
		Set: func(list []T, v T) ([]T, error) {
			for i, e := range list {
				if idOf(e) == target {
					out := make([]T, len(list))
					copy(out, list)
					out[i] = v
					return out, nil
				}
			}
			return list, &ElementNotFoundError{LensID: id, ID: target}
		},
	}
}

// FormatLens converts between a typed value and its string representation,
// for binding typed state to text inputs. Get formats, Set parses; a parse
// failure leaves the parent unchanged and surfaces the parser's error. The
// lens contributes no path segment.
func FormatLens[T any](parse func(string) (T, error), format func(T) string) Lens[T, string] {
	return Lens[T, string]{
		Get: func(t T) (string, error) { return format(t), nil },
		Set: func(t T, s string) (T, error) {
			v, err := parse(s)
			if err != nil {
				return t, err
			}
			return v, nil
		},
	}
}

// Nullable lifts a lens into the world of optional parents. A nil parent
// yields a nil focus; writes against a nil parent (and nil writes) are
// discarded, returning the parent unchanged.
func Nullable[P, T any](inner Lens[P, T]) Lens[*P, *T] {
	return Lens[*P, *T]{
		ID: inner.ID,
		Get: func(p *P) (*T, error) {
			if p == nil {
				return nil, nil
			}
			t, err := inner.Get(*p)
			if err != nil {
				return nil, err
			}
			return &t, nil
		},
		Set: func(p *P, v *T) (*P, error) {
			if p == nil || v == nil {
				return p, nil
			}
			np, err := inner.Set(*p, *v)
			if err != nil {
				return p, err
			}
			return &np, nil
		},
	}
}

// WithFallback lifts a lens into the world of optional parents by
// substituting a default parent whenever the real one is nil. Reads against a
// nil parent see the default's focus; a write against a nil parent
// materializes the default with the write applied.
func WithFallback[P, T any](inner Lens[P, T], fallback P) Lens[*P, T] {
	return Lens[*P, T]{
		ID: inner.ID,
		Get: func(p *P) (T, error) {
			if p == nil {
				return inner.Get(fallback)
			}
			return inner.Get(*p)
		},
		Set: func(p *P, v T) (*P, error) {
			base := fallback
			if p != nil {
				base = *p
			}
			np, err := inner.Set(base, v)
			if err != nil {
				return p, err
			}
			return &np, nil
		},
	}
}

func joinID(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "." + b
	}
}
