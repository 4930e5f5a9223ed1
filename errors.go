package fritz

import (
	"errors"
	"fmt"
)

// ErrFocusNotFound is the sentinel for every lens focus failure. The concrete
// errors (IndexNotFoundError, KeyNotFoundError, ElementNotFoundError) all
// unwrap to it, so callers can match the whole family:
//
//	if errors.Is(err, fritz.ErrFocusNotFound) { ... }
//
// A store that hits a focus failure while applying an update abandons that
// update and keeps its previous value.
var ErrFocusNotFound = errors.New("focus not found")

// ErrStoreClosed is returned by Enqueue and Settle once the store's scope
// context has been canceled and the worker has shut down.
var ErrStoreClosed = errors.New("store closed")

// IndexNotFoundError reports a positional lens focused outside the bounds of
// its list.
type IndexNotFoundError struct {
	LensID string
	Index  int
	Len    int
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("lens %q: index %d out of range (len %d)", e.LensID, e.Index, e.Len)
}

func (e *IndexNotFoundError) Unwrap() error { return ErrFocusNotFound }

// KeyNotFoundError reports a key lens whose key is absent from the map.
type KeyNotFoundError struct {
	LensID string
	Key    any
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("lens %q: key %v not found", e.LensID, e.Key)
}

func (e *KeyNotFoundError) Unwrap() error { return ErrFocusNotFound }

// ElementNotFoundError reports an identity lens whose element id matches no
// element of the list.
type ElementNotFoundError struct {
	LensID string
	ID     any
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("lens %q: element with id %v not found", e.LensID, e.ID)
}

func (e *ElementNotFoundError) Unwrap() error { return ErrFocusNotFound }

// UpdateError wraps an error produced while a store applied an update,
// carrying the id of the store it happened on. Stores hand UpdateErrors to
// their error handler and record them in the failure history.
type UpdateError struct {
	StoreID string
	Err     error
}

func (e *UpdateError) Error() string {
	return fmt.Sprintf("store %q: update failed: %v", e.StoreID, e.Err)
}

func (e *UpdateError) Unwrap() error { return e.Err }
