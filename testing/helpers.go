// Package testing provides test utilities and helpers for fritz store testing.
package testing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwstegemann/fritz"
)

// TestModel is a standard data type for store tests.
// It implements fritz.Validator with configurable validation behavior.
type TestModel struct {
	Count int    `yaml:"count" json:"count"`
	Label string `yaml:"label" json:"label"`
}

// Validate implements fritz.Validator.
func (m TestModel) Validate() error {
	if m.Count < 0 {
		return errors.New("count must be >= 0")
	}
	if m.Label == "" {
		return errors.New("label is required")
	}
	return nil
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForState waits until the store reaches the expected state or timeout occurs.
func WaitForState[D any](t *testing.T, s *fritz.RootStore[D], expected fritz.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return s.State() == expected
	})
}

// RequireState fails the test immediately if the store is not in the expected state.
func RequireState[D any](t *testing.T, s *fritz.RootStore[D], expected fritz.State) {
	t.Helper()
	if got := s.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireValue fails the test if the store's value cannot be read or the
// check rejects it. Works on root and derived stores alike.
func RequireValue[D any](t *testing.T, s fritz.Store[D], check func(D) bool) {
	t.Helper()
	value, err := s.Current()
	if err != nil {
		t.Fatalf("expected value to be readable, got %v", err)
	}
	if !check(value) {
		t.Fatalf("value check failed: %+v", value)
	}
}

// RequireSettled blocks until every previously enqueued update has been
// applied, failing the test if the store does not settle in time.
func RequireSettled[D any](t *testing.T, s *fritz.RootStore[D]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Settle(ctx); err != nil {
		t.Fatalf("store did not settle: %v", err)
	}
}

// NewTestStore creates and starts a store whose scope ends with the test.
func NewTestStore[D any](t *testing.T, initial D) *fritz.RootStore[D] {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := fritz.NewRootStore(initial).Named(t.Name())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("failed to start store: %v", err)
	}
	return s
}
