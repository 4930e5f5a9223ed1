package fritz

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// DefaultQueueSize is the default capacity of a root store's update queue.
const DefaultQueueSize = 64

// validate is the shared validator instance for struct tag validation.
var validate = validator.New()

// Update computes a replacement for a store's current value. It runs inside
// the store's critical section: it may suspend (await I/O, run a pipeline),
// and no other update starts until it returns. The value passed in is the
// committed value at the moment the update is applied, never a stale
// snapshot. Returning an error abandons the update; the store's error
// handler decides what stays committed.
type Update[D any] func(ctx context.Context, current D) (D, error)

// ErrorHandler decides what a store commits after a failed update. It
// receives the failure and the previously committed value; whatever it
// returns becomes the current value. The default handler keeps the previous
// value, so a failed update is invisible on the data stream.
type ErrorHandler[D any] func(err error, previous D) D

// Validator is the interface model types may implement to check their own
// consistency. When a store's value type implements it, every computed value
// is validated before commit; a failure is treated like a failed update.
type Validator interface {
	Validate() error
}

// Store is the contract shared by root stores and lens-derived stores: read
// the committed value, observe it as a stream, and enqueue updates against
// it.
type Store[D any] interface {
	// ID identifies the store in logs and signals. Derived stores extend
	// their parent's id with their lens path.
	ID() string

	// Current returns the value as of the latest commit. Derived stores
	// return an error matching ErrFocusNotFound when their lens cannot
	// focus into the parent's value.
	Current() (D, error)

	// Data returns a stream of committed values, starting with the value
	// current at subscription time. Values arrive in commit order with
	// consecutive duplicates suppressed; distinct values are never skipped.
	// The channel closes when ctx is canceled or the store's scope ends.
	Data(ctx context.Context) <-chan D

	// Enqueue submits an update for serialized application. Updates are
	// applied strictly one at a time in submission order. Enqueue blocks
	// while the queue is full, fails with ctx.Err() if ctx ends first, and
	// fails with ErrStoreClosed once the store's scope has ended.
	Enqueue(ctx context.Context, update Update[D]) error
}

// Access is the minimal store surface for code that reads and writes a store
// without observing it, such as persistence or remote synchronization glue.
type Access[D any] interface {
	Current() (D, error)
	Enqueue(ctx context.Context, update Update[D]) error
}

// RootStore owns a single value and serializes every change to it. One
// worker goroutine applies queued updates one at a time; committed values
// fan out to subscribers in commit order. All reads observe complete
// committed values, never intermediate state.
//
// A store is created with NewRootStore, configured with chainable methods,
// and brought to life with Start. Its scope is the context passed to Start:
// when that context ends, the worker stops, subscriptions close, and further
// Enqueue calls fail with ErrStoreClosed.
type RootStore[D any] struct {
	id         string
	clock      clockz.Clock
	eq         func(a, b D) bool
	onError    ErrorHandler[D]
	metrics    MetricsProvider
	onStop     func(State)
	structTags bool

	state     atomic.Int32
	current   atomic.Pointer[D]
	lastError atomic.Pointer[error]
	history   *updateLog

	tasks chan task[D]
	bcast *broadcaster[D]
	quit  chan struct{}

	mu      sync.Mutex
	started bool
}

type task[D any] struct {
	update Update[D]
	done   chan struct{}
}

var _ Store[int] = (*RootStore[int])(nil)

// NewRootStore creates a store owning initial. The store accepts
// configuration through chainable methods and starts applying updates once
// Start is called.
//
// Example:
//
//	store := fritz.NewRootStore(Model{Count: 0}).
//	    Named("app").
//	    ErrorHistorySize(16)
//	if err := store.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
func NewRootStore[D any](initial D) *RootStore[D] {
	s := &RootStore[D]{
		id:      uuid.NewString(),
		clock:   clockz.RealClock,
		eq:      func(a, b D) bool { return reflect.DeepEqual(a, b) },
		history: newUpdateLog(0),
		tasks:   make(chan task[D], DefaultQueueSize),
		quit:    make(chan struct{}),
	}
	s.onError = func(_ error, previous D) D { return previous }
	s.bcast = newBroadcaster(func(a, b D) bool { return s.eq(a, b) })
	s.current.Store(&initial)
	s.state.Store(int32(StateIdle))
	return s
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Named sets the store's id, used in logs, signals and derived store paths.
// Default: a random UUID. Must be called before Start().
func (s *RootStore[D]) Named(id string) *RootStore[D] {
	s.id = id
	return s
}

// Equality sets the comparison used to suppress duplicate emissions on the
// data stream. Default: reflect.DeepEqual. Must be called before Start().
func (s *RootStore[D]) Equality(eq func(a, b D) bool) *RootStore[D] {
	s.eq = eq
	return s
}

// OnError sets the handler that decides what stays committed after a failed
// update. Default: keep the previous value. Must be called before Start().
func (s *RootStore[D]) OnError(handler ErrorHandler[D]) *RootStore[D] {
	s.onError = handler
	return s
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic tests.
// Must be called before Start().
func (s *RootStore[D]) Clock(clock clockz.Clock) *RootStore[D] {
	s.clock = clock
	return s
}

// Metrics sets a metrics provider for observability integration.
// The provider receives callbacks on state changes and update outcomes.
// Must be called before Start().
func (s *RootStore[D]) Metrics(provider MetricsProvider) *RootStore[D] {
	s.metrics = provider
	return s
}

// OnStop sets a callback invoked when the store's scope ends, receiving the
// final state. Useful for graceful shutdown. Must be called before Start().
func (s *RootStore[D]) OnStop(fn func(State)) *RootStore[D] {
	s.onStop = fn
	return s
}

// QueueSize sets the capacity of the update queue. Enqueue blocks while the
// queue is full. Default: DefaultQueueSize. Must be called before Start()
// and before any Enqueue.
func (s *RootStore[D]) QueueSize(n int) *RootStore[D] {
	s.tasks = make(chan task[D], n)
	return s
}

// ErrorHistorySize sets the number of recent update failures to retain.
// When set, ErrorHistory() returns up to this many failures.
// Use 0 (default) to only retain the most recent error via LastError().
// Must be called before Start().
func (s *RootStore[D]) ErrorHistorySize(n int) *RootStore[D] {
	s.history = newUpdateLog(n)
	return s
}

// ValidateTags enables validation of computed values against their
// go-playground/validator struct tags before commit. Requires D to be a
// struct or pointer to struct; other types fail every update. Values
// implementing Validator are checked regardless of this setting.
// Must be called before Start().
func (s *RootStore[D]) ValidateTags() *RootStore[D] {
	s.structTags = true
	return s
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

// ID returns the store's id.
func (s *RootStore[D]) ID() string {
	return s.id
}

// State returns the current state of the store.
func (s *RootStore[D]) State() State {
	return State(s.state.Load())
}

// Current returns the committed value. The error is always nil on a root
// store; it exists to satisfy the Store contract shared with derived stores.
func (s *RootStore[D]) Current() (D, error) {
	return *s.current.Load(), nil
}

// LastError returns the most recent update failure, or nil after the last
// update succeeded.
func (s *RootStore[D]) LastError() error {
	ptr := s.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent update failures, oldest first. Returns nil if
// history is not enabled (see ErrorHistorySize). A successful update clears
// the history.
func (s *RootStore[D]) ErrorHistory() []UpdateFailure {
	return s.history.all()
}

// -----------------------------------------------------------------------------
// Operation
// -----------------------------------------------------------------------------

// Start brings the store to life: its worker begins applying queued updates.
// The store lives until ctx ends. Start can only be called once; subsequent
// calls return an error.
func (s *RootStore[D]) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("store %q already started", s.id)
	}
	s.started = true
	s.mu.Unlock()

	capitan.Emit(ctx, StoreStarted,
		KeyStoreID.Field(s.id),
	)

	go s.run(ctx)
	return nil
}

// Enqueue submits an update for serialized application. It returns as soon
// as the update is queued; the update itself runs later on the worker.
// Updates may enqueue further updates, which run after the current one.
// Leave queue headroom via QueueSize when chaining deeply.
func (s *RootStore[D]) Enqueue(ctx context.Context, update Update[D]) error {
	select {
	case s.tasks <- task[D]{update: update}:
		return nil
	case <-s.quit:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settle blocks until every update enqueued before the call has been
// applied. Useful for tests and shutdown checkpoints.
func (s *RootStore[D]) Settle(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case s.tasks <- task[D]{done: done}:
	case <-s.quit:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-s.quit:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Data returns a stream of committed values, starting with the value current
// at subscription time. Every subscriber receives every distinct committed
// value in commit order; a slow subscriber queues values without blocking
// the worker or other subscribers.
func (s *RootStore[D]) Data(ctx context.Context) <-chan D {
	return s.bcast.subscribe(ctx, func() []D {
		return []D{*s.current.Load()}
	})
}

// -----------------------------------------------------------------------------
// Worker
// -----------------------------------------------------------------------------

// run is the store's single writer. It applies tasks one at a time until the
// scope context ends.
func (s *RootStore[D]) run(ctx context.Context) {
	defer func() {
		close(s.quit)
		s.bcast.close()
		finalState := s.State()
		capitan.Emit(ctx, StoreStopped,
			KeyStoreID.Field(s.id),
			KeyState.Field(finalState.String()),
		)
		if s.onStop != nil {
			s.onStop(finalState)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.tasks:
			s.apply(ctx, t)
		}
	}
}

// apply runs one update inside the critical section: compute, check, commit.
func (s *RootStore[D]) apply(ctx context.Context, t task[D]) {
	if t.done != nil {
		defer close(t.done)
	}
	if t.update == nil {
		return
	}

	start := s.clock.Now()
	oldState := s.State()
	prev := *s.current.Load()

	next, err := s.runUpdate(ctx, t.update, prev)
	if err != nil {
		s.fail(ctx, oldState, start, prev, err)
		return
	}

	if err := s.checkValid(next); err != nil {
		s.fail(ctx, oldState, start, prev, validationError{err})
		return
	}

	s.lastError.Store(nil)
	s.history.clear()
	s.transitionState(ctx, oldState, StateHealthy)
	capitan.Emit(ctx, StoreUpdated,
		KeyStoreID.Field(s.id),
		KeyDuration.Field(s.clock.Since(start)),
	)
	if s.metrics != nil {
		s.metrics.OnUpdate(s.clock.Since(start))
	}
	s.commit(prev, next)
}

// runUpdate executes the update with panic containment, so a panicking
// computation degrades the store instead of crashing the worker.
func (s *RootStore[D]) runUpdate(ctx context.Context, update Update[D], prev D) (next D, err error) {
	defer func() {
		if r := recover(); r != nil {
			next = prev
			err = fmt.Errorf("update panicked: %v", r)
		}
	}()
	return update(ctx, prev)
}

// checkValid runs the value's own Validate method (when implemented) and,
// when enabled, go-playground struct tag validation.
func (s *RootStore[D]) checkValid(next D) error {
	if v, ok := any(next).(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if s.structTags {
		if err := validate.Struct(next); err != nil {
			return err
		}
	}
	return nil
}

// fail records a failed update, transitions to Degraded, and commits
// whatever the error handler decides.
func (s *RootStore[D]) fail(ctx context.Context, oldState State, start time.Time, prev D, err error) {
	stage := "update"
	signal := StoreUpdateFailed
	var vErr validationError
	switch {
	case errors.Is(err, ErrFocusNotFound):
		stage = "focus"
		signal = StoreFocusDropped
	case errors.As(err, &vErr):
		stage = "validate"
		signal = StoreUpdateRejected
		err = vErr.err
	}

	wrapped := &UpdateError{StoreID: s.id, Err: err}
	e := error(wrapped)
	s.lastError.Store(&e)
	s.history.push(UpdateFailure{
		StoreID: s.id,
		Stage:   stage,
		Err:     wrapped,
		At:      s.clock.Now(),
	})

	s.transitionState(ctx, oldState, StateDegraded)
	capitan.Emit(ctx, signal,
		KeyStoreID.Field(s.id),
		KeyStage.Field(stage),
		KeyError.Field(err.Error()),
	)
	if s.metrics != nil {
		s.metrics.OnUpdateFailure(stage, s.clock.Since(start))
	}

	s.commit(prev, s.onError(wrapped, prev))
}

// commit stores and broadcasts next unless it equals the previous value.
func (s *RootStore[D]) commit(prev, next D) {
	if s.eq(prev, next) {
		return
	}
	s.current.Store(&next)
	s.bcast.publish(next)
}

// transitionState updates the state and emits a state change event if changed.
func (s *RootStore[D]) transitionState(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	s.state.Store(int32(newState))
	capitan.Emit(ctx, StoreStateChanged,
		KeyStoreID.Field(s.id),
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	if s.metrics != nil {
		s.metrics.OnStateChange(oldState, newState)
	}
}

// validationError marks errors from the validation stage so fail can
// classify them.
type validationError struct {
	err error
}

func (e validationError) Error() string { return e.err.Error() }
func (e validationError) Unwrap() error { return e.err }
