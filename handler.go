package fritz

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Dispatch carries one action through a handler's processing pipeline.
// It provides access to the action and to both the previous and the computed
// value, allowing middleware to make decisions based on what is changing.
type Dispatch[D, A any] struct {
	// Action is the value that was dispatched.
	Action A

	// Previous is the store's committed value at the time the dispatch is
	// applied.
	Previous D

	// Next is the replacement value computed so far. The terminal stage
	// sets it from the action function's result; middleware running after
	// the terminal may adjust it.
	Next D
}

// Handler turns dispatched actions into serialized updates on the store it
// was built for. Handlers are cheap: build one per action type a component
// reacts to.
type Handler[A any] struct {
	name     string
	dispatch func(ctx context.Context, action A) error
}

// Name returns the handler's name.
func (h *Handler[A]) Name() string {
	return h.name
}

// Dispatch submits the action as an update on the owning store. It returns
// once the update is queued; the action function runs later, inside the
// store's critical section, against the value committed at that moment.
func (h *Handler[A]) Dispatch(ctx context.Context, action A) error {
	return h.dispatch(ctx, action)
}

// Handle builds a handler bound to a store. For every dispatched action, fn
// runs inside the store's critical section with the committed value and the
// action, and returns the replacement value. fn may suspend; the store
// applies no other update until it returns.
//
// Options wrap fn with pipeline middleware (retry, timeout, filtering); a
// retried fn re-runs against the same previous value, so the commit is still
// one consistent transition.
//
// Example:
//
//	inc := fritz.Handle(counter, "inc",
//	    func(ctx context.Context, current int, by int) (int, error) {
//	        return current + by, nil
//	    },
//	)
//	inc.Dispatch(ctx, 1)
func Handle[D, A any](
	s Store[D],
	name string,
	fn func(ctx context.Context, current D, action A) (D, error),
	opts ...HandlerOption[D, A],
) *Handler[A] {
	terminal := pipz.Apply(pipz.Name(name), func(ctx context.Context, d *Dispatch[D, A]) (*Dispatch[D, A], error) {
		next, err := fn(ctx, d.Previous, d.Action)
		if err != nil {
			return d, err
		}
		d.Next = next
		return d, nil
	})
	pipeline := buildPipeline(terminal, opts)

	return &Handler[A]{
		name: name,
		dispatch: func(ctx context.Context, action A) error {
			return s.Enqueue(ctx, func(ctx context.Context, current D) (D, error) {
				d := &Dispatch[D, A]{Action: action, Previous: current, Next: current}
				out, err := pipeline.Process(ctx, d)
				if err != nil {
					return current, err
				}
				return out.Next, nil
			})
		},
	}
}

// EmittingHandler is a Handler that additionally publishes follow-up events
// after each successful dispatch. Events let handlers trigger work on other
// stores without coupling to them: subscribe with Events and feed the stream
// into another handler via HandledBy.
type EmittingHandler[A, E any] struct {
	Handler[A]
	events *broadcaster[E]
}

// Events returns a stream of the handler's follow-up events in emission
// order. Subscribers only see events emitted after they subscribe. The
// channel closes when ctx is canceled.
func (h *EmittingHandler[A, E]) Events(ctx context.Context) <-chan E {
	return h.events.subscribe(ctx, nil)
}

// HandleAndEmit builds a handler whose action function can publish follow-up
// events through emit. Emissions are collected while fn runs and published
// only after fn succeeds; a failed or retried attempt publishes nothing.
// The events appear on Events streams before the store broadcasts the newly
// committed value.
func HandleAndEmit[D, A, E any](
	s Store[D],
	name string,
	fn func(ctx context.Context, current D, action A, emit func(E)) (D, error),
	opts ...HandlerOption[D, A],
) *EmittingHandler[A, E] {
	h := &EmittingHandler[A, E]{events: newBroadcaster[E](nil)}

	// pending is only touched inside the store's critical section, which
	// serializes every dispatch of this handler.
	var pending []E
	terminal := pipz.Apply(pipz.Name(name), func(ctx context.Context, d *Dispatch[D, A]) (*Dispatch[D, A], error) {
		pending = pending[:0]
		next, err := fn(ctx, d.Previous, d.Action, func(e E) { pending = append(pending, e) })
		if err != nil {
			return d, err
		}
		d.Next = next
		return d, nil
	})
	pipeline := buildPipeline(terminal, opts)

	h.Handler = Handler[A]{
		name: name,
		dispatch: func(ctx context.Context, action A) error {
			return s.Enqueue(ctx, func(ctx context.Context, current D) (D, error) {
				d := &Dispatch[D, A]{Action: action, Previous: current, Next: current}
				out, err := pipeline.Process(ctx, d)
				if err != nil {
					return current, err
				}
				if len(pending) > 0 {
					for _, e := range pending {
						h.events.publish(e)
					}
					capitan.Emit(ctx, HandlerEmitted,
						KeyHandler.Field(name),
						KeyCount.Field(len(pending)),
					)
					pending = pending[:0]
				}
				return out.Next, nil
			})
		},
	}
	return h
}

// HandledBy forwards every value from events to the handler, preserving
// order. It blocks until the stream closes or ctx ends, so it is typically
// run in its own goroutine:
//
//	go fritz.HandledBy(ctx, saved.Events(ctx), refresh)
func HandledBy[A any](ctx context.Context, events <-chan A, h *Handler[A]) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-events:
			if !ok {
				return nil
			}
			if err := h.Dispatch(ctx, a); err != nil {
				return err
			}
		}
	}
}
