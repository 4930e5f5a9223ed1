package fritz

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// HandlerOption configures the processing pipeline of a handler built with
// Handle or HandleAndEmit. Pipeline options wrap the action function with
// middleware for retry, timeout, circuit breaking, and other reliability
// patterns.
//
// The pipeline runs inside the owning store's critical section: a retry
// re-runs the action function against the same previous value, so the
// eventual commit is still a single consistent transition.
type HandlerOption[D, A any] func(pipz.Chainable[*Dispatch[D, A]]) pipz.Chainable[*Dispatch[D, A]]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline[D, A any](terminal pipz.Chainable[*Dispatch[D, A]], opts []HandlerOption[D, A]) pipz.Chainable[*Dispatch[D, A]] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// -----------------------------------------------------------------------------
// Pipeline Options - Wrapping (With*)
// -----------------------------------------------------------------------------
// These options wrap the entire pipeline, providing protection at the boundary.

// WithRetry wraps the pipeline with retry logic.
// Failed dispatches are retried immediately up to maxAttempts times.
// For exponential backoff between retries, use WithBackoff instead.
func WithRetry[D, A any](maxAttempts int) HandlerOption[D, A] {
	return func(p pipz.Chainable[*Dispatch[D, A]]) pipz.Chainable[*Dispatch[D, A]] {
		return pipz.NewRetry("retry", p, maxAttempts)
	}
}

// WithBackoff wraps the pipeline with exponential backoff retry logic.
// Failed dispatches are retried with increasing delays: baseDelay,
// 2*baseDelay, 4*baseDelay, etc. The store's queue is blocked while the
// handler retries, so keep the delays short.
func WithBackoff[D, A any](maxAttempts int, baseDelay time.Duration) HandlerOption[D, A] {
	return func(p pipz.Chainable[*Dispatch[D, A]]) pipz.Chainable[*Dispatch[D, A]] {
		return pipz.NewBackoff("backoff", p, maxAttempts, baseDelay)
	}
}

// WithTimeout wraps the pipeline with a deadline. If the action function
// takes longer than the specified duration, the dispatch fails and the store
// keeps its previous value.
func WithTimeout[D, A any](d time.Duration) HandlerOption[D, A] {
	return func(p pipz.Chainable[*Dispatch[D, A]]) pipz.Chainable[*Dispatch[D, A]] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithCircuitBreaker wraps the pipeline with circuit breaker protection.
// After 'failures' consecutive failures, the circuit opens and rejects
// further dispatches until 'recovery' time has passed.
func WithCircuitBreaker[D, A any](failures int, recovery time.Duration) HandlerOption[D, A] {
	return func(p pipz.Chainable[*Dispatch[D, A]]) pipz.Chainable[*Dispatch[D, A]] {
		return pipz.NewCircuitBreaker("circuit-breaker", p, failures, recovery)
	}
}

// WithFilter guards the pipeline with a condition. Dispatches for which the
// condition returns false pass through without running the action function,
// leaving the store's value unchanged.
func WithFilter[D, A any](name string, condition func(context.Context, *Dispatch[D, A]) bool) HandlerOption[D, A] {
	return func(p pipz.Chainable[*Dispatch[D, A]]) pipz.Chainable[*Dispatch[D, A]] {
		return pipz.NewFilter(pipz.Name(name), condition, p)
	}
}

// WithErrorObserver adds error observation to the pipeline. Errors are passed
// to the observer for logging, metrics, or alerting, but still propagate to
// the store's error handler. Use this for observability, not recovery.
func WithErrorObserver[D, A any](observer pipz.Chainable[*pipz.Error[*Dispatch[D, A]]]) HandlerOption[D, A] {
	return func(p pipz.Chainable[*Dispatch[D, A]]) pipz.Chainable[*Dispatch[D, A]] {
		return pipz.NewHandle("error-observer", p, observer)
	}
}

// WithMiddleware wraps the pipeline with a sequence of processors.
// Processors execute in order, with the wrapped action function last.
//
// Use the Use* functions to create processors for common patterns,
// or provide custom pipz.Chainable implementations directly.
//
// Example:
//
//	save := fritz.Handle(todos, "save",
//	    func(ctx context.Context, current []Todo, t Todo) ([]Todo, error) {
//	        return append(current, t), nil
//	    },
//	    fritz.WithMiddleware(
//	        fritz.UseEffect[[]Todo, Todo]("audit", auditFn),
//	        fritz.UseRateLimit[[]Todo, Todo](10, 5),
//	    ),
//	    fritz.WithRetry[[]Todo, Todo](3),
//	)
func WithMiddleware[D, A any](processors ...pipz.Chainable[*Dispatch[D, A]]) HandlerOption[D, A] {
	return func(p pipz.Chainable[*Dispatch[D, A]]) pipz.Chainable[*Dispatch[D, A]] {
		all := make([]pipz.Chainable[*Dispatch[D, A]], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// -----------------------------------------------------------------------------
// Middleware Processors - Adapters (Use*)
// -----------------------------------------------------------------------------
// These create processors for use inside WithMiddleware. They transform or
// observe the dispatch as it flows through the pipeline.

// UseTransform creates a processor that transforms the dispatch.
// Cannot fail. Use for pure transformations that always succeed.
func UseTransform[D, A any](name string, fn func(context.Context, *Dispatch[D, A]) *Dispatch[D, A]) pipz.Chainable[*Dispatch[D, A]] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a processor that can transform the dispatch and fail.
// Use for operations like enrichment or auxiliary validation that may
// produce errors.
func UseApply[D, A any](name string, fn func(context.Context, *Dispatch[D, A]) (*Dispatch[D, A], error)) pipz.Chainable[*Dispatch[D, A]] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a processor that performs a side effect.
// The dispatch passes through unchanged. Use for logging, metrics,
// or notifications that should not affect the store's value.
func UseEffect[D, A any](name string, fn func(context.Context, *Dispatch[D, A]) error) pipz.Chainable[*Dispatch[D, A]] {
	return pipz.Effect(pipz.Name(name), fn)
}

// UseEnrich creates a processor that attempts optional enhancement.
// If the enrichment fails, the error is logged but processing continues
// with the original dispatch. Use for non-critical enhancements.
func UseEnrich[D, A any](name string, fn func(context.Context, *Dispatch[D, A]) (*Dispatch[D, A], error)) pipz.Chainable[*Dispatch[D, A]] {
	return pipz.Enrich(pipz.Name(name), fn)
}

// UseRateLimit creates a rate limiting processor.
// Uses a token bucket algorithm with the specified rate (dispatches per
// second) and burst size. When tokens are exhausted, dispatches wait for
// availability, holding the store's queue.
func UseRateLimit[D, A any](rate float64, burst int) pipz.Chainable[*Dispatch[D, A]] {
	return pipz.NewRateLimiter[*Dispatch[D, A]]("rate-limiter", rate, burst)
}
