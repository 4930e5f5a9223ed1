package fritz

import (
	"context"
	"fmt"

	"github.com/zoobzio/streamz"
)

// ErrorStrategy defines how a Pipe reacts to failed dispatches.
type ErrorStrategy string

const (
	// ErrorContinue continues processing after errors (default)
	ErrorContinue ErrorStrategy = "continue"
	// ErrorStop stops processing on first error
	ErrorStop ErrorStrategy = "stop"
	// ErrorChannel sends errors to the error channel and continues
	ErrorChannel ErrorStrategy = "channel"
)

// Pipe funnels a continuous action stream into a handler, with optional
// stream-level shaping applied before dispatch. It is the glue between
// outside event sources (sockets, tickers, file watchers) and a store's
// handlers.
//
// Example:
//
//	pipe := fritz.NewPipe[Reading]("sensor").
//	    WithBuffer(256).
//	    WithFilter(func(r Reading) bool { return r.Valid() })
//
//	go func() {
//	    if err := pipe.Run(ctx, readings, record); err != nil {
//	        log.Printf("sensor pipe stopped: %v", err)
//	    }
//	}()
type Pipe[A any] struct {
	name          string
	pipeline      []streamz.Processor[A, A]
	errorStrategy ErrorStrategy
	errorChan     chan error
}

// NewPipe creates a pipe with the given name and default error strategy
// ErrorContinue.
func NewPipe[A any](name string) *Pipe[A] {
	return &Pipe[A]{
		name:          name,
		pipeline:      []streamz.Processor[A, A]{},
		errorStrategy: ErrorContinue,
	}
}

// WithThrottle adds stream-level rate limiting, smoothing bursts before
// actions reach the handler. It is separate from any retry or timeout
// middleware configured on the handler itself.
func (p *Pipe[A]) WithThrottle(actionsPerSecond float64) *Pipe[A] {
	p.pipeline = append(p.pipeline, streamz.NewThrottle[A](actionsPerSecond, streamz.RealClock))
	return p
}

// WithBuffer adds buffering so bursts queue instead of backing up the
// source.
func (p *Pipe[A]) WithBuffer(size int) *Pipe[A] {
	p.pipeline = append(p.pipeline, streamz.NewBuffer[A](size))
	return p
}

// WithFilter drops actions the predicate rejects before they reach the
// handler.
func (p *Pipe[A]) WithFilter(predicate func(A) bool) *Pipe[A] {
	p.pipeline = append(p.pipeline, streamz.NewFilter[A](predicate))
	return p
}

// WithErrorStrategy sets how the pipe handles dispatch errors.
//
// Available strategies:
//   - ErrorContinue: keep processing (default)
//   - ErrorStop: stop on the first error
//   - ErrorChannel: send errors to Errors() and continue
func (p *Pipe[A]) WithErrorStrategy(strategy ErrorStrategy) *Pipe[A] {
	p.errorStrategy = strategy
	if strategy == ErrorChannel && p.errorChan == nil {
		p.errorChan = make(chan error, 100)
	}
	return p
}

// Errors returns the error channel when using the ErrorChannel strategy,
// nil otherwise. The channel closes when the pipe stops.
func (p *Pipe[A]) Errors() <-chan error {
	return p.errorChan
}

// Name returns the pipe's name.
func (p *Pipe[A]) Name() string {
	return p.name
}

// Run shapes the action stream through the configured processors and
// dispatches every surviving action to the handler, in order. It blocks
// until the input closes or ctx ends, so it is typically run in its own
// goroutine.
func (p *Pipe[A]) Run(ctx context.Context, actions <-chan A, h *Handler[A]) error {
	current := actions
	for _, proc := range p.pipeline {
		current = proc.Process(ctx, current)
	}

	defer func() {
		if p.errorStrategy == ErrorChannel && p.errorChan != nil {
			close(p.errorChan)
		}
	}()

	for action := range current {
		select {
		case <-ctx.Done():
			return fmt.Errorf("pipe %q canceled: %w", p.name, ctx.Err())
		default:
		}

		if err := h.Dispatch(ctx, action); err != nil {
			switch p.errorStrategy {
			case ErrorStop:
				return fmt.Errorf("pipe %q stopped: %w", p.name, err)
			case ErrorChannel:
				select {
				case p.errorChan <- err:
				default:
					// Channel full, drop error
				}
			case ErrorContinue:
			}
		}
	}
	return nil
}
