package fritz

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Source produces a typed stream of actions from an external origin: a file,
// a timer, a socket, another process. Connect a source to a handler with
// Feed, or shape it through a Pipe first.
type Source[A any] interface {
	// Events begins producing and returns the action channel. The channel
	// is closed when ctx is canceled or the origin ends.
	Events(ctx context.Context) (<-chan A, error)
}

// Feed opens the source and dispatches every action to the handler in
// arrival order. It blocks until the source closes or ctx ends.
func Feed[A any](ctx context.Context, src Source[A], h *Handler[A]) error {
	events, err := src.Events(ctx)
	if err != nil {
		return err
	}
	return HandledBy(ctx, events, h)
}

// ChannelSource wraps an existing action channel as a Source.
// Useful for testing and custom origins that already produce typed values.
type ChannelSource[A any] struct {
	ch   <-chan A
	sync bool
}

// NewChannelSource creates a ChannelSource that forwards values from the
// given channel through an internal goroutine.
func NewChannelSource[A any](ch <-chan A) *ChannelSource[A] {
	return &ChannelSource[A]{ch: ch}
}

// NewSyncChannelSource creates a ChannelSource that returns the source
// channel directly without an intermediate goroutine, for deterministic
// tests.
func NewSyncChannelSource[A any](ch <-chan A) *ChannelSource[A] {
	return &ChannelSource[A]{ch: ch, sync: true}
}

// Events returns a channel that emits values from the wrapped channel.
func (s *ChannelSource[A]) Events(ctx context.Context) (<-chan A, error) {
	if s.sync {
		return s.ch, nil
	}

	out := make(chan A)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-s.ch:
				if !ok {
					return
				}
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// TickerSource emits the value produced by fn on a fixed interval, for
// polling origins and periodic refresh actions.
type TickerSource[A any] struct {
	every time.Duration
	fn    func() A
	clock clockz.Clock
}

// NewTickerSource creates a TickerSource producing fn() every interval.
func NewTickerSource[A any](every time.Duration, fn func() A) *TickerSource[A] {
	return &TickerSource[A]{
		every: every,
		fn:    fn,
		clock: clockz.RealClock,
	}
}

// Clock sets a custom clock, for deterministic tests.
// Must be called before Events().
func (s *TickerSource[A]) Clock(clock clockz.Clock) *TickerSource[A] {
	s.clock = clock
	return s
}

// Events begins ticking. The first value is produced one interval after the
// call.
func (s *TickerSource[A]) Events(ctx context.Context) (<-chan A, error) {
	out := make(chan A)
	go func() {
		defer close(out)
		timer := s.clock.NewTimer(s.every)
		defer timer.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C():
				select {
				case out <- s.fn():
				case <-ctx.Done():
					return
				}
				timer.Reset(s.every)
			}
		}
	}()
	return out, nil
}

// FileSource watches a file and emits its decoded contents whenever it is
// written, plus once at start for the initial state. Payloads that fail to
// decode raise the SourceDecodeFailed signal and are skipped, so a malformed
// write never reaches the store tree.
type FileSource[A any] struct {
	path  string
	codec Codec
}

// NewFileSource creates a FileSource for the given path, decoding with
// JSONCodec by default.
func NewFileSource[A any](path string) *FileSource[A] {
	return &FileSource[A]{
		path:  path,
		codec: JSONCodec{},
	}
}

// Codec sets the codec used to decode file contents.
// Must be called before Events().
func (s *FileSource[A]) Codec(codec Codec) *FileSource[A] {
	s.codec = codec
	return s
}

// Events begins watching the file.
func (s *FileSource[A]) Events(ctx context.Context) (<-chan A, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(s.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch file %s: %w", s.path, err)
	}

	out := make(chan A)

	go func() {
		defer close(out)
		defer watcher.Close()

		// Emit initial contents
		s.emit(ctx, out)

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Only emit on write or create events
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !s.emit(ctx, out) {
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return out, nil
}

// emit reads, decodes and sends the file's current contents. It reports
// false when ctx ended during the send.
func (s *FileSource[A]) emit(ctx context.Context, out chan<- A) bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return true
	}

	var a A
	if err := s.codec.Unmarshal(data, &a); err != nil {
		capitan.Emit(ctx, SourceDecodeFailed,
			KeySource.Field(s.path),
			KeyError.Field(err.Error()),
		)
		return true
	}

	select {
	case out <- a:
		return true
	case <-ctx.Done():
		return false
	}
}
