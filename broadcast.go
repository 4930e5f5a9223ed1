package fritz

import (
	"context"
	"sync"
)

// broadcaster fans committed values out to any number of subscribers without
// loss or reordering. Every subscriber owns an in-order queue that is fed
// under the registry lock and drained by a dedicated pump goroutine, so a
// slow consumer backs up its own queue instead of blocking the store worker
// or its sibling subscribers. When an equality function is set, consecutive
// duplicates are suppressed per subscriber.
type broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[*subscriber[T]]struct{}
	eq     func(a, b T) bool
	done   chan struct{}
	closed bool
}

type subscriber[T any] struct {
	mu    sync.Mutex
	queue []T
	wake  chan struct{}
	out   chan T
}

// newBroadcaster creates an empty broadcaster. eq may be nil, in which case
// every published value is delivered, duplicates included.
func newBroadcaster[T any](eq func(a, b T) bool) *broadcaster[T] {
	return &broadcaster[T]{
		subs: make(map[*subscriber[T]]struct{}),
		eq:   eq,
		done: make(chan struct{}),
	}
}

// subscribe registers a consumer and returns its delivery channel. seed, when
// non-nil, supplies values queued ahead of any later publication; it runs
// under the registry lock, so no publication is lost or seen twice around the
// subscription boundary. The channel closes when ctx is canceled or the
// broadcaster shuts down.
func (b *broadcaster[T]) subscribe(ctx context.Context, seed func() []T) <-chan T {
	sub := &subscriber[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(sub.out)
		return sub.out
	}
	if seed != nil {
		sub.queue = append(sub.queue, seed()...)
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go b.pump(ctx, sub)
	return sub.out
}

// publish appends v to every subscriber queue, preserving commit order across
// subscribers.
func (b *broadcaster[T]) publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		sub.push(v)
	}
}

// close ends every subscription and closes their delivery channels. Values
// still queued are dropped.
func (b *broadcaster[T]) close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.done)
}

func (b *broadcaster[T]) remove(sub *subscriber[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// pump delivers one subscriber's queue in order until the subscriber's
// context or the broadcaster ends.
func (b *broadcaster[T]) pump(ctx context.Context, sub *subscriber[T]) {
	defer func() {
		b.remove(sub)
		close(sub.out)
	}()

	var last T
	delivered := false
	for {
		for _, v := range sub.drain() {
			if delivered && b.eq != nil && b.eq(last, v) {
				continue
			}
			select {
			case sub.out <- v:
				last = v
				delivered = true
			case <-ctx.Done():
				return
			case <-b.done:
				return
			}
		}
		select {
		case <-sub.wake:
		case <-ctx.Done():
			return
		case <-b.done:
			return
		}
	}
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	s.queue = append(s.queue, v)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) drain() []T {
	s.mu.Lock()
	q := s.queue
	s.queue = nil
	s.mu.Unlock()
	return q
}
