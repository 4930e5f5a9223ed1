package fritz

import (
	"context"
	"fmt"
	"sync"

	"github.com/zoobzio/capitan"
)

// SingleMount renders a stream of values into one position under a target
// node. The first value appends its rendering; every later value replaces
// the previous rendering in place, so from the first emission on, exactly
// one subtree occupies the position.
//
// Create with MountOne, configure with chainable methods, then Start. When
// the mount's context ends it only releases its subscription; the last
// rendered subtree stays in the tree. Removal is its owner's concern.
type SingleMount[T any] struct {
	target  Node
	data    <-chan T
	render  func(T) Node
	metrics MetricsProvider

	mu      sync.Mutex
	started bool

	// last is only touched by the mount's goroutine.
	last Node
}

// MountOne creates a single-value mount rendering data under target.
//
// Example:
//
//	view := fritz.NewElement("section")
//	m := fritz.MountOne(view, store.Data(ctx), renderModel)
//	if err := m.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
func MountOne[T any](target Node, data <-chan T, render func(T) Node) *SingleMount[T] {
	return &SingleMount[T]{
		target: target,
		data:   data,
		render: render,
	}
}

// Metrics sets a metrics provider. Must be called before Start().
func (m *SingleMount[T]) Metrics(provider MetricsProvider) *SingleMount[T] {
	m.metrics = provider
	return m
}

// Start attaches the mount and begins consuming the stream. The mount lives
// until ctx ends or the stream closes. Start can only be called once.
func (m *SingleMount[T]) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("mount already started")
	}
	m.started = true
	m.mu.Unlock()

	capitan.Emit(ctx, MountAttached)
	go m.run(ctx)
	return nil
}

func (m *SingleMount[T]) run(ctx context.Context) {
	defer capitan.Emit(ctx, MountDetached)

	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-m.data:
			if !ok {
				return
			}
			m.place(m.render(v))
		}
	}
}

// place swaps the previous rendering for node. If the previous rendering was
// removed externally, the mount appends afresh.
func (m *SingleMount[T]) place(node Node) {
	switch {
	case m.last == nil:
		m.target.Insert(m.target.Len(), node)
	default:
		if i := m.target.Index(m.last); i >= 0 {
			m.target.Replace(i, node)
		} else {
			m.target.Insert(m.target.Len(), node)
		}
	}
	m.last = node
}

// PatchMount renders a stream of list patches into a region under a target
// node. The region starts empty at the end of the children present at attach
// time; every patch is applied to the live children at the region's offset,
// mirroring Patch.ApplyTo semantics. Children outside the region are never
// touched.
//
// Patches addressing positions outside the region are clamped to its bounds;
// each clamp raises the MountPatchClamped signal and, when set, the clamp
// hook. Clamping keeps the tree consistent but signals a bug between differ
// and mount, so tests should install a hook that fails on it.
type PatchMount[T any] struct {
	target  Node
	patches <-chan Patch[T]
	render  func(T) Node
	metrics MetricsProvider
	onClamp func(Patch[T])

	mu      sync.Mutex
	started bool

	// base and length delimit the mounted region; only the mount's
	// goroutine touches length.
	base   int
	length int
}

// MountSeq creates a patch mount rendering list patches under target.
// Combine with Diffed or DiffedByID to mount a list store:
//
//	list := fritz.NewElement("ul")
//	m := fritz.MountSeq(list, fritz.DiffedByID(ctx, todos.Data(ctx), Todo.Key), renderTodo)
//	if err := m.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
func MountSeq[T any](target Node, patches <-chan Patch[T], render func(T) Node) *PatchMount[T] {
	return &PatchMount[T]{
		target:  target,
		patches: patches,
		render:  render,
	}
}

// Metrics sets a metrics provider; it receives OnPatch for every applied
// patch. Must be called before Start().
func (m *PatchMount[T]) Metrics(provider MetricsProvider) *PatchMount[T] {
	m.metrics = provider
	return m
}

// ClampHook sets a hook invoked with every patch that had to be clamped.
// Must be called before Start().
func (m *PatchMount[T]) ClampHook(fn func(Patch[T])) *PatchMount[T] {
	m.onClamp = fn
	return m
}

// Len returns the current number of children in the mounted region.
func (m *PatchMount[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.length
}

// Start claims the region after the children currently present and begins
// consuming patches. The mount lives until ctx ends or the stream closes.
// Start can only be called once.
func (m *PatchMount[T]) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return fmt.Errorf("mount already started")
	}
	m.started = true
	m.base = m.target.Len()
	m.mu.Unlock()

	capitan.Emit(ctx, MountAttached)
	go m.run(ctx)
	return nil
}

func (m *PatchMount[T]) run(ctx context.Context) {
	defer capitan.Emit(ctx, MountDetached)

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-m.patches:
			if !ok {
				return
			}
			m.apply(ctx, p)
		}
	}
}

// apply performs one patch against the live region.
func (m *PatchMount[T]) apply(ctx context.Context, p Patch[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()

	clamped := false
	switch p.Kind {
	case PatchInsert:
		at := p.Index
		if at < 0 || at > m.length {
			at = clampIndex(at, m.length)
			clamped = true
		}
		m.target.Insert(m.base+at, m.render(p.Element))
		m.length++

	case PatchInsertMany:
		if len(p.Elements) == 0 {
			return
		}
		at := p.Index
		if at < 0 || at > m.length {
			at = clampIndex(at, m.length)
			clamped = true
		}
		nodes := make([]Node, len(p.Elements))
		for i, el := range p.Elements {
			nodes[i] = m.render(el)
		}
		m.target.Insert(m.base+at, nodes...)
		m.length += len(nodes)

	case PatchDelete:
		start, count := clampSpan(p.Start, p.Count, m.length)
		if start != p.Start || count != p.Count {
			clamped = true
		}
		removed := m.target.Remove(m.base+start, count)
		m.length -= removed

	case PatchMove:
		if m.length == 0 {
			clamped = true
			break
		}
		if p.From < 0 || p.From >= m.length || p.To < 0 || p.To >= m.length {
			clamped = true
		}
		from := clampIndex(p.From, m.length-1)
		to := clampIndex(p.To, m.length-1)
		m.target.Move(m.base+from, m.base+to)
	}

	if m.metrics != nil {
		m.metrics.OnPatch(p.Kind)
	}
	if clamped {
		capitan.Emit(ctx, MountPatchClamped,
			KeyPatch.Field(p.String()),
			KeyCount.Field(m.length),
		)
		if m.onClamp != nil {
			m.onClamp(p)
		}
	}
}
