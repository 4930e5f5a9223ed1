/*
Package fritz provides reactive state primitives for building UI-style
applications: stores that own immutable values, lenses that carve them into
focused sub-stores, differs that turn list changes into minimal patches, and
mount points that apply those patches to a live node tree.

# Stores

A RootStore owns a single value and serializes every change through one
worker goroutine. Updates are functions from the current value to the next;
they run one at a time, in submission order, and may suspend:

	counter := fritz.NewRootStore(0).Named("counter")
	if err := counter.Start(ctx); err != nil {
	    log.Fatal(err)
	}

	counter.Enqueue(ctx, func(ctx context.Context, n int) (int, error) {
	    return n + 1, nil
	})

Committed values fan out to any number of subscribers in commit order, with
consecutive duplicates suppressed:

	for n := range counter.Data(ctx) {
	    fmt.Println(n)
	}

A failed update keeps the previous value committed and moves the store to
Degraded; the store keeps accepting updates. Configure OnError to substitute
a different value, ErrorHistorySize to retain recent failures.

# Lenses and derived stores

A Lens focuses on part of a larger value, bidirectionally and without
mutation. Deriving a store through a lens yields a SubStore-like view whose
reads and writes funnel through the root's single critical section:

	user := fritz.Sub(app, fritz.NewLens("user",
	    func(m Model) User { return m.User },
	    func(m Model, u User) Model { m.User = u; return m },
	))

Lenses compose, and container lenses (IndexLens, KeyLens, ElementLens)
report missing focus as errors matching ErrFocusNotFound; an update through
a dangling focus is abandoned and the root keeps its value.

# Handlers

Handlers turn dispatched actions into store updates, optionally wrapped in
pipz middleware (retry, timeout, circuit breaking):

	add := fritz.Handle(todos, "add",
	    func(ctx context.Context, current []Todo, t Todo) ([]Todo, error) {
	        return append(current, t), nil
	    },
	    fritz.WithRetry[[]Todo, Todo](3),
	)
	add.Dispatch(ctx, Todo{Text: "write docs"})

HandleAndEmit builds handlers that publish follow-up events after a
successful commit; HandledBy and Pipe connect event streams back into
handlers.

# Diffing and mounting

DiffValues and DiffByID compare list snapshots and emit patches (Insert,
InsertMany, Delete, Move) that transform one into the other when applied in
order. DiffByID matches elements by stable identity, so reordering becomes
moves and rendered nodes survive with their state. Mount points apply value
streams and patch streams to a live node tree:

	list := fritz.NewElement("ul")
	fritz.BindChildrenByID(ctx, list, todos, Todo.Key, renderTodo)

The package is built on top of:
  - pipz: for composable handler pipelines
  - streamz: for channel-based action stream shaping
  - capitan: for signal-based observability
  - clockz: for injectable time in debounce and tickers
*/
package fritz
