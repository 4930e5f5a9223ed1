package fritz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/pipz"
)

func TestHandle_DispatchAppliesAction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(0).Named("counter")
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	inc := Handle(counter, "inc", func(_ context.Context, current int, by int) (int, error) {
		return current + by, nil
	})
	if inc.Name() != "inc" {
		t.Errorf("expected handler name %q, got %q", "inc", inc.Name())
	}

	if err := inc.Dispatch(ctx, 5); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	cur, _ := counter.Current()
	if cur != 5 {
		t.Errorf("expected 5 after dispatch, got %d", cur)
	}
}

func TestHandle_SequentialDispatchesSeeCommittedValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(0)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	add := Handle(counter, "add", func(_ context.Context, current int, by int) (int, error) {
		return current + by, nil
	})
	for _, by := range []int{1, 2, 3} {
		if err := add.Dispatch(ctx, by); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
	}
	mustSettle(t, counter)

	cur, _ := counter.Current()
	if cur != 6 {
		t.Errorf("expected each dispatch to see its predecessor, got %d", cur)
	}
}

func TestHandle_RepeatedDispatchesAccumulate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(0)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	inc := Handle(counter, "inc", func(_ context.Context, current int, _ struct{}) (int, error) {
		return current + 1, nil
	})
	for i := 0; i < 3; i++ {
		if err := inc.Dispatch(ctx, struct{}{}); err != nil {
			t.Fatalf("Dispatch failed: %v", err)
		}
	}
	mustSettle(t, counter)

	cur, _ := counter.Current()
	if cur != 3 {
		t.Errorf("expected 3 after three increments, got %d", cur)
	}
}

func TestHandle_ErrorKeepsPreviousValue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(10)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	boom := errors.New("boom")
	failing := Handle(counter, "failing", func(_ context.Context, current int, _ int) (int, error) {
		return 0, boom
	})
	if err := failing.Dispatch(ctx, 1); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	cur, _ := counter.Current()
	if cur != 10 {
		t.Errorf("expected previous value kept, got %d", cur)
	}
	if counter.State() != StateDegraded {
		t.Errorf("expected degraded after failed dispatch, got %s", counter.State())
	}
	if !errors.Is(counter.LastError(), boom) {
		t.Errorf("expected dispatch error recorded, got %v", counter.LastError())
	}
}

func TestHandle_WithRetry_RetriesOnFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(10)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var attempts int
	var seen []int
	flaky := Handle(counter, "flaky",
		func(_ context.Context, current int, by int) (int, error) {
			attempts++
			seen = append(seen, current)
			if attempts < 3 {
				return 0, errors.New("transient failure")
			}
			return current + by, nil
		},
		WithRetry[int, int](3),
	)

	if err := flaky.Dispatch(ctx, 1); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	// Every retry runs against the same previous value.
	for _, prev := range seen {
		if prev != 10 {
			t.Errorf("expected retries to see previous value 10, got %v", seen)
			break
		}
	}
	cur, _ := counter.Current()
	if cur != 11 {
		t.Errorf("expected success after retries, got %d", cur)
	}
	if counter.State() != StateHealthy {
		t.Errorf("expected healthy, got %s", counter.State())
	}
}

func TestHandle_WithRetry_ExhaustsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(10)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var attempts int
	failing := Handle(counter, "failing",
		func(_ context.Context, current int, _ int) (int, error) {
			attempts++
			return 0, errors.New("persistent failure")
		},
		WithRetry[int, int](3),
	)

	if err := failing.Dispatch(ctx, 1); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	cur, _ := counter.Current()
	if cur != 10 {
		t.Errorf("expected previous value kept after exhausted retries, got %d", cur)
	}
	if counter.State() != StateDegraded {
		t.Errorf("expected degraded, got %s", counter.State())
	}
}

func TestHandle_WithTimeout_EnforcesDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(10)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	slow := Handle(counter, "slow",
		func(ctx context.Context, current int, _ int) (int, error) {
			select {
			case <-time.After(1 * time.Second):
				return current + 1, nil
			case <-ctx.Done():
				return current, ctx.Err()
			}
		},
		WithTimeout[int, int](50*time.Millisecond),
	)

	if err := slow.Dispatch(ctx, 1); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	cur, _ := counter.Current()
	if cur != 10 {
		t.Errorf("expected previous value kept after timeout, got %d", cur)
	}
	if counter.LastError() == nil {
		t.Error("expected timeout recorded")
	}
}

func TestHandle_WithFilter_SkipsFilteredDispatches(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(0)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var applied int
	onlyPositive := Handle(counter, "add",
		func(_ context.Context, current int, by int) (int, error) {
			applied++
			return current + by, nil
		},
		WithFilter[int, int]("only-positive", func(_ context.Context, d *Dispatch[int, int]) bool {
			return d.Action > 0
		}),
	)

	if err := onlyPositive.Dispatch(ctx, -5); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if err := onlyPositive.Dispatch(ctx, 3); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	if applied != 1 {
		t.Errorf("expected the filtered dispatch skipped, got %d applications", applied)
	}
	cur, _ := counter.Current()
	if cur != 3 {
		t.Errorf("expected 3, got %d", cur)
	}
	// A skipped dispatch is not a failure.
	if counter.State() != StateHealthy {
		t.Errorf("expected healthy, got %s", counter.State())
	}
}

func TestHandle_WithMiddleware_TransformsDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(0)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	set := Handle(counter, "set",
		func(_ context.Context, _ int, action int) (int, error) {
			return action, nil
		},
		WithMiddleware(
			UseTransform[int, int]("double", func(_ context.Context, d *Dispatch[int, int]) *Dispatch[int, int] {
				d.Action *= 2
				return d
			}),
		),
	)

	if err := set.Dispatch(ctx, 21); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	cur, _ := counter.Current()
	if cur != 42 {
		t.Errorf("expected transformed action 42, got %d", cur)
	}
}

func TestHandle_WithMiddleware_ProcessorsExecuteInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(0)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// double first, then triple: double(7) = 14, triple(14) = 42
	set := Handle(counter, "set",
		func(_ context.Context, _ int, action int) (int, error) {
			return action, nil
		},
		WithMiddleware(
			UseTransform[int, int]("double", func(_ context.Context, d *Dispatch[int, int]) *Dispatch[int, int] {
				d.Action *= 2
				return d
			}),
			UseTransform[int, int]("triple", func(_ context.Context, d *Dispatch[int, int]) *Dispatch[int, int] {
				d.Action *= 3
				return d
			}),
		),
	)

	if err := set.Dispatch(ctx, 7); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	cur, _ := counter.Current()
	if cur != 42 {
		t.Errorf("expected transformed action 42, got %d", cur)
	}
}

func TestHandle_WithMiddleware_EffectObservesDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(10)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	type observation struct {
		previous int
		action   int
	}
	observed := make(chan observation, 1)

	add := Handle(counter, "add",
		func(_ context.Context, current int, by int) (int, error) {
			return current + by, nil
		},
		WithMiddleware(
			UseEffect[int, int]("audit", func(_ context.Context, d *Dispatch[int, int]) error {
				observed <- observation{previous: d.Previous, action: d.Action}
				return nil
			}),
		),
	)

	if err := add.Dispatch(ctx, 5); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	obs := recv(t, observed)
	if obs.previous != 10 || obs.action != 5 {
		t.Errorf("expected effect to see previous 10 and action 5, got %+v", obs)
	}
	cur, _ := counter.Current()
	if cur != 15 {
		t.Errorf("expected effect to leave the dispatch unchanged, got %d", cur)
	}
}

func TestHandle_WithErrorObserver_SeesFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(10)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	observed := make(chan error, 1)
	observer := pipz.Effect(pipz.Name("observe"), func(_ context.Context, pe *pipz.Error[*Dispatch[int, int]]) error {
		observed <- pe.Err
		return nil
	})

	boom := errors.New("boom")
	failing := Handle(counter, "failing",
		func(_ context.Context, current int, _ int) (int, error) {
			return 0, boom
		},
		WithErrorObserver[int, int](observer),
	)

	if err := failing.Dispatch(ctx, 1); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, counter)

	if err := recv(t, observed); !errors.Is(err, boom) {
		t.Errorf("expected observer to see the failure, got %v", err)
	}
	// Observation does not swallow the failure.
	cur, _ := counter.Current()
	if cur != 10 {
		t.Errorf("expected previous value kept, got %d", cur)
	}
	if counter.State() != StateDegraded {
		t.Errorf("expected degraded, got %s", counter.State())
	}
}

func TestHandleAndEmit_PublishesAfterSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	todos := NewRootStore[[]string](nil)
	if err := todos.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	save := HandleAndEmit(todos, "save",
		func(_ context.Context, current []string, item string, emit func(string)) ([]string, error) {
			emit("saved:" + item)
			return append(append([]string(nil), current...), item), nil
		},
	)

	events := save.Events(ctx)
	if err := save.Dispatch(ctx, "milk"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, todos)

	if got := recv(t, events); got != "saved:milk" {
		t.Errorf("expected follow-up event, got %q", got)
	}
	cur, _ := todos.Current()
	if !equalSlices(cur, []string{"milk"}) {
		t.Errorf("expected item committed, got %v", cur)
	}
}

func TestHandleAndEmit_FailedDispatchEmitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	todos := NewRootStore[[]string](nil)
	if err := todos.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	save := HandleAndEmit(todos, "save",
		func(_ context.Context, current []string, item string, emit func(string)) ([]string, error) {
			emit("saved:" + item)
			return nil, errors.New("boom")
		},
	)

	events := save.Events(ctx)
	if err := save.Dispatch(ctx, "milk"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, todos)

	expectNoValue(t, events)
}

func TestHandleAndEmit_RetriedAttemptsDoNotDuplicate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	todos := NewRootStore[[]string](nil)
	if err := todos.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var attempts int
	save := HandleAndEmit(todos, "save",
		func(_ context.Context, current []string, item string, emit func(string)) ([]string, error) {
			attempts++
			emit("saved:" + item)
			if attempts < 3 {
				return nil, errors.New("transient failure")
			}
			return append(append([]string(nil), current...), item), nil
		},
		WithRetry[[]string, string](3),
	)

	events := save.Events(ctx)
	if err := save.Dispatch(ctx, "milk"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, todos)

	if got := recv(t, events); got != "saved:milk" {
		t.Errorf("expected single event, got %q", got)
	}
	expectNoValue(t, events)
}

func TestHandleAndEmit_LateSubscriberMissesEarlierEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	todos := NewRootStore[[]string](nil)
	if err := todos.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	save := HandleAndEmit(todos, "save",
		func(_ context.Context, current []string, item string, emit func(string)) ([]string, error) {
			emit("saved:" + item)
			return append(append([]string(nil), current...), item), nil
		},
	)

	if err := save.Dispatch(ctx, "milk"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	mustSettle(t, todos)

	// Events are not replayed to late subscribers.
	events := save.Events(ctx)
	expectNoValue(t, events)
}

func TestHandledBy_ChainsHandlersAcrossStores(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	todos := NewRootStore[[]string](nil)
	if err := todos.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	saveCount := NewRootStore(0)
	if err := saveCount.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	save := HandleAndEmit(todos, "save",
		func(_ context.Context, current []string, item string, emit func(string)) ([]string, error) {
			emit(item)
			return append(append([]string(nil), current...), item), nil
		},
	)
	count := Handle(saveCount, "count", func(_ context.Context, current int, _ string) (int, error) {
		return current + 1, nil
	})

	go HandledBy(ctx, save.Events(ctx), count)

	counts := saveCount.Data(ctx)
	if got := recv(t, counts); got != 0 {
		t.Fatalf("expected seed 0, got %d", got)
	}

	if err := save.Dispatch(ctx, "milk"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got := recv(t, counts); got != 1 {
		t.Errorf("expected chained handler to run, got %d", got)
	}
}

func TestHandledBy_ReturnsWhenStreamCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	counter := NewRootStore(0)
	if err := counter.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	inc := Handle(counter, "inc", func(_ context.Context, current int, _ struct{}) (int, error) {
		return current + 1, nil
	})

	events := make(chan struct{})
	close(events)
	if err := HandledBy(ctx, events, inc); err != nil {
		t.Errorf("expected nil on closed stream, got %v", err)
	}
}
