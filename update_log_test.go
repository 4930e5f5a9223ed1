package fritz

import (
	"errors"
	"testing"
	"time"
)

func failureNamed(msg string) UpdateFailure {
	return UpdateFailure{StoreID: "test", Stage: "update", Err: errors.New(msg), At: time.Now()}
}

func TestUpdateLog_NilSafe(t *testing.T) {
	var l *updateLog

	// All operations should be safe on nil
	l.push(failureNamed("test"))
	l.clear()

	if l.all() != nil {
		t.Error("expected nil from nil log")
	}
}

func TestUpdateLog_ZeroSize(t *testing.T) {
	l := newUpdateLog(0)
	if l != nil {
		t.Error("expected nil log for size 0")
	}
}

func TestUpdateLog_NegativeSize(t *testing.T) {
	l := newUpdateLog(-1)
	if l != nil {
		t.Error("expected nil log for negative size")
	}
}

func TestUpdateLog_SingleFailure(t *testing.T) {
	l := newUpdateLog(3)

	l.push(failureNamed("failure1"))

	failures := l.all()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].Err.Error() != "failure1" {
		t.Error("expected same failure back")
	}
}

func TestUpdateLog_FillsWithoutWrapping(t *testing.T) {
	l := newUpdateLog(3)

	l.push(failureNamed("failure1"))
	l.push(failureNamed("failure2"))
	l.push(failureNamed("failure3"))

	failures := l.all()
	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(failures))
	}

	// Oldest first
	if failures[0].Err.Error() != "failure1" {
		t.Error("expected failure1 first")
	}
	if failures[1].Err.Error() != "failure2" {
		t.Error("expected failure2 second")
	}
	if failures[2].Err.Error() != "failure3" {
		t.Error("expected failure3 third")
	}
}

func TestUpdateLog_WrapsAndEvictsOldest(t *testing.T) {
	l := newUpdateLog(3)

	l.push(failureNamed("failure1"))
	l.push(failureNamed("failure2"))
	l.push(failureNamed("failure3"))
	l.push(failureNamed("failure4")) // Should evict failure1

	failures := l.all()
	if len(failures) != 3 {
		t.Fatalf("expected 3 failures, got %d", len(failures))
	}

	// failure1 should be gone, oldest is now failure2
	if failures[0].Err.Error() != "failure2" {
		t.Error("expected failure2 first after wrap")
	}
	if failures[1].Err.Error() != "failure3" {
		t.Error("expected failure3 second")
	}
	if failures[2].Err.Error() != "failure4" {
		t.Error("expected failure4 third")
	}
}

func TestUpdateLog_MultipleWraps(t *testing.T) {
	l := newUpdateLog(2)

	for i := 0; i < 10; i++ {
		l.push(failureNamed("failure"))
	}

	failures := l.all()
	if len(failures) != 2 {
		t.Errorf("expected 2 failures after multiple wraps, got %d", len(failures))
	}
}

func TestUpdateLog_Clear(t *testing.T) {
	l := newUpdateLog(3)

	l.push(failureNamed("failure1"))
	l.push(failureNamed("failure2"))

	l.clear()

	failures := l.all()
	if failures != nil {
		t.Errorf("expected nil after clear, got %v", failures)
	}
}

func TestUpdateLog_ClearThenPush(t *testing.T) {
	l := newUpdateLog(3)

	l.push(failureNamed("failure1"))
	l.push(failureNamed("failure2"))
	l.clear()

	l.push(failureNamed("fresh failure"))

	failures := l.all()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure after clear+push, got %d", len(failures))
	}
	if failures[0].Err.Error() != "fresh failure" {
		t.Error("expected the fresh failure")
	}
}

func TestUpdateLog_EmptyAll(t *testing.T) {
	l := newUpdateLog(3)

	failures := l.all()
	if failures != nil {
		t.Errorf("expected nil for empty log, got %v", failures)
	}
}

func TestUpdateLog_SizeOne(t *testing.T) {
	l := newUpdateLog(1)

	l.push(failureNamed("failure1"))
	failures := l.all()
	if len(failures) != 1 || failures[0].Err.Error() != "failure1" {
		t.Error("expected failure1")
	}

	l.push(failureNamed("failure2"))
	failures = l.all()
	if len(failures) != 1 || failures[0].Err.Error() != "failure2" {
		t.Error("expected failure2 to replace failure1")
	}
}
