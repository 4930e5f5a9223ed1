package fritz

import (
	"sync"
	"time"
)

// UpdateFailure records one failed update, for inspection through
// RootStore.ErrorHistory.
type UpdateFailure struct {
	// StoreID is the store the update ran on.
	StoreID string
	// Stage is where the failure occurred: "focus", "update" or "validate".
	Stage string
	// Err is the failure itself.
	Err error
	// At is when the failure was recorded.
	At time.Time
}

// updateLog is a thread-safe ring buffer for storing recent update failures.
type updateLog struct {
	mu       sync.RWMutex
	failures []UpdateFailure
	size     int
	head     int
	count    int
}

// newUpdateLog creates a new failure ring buffer with the given capacity.
// If size is 0, the buffer is disabled.
func newUpdateLog(size int) *updateLog {
	if size <= 0 {
		return nil
	}
	return &updateLog{
		failures: make([]UpdateFailure, size),
		size:     size,
	}
}

// push adds a failure to the ring buffer.
func (l *updateLog) push(f UpdateFailure) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures[l.head] = f
	l.head = (l.head + 1) % l.size
	if l.count < l.size {
		l.count++
	}
}

// clear removes all failures from the ring buffer.
func (l *updateLog) clear() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.failures {
		l.failures[i] = UpdateFailure{}
	}
	l.head = 0
	l.count = 0
}

// all returns all recorded failures, oldest first.
func (l *updateLog) all() []UpdateFailure {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.count == 0 {
		return nil
	}

	result := make([]UpdateFailure, l.count)
	start := (l.head - l.count + l.size) % l.size
	for i := 0; i < l.count; i++ {
		result[i] = l.failures[(start+i)%l.size]
	}
	return result
}
