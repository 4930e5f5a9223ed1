package fritz

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key store and mount events.
type MetricsProvider interface {
	// OnStateChange is called when a store transitions between states.
	OnStateChange(from, to State)

	// OnUpdate is called when an update has been applied and committed.
	// Duration is the time taken inside the critical section.
	OnUpdate(duration time.Duration)

	// OnUpdateFailure is called when an update fails at any stage.
	// Stage indicates where the failure occurred: "focus", "update", or "validate".
	OnUpdateFailure(stage string, duration time.Duration)

	// OnPatch is called for every patch a mount point applies to the tree.
	OnPatch(kind PatchKind)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)                  {}
func (NoOpMetricsProvider) OnUpdate(_ time.Duration)                  {}
func (NoOpMetricsProvider) OnUpdateFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnPatch(_ PatchKind)                       {}
