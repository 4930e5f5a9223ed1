package fritz

// State represents the current state of a RootStore.
type State int32

const (
	// StateIdle indicates the store still holds its initial value and has not
	// yet applied any update.
	StateIdle State = iota

	// StateHealthy indicates the last update was applied and committed.
	StateHealthy

	// StateDegraded indicates the last update failed. The previously
	// committed value (or whatever the error handler substituted) remains
	// current, and the store keeps accepting updates.
	StateDegraded
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
