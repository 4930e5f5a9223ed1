package fritz

import "github.com/zoobzio/capitan"

// Store lifecycle signals.
var (
	// StoreStarted is emitted when a root store's worker begins serving.
	StoreStarted = capitan.NewSignal(
		"fritz.store.started",
		"Store worker started",
	)

	// StoreStopped is emitted when a root store's scope ends and the worker
	// shuts down.
	StoreStopped = capitan.NewSignal(
		"fritz.store.stopped",
		"Store worker stopped",
	)

	// StoreStateChanged is emitted when a store transitions between states.
	StoreStateChanged = capitan.NewSignal(
		"fritz.store.state.changed",
		"Store state transition",
	)
)

// Update processing signals.
var (
	// StoreUpdated is emitted after an update has been applied and committed.
	StoreUpdated = capitan.NewSignal(
		"fritz.store.updated",
		"Update applied and committed",
	)

	// StoreUpdateFailed is emitted when an update computation returns an
	// error or panics.
	StoreUpdateFailed = capitan.NewSignal(
		"fritz.store.update.failed",
		"Update computation failed",
	)

	// StoreUpdateRejected is emitted when a computed value fails validation
	// and is not committed.
	StoreUpdateRejected = capitan.NewSignal(
		"fritz.store.update.rejected",
		"Computed value failed validation",
	)

	// StoreFocusDropped is emitted when a lens cannot focus into the current
	// value and the affected update or emission is abandoned.
	StoreFocusDropped = capitan.NewSignal(
		"fritz.store.focus.dropped",
		"Lens focus missing",
	)
)

// Handler signals.
var (
	// HandlerEmitted is emitted when a handler publishes follow-up events
	// after a successful dispatch.
	HandlerEmitted = capitan.NewSignal(
		"fritz.handler.emitted",
		"Handler published follow-up events",
	)
)

// Differ signals.
var (
	// DiffEmitted is emitted once per diffed snapshot that produced patches,
	// after they have all been sent downstream.
	DiffEmitted = capitan.NewSignal(
		"fritz.diff.emitted",
		"Snapshot diffed into patches",
	)
)

// Mount point signals.
var (
	// MountAttached is emitted when a mount point claims its region under a
	// target node.
	MountAttached = capitan.NewSignal(
		"fritz.mount.attached",
		"Mount point attached",
	)

	// MountDetached is emitted when a mount point's subscription ends. The
	// mounted nodes stay in the tree.
	MountDetached = capitan.NewSignal(
		"fritz.mount.detached",
		"Mount point detached",
	)

	// MountPatchClamped is emitted when a patch addressed positions outside
	// the mounted region and had to be clamped.
	MountPatchClamped = capitan.NewSignal(
		"fritz.mount.patch.clamped",
		"Patch exceeded mounted region",
	)
)

// Source signals.
var (
	// SourceDecodeFailed is emitted when a source cannot decode a raw change
	// into an action.
	SourceDecodeFailed = capitan.NewSignal(
		"fritz.source.decode.failed",
		"Source payload decode failed",
	)
)
