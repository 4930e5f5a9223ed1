package fritz

import "github.com/zoobzio/capitan"

// Field keys for store, handler and mount events.
var (
	// KeyStoreID is the id of the store an event belongs to.
	KeyStoreID = capitan.NewStringKey("store_id")

	// KeyLensID is the id of the lens involved in a focus event.
	KeyLensID = capitan.NewStringKey("lens_id")

	// KeyHandler is the name of a handler.
	KeyHandler = capitan.NewStringKey("handler")

	// KeyState is the current state of a store.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyStage is the update stage that failed: focus, update or validate.
	KeyStage = capitan.NewStringKey("stage")

	// KeyDuration is how long an update took to apply.
	KeyDuration = capitan.NewDurationKey("duration")

	// KeyPatch is the rendered form of a patch.
	KeyPatch = capitan.NewStringKey("patch")

	// KeyCount counts affected elements or emitted events.
	KeyCount = capitan.NewIntKey("count")

	// KeySource names the source an action or payload came from.
	KeySource = capitan.NewStringKey("source")
)
