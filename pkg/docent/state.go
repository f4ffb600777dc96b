package docent

// State is the lifecycle state of the orchestrator, as observed by the UI
// layer.
type State string

const (
	// StateIdle is the initial state, before context resolution.
	StateIdle State = "idle"

	// StateResolving means the artwork context is being fetched.
	StateResolving State = "resolving"

	// StateReady means an artwork context is held and a conversation can
	// be started. Also the state after a call ends normally.
	StateReady State = "ready"

	// StateConnecting covers credential exchange, microphone acquisition,
	// and transport negotiation.
	StateConnecting State = "connecting"

	// StateConnected means the transport has confirmed the call is live.
	StateConnected State = "connected"

	// StateError is terminal for the current attempt. A new orchestrator
	// re-enters resolving.
	StateError State = "error"
)
