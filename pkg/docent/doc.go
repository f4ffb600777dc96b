// Package docent orchestrates one live voice conversation about an
// artwork. It owns the session lifecycle state machine:
//
//	idle → resolving → ready → connecting → connected → (ready | error)
//
// with error reachable from every non-idle state. The orchestrator resolves
// the artwork context, trades it for a single-use credential, dials the
// realtime transport, and injects the conversation context over the control
// channel in a fixed order: session configuration first, then the optional
// artwork image, then the initial response request.
//
// Exactly one session handle exists per orchestrator; Start refuses to open
// a second while one is connecting or connected, and Stop releases the
// transport, control channel, and microphone together on every exit path.
//
// The UI layer observes State, Err, and the Trace; it never touches the
// transport directly.
package docent
