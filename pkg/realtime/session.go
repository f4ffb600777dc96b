package realtime

import "iter"

// ConnectionState describes the transport-level state of a session. The
// handshake completing is not the same as the call being up: only
// StateConnected means media and control are flowing.
type ConnectionState string

const (
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateDisconnected ConnectionState = "disconnected"
	StateFailed       ConnectionState = "failed"
	StateClosed       ConnectionState = "closed"
)

// Session is the common surface of realtime sessions. Both the WebRTC and
// WebSocket implementations satisfy it.
type Session interface {
	// Opened is closed once the control channel is open. No control
	// message may be sent before then.
	Opened() <-chan struct{}

	// ConnectionStates delivers transport state transitions in order.
	// The channel is closed when the session is closed.
	ConnectionStates() <-chan ConnectionState

	// Events returns an iterator over server events. Iteration ends when
	// the session closes; a yielded error is an in-band error event.
	Events() iter.Seq2[*ServerEvent, error]

	// UpdateSession sends the session configuration. Call it first, before
	// any conversation item or response request.
	UpdateSession(config *SessionConfig) error

	// AddUserMessage adds a user text message to the conversation.
	AddUserMessage(text string) error

	// AddUserImage adds a user message whose content is an ordered pair of
	// blocks: a short framing text, then an image (https or data URL).
	AddUserImage(text, imageURL string) error

	// AppendAudio appends PCM16 mono 24kHz audio to the input buffer.
	// The audio is base64 encoded before sending.
	AppendAudio(audio []byte) error

	// CommitInput commits the input audio buffer as a user turn.
	CommitInput() error

	// ClearInput discards the uncommitted input audio buffer.
	ClearInput() error

	// CreateResponse asks the model to produce a turn. Pass nil for
	// defaults.
	CreateResponse(opts *ResponseCreateOptions) error

	// CancelResponse cancels the in-flight response, if any.
	CancelResponse() error

	// SendRaw sends a raw JSON control event.
	SendRaw(event map[string]interface{}) error

	// Close tears the session down: control channel, transport, and any
	// local media are released together. Idempotent.
	Close() error

	// SessionID returns the server-assigned session ID, or "" before
	// session.created is seen.
	SessionID() string
}
