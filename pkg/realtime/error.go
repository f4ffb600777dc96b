package realtime

import "fmt"

// Error is an in-band error reported by the realtime endpoint over the
// control channel.
type Error struct {
	// Type is the error type (e.g., "invalid_request_error").
	Type string `json:"type,omitzero"`

	// Code is the error code (e.g., "invalid_value").
	Code string `json:"code,omitzero"`

	// Message is the human-readable error message.
	Message string `json:"message,omitzero"`

	// Param is the parameter that caused the error, if applicable.
	Param string `json:"param,omitzero"`

	// EventID is the ID of the client event that caused the error.
	EventID string `json:"event_id,omitzero"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Code, e.Message)
	}
	if e.Type != "" {
		return fmt.Sprintf("realtime: %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("realtime: %s", e.Message)
}

// NegotiationError is returned when the endpoint rejects the SDP offer or
// the WebSocket upgrade. It carries the endpoint's HTTP status and body so
// callers can surface the rejection verbatim.
type NegotiationError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *NegotiationError) Error() string {
	return fmt.Sprintf("realtime: negotiation rejected: status %d: %s", e.Status, e.Body)
}
