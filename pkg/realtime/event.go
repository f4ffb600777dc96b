package realtime

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Client event types (sent from client to server).
const (
	EventTypeSessionUpdate = "session.update"

	EventTypeInputAudioBufferAppend = "input_audio_buffer.append"
	EventTypeInputAudioBufferCommit = "input_audio_buffer.commit"
	EventTypeInputAudioBufferClear  = "input_audio_buffer.clear"

	EventTypeConversationItemCreate = "conversation.item.create"

	EventTypeResponseCreate = "response.create"
	EventTypeResponseCancel = "response.cancel"
)

// Server event types (sent from server to client).
const (
	EventTypeError = "error"

	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	EventTypeConversationItemCreated = "conversation.item.created"
	EventTypeConversationItemInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"

	EventTypeInputAudioBufferCommitted     = "input_audio_buffer.committed"
	EventTypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	EventTypeResponseCreated = "response.created"
	EventTypeResponseDone    = "response.done"

	EventTypeResponseTextDelta = "response.text.delta"
	EventTypeResponseTextDone  = "response.text.done"

	EventTypeResponseAudioDelta = "response.audio.delta"
	EventTypeResponseAudioDone  = "response.audio.done"

	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"

	EventTypeRateLimitsUpdated = "rate_limits.updated"
)

// ServerEvent is a control message received from the realtime endpoint,
// discriminated by Type. Fields are populated depending on the variant;
// unknown variants decode with just Type set and are passed through.
type ServerEvent struct {
	// Type is the event type.
	Type string `json:"type"`

	// EventID is the unique identifier for this event.
	EventID string `json:"event_id,omitzero"`

	// Session contains session state (for session.created, session.updated).
	Session *SessionResource `json:"session,omitzero"`

	// Item contains a conversation item (for conversation.item.* events).
	Item *ConversationItem `json:"item,omitzero"`

	// ItemID identifies the item referenced by buffer and item events.
	ItemID string `json:"item_id,omitzero"`

	// AudioStartMs / AudioEndMs bracket detected speech (speech_started,
	// speech_stopped).
	AudioStartMs int `json:"audio_start_ms,omitzero"`
	AudioEndMs   int `json:"audio_end_ms,omitzero"`

	// Transcript is the transcription text for transcription events.
	Transcript string `json:"transcript,omitzero"`

	// Response contains response state (for response.* events).
	Response *ResponseResource `json:"response,omitzero"`

	// ResponseID is the response identifier for delta events.
	ResponseID string `json:"response_id,omitzero"`

	// Delta contains the incremental payload of *.delta events. For audio
	// deltas this is base64 audio; see Audio.
	Delta string `json:"delta,omitzero"`

	// Audio contains decoded audio bytes, populated after parsing an audio
	// delta event.
	Audio []byte `json:"-"`

	// SessionError carries the payload of "error" events.
	SessionError *Error `json:"error,omitzero"`

	// Raw is the original JSON message.
	Raw []byte `json:"-"`
}

// IsDelta reports whether the event is a high-frequency streaming fragment
// (audio, transcript, or text delta). Consumers that keep a human-readable
// trace should skip these.
func (e *ServerEvent) IsDelta() bool {
	switch e.Type {
	case EventTypeResponseAudioDelta,
		EventTypeResponseAudioTranscriptDelta,
		EventTypeResponseTextDelta:
		return true
	}
	return false
}

// decodeEvent parses a raw control frame into a ServerEvent.
func decodeEvent(message []byte) (*ServerEvent, error) {
	var event ServerEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return nil, fmt.Errorf("realtime: decode event: %w", err)
	}

	event.Raw = message

	// Audio deltas carry base64 audio in the "delta" field.
	if event.Type == EventTypeResponseAudioDelta && event.Delta != "" {
		if decoded, err := base64.StdEncoding.DecodeString(event.Delta); err == nil {
			event.Audio = decoded
		}
	}

	return &event, nil
}
