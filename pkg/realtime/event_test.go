package realtime

import (
	"encoding/base64"
	"testing"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, e *ServerEvent)
	}{
		{
			name:  "session created",
			input: `{"type":"session.created","event_id":"ev_1","session":{"id":"sess_42","model":"gpt-4o-realtime-preview"}}`,
			check: func(t *testing.T, e *ServerEvent) {
				if e.Type != EventTypeSessionCreated {
					t.Errorf("Type = %q; want %q", e.Type, EventTypeSessionCreated)
				}
				if e.Session == nil || e.Session.ID != "sess_42" {
					t.Errorf("Session = %+v; want ID sess_42", e.Session)
				}
			},
		},
		{
			name:  "audio delta decodes payload",
			input: `{"type":"response.audio.delta","delta":"` + base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4}) + `"}`,
			check: func(t *testing.T, e *ServerEvent) {
				if len(e.Audio) != 4 {
					t.Errorf("len(Audio) = %d; want 4", len(e.Audio))
				}
				if !e.IsDelta() {
					t.Error("IsDelta() = false; want true")
				}
			},
		},
		{
			name:  "transcript delta is a delta",
			input: `{"type":"response.audio_transcript.delta","delta":"The "}`,
			check: func(t *testing.T, e *ServerEvent) {
				if !e.IsDelta() {
					t.Error("IsDelta() = false; want true")
				}
			},
		},
		{
			name:  "done event is not a delta",
			input: `{"type":"response.done","response":{"id":"resp_1","status":"completed"}}`,
			check: func(t *testing.T, e *ServerEvent) {
				if e.IsDelta() {
					t.Error("IsDelta() = true; want false")
				}
				if e.Response == nil || e.Response.Status != "completed" {
					t.Errorf("Response = %+v; want completed", e.Response)
				}
			},
		},
		{
			name:  "unknown type passes through",
			input: `{"type":"output_audio_buffer.started","response_id":"resp_9"}`,
			check: func(t *testing.T, e *ServerEvent) {
				if e.Type != "output_audio_buffer.started" {
					t.Errorf("Type = %q", e.Type)
				}
			},
		},
		{
			name:  "error event",
			input: `{"type":"error","error":{"type":"invalid_request_error","code":"invalid_value","message":"bad voice"}}`,
			check: func(t *testing.T, e *ServerEvent) {
				if e.SessionError == nil {
					t.Fatal("SessionError = nil")
				}
				if got := e.SessionError.Error(); got != "realtime: invalid_value: bad voice" {
					t.Errorf("Error() = %q", got)
				}
			},
		},
		{
			name:    "malformed json",
			input:   `this is not json`,
			wantErr: true,
		},
		{
			name:    "truncated frame",
			input:   `{"type":"session.created"`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event, err := decodeEvent([]byte(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("decodeEvent(%q) succeeded; want error", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeEvent error: %v", err)
			}
			if string(event.Raw) != tc.input {
				t.Errorf("Raw not preserved")
			}
			tc.check(t, event)
		})
	}
}

func TestUserImageEventOrdering(t *testing.T) {
	event := userImageEvent("Here is the artwork.", "data:image/jpeg;base64,abcd")

	if event["type"] != EventTypeConversationItemCreate {
		t.Fatalf("type = %v", event["type"])
	}
	item, ok := event["item"].(map[string]interface{})
	if !ok {
		t.Fatal("item missing")
	}
	content, ok := item["content"].([]map[string]interface{})
	if !ok || len(content) != 2 {
		t.Fatalf("content = %v; want 2 blocks", item["content"])
	}
	if content[0]["type"] != "input_text" {
		t.Errorf("first block type = %v; want input_text", content[0]["type"])
	}
	if content[1]["type"] != "input_image" {
		t.Errorf("second block type = %v; want input_image", content[1]["type"])
	}
	if content[1]["image_url"] != "data:image/jpeg;base64,abcd" {
		t.Errorf("image_url = %v", content[1]["image_url"])
	}
}

func TestResponseCreateEvent(t *testing.T) {
	event := responseCreateEvent(nil)
	if event["type"] != EventTypeResponseCreate {
		t.Errorf("type = %v", event["type"])
	}
	if _, ok := event["response"]; ok {
		t.Error("nil opts should not add a response object")
	}

	event = responseCreateEvent(&ResponseCreateOptions{
		Modalities:   []string{ModalityText, ModalityAudio},
		Instructions: "greet the visitor",
	})
	response, ok := event["response"].(map[string]interface{})
	if !ok {
		t.Fatal("response missing")
	}
	if response["instructions"] != "greet the visitor" {
		t.Errorf("instructions = %v", response["instructions"])
	}
}

func TestGenerateEventID(t *testing.T) {
	a := generateEventID()
	b := generateEventID()
	if a == b {
		t.Errorf("event IDs not unique: %q", a)
	}
	if len(a) != len("evt_")+12 {
		t.Errorf("len = %d; want %d", len(a), len("evt_")+12)
	}
}
