package realtime

import (
	"context"
	"encoding/base64"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketSession is a WebSocket-based realtime session. The socket is
// both the control channel and the audio path (base64 PCM over
// input_audio_buffer.append / response.audio.delta), so a successful
// upgrade doubles as transport confirmation.
type WebSocketSession struct {
	conn      *websocket.Conn
	config    *DialConfig
	sessionID string
	closeCh   chan struct{}
	openedCh  chan struct{}
	statesCh  chan ConnectionState
	eventsCh  chan eventOrError
	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex
}

type eventOrError struct {
	event *ServerEvent
	err   error
}

// DialWebSocket establishes a WebSocket session authenticated by a
// single-use secret.
func (c *Client) DialWebSocket(ctx context.Context, secret string, config *DialConfig) (*WebSocketSession, error) {
	if config == nil {
		config = &DialConfig{}
	}
	if config.Model == "" {
		config.Model = ModelRealtimeDefault
	}

	url := fmt.Sprintf("%s?model=%s", c.config.wsURL, config.Model)

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+secret)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{
		HandshakeTimeout: c.config.httpClient.Timeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		if resp != nil {
			return nil, &NegotiationError{
				Status: resp.StatusCode,
				Body:   fmt.Sprintf("websocket upgrade failed: %v", err),
			}
		}
		return nil, fmt.Errorf("realtime: connect: %w", err)
	}

	session := &WebSocketSession{
		conn:     conn,
		config:   config,
		closeCh:  make(chan struct{}),
		openedCh: make(chan struct{}),
		statesCh: make(chan ConnectionState, 16),
		eventsCh: make(chan eventOrError, 100),
	}

	// The upgrade completing means the control channel is open and the
	// transport is live.
	close(session.openedCh)
	session.pushState(StateConnected)

	go session.readLoop()

	return session, nil
}

// Opened is closed once the socket is established.
func (s *WebSocketSession) Opened() <-chan struct{} {
	return s.openedCh
}

// ConnectionStates delivers transport state transitions.
func (s *WebSocketSession) ConnectionStates() <-chan ConnectionState {
	return s.statesCh
}

func (s *WebSocketSession) pushState(state ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.statesCh <- state:
	default:
	}
}

// UpdateSession sends the session configuration event.
func (s *WebSocketSession) UpdateSession(config *SessionConfig) error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeSessionUpdate,
		"session":  config,
	})
}

// AppendAudio appends PCM audio data to the input audio buffer.
func (s *WebSocketSession) AppendAudio(audio []byte) error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferAppend,
		"audio":    base64.StdEncoding.EncodeToString(audio),
	})
}

// CommitInput commits the audio buffer.
func (s *WebSocketSession) CommitInput() error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferCommit,
	})
}

// ClearInput clears the input audio buffer.
func (s *WebSocketSession) ClearInput() error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferClear,
	})
}

// AddUserMessage adds a user text message to the conversation.
func (s *WebSocketSession) AddUserMessage(text string) error {
	return s.sendEvent(userMessageEvent(text))
}

// AddUserImage adds a user message with a framing text block and an image
// block.
func (s *WebSocketSession) AddUserImage(text, imageURL string) error {
	return s.sendEvent(userImageEvent(text, imageURL))
}

// CreateResponse requests the model to generate a response.
func (s *WebSocketSession) CreateResponse(opts *ResponseCreateOptions) error {
	return s.sendEvent(responseCreateEvent(opts))
}

// CancelResponse cancels the current response generation.
func (s *WebSocketSession) CancelResponse() error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCancel,
	})
}

// SendRaw sends a raw JSON event to the server.
func (s *WebSocketSession) SendRaw(event map[string]interface{}) error {
	return s.sendEvent(event)
}

// Events returns an iterator over server events.
func (s *WebSocketSession) Events() iter.Seq2[*ServerEvent, error] {
	return func(yield func(*ServerEvent, error) bool) {
		for {
			select {
			case <-s.closeCh:
				return
			case item, ok := <-s.eventsCh:
				if !ok {
					return
				}
				if !yield(item.event, item.err) {
					return
				}
			}
		}
	}
}

// Close closes the session.
func (s *WebSocketSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		err = s.conn.Close()
		s.mu.Lock()
		s.closed = true
		close(s.statesCh)
		s.mu.Unlock()
	})
	return err
}

// SessionID returns the server-assigned session ID.
func (s *WebSocketSession) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// sendEvent sends a JSON event to the server.
func (s *WebSocketSession) sendEvent(event map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("realtime: session closed")
	}

	logOutboundEvent(event)

	return s.conn.WriteJSON(event)
}

// readLoop reads control frames from the socket.
func (s *WebSocketSession) readLoop() {
	defer close(s.eventsCh)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, message, err := s.conn.ReadMessage()
		if err != nil {
			s.pushState(StateDisconnected)
			return
		}

		s.handleMessage(message)
	}
}

// handleMessage decodes an inbound control frame. Malformed payloads are
// dropped.
func (s *WebSocketSession) handleMessage(data []byte) {
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		msgStr := string(data)
		if len(msgStr) > 1000 {
			msgStr = msgStr[:1000] + "..."
		}
		slog.Debug("received message", "len", len(data), "content", msgStr)
	}

	event, err := decodeEvent(data)
	if err != nil {
		slog.Debug("dropping malformed control frame", "error", err)
		return
	}

	if event.Type == EventTypeSessionCreated && event.Session != nil {
		s.mu.Lock()
		s.sessionID = event.Session.ID
		s.mu.Unlock()
	}

	if event.Type == EventTypeError && event.SessionError != nil {
		select {
		case <-s.closeCh:
			return
		case s.eventsCh <- eventOrError{err: event.SessionError}:
		}
		return
	}

	select {
	case <-s.closeCh:
		return
	case s.eventsCh <- eventOrError{event: event}:
	}
}

// Ensure WebSocketSession implements Session.
var _ Session = (*WebSocketSession)(nil)
