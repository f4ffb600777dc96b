package realtime

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

// opusPayloadType is the RTP payload type used for the outbound Opus track.
const opusPayloadType = 111

// WebRTCSession is a WebRTC-based realtime session: one peer connection,
// one control data channel, an inbound audio track bound to the configured
// sink, and optionally one outbound Opus track.
type WebRTCSession struct {
	pc     *webrtc.PeerConnection
	dc     *webrtc.DataChannel
	config *DialConfig

	sessionID string
	closeCh   chan struct{}
	openedCh  chan struct{}
	statesCh  chan ConnectionState
	eventsCh  chan eventOrError
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool

	remoteTrack *webrtc.TrackRemote
	localTrack  *webrtc.TrackLocalStaticRTP
	ssrc        uint32
	seq         uint16
}

// DialWebRTC establishes a WebRTC session authenticated by a single-use
// secret. All transport observers are registered before negotiation starts
// so no state transition is missed. The returned session is negotiated but
// not yet live; wait for StateConnected on ConnectionStates().
func (c *Client) DialWebRTC(ctx context.Context, secret string, config *DialConfig) (*WebRTCSession, error) {
	if config == nil {
		config = &DialConfig{}
	}
	if config.Model == "" {
		config.Model = ModelRealtimeDefault
	}

	peerConnection, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{URLs: c.config.iceServers},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("realtime: create peer connection: %w", err)
	}

	session := &WebRTCSession{
		pc:       peerConnection,
		config:   config,
		closeCh:  make(chan struct{}),
		openedCh: make(chan struct{}),
		statesCh: make(chan ConnectionState, 16),
		eventsCh: make(chan eventOrError, 100),
		ssrc:     rand.Uint32(),
	}

	// Observers first, negotiation after.
	peerConnection.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Debug("webrtc connection state", "state", state.String())
		session.pushState(connectionState(state))
	})

	peerConnection.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		slog.Debug("webrtc ice state", "state", state.String())
	})

	peerConnection.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		slog.Debug("received remote track", "kind", track.Kind(), "codec", track.Codec().MimeType)
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		session.mu.Lock()
		session.remoteTrack = track
		session.mu.Unlock()
		go session.pumpRemoteTrack(track)
	})

	_, err = peerConnection.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	})
	if err != nil {
		peerConnection.Close()
		return nil, fmt.Errorf("realtime: add audio transceiver: %w", err)
	}

	if config.SendTrack {
		localTrack, err := webrtc.NewTrackLocalStaticRTP(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
			"audio",
			"artvoice-mic",
		)
		if err != nil {
			peerConnection.Close()
			return nil, fmt.Errorf("realtime: create local track: %w", err)
		}
		if _, err := peerConnection.AddTrack(localTrack); err != nil {
			peerConnection.Close()
			return nil, fmt.Errorf("realtime: add local track: %w", err)
		}
		session.localTrack = localTrack
	}

	dataChannel, err := peerConnection.CreateDataChannel("oai-events", nil)
	if err != nil {
		peerConnection.Close()
		return nil, fmt.Errorf("realtime: create data channel: %w", err)
	}
	session.dc = dataChannel

	dataChannel.OnOpen(func() {
		slog.Debug("data channel opened")
		close(session.openedCh)
	})

	dataChannel.OnMessage(func(msg webrtc.DataChannelMessage) {
		session.handleMessage(msg.Data)
	})

	dataChannel.OnClose(func() {
		slog.Debug("data channel closed")
		close(session.eventsCh)
	})

	offer, err := peerConnection.CreateOffer(nil)
	if err != nil {
		peerConnection.Close()
		return nil, fmt.Errorf("realtime: create offer: %w", err)
	}

	if err := peerConnection.SetLocalDescription(offer); err != nil {
		peerConnection.Close()
		return nil, fmt.Errorf("realtime: set local description: %w", err)
	}

	select {
	case <-webrtc.GatheringCompletePromise(peerConnection):
	case <-ctx.Done():
		peerConnection.Close()
		return nil, ctx.Err()
	}

	answer, err := c.negotiate(ctx, secret, config.Model, peerConnection.LocalDescription().SDP)
	if err != nil {
		peerConnection.Close()
		return nil, err
	}

	err = peerConnection.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  answer,
	})
	if err != nil {
		peerConnection.Close()
		return nil, fmt.Errorf("realtime: set remote description: %w", err)
	}

	return session, nil
}

// connectionState maps a pion peer connection state onto the session's
// transport state vocabulary.
func connectionState(state webrtc.PeerConnectionState) ConnectionState {
	switch state {
	case webrtc.PeerConnectionStateConnecting:
		return StateConnecting
	case webrtc.PeerConnectionStateConnected:
		return StateConnected
	case webrtc.PeerConnectionStateDisconnected:
		return StateDisconnected
	case webrtc.PeerConnectionStateFailed:
		return StateFailed
	default:
		return StateClosed
	}
}

// pushState delivers a transport state transition without ever blocking the
// pion callback goroutine. The channel is buffered; if a slow consumer
// fills it, the oldest transition is dropped in favor of the newest.
func (s *WebRTCSession) pushState(state ConnectionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.statesCh <- state:
			return
		default:
			select {
			case <-s.statesCh:
			default:
			}
		}
	}
}

// handleMessage decodes an inbound control frame. Malformed payloads are
// dropped; a broken frame must never take the session down.
func (s *WebRTCSession) handleMessage(data []byte) {
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

// pumpRemoteTrack forwards inbound audio payloads to the configured sink.
// Sink failures are logged once and the pump keeps draining the track so
// the transport does not back up.
func (s *WebRTCSession) pumpRemoteTrack(track *webrtc.TrackRemote) {
	sink := s.config.Sink
	warned := false
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			slog.Debug("remote track ended", "error", err)
			return
		}
		if sink == nil {
			continue
		}
		if err := sink.WriteOpus(pkt.Payload); err != nil && !warned {
			slog.Warn("audio sink write failed; continuing without playback", "error", err)
			warned = true
		}
	}
}

// WriteOpusFrame sends one 20ms Opus frame on the outbound audio track.
// timestamp is in RTP units (48kHz clock). Returns an error if the session
// was dialed without SendTrack.
func (s *WebRTCSession) WriteOpusFrame(payload []byte, timestamp uint32) error {
	s.mu.Lock()
	track := s.localTrack
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	if track == nil {
		return fmt.Errorf("realtime: session has no outbound track")
	}

	packet := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    opusPayloadType,
			SequenceNumber: seq,
			Timestamp:      timestamp,
			SSRC:           s.ssrc,
		},
		Payload: payload,
	}
	return track.WriteRTP(packet)
}

// Opened is closed once the data channel is open.
func (s *WebRTCSession) Opened() <-chan struct{} {
	return s.openedCh
}

// ConnectionStates delivers transport state transitions.
func (s *WebRTCSession) ConnectionStates() <-chan ConnectionState {
	return s.statesCh
}

// UpdateSession sends the session configuration event.
func (s *WebRTCSession) UpdateSession(config *SessionConfig) error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeSessionUpdate,
		"session":  config,
	})
}

// AppendAudio appends PCM audio data to the input audio buffer.
func (s *WebRTCSession) AppendAudio(audio []byte) error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferAppend,
		"audio":    base64.StdEncoding.EncodeToString(audio),
	})
}

// CommitInput commits the audio buffer.
func (s *WebRTCSession) CommitInput() error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferCommit,
	})
}

// ClearInput clears the input audio buffer.
func (s *WebRTCSession) ClearInput() error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeInputAudioBufferClear,
	})
}

// AddUserMessage adds a user text message to the conversation.
func (s *WebRTCSession) AddUserMessage(text string) error {
	return s.sendEvent(userMessageEvent(text))
}

// AddUserImage adds a user message carrying a framing text block followed
// by an image block.
func (s *WebRTCSession) AddUserImage(text, imageURL string) error {
	return s.sendEvent(userImageEvent(text, imageURL))
}

// CreateResponse requests the model to generate a response.
func (s *WebRTCSession) CreateResponse(opts *ResponseCreateOptions) error {
	return s.sendEvent(responseCreateEvent(opts))
}

// CancelResponse cancels the current response generation.
func (s *WebRTCSession) CancelResponse() error {
	return s.sendEvent(map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCancel,
	})
}

// SendRaw sends a raw JSON event to the server.
func (s *WebRTCSession) SendRaw(event map[string]interface{}) error {
	return s.sendEvent(event)
}

// Events returns an iterator over server events.
func (s *WebRTCSession) Events() iter.Seq2[*ServerEvent, error] {
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

// Close closes the session. The data channel and peer connection (and with
// it any attached tracks) are released together.
func (s *WebRTCSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closeCh)
		if s.dc != nil {
			s.dc.Close()
		}
		if s.pc != nil {
			err = s.pc.Close()
		}
		s.mu.Lock()
		s.closed = true
		close(s.statesCh)
		s.mu.Unlock()
	})
	return err
}

// SessionID returns the server-assigned session ID.
func (s *WebRTCSession) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// sendEvent sends a JSON event through the data channel.
func (s *WebRTCSession) sendEvent(event map[string]interface{}) error {
	if s.dc == nil || s.dc.ReadyState() != webrtc.DataChannelStateOpen {
		return fmt.Errorf("realtime: data channel not open")
	}

	logOutboundEvent(event)

	jsonBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.dc.Send(jsonBytes)
}

// generateEventID generates a unique client event ID.
func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// logOutboundEvent dumps an outbound control frame when debug logging is
// enabled, truncated so audio payloads do not flood the log.
func logOutboundEvent(event map[string]interface{}) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if jsonBytes, err := json.MarshalIndent(event, "", "  "); err == nil {
		str := string(jsonBytes)
		if len(str) > 500 {
			str = str[:500] + "..."
		}
		slog.Debug("sending event", "content", str)
	}
}

// userMessageEvent builds a conversation.item.create event with one text
// block.
func userMessageEvent(text string) map[string]interface{} {
	return map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeConversationItemCreate,
		"item": map[string]interface{}{
			"type": "message",
			"role": "user",
			"content": []map[string]interface{}{
				{
					"type": "input_text",
					"text": text,
				},
			},
		},
	}
}

// userImageEvent builds a conversation.item.create event whose content is
// an ordered pair: framing text first, then the image block.
func userImageEvent(text, imageURL string) map[string]interface{} {
	return map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeConversationItemCreate,
		"item": map[string]interface{}{
			"type": "message",
			"role": "user",
			"content": []map[string]interface{}{
				{
					"type": "input_text",
					"text": text,
				},
				{
					"type":      "input_image",
					"image_url": imageURL,
				},
			},
		},
	}
}

// responseCreateEvent builds a response.create event.
func responseCreateEvent(opts *ResponseCreateOptions) map[string]interface{} {
	event := map[string]interface{}{
		"event_id": generateEventID(),
		"type":     EventTypeResponseCreate,
	}

	if opts != nil {
		response := map[string]interface{}{}
		if len(opts.Modalities) > 0 {
			response["modalities"] = opts.Modalities
		}
		if opts.Instructions != "" {
			response["instructions"] = opts.Instructions
		}
		if opts.Voice != "" {
			response["voice"] = opts.Voice
		}
		if opts.Temperature != nil {
			response["temperature"] = *opts.Temperature
		}
		if opts.MaxOutputTokens != nil {
			response["max_output_tokens"] = opts.MaxOutputTokens
		}
		if len(response) > 0 {
			event["response"] = response
		}
	}

	return event
}

// Ensure WebRTCSession implements Session.
var _ Session = (*WebRTCSession)(nil)
