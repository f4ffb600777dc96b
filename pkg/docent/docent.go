package docent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/docentlab/artvoice/pkg/artwork"
	"github.com/docentlab/artvoice/pkg/broker"
	"github.com/docentlab/artvoice/pkg/media"
	"github.com/docentlab/artvoice/pkg/realtime"
)

// ErrNotReady is returned by Start when no artwork context is held or a
// conversation is already in flight.
var ErrNotReady = errors.New("docent: not ready to start a conversation")

// Conn is the session handle the orchestrator drives. It is the subset of
// the realtime session surface the orchestrator needs; both transport
// implementations satisfy it.
type Conn interface {
	Opened() <-chan struct{}
	ConnectionStates() <-chan realtime.ConnectionState
	Events() iter.Seq2[*realtime.ServerEvent, error]
	UpdateSession(config *realtime.SessionConfig) error
	AddUserImage(text, imageURL string) error
	AppendAudio(audio []byte) error
	CreateResponse(opts *realtime.ResponseCreateOptions) error
	Close() error
	SessionID() string
}

// Dialer establishes a realtime session from a single-use credential
// secret.
type Dialer interface {
	Dial(ctx context.Context, secret string, config *realtime.DialConfig) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, secret string, config *realtime.DialConfig) (Conn, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, secret string, config *realtime.DialConfig) (Conn, error) {
	return f(ctx, secret, config)
}

// WebRTCDialer returns a Dialer that negotiates WebRTC sessions through
// client.
func WebRTCDialer(client *realtime.Client) Dialer {
	return DialerFunc(func(ctx context.Context, secret string, config *realtime.DialConfig) (Conn, error) {
		return client.DialWebRTC(ctx, secret, config)
	})
}

// WebSocketDialer returns a Dialer that establishes WebSocket sessions
// through client. The socket carries both control and base64 audio, so no
// track sink is involved.
func WebSocketDialer(client *realtime.Client) Dialer {
	return DialerFunc(func(ctx context.Context, secret string, config *realtime.DialConfig) (Conn, error) {
		return client.DialWebSocket(ctx, secret, config)
	})
}

// imageFramingText precedes the artwork image in the injected
// conversation item, so the model knows what the image is.
const imageFramingText = "The visitor is currently looking at this artwork."

// Options configures an Orchestrator. Resolver, Broker, and Dialer are
// required; the rest default sensibly.
type Options struct {
	// Resolver fetches the artwork context.
	Resolver artwork.Resolver

	// Broker issues single-use realtime credentials.
	Broker broker.Broker

	// Dialer establishes the realtime session.
	Dialer Dialer

	// Microphone acquires local audio capture. Nil runs without a
	// microphone (text/control only).
	Microphone media.Microphone

	// Images fetches the artwork image for multimodal injection.
	// Default: NewHTTPImageSource(nil).
	Images ImageSource

	// Sink receives inbound audio track payloads. Optional.
	Sink realtime.TrackSink

	// Model is the realtime model ID. Default: realtime.ModelRealtimeDefault.
	Model string

	// Voice for audio output. Default: realtime.VoiceAlloy.
	Voice string

	// Modalities for model output. Default: ["text", "audio"].
	Modalities []string

	// VADThreshold tunes server VAD sensitivity. Zero keeps the endpoint
	// default.
	VADThreshold float64

	// VADPrefixPaddingMs is audio included before detected speech (ms).
	VADPrefixPaddingMs int

	// VADSilenceDurationMs is the trailing silence that ends a turn (ms).
	VADSilenceDurationMs int
}

// Orchestrator drives one artwork conversation through its lifecycle. All
// methods are safe for concurrent use.
type Orchestrator struct {
	opts      Options
	artworkID string
	trace     *Trace

	mu      sync.Mutex
	state   State
	err     error
	art     *artwork.Context
	conn    Conn
	capture media.Capture
	done    chan struct{}

	// gen increments on every Start and Stop; async results carrying a
	// stale gen are discarded.
	gen int
}

// New creates an orchestrator for one artwork in the idle state.
func New(artworkID string, opts Options) *Orchestrator {
	if opts.Images == nil {
		opts.Images = NewHTTPImageSource(nil)
	}
	if opts.Model == "" {
		opts.Model = realtime.ModelRealtimeDefault
	}
	if opts.Voice == "" {
		opts.Voice = realtime.VoiceAlloy
	}
	if opts.Modalities == nil {
		opts.Modalities = []string{realtime.ModalityText, realtime.ModalityAudio}
	}
	return &Orchestrator{
		opts:      opts,
		artworkID: artworkID,
		trace:     NewTrace(),
		state:     StateIdle,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the error that moved the orchestrator to StateError, or nil.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Artwork returns the resolved artwork context, or nil before resolution.
func (o *Orchestrator) Artwork() *artwork.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.art
}

// Trace returns the diagnostic trace for this orchestrator.
func (o *Orchestrator) Trace() *Trace {
	return o.trace
}

// Resolve fetches the artwork context and moves the orchestrator from
// idle to ready, or to error if resolution fails.
func (o *Orchestrator) Resolve(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateIdle {
		st := o.state
		o.mu.Unlock()
		return fmt.Errorf("docent: resolve in state %s", st)
	}
	o.setStateLocked(StateResolving)
	o.mu.Unlock()
	o.trace.Append("resolving artwork %q", o.artworkID)

	art, err := o.opts.Resolver.Resolve(ctx, o.artworkID)
	if err != nil {
		o.mu.Lock()
		o.err = err
		o.setStateLocked(StateError)
		o.mu.Unlock()
		o.trace.Append("resolution failed: %v", err)
		return err
	}

	o.mu.Lock()
	o.art = art
	o.setStateLocked(StateReady)
	o.mu.Unlock()
	o.trace.Append("artwork resolved: %s", art.Title)
	return nil
}

// Start opens a conversation. It is only valid in StateReady: a second
// Start while one conversation is connecting or connected is rejected
// with ErrNotReady. On success the transport runs in the background;
// StateConnected is reached when the transport confirms liveness.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateReady || o.art == nil {
		st := o.state
		o.mu.Unlock()
		o.trace.Append("start rejected in state %s", st)
		return ErrNotReady
	}
	o.gen++
	gen := o.gen
	art := o.art
	o.setStateLocked(StateConnecting)
	o.mu.Unlock()
	o.trace.Append("connecting")

	cred, err := o.opts.Broker.Issue(ctx, art.ID)
	if err != nil {
		return o.fail(gen, fmt.Errorf("issue credential: %w", err))
	}
	o.trace.Append("credential issued (%s)", broker.MaskSecret(cred.Secret))

	var capture media.Capture
	if o.opts.Microphone != nil {
		capture, err = o.opts.Microphone.Acquire(ctx)
		if err != nil {
			return o.fail(gen, fmt.Errorf("acquire microphone: %w", err))
		}
		o.trace.Append("microphone acquired")
	}

	conn, err := o.opts.Dialer.Dial(ctx, cred.Secret, &realtime.DialConfig{
		Model: o.opts.Model,
		Sink:  o.opts.Sink,
	})
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return o.fail(gen, fmt.Errorf("dial realtime session: %w", err))
	}
	o.trace.Append("negotiation complete; waiting for transport")

	o.mu.Lock()
	if gen != o.gen || o.state != StateConnecting {
		o.mu.Unlock()
		conn.Close()
		if capture != nil {
			capture.Close()
		}
		o.trace.Append("late negotiation result discarded")
		return nil
	}
	o.conn = conn
	o.capture = capture
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()

	// Closed by inject once the session configuration has been sent; the
	// audio pump must not put anything on the control channel before it.
	configured := make(chan struct{})

	go o.watchTransport(gen, conn)
	go o.pumpEvents(gen, conn)
	go o.inject(ctx, gen, done, configured, conn, art)
	if capture != nil {
		go o.pumpAudio(done, configured, conn, capture)
	}
	return nil
}

// Stop ends the conversation from any state and returns to ready (or
// idle, when no artwork context is held yet). Safe to call repeatedly and
// concurrently; every call releases at most one handle.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.gen++
	conn, capture := o.releaseLocked()
	o.err = nil
	if o.art != nil {
		o.setStateLocked(StateReady)
	} else {
		o.setStateLocked(StateIdle)
	}
	o.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if capture != nil {
		capture.Close()
	}
	if conn != nil || capture != nil {
		o.trace.Append("conversation stopped")
	}
}

// releaseLocked takes ownership of the current handle and signals the
// attempt's goroutines to exit. Callers must hold o.mu and close the
// returned handles outside the lock.
func (o *Orchestrator) releaseLocked() (Conn, media.Capture) {
	conn, capture := o.conn, o.capture
	o.conn, o.capture = nil, nil
	if o.done != nil {
		close(o.done)
		o.done = nil
	}
	return conn, capture
}

// setStateLocked transitions the state and traces it. Callers must hold
// o.mu.
func (o *Orchestrator) setStateLocked(s State) {
	if o.state == s {
		return
	}
	o.state = s
	o.trace.Append("state: %s", s)
}

// current reports whether gen is still the active attempt.
func (o *Orchestrator) current(gen int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return gen == o.gen
}

// fail moves attempt gen to StateError, releasing its handle. Stale
// failures (a newer Start or Stop already superseded the attempt) are
// discarded.
func (o *Orchestrator) fail(gen int, err error) error {
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return err
	}
	conn, capture := o.releaseLocked()
	o.err = err
	o.setStateLocked(StateError)
	o.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if capture != nil {
		capture.Close()
	}
	o.trace.Append("error: %v", err)
	return err
}

// watchTransport tracks transport state for one attempt. Connected flips
// the lifecycle to StateConnected; a failure fails the attempt; a
// disconnect after the call was live ends it cleanly back to ready.
func (o *Orchestrator) watchTransport(gen int, conn Conn) {
	for state := range conn.ConnectionStates() {
		o.trace.Append("transport %s", state)
		switch state {
		case realtime.StateConnected:
			o.mu.Lock()
			if gen == o.gen && o.state == StateConnecting {
				o.setStateLocked(StateConnected)
			}
			o.mu.Unlock()

		case realtime.StateFailed:
			o.fail(gen, errors.New("transport failed"))
			return

		case realtime.StateDisconnected, realtime.StateClosed:
			o.mu.Lock()
			if gen != o.gen {
				o.mu.Unlock()
				return
			}
			if o.state != StateConnected {
				// A drop before the call is live can be transient; keep
				// watching so a later connected or failed is not missed.
				o.mu.Unlock()
				continue
			}
			conn, capture := o.releaseLocked()
			o.setStateLocked(StateReady)
			o.mu.Unlock()
			if conn != nil {
				conn.Close()
			}
			if capture != nil {
				capture.Close()
			}
			o.trace.Append("call ended")
			return
		}
	}
}
