package docent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docentlab/artvoice/pkg/artwork"
	"github.com/docentlab/artvoice/pkg/broker"
	"github.com/docentlab/artvoice/pkg/media"
	"github.com/docentlab/artvoice/pkg/realtime"
)

type fakeResolver struct {
	art *artwork.Context
	err error
}

func (r *fakeResolver) Resolve(ctx context.Context, id string) (*artwork.Context, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.art, nil
}

type fakeBroker struct {
	mu     sync.Mutex
	issued int
	err    error
}

func (b *fakeBroker) Issue(ctx context.Context, artworkID string) (*broker.Credential, error) {
	b.mu.Lock()
	b.issued++
	b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return &broker.Credential{
		Secret:    "ek_test_0123456789abcdef",
		SessionID: "sess_fake",
		ExpiresAt: time.Now().Add(time.Minute),
	}, nil
}

func (b *fakeBroker) issuedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issued
}

type fakeConn struct {
	mu    sync.Mutex
	calls []string

	opened chan struct{}
	states chan realtime.ConnectionState
	events chan *realtime.ServerEvent

	closeOnce sync.Once
	closed    bool

	// updateGate, when non-nil, blocks UpdateSession until closed.
	updateGate chan struct{}

	updateErr   error
	imageErr    error
	responseErr error

	lastConfig   *realtime.SessionConfig
	lastImageURL string
	lastFraming  string
	audioFrames  int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		opened: make(chan struct{}),
		states: make(chan realtime.ConnectionState, 16),
		events: make(chan *realtime.ServerEvent, 16),
	}
}

func (c *fakeConn) open() { close(c.opened) }

func (c *fakeConn) Opened() <-chan struct{} { return c.opened }

func (c *fakeConn) ConnectionStates() <-chan realtime.ConnectionState { return c.states }

func (c *fakeConn) Events() iter.Seq2[*realtime.ServerEvent, error] {
	return func(yield func(*realtime.ServerEvent, error) bool) {
		for e := range c.events {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (c *fakeConn) record(call string) {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
}

func (c *fakeConn) callList() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeConn) UpdateSession(config *realtime.SessionConfig) error {
	if c.updateGate != nil {
		<-c.updateGate
	}
	c.mu.Lock()
	c.lastConfig = config
	c.mu.Unlock()
	c.record("update_session")
	return c.updateErr
}

func (c *fakeConn) AddUserImage(text, imageURL string) error {
	c.mu.Lock()
	c.lastFraming = text
	c.lastImageURL = imageURL
	c.mu.Unlock()
	c.record("add_user_image")
	return c.imageErr
}

func (c *fakeConn) AppendAudio(audio []byte) error {
	c.mu.Lock()
	c.audioFrames++
	c.mu.Unlock()
	c.record("append_audio")
	return nil
}

func (c *fakeConn) CreateResponse(opts *realtime.ResponseCreateOptions) error {
	c.record("create_response")
	return c.responseErr
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.states)
		close(c.events)
	})
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) SessionID() string { return "sess_fake" }

type fakeDialer struct {
	mu      sync.Mutex
	dials   int
	conn    *fakeConn
	err     error
	release chan struct{} // when set, Dial blocks until closed
}

func (d *fakeDialer) Dial(ctx context.Context, secret string, config *realtime.DialConfig) (Conn, error) {
	d.mu.Lock()
	d.dials++
	release := d.release
	d.mu.Unlock()
	if release != nil {
		<-release
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type fakeCapture struct {
	frames chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *fakeCapture) Frames() <-chan []byte { return c.frames }

func (c *fakeCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
	return nil
}

func (c *fakeCapture) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeMicrophone struct {
	capture *fakeCapture
	err     error
}

func (m *fakeMicrophone) Acquire(ctx context.Context) (media.Capture, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.capture, nil
}

type fakeImages struct {
	data        []byte
	contentType string
	err         error
}

func (s *fakeImages) Fetch(ctx context.Context, ref string) ([]byte, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.data, s.contentType, nil
}

func starryNight() *artwork.Context {
	art := &artwork.Context{
		ID:          "starry-night",
		Title:       "The Starry Night",
		Facts:       "Painted by Vincent van Gogh in 1889, depicting the view from his asylum window at Saint-Rémy.",
		Description: "A swirling night sky over a quiet village.",
	}
	art.Instructions = artwork.BuildInstructions(art)
	return art
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitState(t *testing.T, o *Orchestrator, want State) {
	t.Helper()
	waitFor(t, fmt.Sprintf("state %s", want), func() bool { return o.State() == want })
}

func traceContains(o *Orchestrator, substr string) bool {
	for _, e := range o.Trace().Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func newTestOrchestrator(t *testing.T, opts Options) (*Orchestrator, *fakeConn, *fakeDialer) {
	t.Helper()
	conn := newFakeConn()
	dialer := &fakeDialer{conn: conn}
	if opts.Resolver == nil {
		opts.Resolver = &fakeResolver{art: starryNight()}
	}
	if opts.Broker == nil {
		opts.Broker = &fakeBroker{}
	}
	if opts.Dialer == nil {
		opts.Dialer = dialer
	}
	if opts.Images == nil {
		opts.Images = &fakeImages{data: []byte{0xff, 0xd8, 0xff}, contentType: "image/jpeg"}
	}
	return New("starry-night", opts), conn, dialer
}

func TestResolveMovesIdleToReady(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, Options{})
	if got := o.State(); got != StateIdle {
		t.Fatalf("initial state = %s; want %s", got, StateIdle)
	}

	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := o.State(); got != StateReady {
		t.Errorf("state = %s; want %s", got, StateReady)
	}
	art := o.Artwork()
	if art == nil || art.Title != "The Starry Night" {
		t.Errorf("Artwork() = %+v; want The Starry Night", art)
	}
	if !strings.Contains(art.Instructions, "Starry Night") || !strings.Contains(art.Instructions, "1889") {
		t.Errorf("instructions missing artwork context: %q", art.Instructions)
	}
}

func TestResolveFailureMovesToError(t *testing.T) {
	wantErr := &artwork.NotFoundError{ID: "starry-night"}
	o, _, _ := newTestOrchestrator(t, Options{Resolver: &fakeResolver{err: wantErr}})

	if err := o.Resolve(context.Background()); err == nil {
		t.Fatal("Resolve: expected error")
	}
	if got := o.State(); got != StateError {
		t.Errorf("state = %s; want %s", got, StateError)
	}
	var nf *artwork.NotFoundError
	if !errors.As(o.Err(), &nf) {
		t.Errorf("Err() = %v; want NotFoundError", o.Err())
	}
}

func TestStartRequiresReady(t *testing.T) {
	o, _, dialer := newTestOrchestrator(t, Options{})

	if err := o.Start(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("Start in idle = %v; want ErrNotReady", err)
	}
	if got := dialer.dialCount(); got != 0 {
		t.Errorf("dials = %d; want 0", got)
	}
}

func TestStartOpensSingleConversation(t *testing.T) {
	o, conn, dialer := newTestOrchestrator(t, Options{})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := o.State(); got != StateConnecting {
		t.Errorf("state = %s; want %s", got, StateConnecting)
	}

	// Second start while connecting is rejected without a second dial.
	if err := o.Start(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("second Start = %v; want ErrNotReady", err)
	}
	if got := dialer.dialCount(); got != 1 {
		t.Errorf("dials = %d; want 1", got)
	}

	conn.states <- realtime.StateConnected
	waitState(t, o, StateConnected)

	if err := o.Start(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("Start while connected = %v; want ErrNotReady", err)
	}
	o.Stop()
}

func TestConnectedOnlyOnTransportConfirmation(t *testing.T) {
	o, conn, _ := newTestOrchestrator(t, Options{})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Negotiation finished but the transport has not confirmed yet.
	if got := o.State(); got != StateConnecting {
		t.Errorf("state after Start = %s; want %s", got, StateConnecting)
	}

	conn.states <- realtime.StateConnected
	waitState(t, o, StateConnected)
	o.Stop()
}

func TestInjectionOrderWithImage(t *testing.T) {
	art := starryNight()
	art.ImageURL = "https://gallery.example/starry-night.jpg"
	o, conn, _ := newTestOrchestrator(t, Options{
		Resolver: &fakeResolver{art: art},
	})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.open()
	waitFor(t, "create_response", func() bool {
		calls := conn.callList()
		return len(calls) == 3
	})

	want := []string{"update_session", "add_user_image", "create_response"}
	got := conn.callList()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v; want %v", got, want)
		}
	}
	if !strings.Contains(conn.lastConfig.Instructions, "Starry Night") {
		t.Errorf("instructions = %q; want artwork title", conn.lastConfig.Instructions)
	}
	if conn.lastFraming == "" {
		t.Error("image item has no framing text")
	}
	if !strings.HasPrefix(conn.lastImageURL, "data:image/jpeg;base64,") {
		t.Errorf("image URL = %q; want jpeg data URL", conn.lastImageURL)
	}
	o.Stop()
}

func TestInjectionOrderWithoutImage(t *testing.T) {
	o, conn, _ := newTestOrchestrator(t, Options{})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.open()
	waitFor(t, "create_response", func() bool {
		return len(conn.callList()) == 2
	})

	want := []string{"update_session", "create_response"}
	got := conn.callList()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("calls = %v; want %v", got, want)
		}
	}
	o.Stop()
}

func TestImageFetchFailureIsNonFatal(t *testing.T) {
	art := starryNight()
	art.ImageURL = "https://gallery.example/starry-night.jpg"
	o, conn, _ := newTestOrchestrator(t, Options{
		Resolver: &fakeResolver{art: art},
		Images:   &fakeImages{err: errors.New("image server down")},
	})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.open()
	waitFor(t, "create_response", func() bool {
		return len(conn.callList()) == 2
	})

	got := conn.callList()
	if got[0] != "update_session" || got[1] != "create_response" {
		t.Fatalf("calls = %v; want config then response", got)
	}
	if !traceContains(o, "image skipped") {
		t.Error("trace missing image skip entry")
	}

	conn.states <- realtime.StateConnected
	waitState(t, o, StateConnected)
	o.Stop()
}

func TestImageSendFailureIsNonFatal(t *testing.T) {
	art := starryNight()
	art.ImageURL = "https://gallery.example/starry-night.jpg"
	o, conn, _ := newTestOrchestrator(t, Options{
		Resolver: &fakeResolver{art: art},
	})
	conn.imageErr = errors.New("item rejected")
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.open()
	waitFor(t, "create_response", func() bool {
		calls := conn.callList()
		return len(calls) > 0 && calls[len(calls)-1] == "create_response"
	})
	if got := o.State(); got == StateError {
		t.Errorf("state = %s; image failure must not fail the attempt", got)
	}
	o.Stop()
}

func TestBrokerFailureSkipsDial(t *testing.T) {
	b := &fakeBroker{err: &broker.CredentialError{Status: 403, Body: "forbidden"}}
	o, _, dialer := newTestOrchestrator(t, Options{Broker: b})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := o.Start(context.Background()); err == nil {
		t.Fatal("Start: expected error")
	}
	if got := o.State(); got != StateError {
		t.Errorf("state = %s; want %s", got, StateError)
	}
	var credErr *broker.CredentialError
	if !errors.As(o.Err(), &credErr) {
		t.Errorf("Err() = %v; want CredentialError", o.Err())
	}
	if got := dialer.dialCount(); got != 0 {
		t.Errorf("dials = %d; want 0 after credential failure", got)
	}
}

func TestMicrophoneFailureFailsAttempt(t *testing.T) {
	mic := &fakeMicrophone{err: &media.PermissionError{Err: errors.New("denied")}}
	o, _, dialer := newTestOrchestrator(t, Options{Microphone: mic})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := o.Start(context.Background()); err == nil {
		t.Fatal("Start: expected error")
	}
	var permErr *media.PermissionError
	if !errors.As(o.Err(), &permErr) {
		t.Errorf("Err() = %v; want PermissionError", o.Err())
	}
	if got := dialer.dialCount(); got != 0 {
		t.Errorf("dials = %d; want 0 after microphone failure", got)
	}
}

func TestDialFailureReleasesMicrophone(t *testing.T) {
	capture := &fakeCapture{frames: make(chan []byte, 4)}
	o, _, _ := newTestOrchestrator(t, Options{
		Microphone: &fakeMicrophone{capture: capture},
		Dialer:     &fakeDialer{err: errors.New("negotiation rejected")},
	})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := o.Start(context.Background()); err == nil {
		t.Fatal("Start: expected error")
	}
	if got := o.State(); got != StateError {
		t.Errorf("state = %s; want %s", got, StateError)
	}
	if !capture.isClosed() {
		t.Error("capture not released after dial failure")
	}
}

func TestDisconnectAfterConnectedReturnsReady(t *testing.T) {
	capture := &fakeCapture{frames: make(chan []byte, 4)}
	o, conn, _ := newTestOrchestrator(t, Options{
		Microphone: &fakeMicrophone{capture: capture},
	})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.states <- realtime.StateConnected
	waitState(t, o, StateConnected)

	conn.states <- realtime.StateDisconnected
	waitState(t, o, StateReady)
	waitFor(t, "handles released", func() bool {
		return conn.isClosed() && capture.isClosed()
	})
	if o.Err() != nil {
		t.Errorf("Err() = %v; want nil after clean disconnect", o.Err())
	}
}

func TestTransientDisconnectWhileConnectingKeepsWatching(t *testing.T) {
	o, conn, _ := newTestOrchestrator(t, Options{})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// A drop before the call is live must not strand the attempt: the
	// watcher stays on the channel and still sees the terminal failure.
	conn.states <- realtime.StateDisconnected
	conn.states <- realtime.StateFailed
	waitState(t, o, StateError)
	waitFor(t, "conn closed", conn.isClosed)
}

func TestTransientDisconnectThenConnected(t *testing.T) {
	o, conn, _ := newTestOrchestrator(t, Options{})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.states <- realtime.StateDisconnected
	conn.states <- realtime.StateConnected
	waitState(t, o, StateConnected)
	o.Stop()
}

func TestTransportFailureMovesToError(t *testing.T) {
	o, conn, _ := newTestOrchestrator(t, Options{})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.states <- realtime.StateFailed
	waitState(t, o, StateError)
	waitFor(t, "conn closed", conn.isClosed)
}

func TestStopIsIdempotent(t *testing.T) {
	capture := &fakeCapture{frames: make(chan []byte, 4)}
	o, conn, _ := newTestOrchestrator(t, Options{
		Microphone: &fakeMicrophone{capture: capture},
	})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn.states <- realtime.StateConnected
	waitState(t, o, StateConnected)

	o.Stop()
	o.Stop()
	if got := o.State(); got != StateReady {
		t.Errorf("state = %s; want %s", got, StateReady)
	}
	if !conn.isClosed() || !capture.isClosed() {
		t.Error("handles not released by Stop")
	}
}

func TestStopAfterErrorReturnsReady(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, Options{
		Dialer: &fakeDialer{err: errors.New("negotiation rejected")},
	})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err == nil {
		t.Fatal("Start: expected error")
	}

	o.Stop()
	if got := o.State(); got != StateReady {
		t.Errorf("state = %s; want %s", got, StateReady)
	}
	if o.Err() != nil {
		t.Errorf("Err() = %v; want nil after Stop", o.Err())
	}
}

func TestStopDuringNegotiationDiscardsLateResult(t *testing.T) {
	conn := newFakeConn()
	release := make(chan struct{})
	dialer := &fakeDialer{conn: conn, release: release}
	o, _, _ := newTestOrchestrator(t, Options{Dialer: dialer})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	started := make(chan error, 1)
	go func() { started <- o.Start(context.Background()) }()
	waitFor(t, "dial in flight", func() bool { return dialer.dialCount() == 1 })

	o.Stop()
	if got := o.State(); got != StateReady {
		t.Fatalf("state after Stop = %s; want %s", got, StateReady)
	}

	close(release)
	if err := <-started; err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "late session closed", conn.isClosed)
	if got := o.State(); got != StateReady {
		t.Errorf("state = %s; late result must not change it", got)
	}
}

func TestAudioPumpForwardsFrames(t *testing.T) {
	capture := &fakeCapture{frames: make(chan []byte, 4)}
	o, conn, _ := newTestOrchestrator(t, Options{
		Microphone: &fakeMicrophone{capture: capture},
	})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.open()
	capture.frames <- make([]byte, media.FrameBytes)
	capture.frames <- make([]byte, media.FrameBytes)
	waitFor(t, "frames forwarded", func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.audioFrames == 2
	})
	o.Stop()
}

func TestAudioWaitsForSessionConfiguration(t *testing.T) {
	capture := &fakeCapture{frames: make(chan []byte, 4)}
	conn := newFakeConn()
	conn.updateGate = make(chan struct{})
	dialer := &fakeDialer{conn: conn}
	o, _, _ := newTestOrchestrator(t, Options{
		Microphone: &fakeMicrophone{capture: capture},
		Dialer:     dialer,
	})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.open()
	capture.frames <- make([]byte, media.FrameBytes)

	// The configuration send is still blocked; no audio may have reached
	// the control channel.
	time.Sleep(20 * time.Millisecond)
	conn.mu.Lock()
	sent := conn.audioFrames
	conn.mu.Unlock()
	if sent != 0 {
		t.Fatalf("audio frames sent before session.update: %d; want 0", sent)
	}

	close(conn.updateGate)
	waitFor(t, "frame forwarded", func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return conn.audioFrames == 1
	})

	calls := conn.callList()
	if len(calls) == 0 || calls[0] != "update_session" {
		t.Errorf("calls = %v; session.update must come first", calls)
	}
	o.Stop()
}

func TestTraceNeverHoldsFullSecret(t *testing.T) {
	o, conn, _ := newTestOrchestrator(t, Options{})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn.open()
	conn.states <- realtime.StateConnected
	waitState(t, o, StateConnected)

	for _, e := range o.Trace().Entries() {
		if strings.Contains(e.Message, "ek_test_0123456789abcdef") {
			t.Fatalf("trace entry leaks credential: %q", e.Message)
		}
	}
	if !traceContains(o, "credential issued") {
		t.Error("trace missing credential entry")
	}
	o.Stop()
}

func TestEventPumpTracesTranscripts(t *testing.T) {
	o, conn, _ := newTestOrchestrator(t, Options{})
	if err := o.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn.events <- &realtime.ServerEvent{
		Type:       realtime.EventTypeResponseAudioTranscriptDone,
		Transcript: "Van Gogh painted this in 1889.",
	}
	waitFor(t, "transcript traced", func() bool {
		return traceContains(o, "Van Gogh painted this in 1889.")
	})
	o.Stop()
}
