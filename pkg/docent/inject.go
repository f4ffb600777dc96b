package docent

import (
	"context"
	"fmt"

	"github.com/docentlab/artvoice/pkg/artwork"
	"github.com/docentlab/artvoice/pkg/media"
	"github.com/docentlab/artvoice/pkg/realtime"
)

// inject runs once the control channel opens and sends the conversation
// context in strict order: session configuration, then the optional
// artwork image, then the initial response request. Nothing else may
// reach the control channel before the configuration; configured is
// closed once it has been sent.
func (o *Orchestrator) inject(ctx context.Context, gen int, done <-chan struct{}, configured chan<- struct{}, conn Conn, art *artwork.Context) {
	select {
	case <-conn.Opened():
	case <-done:
		return
	case <-ctx.Done():
		o.fail(gen, fmt.Errorf("waiting for control channel: %w", ctx.Err()))
		return
	}
	if !o.current(gen) {
		return
	}

	config := &realtime.SessionConfig{
		Modalities:        o.opts.Modalities,
		Instructions:      art.Instructions,
		Voice:             o.opts.Voice,
		InputAudioFormat:  realtime.AudioFormatPCM16,
		OutputAudioFormat: realtime.AudioFormatPCM16,
		TurnDetection: &realtime.TurnDetection{
			Type:              realtime.VADServerVAD,
			Threshold:         o.opts.VADThreshold,
			PrefixPaddingMs:   o.opts.VADPrefixPaddingMs,
			SilenceDurationMs: o.opts.VADSilenceDurationMs,
		},
	}
	if err := conn.UpdateSession(config); err != nil {
		o.fail(gen, fmt.Errorf("configure session: %w", err))
		return
	}
	close(configured)
	o.trace.Append("session configured (voice=%s)", o.opts.Voice)

	if art.ImageURL != "" {
		o.injectImage(ctx, gen, conn, art)
	}

	if !o.current(gen) {
		return
	}
	if err := conn.CreateResponse(nil); err != nil {
		o.fail(gen, fmt.Errorf("request initial response: %w", err))
		return
	}
	o.trace.Append("initial response requested")
}

// injectImage fetches the artwork image and adds it as a conversation
// item. Any failure here is traced and skipped: the conversation proceeds
// without the image.
func (o *Orchestrator) injectImage(ctx context.Context, gen int, conn Conn, art *artwork.Context) {
	data, contentType, err := o.opts.Images.Fetch(ctx, art.ImageURL)
	if err != nil {
		o.trace.Append("image skipped: %v", err)
		return
	}
	if !o.current(gen) {
		return
	}
	if err := conn.AddUserImage(imageFramingText, encodeImageDataURL(data, contentType)); err != nil {
		o.trace.Append("image skipped: %v", err)
		return
	}
	o.trace.Append("artwork image injected (%d bytes)", len(data))
}

// pumpEvents forwards notable server events to the trace. Deltas are too
// chatty to trace; completed transcripts and turn boundaries are kept.
func (o *Orchestrator) pumpEvents(gen int, conn Conn) {
	for event, err := range conn.Events() {
		if !o.current(gen) {
			return
		}
		if err != nil {
			o.trace.Append("model error: %v", err)
			continue
		}
		if event.IsDelta() {
			continue
		}
		switch event.Type {
		case realtime.EventTypeSessionCreated:
			o.trace.Append("session %s created", conn.SessionID())
		case realtime.EventTypeConversationItemInputAudioTranscriptionCompleted:
			o.trace.Append("visitor: %q", event.Transcript)
		case realtime.EventTypeResponseAudioTranscriptDone:
			o.trace.Append("docent: %q", event.Transcript)
		case realtime.EventTypeInputAudioBufferSpeechStarted:
			o.trace.Append("visitor speaking")
		case realtime.EventTypeResponseDone:
			o.trace.Append("response complete")
		}
	}
}

// pumpAudio streams captured microphone frames to the input audio buffer.
// It waits for the session configuration to be sent first, so no audio
// append can precede session.update on the control channel.
func (o *Orchestrator) pumpAudio(done, configured <-chan struct{}, conn Conn, capture media.Capture) {
	select {
	case <-configured:
	case <-done:
		return
	}
	for {
		select {
		case <-done:
			return
		case frame, ok := <-capture.Frames():
			if !ok {
				return
			}
			if err := conn.AppendAudio(frame); err != nil {
				return
			}
		}
	}
}
