// Package media provides local media acquisition for a realtime session:
// microphone capture normalized to the endpoint's audio format, and sinks
// for inbound track payloads. Device enumeration and selection policy live
// with the operating system; this package only opens the default devices.
package media

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
)

const (
	// SampleRate is the PCM sample rate the realtime endpoint expects.
	SampleRate = 24000

	// FrameDuration is the capture frame length in milliseconds.
	FrameDuration = 20

	// FrameBytes is the size of one mono 16-bit frame at SampleRate.
	FrameBytes = SampleRate * FrameDuration / 1000 * 2
)

// Capture is a live microphone capture delivering PCM16 mono frames at
// SampleRate. Frames are dropped, not queued unboundedly, when the
// consumer falls behind.
type Capture interface {
	// Frames delivers fixed-size PCM frames. The channel is closed when
	// the capture is closed or the device fails.
	Frames() <-chan []byte

	// Close stops the device and releases it. Idempotent.
	Close() error
}

// Microphone acquires a capture from the local audio input device.
type Microphone interface {
	Acquire(ctx context.Context) (Capture, error)
}

// PermissionError indicates the input device could not be opened — denied,
// missing, or busy.
type PermissionError struct {
	Err error
}

// Error implements the error interface.
func (e *PermissionError) Error() string {
	return fmt.Sprintf("media: microphone unavailable: %v", e.Err)
}

// Unwrap returns the underlying device error.
func (e *PermissionError) Unwrap() error {
	return e.Err
}

// DiscardSink drops inbound track payloads while counting them. Useful
// when the caller only needs the conversation transcript, and in tests.
type DiscardSink struct {
	packets atomic.Int64
}

// WriteOpus implements the track sink.
func (s *DiscardSink) WriteOpus(payload []byte) error {
	s.packets.Add(1)
	return nil
}

// Packets returns how many payloads were received.
func (s *DiscardSink) Packets() int64 {
	return s.packets.Load()
}

// FileSink appends raw inbound payloads to a file for offline diagnosis.
type FileSink struct {
	f *os.File
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileSink{f: f}, nil
}

// WriteOpus implements the track sink.
func (s *FileSink) WriteOpus(payload []byte) error {
	_, err := s.f.Write(payload)
	return err
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	return s.f.Close()
}
