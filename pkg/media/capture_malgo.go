package media

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

// deviceSampleRate is the rate the capture device is opened at. 48kHz is
// universally supported; frames are converted down to SampleRate.
const deviceSampleRate = 48000

// MalgoMicrophone acquires the default system microphone through
// miniaudio.
type MalgoMicrophone struct{}

// Acquire opens the default capture device. Failures to initialize or
// start the device are reported as PermissionError.
func (MalgoMicrophone) Acquire(ctx context.Context) (Capture, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, &PermissionError{Err: err}
	}

	converter, err := newRateConverter(deviceSampleRate)
	if err != nil {
		audioCtx.Uninit()
		audioCtx.Free()
		return nil, err
	}

	cap := &malgoCapture{
		audioCtx:  audioCtx,
		converter: converter,
		frames:    make(chan []byte, 64),
		done:      make(chan struct{}),
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = deviceSampleRate
	config.Capture.Format = malgo.FormatS16
	config.Capture.Channels = 1
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency

	device, err := malgo.InitDevice(audioCtx.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			cap.onDeviceData(pInput, frameCount)
		},
	})
	if err != nil {
		audioCtx.Uninit()
		audioCtx.Free()
		return nil, &PermissionError{Err: err}
	}
	cap.device = device

	if err := device.Start(); err != nil {
		cap.Close()
		return nil, &PermissionError{Err: err}
	}

	return cap, nil
}

type malgoCapture struct {
	audioCtx  *malgo.AllocatedContext
	device    *malgo.Device
	converter *rateConverter

	frames chan []byte
	done   chan struct{}

	mu        sync.Mutex
	closeOnce sync.Once
}

// onDeviceData runs on the miniaudio callback thread. It must not block:
// frames are dropped when the consumer is behind.
func (c *malgoCapture) onDeviceData(pInput []byte, frameCount uint32) {
	n := int(frameCount) * 2
	if len(pInput) < n || n == 0 {
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	c.mu.Lock()
	out, err := c.converter.push(pInput[:n])
	c.mu.Unlock()
	if err != nil {
		slog.Debug("capture conversion failed", "error", err)
		return
	}

	for _, frame := range out {
		select {
		case c.frames <- frame:
		default:
		}
	}
}

// Frames implements Capture.
func (c *malgoCapture) Frames() <-chan []byte {
	return c.frames
}

// Close implements Capture.
func (c *malgoCapture) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.device != nil {
			c.device.Uninit()
		}
		if c.audioCtx != nil {
			c.audioCtx.Uninit()
			c.audioCtx.Free()
		}
		close(c.frames)
	})
	return nil
}

// Ensure MalgoMicrophone implements Microphone.
var _ Microphone = MalgoMicrophone{}
