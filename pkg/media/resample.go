package media

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// rateConverter converts mono PCM16 from the device rate to SampleRate and
// re-chunks the output into FrameBytes frames.
type rateConverter struct {
	resampler resampling.Resampler
	pending   []byte
}

// newRateConverter creates a converter from srcRate to SampleRate. A nil
// resampler means the device already runs at SampleRate.
func newRateConverter(srcRate int) (*rateConverter, error) {
	rc := &rateConverter{}
	if srcRate != SampleRate {
		resampler, err := resampling.New(&resampling.Config{
			InputRate:  float64(srcRate),
			OutputRate: float64(SampleRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("media: create resampler: %w", err)
		}
		rc.resampler = resampler
	}
	return rc, nil
}

// push feeds device PCM in and returns zero or more complete frames.
func (rc *rateConverter) push(pcm []byte) ([][]byte, error) {
	if rc.resampler == nil {
		rc.pending = append(rc.pending, pcm...)
		return rc.drain(), nil
	}

	output, err := rc.resampler.Process(pcmToFloat64(pcm))
	if err != nil {
		return nil, fmt.Errorf("media: resample: %w", err)
	}
	rc.pending = append(rc.pending, float64ToPCM(output)...)
	return rc.drain(), nil
}

// drain slices pending bytes into FrameBytes frames.
func (rc *rateConverter) drain() [][]byte {
	var frames [][]byte
	for len(rc.pending) >= FrameBytes {
		frame := make([]byte, FrameBytes)
		copy(frame, rc.pending[:FrameBytes])
		rc.pending = rc.pending[FrameBytes:]
		frames = append(frames, frame)
	}
	return frames
}

// pcmToFloat64 converts little-endian PCM16 bytes to samples normalized to
// [-1, 1].
func pcmToFloat64(b []byte) []float64 {
	n := len(b) / 2
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sample := int16(b[i*2]) | int16(b[i*2+1])<<8
		out[i] = float64(sample) / 32768.0
	}
	return out
}

// float64ToPCM converts normalized samples back to little-endian PCM16
// bytes, clamping out-of-range values.
func float64ToPCM(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		sample := int16(s * 32767.0)
		if s > 1.0 {
			sample = 32767
		} else if s < -1.0 {
			sample = -32768
		}
		out[i*2] = byte(sample)
		out[i*2+1] = byte(sample >> 8)
	}
	return out
}
