package audio

import "time"

// SampleBuffer holds interleaved float32 samples. The slice length is always a
// multiple of Channels. A stage that hands a buffer on must not keep using it.
type SampleBuffer struct {
	Samples  []float32
	Channels int
}

// NewSampleBuffer allocates a zeroed buffer of the given frame count
func NewSampleBuffer(frames, channels int) *SampleBuffer {
	if frames < 0 {
		frames = 0
	}
	return &SampleBuffer{
		Samples:  make([]float32, frames*channels),
		Channels: channels,
	}
}

// Frames returns the number of complete frames in the buffer
func (b *SampleBuffer) Frames() int {
	if b == nil || b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer at the given rate
func (b *SampleBuffer) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(sampleRate)
}
