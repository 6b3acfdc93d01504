package audio

import (
	"log/slog"
	"time"
)

// Default shaping durations
const (
	DefaultFadeDuration   = 5 * time.Millisecond
	DefaultLeadInDuration = 700 * time.Millisecond
)

// framesFor converts a duration to whole frames using integer arithmetic
func framesFor(sampleRate int, d time.Duration) int {
	if sampleRate <= 0 || d <= 0 {
		return 0
	}
	return int(int64(sampleRate) * int64(d) / int64(time.Second))
}

// ApplyFade ramps the first and last fade window of buf in place. Buffers
// shorter than two windows are left untouched.
func ApplyFade(buf *SampleBuffer, sampleRate int, fade time.Duration) {
	fadeFrames := framesFor(sampleRate, fade)
	frames := buf.Frames()
	if fadeFrames == 0 || frames < 2*fadeFrames {
		slog.Debug("fade skipped", "frames", frames, "fade_frames", fadeFrames)
		return
	}

	channels := buf.Channels
	tail := frames - fadeFrames
	for i := 0; i < fadeFrames; i++ {
		in := float32(i) / float32(fadeFrames)
		out := float32(fadeFrames-1-i) / float32(fadeFrames)
		for c := 0; c < channels; c++ {
			buf.Samples[i*channels+c] *= in
			buf.Samples[(tail+i)*channels+c] *= out
		}
	}

	slog.Debug("fade applied", "frames", frames, "fade_frames", fadeFrames)
}

// Silence returns a zeroed buffer lasting leadIn at the mix format
func Silence(format MixFormat, leadIn time.Duration) *SampleBuffer {
	return NewSampleBuffer(framesFor(format.SampleRate, leadIn), format.Channels)
}
