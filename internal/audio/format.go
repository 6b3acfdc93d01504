package audio

import (
	"fmt"
	"log/slog"
)

// Representation describes how one sample is stored in the device buffer
type Representation int

const (
	RepresentationUnknown Representation = iota
	RepresentationPCM16
	RepresentationPCM24
	RepresentationPCM32
	RepresentationFloat32
)

// BytesPerSample returns the storage size of a single sample
func (r Representation) BytesPerSample() int {
	switch r {
	case RepresentationPCM16:
		return 2
	case RepresentationPCM24:
		return 3
	case RepresentationPCM32, RepresentationFloat32:
		return 4
	default:
		return 0
	}
}

// IsFloat reports whether samples are IEEE float
func (r Representation) IsFloat() bool {
	return r == RepresentationFloat32
}

func (r Representation) String() string {
	switch r {
	case RepresentationPCM16:
		return "pcm16"
	case RepresentationPCM24:
		return "pcm24"
	case RepresentationPCM32:
		return "pcm32"
	case RepresentationFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// MixFormat is the format the output device mixes in. It is resolved once per
// process and every buffer handed to the renderer must conform to it.
type MixFormat struct {
	SampleRate     int
	Channels       int
	Representation Representation
	FrameStride    int // bytes per interleaved frame
}

// NewMixFormat builds a MixFormat and derives its frame stride
func NewMixFormat(sampleRate, channels int, rep Representation) (MixFormat, error) {
	format := MixFormat{
		SampleRate:     sampleRate,
		Channels:       channels,
		Representation: rep,
		FrameStride:    channels * rep.BytesPerSample(),
	}
	if err := format.Validate(); err != nil {
		return MixFormat{}, err
	}
	return format, nil
}

// Validate checks that the format can drive a render session
func (f MixFormat) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidMixFormat, f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("%w: channel count %d", ErrInvalidMixFormat, f.Channels)
	}
	if f.Representation.BytesPerSample() == 0 {
		return fmt.Errorf("%w: representation %s", ErrInvalidMixFormat, f.Representation)
	}
	if f.FrameStride != f.Channels*f.Representation.BytesPerSample() {
		return fmt.Errorf("%w: frame stride %d", ErrInvalidMixFormat, f.FrameStride)
	}
	return nil
}

// LogValue renders the format as a single slog group
func (f MixFormat) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("sample_rate", f.SampleRate),
		slog.Int("channels", f.Channels),
		slog.String("representation", f.Representation.String()),
		slog.Int("frame_stride", f.FrameStride),
	)
}

func (f MixFormat) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.Representation)
}
