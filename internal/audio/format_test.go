package audio_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minply.click/internal/audio"
)

func TestNewMixFormat(t *testing.T) {
	tests := []struct {
		rep    audio.Representation
		stride int
	}{
		{audio.RepresentationPCM16, 4},
		{audio.RepresentationPCM24, 6},
		{audio.RepresentationPCM32, 8},
		{audio.RepresentationFloat32, 8},
	}

	for _, tt := range tests {
		format, err := audio.NewMixFormat(48000, 2, tt.rep)
		require.NoError(t, err)
		assert.Equal(t, tt.stride, format.FrameStride, tt.rep.String())
	}
}

func TestNewMixFormatInvalid(t *testing.T) {
	_, err := audio.NewMixFormat(0, 2, audio.RepresentationPCM16)
	assert.ErrorIs(t, err, audio.ErrInvalidMixFormat)

	_, err = audio.NewMixFormat(48000, 0, audio.RepresentationPCM16)
	assert.ErrorIs(t, err, audio.ErrInvalidMixFormat)

	_, err = audio.NewMixFormat(48000, 2, audio.RepresentationUnknown)
	assert.ErrorIs(t, err, audio.ErrInvalidMixFormat)

	bad := audio.MixFormat{SampleRate: 48000, Channels: 2, Representation: audio.RepresentationPCM16, FrameStride: 3}
	assert.ErrorIs(t, bad.Validate(), audio.ErrInvalidMixFormat)
}

func TestSampleBufferDuration(t *testing.T) {
	buf := audio.NewSampleBuffer(44100, 2)
	assert.Equal(t, 44100, buf.Frames())
	assert.Equal(t, time.Second, buf.Duration(44100))
	assert.Zero(t, (*audio.SampleBuffer)(nil).Frames())
}
