package audio_test

import (
	"math"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minply.click/internal/audio"
	"minply.click/internal/audio/audiotest"
)

func mustFormat(t *testing.T, rate, channels int, rep audio.Representation) audio.MixFormat {
	t.Helper()
	format, err := audio.NewMixFormat(rate, channels, rep)
	require.NoError(t, err)
	return format
}

func TestDecodeRIFFRoundTrip(t *testing.T) {
	target := mustFormat(t, 48000, 2, audio.RepresentationFloat32)
	source := audiotest.Ramp(480, 2, 0.9)

	tests := []struct {
		name  string
		image []byte
		delta float64
	}{
		// one quantization step of the source depth
		{name: "pcm16", image: audiotest.PCMWav(48000, 2, 16, source), delta: 1.0 / 32768},
		{name: "pcm24", image: audiotest.PCMWav(48000, 2, 24, source), delta: 1.0 / 8388608},
		// float32 output cannot carry 32 integer bits
		{name: "pcm32", image: audiotest.PCMWav(48000, 2, 32, source), delta: 1e-6},
		{name: "float32", image: audiotest.FloatWav(48000, 2, source), delta: 0},
		{
			name: "extensible pcm24",
			image: audiotest.RIFF(
				audiotest.ExtensibleFmtChunk(1, 2, 48000, 24),
				audiotest.Chunk{ID: "data", Data: audiotest.PCMData(source, 24)},
			),
			delta: 1.0 / 8388608,
		},
		{
			name: "extensible float",
			image: audiotest.RIFF(
				audiotest.ExtensibleFmtChunk(3, 2, 48000, 32),
				audiotest.Chunk{ID: "data", Data: audiotest.FloatData(source)},
			),
			delta: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := audio.DecodeRIFF(tt.image, target)
			require.NoError(t, err)
			require.Equal(t, 2, buf.Channels)
			require.Len(t, buf.Samples, len(source))
			for i := range source {
				assert.InDelta(t, source[i], buf.Samples[i], tt.delta, "sample %d", i)
			}
		})
	}
}

func TestDecodeRIFFNegative24BitSamples(t *testing.T) {
	target := mustFormat(t, 8000, 1, audio.RepresentationPCM24)
	// -1, most negative, and a mid negative value
	data := []byte{0xFF, 0xFF, 0xFF, 0x00, 0x00, 0x80, 0x00, 0x00, 0xC0}
	image := audiotest.RIFF(audiotest.FmtChunk(1, 1, 8000, 24), audiotest.Chunk{ID: "data", Data: data})

	buf, err := audio.DecodeRIFF(image, target)
	require.NoError(t, err)
	require.Len(t, buf.Samples, 3)
	assert.Equal(t, float32(-1.0/8388608), buf.Samples[0])
	assert.Equal(t, float32(-1), buf.Samples[1])
	assert.Equal(t, float32(-0.5), buf.Samples[2])
}

func TestDecodeRIFFRejects(t *testing.T) {
	target := mustFormat(t, 44100, 2, audio.RepresentationPCM16)
	samples := audiotest.Ramp(100, 2, 0.5)
	fmtChunk := audiotest.FmtChunk(1, 2, 44100, 16)
	data := audiotest.Chunk{ID: "data", Data: audiotest.PCMData(samples, 16)}

	truncated := audiotest.PCMWav(44100, 2, 16, samples)
	truncated = truncated[:len(truncated)-10]

	tests := []struct {
		name    string
		image   []byte
		wantErr error
	}{
		{name: "short header", image: []byte("RIFF\x00\x00"), wantErr: audio.ErrInvalidData},
		{name: "compressed container", image: []byte("ID3\x04\x00\x00\x00\x00\x00\x00\xff\xfb\x90\x64"), wantErr: audio.ErrInvalidData},
		{name: "wrong form type", image: append([]byte("RIFF\x04\x00\x00\x00AVI "), make([]byte, 8)...), wantErr: audio.ErrInvalidData},
		{name: "mismatched rate", image: audiotest.PCMWav(22050, 2, 16, samples), wantErr: audio.ErrFormatMismatch},
		{name: "mismatched channels", image: audiotest.PCMWav(44100, 1, 16, samples), wantErr: audio.ErrFormatMismatch},
		{name: "missing fmt chunk", image: audiotest.RIFF(data), wantErr: audio.ErrChunkNotFound},
		{name: "short fmt chunk", image: audiotest.RIFF(audiotest.Chunk{ID: "fmt ", Data: fmtChunk.Data[:14]}, data), wantErr: audio.ErrInvalidData},
		{name: "missing data chunk", image: audiotest.RIFF(fmtChunk), wantErr: audio.ErrChunkNotFound},
		{name: "empty data chunk", image: audiotest.RIFF(fmtChunk, audiotest.Chunk{ID: "data"}), wantErr: audio.ErrInvalidData},
		{name: "unsupported depth", image: audiotest.RIFF(audiotest.FmtChunk(1, 2, 44100, 8), data), wantErr: audio.ErrUnsupportedFormat},
		{name: "64-bit float", image: audiotest.RIFF(audiotest.FmtChunk(3, 2, 44100, 64), data), wantErr: audio.ErrUnsupportedFormat},
		{name: "a-law", image: audiotest.RIFF(audiotest.FmtChunk(6, 2, 44100, 8), data), wantErr: audio.ErrUnsupportedFormat},
		{name: "chunk past end of file", image: truncated, wantErr: audio.ErrMalformedChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := audio.DecodeRIFF(tt.image, target)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, buf)
		})
	}
}

func TestDecodeRIFFSkipsPaddedChunks(t *testing.T) {
	target := mustFormat(t, 44100, 1, audio.RepresentationPCM16)
	samples := []float32{0.25, -0.25, 0.5}
	image := audiotest.RIFF(
		audiotest.Chunk{ID: "LIST", Data: []byte("INFOodd")},
		audiotest.FmtChunk(1, 1, 44100, 16),
		audiotest.Chunk{ID: "fact", Data: []byte{3, 0, 0, 0}},
		audiotest.Chunk{ID: "data", Data: audiotest.PCMData(samples, 16)},
	)

	buf, err := audio.DecodeRIFF(image, target)
	require.NoError(t, err)
	assert.Equal(t, samples, buf.Samples)
}

func TestDecodeRIFFDropsPartialFrame(t *testing.T) {
	target := mustFormat(t, 44100, 2, audio.RepresentationPCM16)
	payload := append(audiotest.PCMData([]float32{0.5, -0.5, 0.25, -0.25}, 16), 0x01, 0x02)
	image := audiotest.RIFF(audiotest.FmtChunk(1, 2, 44100, 16), audiotest.Chunk{ID: "data", Data: payload})

	buf, err := audio.DecodeRIFF(image, target)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Frames())
	assert.Equal(t, []float32{0.5, -0.5, 0.25, -0.25}, buf.Samples)
}

func TestRIFFDecoderReadsThroughFilesystem(t *testing.T) {
	fs := afero.NewMemMapFs()
	target := mustFormat(t, 44100, 2, audio.RepresentationPCM16)

	ints := make([]int, 2*441)
	for i := range ints {
		ints[i] = int(math.Round(8000 * math.Sin(float64(i/2)/10)))
	}
	require.NoError(t, audiotest.WriteEncodedWav(fs, "/tone.wav", 44100, 2, 16, ints))

	decoder := audio.NewRIFFDecoder(fs)
	assert.Equal(t, "riff-direct", decoder.Name())

	buf, err := decoder.Decode("/tone.wav", target)
	require.NoError(t, err)
	require.Len(t, buf.Samples, len(ints))
	for i, v := range ints {
		assert.Equal(t, float32(v)/32768, buf.Samples[i])
	}

	_, err = decoder.Decode("/missing.wav", target)
	assert.ErrorIs(t, err, audio.ErrReadFailure)
}
