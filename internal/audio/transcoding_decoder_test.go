package audio_test

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minply.click/internal/audio"
	"minply.click/internal/audio/audiotest"
)

func newTranscoder(fs afero.Fs) *audio.TranscodingDecoder {
	return audio.NewTranscodingDecoder(fs, audio.NewDefaultFormatRegistry())
}

func TestTranscodingDecoderResamplesAndMixes(t *testing.T) {
	fs := afero.NewMemMapFs()
	target := mustFormat(t, 44100, 2, audio.RepresentationFloat32)

	// 0.1 s of mono at 22050 Hz
	ints := make([]int, 2205)
	for i := range ints {
		ints[i] = 16384
	}
	require.NoError(t, audiotest.WriteEncodedWav(fs, "/mono.wav", 22050, 1, 16, ints))

	decoder := newTranscoder(fs)
	assert.Equal(t, "transcode", decoder.Name())

	buf, err := decoder.Decode("/mono.wav", target)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Channels)
	assert.Equal(t, 4410, buf.Frames())
	for i, v := range buf.Samples {
		require.InDelta(t, 0.5, v, 1e-6, "sample %d", i)
	}
}

func TestTranscodingDecoderFloatStereo(t *testing.T) {
	fs := afero.NewMemMapFs()
	target := mustFormat(t, 48000, 2, audio.RepresentationFloat32)
	samples := audiotest.Ramp(480, 2, 0.75)
	require.NoError(t, afero.WriteFile(fs, "/float.wav", audiotest.FloatWav(48000, 2, samples), 0o644))

	buf, err := newTranscoder(fs).Decode("/float.wav", target)
	require.NoError(t, err)
	require.Len(t, buf.Samples, len(samples))
	for i := range samples {
		assert.InDelta(t, samples[i], buf.Samples[i], 1e-6)
	}
}

func TestTranscodingDecoderMultichannelFoldsToStereo(t *testing.T) {
	fs := afero.NewMemMapFs()
	target := mustFormat(t, 48000, 2, audio.RepresentationFloat32)

	// four channels: 0.5, 0.25, -0.5, 0.75 per frame
	frame := []int{16384, 8192, -16384, 24576}
	ints := make([]int, 0, 4*100)
	for i := 0; i < 100; i++ {
		ints = append(ints, frame...)
	}
	require.NoError(t, audiotest.WriteEncodedWav(fs, "/quad.wav", 48000, 4, 16, ints))

	buf, err := newTranscoder(fs).Decode("/quad.wav", target)
	require.NoError(t, err)
	require.Equal(t, 100, buf.Frames())
	assert.InDelta(t, 0.0, buf.Samples[0], 1e-6)
	assert.InDelta(t, 0.5, buf.Samples[1], 1e-6)
}

func TestTranscodingDecoderWavLayouts(t *testing.T) {
	target := mustFormat(t, 48000, 2, audio.RepresentationFloat32)
	ramp := audiotest.Ramp(441, 2, 0.5)

	tests := []struct {
		name  string
		image []byte
		delta float64
	}{
		{
			name:  "extensible float",
			image: audiotest.RIFF(audiotest.ExtensibleFmtChunk(3, 2, 44100, 32), audiotest.Chunk{ID: "data", Data: audiotest.FloatData(ramp)}),
			delta: 1e-3,
		},
		{
			name:  "plain float",
			image: audiotest.FloatWav(44100, 2, ramp),
			delta: 1e-3,
		},
		{
			name:  "extensible pcm16",
			image: audiotest.RIFF(audiotest.ExtensibleFmtChunk(1, 2, 44100, 16), audiotest.Chunk{ID: "data", Data: audiotest.PCMData(ramp, 16)}),
			delta: 2e-3,
		},
		{
			name:  "extensible pcm24",
			image: audiotest.RIFF(audiotest.ExtensibleFmtChunk(1, 2, 44100, 24), audiotest.Chunk{ID: "data", Data: audiotest.PCMData(ramp, 24)}),
			delta: 1e-3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/ramp.wav", tt.image, 0o644))

			buf, err := newTranscoder(fs).Decode("/ramp.wav", target)
			require.NoError(t, err)
			require.Equal(t, 480, buf.Frames())
			assert.InDelta(t, -0.5, buf.Samples[0], tt.delta)
			// frame 240 sits at source position 220.5
			assert.InDelta(t, 0.0011, buf.Samples[240*2], tt.delta)
			for i, v := range buf.Samples {
				require.InDelta(t, 0, v, 0.5+tt.delta, "sample %d", i)
			}
		})
	}
}

func TestTranscodingDecoderMultichannelFloat(t *testing.T) {
	target := mustFormat(t, 48000, 2, audio.RepresentationFloat32)
	frame := []float32{0.5, 0.25, 0.5, 0.25, 0.5, 0.25}
	samples := make([]float32, 0, len(frame)*441)
	for i := 0; i < 441; i++ {
		samples = append(samples, frame...)
	}

	tests := []struct {
		name     string
		fmtChunk audiotest.Chunk
	}{
		{name: "plain", fmtChunk: audiotest.FmtChunk(3, 6, 44100, 32)},
		{name: "extensible", fmtChunk: audiotest.ExtensibleFmtChunk(3, 6, 44100, 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			image := audiotest.RIFF(tt.fmtChunk, audiotest.Chunk{ID: "data", Data: audiotest.FloatData(samples)})
			require.NoError(t, afero.WriteFile(fs, "/surround.wav", image, 0o644))

			buf, err := newTranscoder(fs).Decode("/surround.wav", target)
			require.NoError(t, err)
			require.Equal(t, 2, buf.Channels)
			require.Equal(t, 480, buf.Frames())
			for f := 0; f < buf.Frames(); f++ {
				assert.InDelta(t, 0.5, buf.Samples[2*f], 1e-6, "left %d", f)
				assert.InDelta(t, 0.25, buf.Samples[2*f+1], 1e-6, "right %d", f)
			}
		})
	}
}

func TestTranscodingDecoderFailures(t *testing.T) {
	target := mustFormat(t, 48000, 2, audio.RepresentationFloat32)

	tests := []struct {
		name    string
		path    string
		content []byte
		wantErr error
	}{
		{name: "missing file", path: "/missing.wav", wantErr: audio.ErrReadFailure},
		{name: "unknown container", path: "/notes.txt", content: []byte("just some text, not audio"), wantErr: audio.ErrUnsupportedFormat},
		{name: "no samples", path: "/empty.wav", content: audiotest.RIFF(audiotest.FmtChunk(1, 2, 48000, 16), audiotest.Chunk{ID: "data"}), wantErr: audio.ErrEmptyOutput},
		{name: "extensible a-law", path: "/alaw.wav", content: audiotest.RIFF(audiotest.ExtensibleFmtChunk(6, 2, 48000, 8), audiotest.Chunk{ID: "data", Data: make([]byte, 64)}), wantErr: audio.ErrUnsupportedFormat},
		{name: "broken flac", path: "/broken.flac", content: []byte("fLaC\x00\x00"), wantErr: audio.ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.content != nil {
				require.NoError(t, afero.WriteFile(fs, tt.path, tt.content, 0o644))
			}

			buf, err := newTranscoder(fs).Decode(tt.path, target)
			assert.Nil(t, buf)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFormatRegistryDetection(t *testing.T) {
	registry := audio.NewDefaultFormatRegistry()
	assert.Equal(t, []string{"WAV", "MP3", "AIFF", "FLAC", "VORBIS"}, registry.SupportedFormats())

	wavImage := audiotest.PCMWav(8000, 1, 16, []float32{0, 0.5})
	aiffHeader := append([]byte("FORM\x00\x00\x00\x2eAIFFCOMM"), make([]byte, 32)...)

	tests := []struct {
		name     string
		filename string
		content  []byte
		expected string
	}{
		{name: "wav magic with misleading extension", filename: "clip.mp3", content: wavImage, expected: "WAV"},
		{name: "id3 tagged mp3", filename: "song.bin", content: append([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"), make([]byte, 64)...), expected: "MP3"},
		{name: "flac magic", filename: "track", content: append([]byte("fLaC\x00\x00\x00\x22"), make([]byte, 64)...), expected: "FLAC"},
		{name: "aiff magic", filename: "sample", content: aiffHeader, expected: "AIFF"},
		{name: "extension fallback", filename: "voice.ogg", content: []byte("plain text"), expected: "VORBIS"},
		{name: "extension is case insensitive", filename: "LOUD.AIF", content: []byte("plain text"), expected: "AIFF"},
		{name: "empty file with extension", filename: "empty.wav", content: nil, expected: "WAV"},
		{name: "unknown", filename: "notes.txt", content: []byte("plain text"), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bytes.NewReader(tt.content)
			opener := registry.DetectFormatWithContent(tt.filename, reader)
			if tt.expected == "" {
				assert.Nil(t, opener)
				return
			}
			require.NotNil(t, opener)
			assert.Equal(t, tt.expected, opener.FormatName())

			pos, err := reader.Seek(0, 1)
			require.NoError(t, err)
			assert.Zero(t, pos, "reader must be rewound after sniffing")
		})
	}
}
