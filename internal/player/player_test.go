package player_test

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minply.click/internal/audio"
	"minply.click/internal/audio/audiotest"
	"minply.click/internal/player"
)

type harness struct {
	fs       afero.Fs
	endpoint *audiotest.FakeEndpoint
	sleeps   []time.Duration
}

func newHarness(t *testing.T, rate, channels int, rep audio.Representation) *harness {
	t.Helper()
	format, err := audio.NewMixFormat(rate, channels, rep)
	require.NoError(t, err)
	return &harness{
		fs:       afero.NewMemMapFs(),
		endpoint: audiotest.NewFakeEndpoint(format, rate/10, rate/100),
	}
}

func (h *harness) sleep(d time.Duration) {
	h.sleeps = append(h.sleeps, d)
	h.endpoint.Stream.Consume(h.endpoint.Stream.Period)
}

func (h *harness) player(opts ...player.Option) *player.Player {
	return player.New(h.fs, h.endpoint, append([]player.Option{player.WithSleep(h.sleep)}, opts...)...)
}

func (h *harness) write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(h.fs, path, data, 0644))
}

func constant(frames, channels int, v float32) []float32 {
	out := make([]float32, frames*channels)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPlayOneSecondStereoWav(t *testing.T) {
	h := newHarness(t, 44100, 2, audio.RepresentationPCM16)
	h.write(t, "/music/tone.wav", audiotest.PCMWav(44100, 2, 16, constant(44100, 2, 0.5)))

	result, err := h.player().Play("/music/tone.wav")
	require.NoError(t, err)
	assert.Equal(t, player.ExitOK, player.ExitCode(err))

	assert.Equal(t, "riff-direct", result.Strategy)
	assert.Equal(t, 44100, result.ProgramFrames)
	assert.Equal(t, 30870, result.LeadInFrames)
	require.NotNil(t, result.Session)
	assert.NotEmpty(t, result.Session.ID)

	stream := h.endpoint.Stream
	written := stream.Written
	require.Equal(t, (30870+44100)*2, len(written)/2, "samples reaching the device")

	sample := func(frame int) int16 {
		return int16(binary.LittleEndian.Uint16(written[frame*4:]))
	}
	for _, frame := range []int{0, 15000, 30869} {
		assert.Zero(t, sample(frame), "lead-in frame %d", frame)
	}
	assert.Zero(t, sample(30870), "fade-in starts at zero")
	assert.Equal(t, int16(16384), sample(30870+22050))
	assert.Less(t, sample(30870+44099), int16(100), "fade-out ends near zero")

	assert.True(t, stream.Started)
	assert.True(t, stream.Stopped)
	assert.True(t, stream.Closed)
	assert.Equal(t, 300*time.Millisecond, h.sleeps[len(h.sleeps)-1])
	assert.Equal(t, 1, h.endpoint.MixFormatCalls)
	assert.Equal(t, 1, h.endpoint.OpenCalls)
}

func TestPlayCompressedFileUsesGeneralDecoder(t *testing.T) {
	h := newHarness(t, 48000, 2, audio.RepresentationFloat32)
	h.write(t, "/music/song.mp3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00 not a riff file"))

	general := &audiotest.FakeDecoder{Strategy: "transcode", Buffer: audio.NewSampleBuffer(4800, 2)}
	p := h.player(player.WithDecoders(audio.NewRIFFDecoder(h.fs), general))

	result, err := p.Play("/music/song.mp3")
	require.NoError(t, err)
	assert.Equal(t, 0, player.ExitCode(err))
	assert.Equal(t, "transcode", result.Strategy)
	assert.Equal(t, 1, general.Calls)
	assert.Equal(t, []string{"/music/song.mp3"}, general.Paths)
	assert.Equal(t, 33600+4800, h.endpoint.Stream.WrittenFrames())
}

func TestPlayMismatchedRateFallsThrough(t *testing.T) {
	h := newHarness(t, 48000, 2, audio.RepresentationFloat32)
	h.write(t, "/music/cd.wav", audiotest.PCMWav(44100, 2, 16, constant(441, 2, 0.25)))

	general := &audiotest.FakeDecoder{Strategy: "transcode", Buffer: audio.NewSampleBuffer(480, 2)}
	result, err := h.player(player.WithDecoders(audio.NewRIFFDecoder(h.fs), general)).Play("/music/cd.wav")
	require.NoError(t, err)
	assert.Equal(t, "transcode", result.Strategy)
	assert.Equal(t, 1, general.Calls)
}

func TestPlayNonexistentPath(t *testing.T) {
	h := newHarness(t, 48000, 2, audio.RepresentationFloat32)
	h.write(t, "/music/dir/placeholder.wav", []byte("x"))
	decoder := &audiotest.FakeDecoder{Strategy: "stub"}

	for _, path := range []string{"/music/missing.wav", "/music/dir"} {
		_, err := h.player(player.WithDecoders(decoder)).Play(path)

		var notFound *player.NotFoundError
		require.ErrorAs(t, err, &notFound, path)
		assert.Equal(t, path, notFound.Path)
		assert.Equal(t, player.ExitNotFound, player.ExitCode(err))
	}

	assert.Zero(t, decoder.Calls)
	assert.Zero(t, h.endpoint.MixFormatCalls)
	assert.Zero(t, h.endpoint.OpenCalls)
}

func TestPlayFailures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		setup    func(h *harness, decoder *audiotest.FakeDecoder)
		wantCode int
		wantOpen int
	}{
		{
			name:     "mix format query fails",
			setup:    func(h *harness, _ *audiotest.FakeDecoder) { h.endpoint.FormatErr = boom },
			wantCode: player.ExitDevice,
		},
		{
			name:     "no strategy decodes",
			setup:    func(_ *harness, d *audiotest.FakeDecoder) { d.Err = audio.ErrUnsupportedFormat },
			wantCode: player.ExitDecode,
		},
		{
			name:     "stream open fails",
			setup:    func(h *harness, _ *audiotest.FakeDecoder) { h.endpoint.OpenErr = boom },
			wantCode: player.ExitDevice,
			wantOpen: 1,
		},
		{
			name:     "acquire fails mid stream",
			setup:    func(h *harness, _ *audiotest.FakeDecoder) { h.endpoint.Stream.AcquireErr = boom },
			wantCode: player.ExitPlayback,
			wantOpen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 48000, 2, audio.RepresentationFloat32)
			h.write(t, "/a.wav", []byte("RIFF"))
			decoder := &audiotest.FakeDecoder{Strategy: "stub", Buffer: audio.NewSampleBuffer(960, 2)}
			tt.setup(h, decoder)

			_, err := h.player(player.WithDecoders(decoder)).Play("/a.wav")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, player.ExitCode(err))
			assert.Equal(t, tt.wantOpen, h.endpoint.OpenCalls)
			if tt.wantCode == player.ExitDevice && tt.wantOpen == 0 {
				assert.Zero(t, decoder.Calls, "decode runs after the mix format query")
			}
		})
	}
}

func TestPlayShapingOptions(t *testing.T) {
	h := newHarness(t, 48000, 1, audio.RepresentationFloat32)
	h.write(t, "/a.wav", []byte("RIFF"))
	decoder := &audiotest.FakeDecoder{Strategy: "stub", Buffer: audio.NewSampleBuffer(480, 1)}

	result, err := h.player(
		player.WithDecoders(decoder),
		player.WithShaping(0, 0),
	).Play("/a.wav")
	require.NoError(t, err)
	assert.Zero(t, result.LeadInFrames)
	assert.Equal(t, 480, h.endpoint.Stream.WrittenFrames())
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{&player.ArgumentError{Count: 2}, 1},
		{&player.NotFoundError{Path: "x"}, 2},
		{&player.DecodeError{Path: "x", Err: audio.ErrNoDecoder}, 3},
		{&player.DeviceError{Err: audio.ErrRenderInit}, 4},
		{&player.PlaybackError{Err: audio.ErrRenderAborted}, 5},
		{errors.New("unclassified"), 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, player.ExitCode(tt.err), "%v", tt.err)
	}

	decodeErr := &player.DecodeError{Path: "x", Err: audio.ErrNoDecoder}
	assert.ErrorIs(t, decodeErr, audio.ErrNoDecoder)
}
