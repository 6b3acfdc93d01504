//go:build cgo

package audio

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoErr     error
)

// idle poll used when the ring has nothing queued for the oto mux
const otoIdlePoll = time.Millisecond

// OtoEndpoint plays through an oto context. oto cannot query the hardware, so
// the mix format is the configured one rendered as float32.
type OtoEndpoint struct {
	sampleRate int
	channels   int
}

// NewOtoEndpoint creates an endpoint mixing at sampleRate and channels
func NewOtoEndpoint(sampleRate, channels int) *OtoEndpoint {
	return &OtoEndpoint{sampleRate: sampleRate, channels: channels}
}

// Name returns the backend name
func (e *OtoEndpoint) Name() string {
	return "oto"
}

// MixFormat returns the configured format
func (e *OtoEndpoint) MixFormat() (MixFormat, error) {
	return NewMixFormat(e.sampleRate, e.channels, RepresentationFloat32)
}

// OpenStream creates the process-wide oto context on first use and attaches a
// player reading from a ring buffer
func (e *OtoEndpoint) OpenStream(format MixFormat, bufferDuration time.Duration) (RenderStream, error) {
	if format.Representation != RepresentationFloat32 || format.SampleRate != e.sampleRate || format.Channels != e.channels {
		return nil, fmt.Errorf("%w: oto renders %dHz/%dch float32, got %s",
			ErrInvalidMixFormat, e.sampleRate, e.channels, format)
	}

	ctx, err := e.context(bufferDuration)
	if err != nil {
		return nil, err
	}

	capacity := max(framesFor(format.SampleRate, bufferDuration), 1)
	ring := newRingBuffer(capacity, format.FrameStride)
	reader := &ringReader{ring: ring}

	player := ctx.NewPlayer(reader)
	player.SetBufferSize(max(capacity/2, 1) * format.FrameStride)

	slog.Debug("oto stream opened", "format", format, "buffer_frames", capacity)
	return &otoStream{player: player, reader: reader, ring: ring, stride: format.FrameStride}, nil
}

func (e *OtoEndpoint) context(bufferDuration time.Duration) (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   e.sampleRate,
			ChannelCount: e.channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   bufferDuration,
		})
		if err != nil {
			otoErr = fmt.Errorf("%w: %w", ErrBackendNotAvailable, err)
			return
		}
		<-ready
		otoContext = ctx
		slog.Debug("oto context ready", "sample_rate", e.sampleRate, "channels", e.channels)
	})
	return otoContext, otoErr
}

// Close is a no-op; the oto context lives for the whole process
func (e *OtoEndpoint) Close() error {
	return nil
}

// ringReader feeds the oto player from the ring buffer
type ringReader struct {
	ring   *ringBuffer
	closed atomic.Bool
}

func (r *ringReader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, io.EOF
	}
	n := r.ring.Read(p)
	if n == 0 {
		time.Sleep(otoIdlePoll)
	}
	return n, nil
}

type otoStream struct {
	player *oto.Player
	reader *ringReader
	ring   *ringBuffer
	stride int
}

func (s *otoStream) BufferFrames() int {
	return s.ring.Capacity()
}

// Padding counts both the ring and the bytes the player already pulled
func (s *otoStream) Padding() (int, error) {
	if err := s.player.Err(); err != nil {
		return 0, err
	}
	return s.ring.Padding() + s.player.BufferedSize()/s.stride, nil
}

func (s *otoStream) Wait(timeout time.Duration) error {
	return s.ring.Wait(timeout)
}

func (s *otoStream) Acquire(frames int) ([]byte, error) {
	return s.ring.Acquire(frames)
}

func (s *otoStream) Release(frames int) error {
	return s.ring.Release(frames)
}

func (s *otoStream) Start() error {
	// Play fills the player buffer synchronously on some platforms
	go s.player.Play()
	return nil
}

func (s *otoStream) Stop() error {
	s.reader.closed.Store(true)
	s.player.Pause()
	return nil
}

func (s *otoStream) Close() error {
	s.reader.closed.Store(true)
	return s.player.Close()
}
