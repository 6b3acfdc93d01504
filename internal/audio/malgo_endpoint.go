//go:build cgo

package audio

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gen2brain/malgo"
)

// MalgoEndpoint is the default playback device reached through miniaudio
type MalgoEndpoint struct {
	ctx *malgoContext
}

// NewMalgoEndpoint initializes a miniaudio context for the default device
func NewMalgoEndpoint() (*MalgoEndpoint, error) {
	ctx, err := newMalgoContext()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, err)
	}
	return &MalgoEndpoint{ctx: ctx}, nil
}

// Name returns the backend name
func (e *MalgoEndpoint) Name() string {
	return "malgo"
}

// MixFormat opens the default device with format, channels and rate left
// unset so miniaudio adopts the native values, reads them back and closes it.
func (e *MalgoEndpoint) MixFormat() (MixFormat, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.ShareMode = malgo.Shared

	device, err := e.ctx.initDevice(cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) { clear(out) },
	})
	if err != nil {
		return MixFormat{}, fmt.Errorf("probe default device: %w", err)
	}
	defer device.Uninit()

	rep, err := representationFromMalgo(device.PlaybackFormat())
	if err != nil {
		return MixFormat{}, err
	}

	format, err := NewMixFormat(int(device.SampleRate()), int(device.PlaybackChannels()), rep)
	if err != nil {
		return MixFormat{}, err
	}

	slog.Debug("device mix format resolved", "backend", e.Name(), "format", format)
	return format, nil
}

// OpenStream initializes a shared-mode device in exactly format whose data
// callback drains a ring buffer of bufferDuration
func (e *MalgoEndpoint) OpenStream(format MixFormat, bufferDuration time.Duration) (RenderStream, error) {
	malgoFormat, err := representationToMalgo(format.Representation)
	if err != nil {
		return nil, err
	}

	capacity := max(framesFor(format.SampleRate, bufferDuration), 1)
	ring := newRingBuffer(capacity, format.FrameStride)

	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgoFormat
	cfg.Playback.Channels = uint32(format.Channels)
	cfg.Playback.ShareMode = malgo.Shared
	cfg.SampleRate = uint32(format.SampleRate)
	cfg.PeriodSizeInMilliseconds = uint32(max(bufferDuration/time.Millisecond/2, 1))
	cfg.Periods = 2
	cfg.Alsa.NoMMap = 1

	device, err := e.ctx.initDevice(cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, _ uint32) {
			n := ring.Read(out)
			// underrun plays silence
			clear(out[n:])
		},
		Stop: func() {
			slog.Debug("malgo device stopped")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("initialize playback device: %w", err)
	}

	slog.Debug("malgo stream opened",
		"format", format,
		"buffer_frames", capacity,
		"period_ms", cfg.PeriodSizeInMilliseconds)

	return &malgoStream{device: device, ring: ring}, nil
}

// Close releases the miniaudio context
func (e *MalgoEndpoint) Close() error {
	return e.ctx.release()
}

type malgoStream struct {
	device *malgo.Device
	ring   *ringBuffer
}

func (s *malgoStream) BufferFrames() int {
	return s.ring.Capacity()
}

func (s *malgoStream) Padding() (int, error) {
	return s.ring.Padding(), nil
}

func (s *malgoStream) Wait(timeout time.Duration) error {
	return s.ring.Wait(timeout)
}

func (s *malgoStream) Acquire(frames int) ([]byte, error) {
	return s.ring.Acquire(frames)
}

func (s *malgoStream) Release(frames int) error {
	return s.ring.Release(frames)
}

func (s *malgoStream) Start() error {
	return s.device.Start()
}

func (s *malgoStream) Stop() error {
	if !s.device.IsStarted() {
		return nil
	}
	return s.device.Stop()
}

func (s *malgoStream) Close() error {
	s.device.Uninit()
	return nil
}

func representationFromMalgo(format malgo.FormatType) (Representation, error) {
	switch format {
	case malgo.FormatU8, malgo.FormatS16:
		// miniaudio converts U8 devices from 16-bit
		return RepresentationPCM16, nil
	case malgo.FormatS24:
		return RepresentationPCM24, nil
	case malgo.FormatS32:
		return RepresentationPCM32, nil
	case malgo.FormatF32:
		return RepresentationFloat32, nil
	default:
		return RepresentationUnknown, fmt.Errorf("%w: malgo format %d", ErrInvalidMixFormat, format)
	}
}

func representationToMalgo(rep Representation) (malgo.FormatType, error) {
	switch rep {
	case RepresentationPCM16:
		return malgo.FormatS16, nil
	case RepresentationPCM24:
		return malgo.FormatS24, nil
	case RepresentationPCM32:
		return malgo.FormatS32, nil
	case RepresentationFloat32:
		return malgo.FormatF32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: %s", ErrInvalidMixFormat, rep)
	}
}
