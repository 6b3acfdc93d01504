package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
)

// Renderer errors. Initialization failures happen before any audio reaches
// the device; aborts happen while streaming or draining.
var (
	ErrRenderInit    = errors.New("render stream initialization failed")
	ErrRenderAborted = errors.New("render stream aborted")
	ErrDrainStalled  = errors.New("device stopped consuming queued audio")
)

// RenderState is a step of the render state machine
type RenderState int

const (
	StateIdle RenderState = iota
	StateInitializing
	StateStreaming
	StateDraining
	StateStopped
	StateFailed
)

func (s RenderState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RenderTiming holds the renderer's intervals
type RenderTiming struct {
	WaitTimeout    time.Duration // bound on each wake-event wait
	DrainPoll      time.Duration // padding poll interval while draining
	Settle         time.Duration // pause after the ring is empty
	BufferDuration time.Duration // ring capacity requested from the endpoint
	DrainLimit     time.Duration // give up if padding never reaches zero
}

// DefaultRenderTiming returns the stock intervals
func DefaultRenderTiming() RenderTiming {
	return RenderTiming{
		WaitTimeout:    100 * time.Millisecond,
		DrainPoll:      10 * time.Millisecond,
		Settle:         300 * time.Millisecond,
		BufferDuration: 100 * time.Millisecond,
		DrainLimit:     5 * time.Second,
	}
}

// RenderSession describes one playback run. It exists only for the duration
// of Render and is returned for logging and history.
type RenderSession struct {
	ID            string
	BufferFrames  int
	FramesWritten int
	Wakeups       int
	Timeouts      int
	Started       time.Time
	Finished      time.Time
}

// Renderer streams sources into an endpoint's ring buffer in order
type Renderer struct {
	endpoint    Endpoint
	timing      RenderTiming
	sleep       func(time.Duration)
	state       RenderState
	transitions []RenderState
}

// NewRenderer creates a renderer using the real clock
func NewRenderer(endpoint Endpoint, timing RenderTiming) *Renderer {
	return NewRendererWithSleep(endpoint, timing, time.Sleep)
}

// NewRendererWithSleep creates a renderer with an injected sleep function
func NewRendererWithSleep(endpoint Endpoint, timing RenderTiming, sleep func(time.Duration)) *Renderer {
	return &Renderer{
		endpoint:    endpoint,
		timing:      timing,
		sleep:       sleep,
		state:       StateIdle,
		transitions: []RenderState{StateIdle},
	}
}

// State returns the current state
func (r *Renderer) State() RenderState {
	return r.state
}

// Transitions returns every state entered so far, starting with Idle
func (r *Renderer) Transitions() []RenderState {
	return append([]RenderState(nil), r.transitions...)
}

func (r *Renderer) enter(state RenderState) {
	slog.Debug("renderer state change", "from", r.state, "to", state)
	r.state = state
	r.transitions = append(r.transitions, state)
}

// Render plays every source to completion in order, drains the ring and
// waits the settle interval. Sources must match format's channel count.
func (r *Renderer) Render(format MixFormat, sources ...*SampleBuffer) (*RenderSession, error) {
	if r.state != StateIdle {
		return nil, fmt.Errorf("%w: renderer is %s", ErrRenderInit, r.state)
	}

	session := &RenderSession{ID: uuid.NewString(), Started: time.Now()}
	log := slog.With("session", session.ID)

	r.enter(StateInitializing)
	stream, err := r.initialize(format, sources)
	if err != nil {
		r.enter(StateFailed)
		log.Debug("render initialization failed", "error", err)
		return session, fmt.Errorf("%w: %w", ErrRenderInit, err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			log.Warn("failed to close render stream", "error", err)
		}
	}()

	session.BufferFrames = stream.BufferFrames()
	if session.BufferFrames <= 0 {
		r.enter(StateFailed)
		return session, fmt.Errorf("%w: ring capacity is %d frames", ErrRenderInit, session.BufferFrames)
	}

	if err := stream.Start(); err != nil {
		r.enter(StateFailed)
		return session, fmt.Errorf("%w: start: %w", ErrRenderInit, err)
	}
	stopped := false
	defer func() {
		if !stopped {
			if err := stream.Stop(); err != nil {
				log.Warn("failed to stop render stream", "error", err)
			}
		}
	}()

	log.Debug("render stream started",
		"format", format,
		"buffer_frames", session.BufferFrames,
		"sources", len(sources))

	r.enter(StateStreaming)
	for i, source := range sources {
		if err := r.stream(stream, format, source, session); err != nil {
			r.enter(StateFailed)
			log.Debug("streaming aborted", "source", i, "error", err)
			return session, fmt.Errorf("%w: source %d: %w", ErrRenderAborted, i, err)
		}
		log.Debug("source consumed", "source", i, "frames", source.Frames())
	}

	r.enter(StateDraining)
	if err := r.drain(stream); err != nil {
		r.enter(StateFailed)
		return session, fmt.Errorf("%w: %w", ErrRenderAborted, err)
	}
	r.sleep(r.timing.Settle)

	stopped = true
	if err := stream.Stop(); err != nil {
		log.Warn("failed to stop render stream", "error", err)
	}
	r.enter(StateStopped)
	session.Finished = time.Now()

	log.Debug("render complete",
		"frames_written", session.FramesWritten,
		"wakeups", session.Wakeups,
		"timeouts", session.Timeouts,
		"elapsed", session.Finished.Sub(session.Started))
	return session, nil
}

func (r *Renderer) initialize(format MixFormat, sources []*SampleBuffer) (RenderStream, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	for i, source := range sources {
		if source == nil || source.Channels != format.Channels {
			return nil, fmt.Errorf("%w: source %d does not match %d channels", ErrFormatMismatch, i, format.Channels)
		}
	}
	return r.endpoint.OpenStream(format, r.timing.BufferDuration)
}

// stream feeds one source. A wait timeout only retries; every other error
// aborts.
func (r *Renderer) stream(stream RenderStream, format MixFormat, source *SampleBuffer, session *RenderSession) error {
	channels := format.Channels
	total := source.Frames()
	cursor := 0

	for cursor < total {
		if err := stream.Wait(r.timing.WaitTimeout); err != nil {
			if errors.Is(err, ErrWaitTimeout) {
				session.Timeouts++
				continue
			}
			return fmt.Errorf("wait: %w", err)
		}
		session.Wakeups++

		padding, err := stream.Padding()
		if err != nil {
			return fmt.Errorf("padding: %w", err)
		}
		free := session.BufferFrames - padding
		if free <= 0 {
			continue
		}

		frames := min(free, total-cursor)
		dst, err := stream.Acquire(frames)
		if err != nil {
			return fmt.Errorf("acquire %d frames: %w", frames, err)
		}
		encodeSamples(dst, source.Samples[cursor*channels:(cursor+frames)*channels], format.Representation)
		if err := stream.Release(frames); err != nil {
			return fmt.Errorf("release %d frames: %w", frames, err)
		}

		cursor += frames
		session.FramesWritten += frames
	}
	return nil
}

// drain polls padding until the device has played everything queued
func (r *Renderer) drain(stream RenderStream) error {
	var waited time.Duration
	for {
		padding, err := stream.Padding()
		if err != nil {
			return fmt.Errorf("padding: %w", err)
		}
		if padding == 0 {
			return nil
		}
		if r.timing.DrainLimit > 0 && waited >= r.timing.DrainLimit {
			return fmt.Errorf("%w: %d frames still queued after %s", ErrDrainStalled, padding, waited)
		}
		r.sleep(r.timing.DrainPoll)
		waited += r.timing.DrainPoll
	}
}

// encodeSamples writes src into dst in the device representation. Integer
// formats are clamped to their range.
func encodeSamples(dst []byte, src []float32, rep Representation) {
	switch rep {
	case RepresentationFloat32:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
		}
	case RepresentationPCM16:
		for i, v := range src {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(int16(quantize(v, 32768))))
		}
	case RepresentationPCM24:
		for i, v := range src {
			s := int32(quantize(v, 8388608))
			dst[i*3] = byte(s)
			dst[i*3+1] = byte(s >> 8)
			dst[i*3+2] = byte(s >> 16)
		}
	case RepresentationPCM32:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], uint32(int32(quantize(v, 2147483648))))
		}
	}
}

// quantize scales v by full and clamps to [-full, full-1]
func quantize(v float32, full float64) int64 {
	s := math.Round(float64(v) * full)
	if math.IsNaN(s) {
		return 0
	}
	if s > full-1 {
		s = full - 1
	} else if s < -full {
		s = -full
	}
	return int64(s)
}
