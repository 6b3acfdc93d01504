package audiotest

import (
	"sync"
	"time"

	"minply.click/internal/audio"
)

// FakeEndpoint is a scripted audio.Endpoint
type FakeEndpoint struct {
	Format    audio.MixFormat
	FormatErr error
	OpenErr   error
	Stream    *FakeStream

	MixFormatCalls int
	OpenCalls      int
	Closed         bool
	OpenedFormat   audio.MixFormat
}

// NewFakeEndpoint returns an endpoint reporting format whose stream holds
// capacity frames and plays period frames per wake
func NewFakeEndpoint(format audio.MixFormat, capacity, period int) *FakeEndpoint {
	return &FakeEndpoint{
		Format: format,
		Stream: NewFakeStream(format, capacity, period),
	}
}

func (e *FakeEndpoint) Name() string { return "fake" }

func (e *FakeEndpoint) MixFormat() (audio.MixFormat, error) {
	e.MixFormatCalls++
	if e.FormatErr != nil {
		return audio.MixFormat{}, e.FormatErr
	}
	return e.Format, nil
}

func (e *FakeEndpoint) OpenStream(format audio.MixFormat, _ time.Duration) (audio.RenderStream, error) {
	e.OpenCalls++
	e.OpenedFormat = format
	if e.OpenErr != nil {
		return nil, e.OpenErr
	}
	return e.Stream, nil
}

func (e *FakeEndpoint) Close() error {
	e.Closed = true
	return nil
}

// FakeStream models a device ring: each successful Wait plays Period frames,
// and Consume lets a fake clock play more while the renderer sleeps.
type FakeStream struct {
	mu       sync.Mutex
	format   audio.MixFormat
	capacity int
	padding  int
	staged   []byte

	Period int

	// WaitErrors are returned by successive Wait calls before normal operation
	WaitErrors []error
	PaddingErr error
	AcquireErr error
	ReleaseErr error
	StartErr   error

	Written     []byte
	MaxAcquire  int
	WaitCalls   int
	Started     bool
	Stopped     bool
	Closed      bool
	StopCalls   int
	PlayedTotal int
}

// NewFakeStream creates a stream with the given ring capacity
func NewFakeStream(format audio.MixFormat, capacity, period int) *FakeStream {
	return &FakeStream{format: format, capacity: capacity, Period: period}
}

func (s *FakeStream) BufferFrames() int { return s.capacity }

func (s *FakeStream) Padding() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PaddingErr != nil {
		return 0, s.PaddingErr
	}
	return s.padding, nil
}

func (s *FakeStream) Wait(time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.WaitCalls++
	if len(s.WaitErrors) > 0 {
		err := s.WaitErrors[0]
		s.WaitErrors = s.WaitErrors[1:]
		return err
	}
	s.consumeLocked(s.Period)
	return nil
}

// Consume plays up to frames queued frames
func (s *FakeStream) Consume(frames int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consumeLocked(frames)
}

func (s *FakeStream) consumeLocked(frames int) {
	played := min(frames, s.padding)
	s.padding -= played
	s.PlayedTotal += played
}

func (s *FakeStream) Acquire(frames int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AcquireErr != nil {
		return nil, s.AcquireErr
	}
	if frames > s.capacity-s.padding {
		return nil, audio.ErrBufferOverrun
	}
	s.MaxAcquire = max(s.MaxAcquire, frames)
	s.staged = make([]byte, frames*s.format.FrameStride)
	return s.staged, nil
}

func (s *FakeStream) Release(frames int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReleaseErr != nil {
		return s.ReleaseErr
	}
	s.Written = append(s.Written, s.staged[:frames*s.format.FrameStride]...)
	s.padding += frames
	s.staged = nil
	return nil
}

func (s *FakeStream) Start() error {
	if s.StartErr != nil {
		return s.StartErr
	}
	s.Started = true
	return nil
}

func (s *FakeStream) Stop() error {
	s.Stopped = true
	s.StopCalls++
	return nil
}

func (s *FakeStream) Close() error {
	s.Closed = true
	return nil
}

// WrittenFrames returns how many frames reached the ring
func (s *FakeStream) WrittenFrames() int {
	return len(s.Written) / s.format.FrameStride
}

// FakeDecoder is a scripted audio.Decoder that counts its calls
type FakeDecoder struct {
	Strategy string
	Buffer   *audio.SampleBuffer
	Err      error
	Calls    int
	Paths    []string
}

func (d *FakeDecoder) Name() string { return d.Strategy }

func (d *FakeDecoder) Decode(path string, _ audio.MixFormat) (*audio.SampleBuffer, error) {
	d.Calls++
	d.Paths = append(d.Paths, path)
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Buffer, nil
}
