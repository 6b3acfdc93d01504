package audio

import (
	"errors"
	"time"
)

// Common errors for Endpoint implementations
var (
	ErrBackendNotAvailable = errors.New("audio backend not available")
	ErrBackendClosed       = errors.New("audio backend is closed")
	ErrWaitTimeout         = errors.New("timed out waiting for buffer space")
	ErrBufferOverrun       = errors.New("write exceeds free buffer space")
)

// Endpoint is the default output device of one audio backend
type Endpoint interface {
	// MixFormat reports the device's native format
	MixFormat() (MixFormat, error)

	// OpenStream creates a shared-mode, event-driven stream in exactly the
	// given format with a ring buffer of roughly bufferDuration
	OpenStream(format MixFormat, bufferDuration time.Duration) (RenderStream, error)

	// Name identifies the backend in logs and play history
	Name() string

	Close() error
}

// RenderStream is the producer side of a device ring buffer. Padding counts
// frames queued but not yet played; the device signals the wake event each
// time it consumes a period.
type RenderStream interface {
	// BufferFrames returns the ring capacity in frames
	BufferFrames() int

	// Padding returns the frames still queued for playback
	Padding() (int, error)

	// Wait blocks until the device signals or timeout elapses; on timeout it
	// returns ErrWaitTimeout
	Wait(timeout time.Duration) error

	// Acquire returns a writable region of exactly frames frames
	Acquire(frames int) ([]byte, error)

	// Release commits frames previously acquired
	Release(frames int) error

	Start() error
	Stop() error
	Close() error
}
