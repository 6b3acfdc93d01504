package player

import (
	"errors"
	"fmt"
)

// Process exit codes
const (
	ExitOK       = 0
	ExitArgument = 1
	ExitNotFound = 2
	ExitDecode   = 3
	ExitDevice   = 4
	ExitPlayback = 5
)

// ExitCoder is an error that knows the process exit code it maps to
type ExitCoder interface {
	error
	ExitCode() int
}

// ArgumentError reports a wrong number of command line arguments
type ArgumentError struct {
	Count int
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("expected exactly one audio file, got %d arguments", e.Count)
}

func (e *ArgumentError) ExitCode() int { return ExitArgument }

// NotFoundError reports a path that does not name an existing regular file
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

func (e *NotFoundError) ExitCode() int { return ExitNotFound }

// DecodeError reports that no decoding strategy produced a buffer
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("could not decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) ExitCode() int { return ExitDecode }

// DeviceError reports that the output device could not be queried or opened
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device: %v", e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func (e *DeviceError) ExitCode() int { return ExitDevice }

// PlaybackError reports that streaming stopped after a successful decode
type PlaybackError struct {
	Err error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback failed: %v", e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

func (e *PlaybackError) ExitCode() int { return ExitPlayback }

// ExitCode maps err to a process exit code. Errors without one map to ExitArgument.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitArgument
}
