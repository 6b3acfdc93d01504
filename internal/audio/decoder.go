package audio

import (
	"errors"
)

// Common decoder errors
var (
	ErrInvalidData       = errors.New("invalid audio data")
	ErrReadFailure       = errors.New("failed to read audio data")
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrFormatMismatch    = errors.New("audio format does not match mix format")
	ErrChunkNotFound     = errors.New("chunk not found")
	ErrMalformedChunk    = errors.New("malformed chunk")
	ErrEmptyOutput       = errors.New("decoder produced no samples")
	ErrNoDecoder         = errors.New("no decoder could handle the file")
	ErrInvalidMixFormat  = errors.New("invalid mix format")
)

// Decoder turns a file into a buffer that conforms to the target mix format.
// A decoder either returns the whole file or an error, never a partial buffer.
type Decoder interface {
	// Decode reads the file at path and returns samples at the target rate and
	// channel count
	Decode(path string, target MixFormat) (*SampleBuffer, error)

	// Name identifies the strategy in logs and play history
	Name() string
}

// DecodeResult is the output of a successful decoder chain run
type DecodeResult struct {
	Buffer   *SampleBuffer
	Strategy string
}
