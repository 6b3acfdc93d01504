package audio

import (
	"io"
)

// Stream is an opened container producing interleaved float32 samples at the
// file's native rate and channel count
type Stream interface {
	SampleRate() int
	Channels() int

	// ReadSamples fills dst with interleaved samples in [-1, 1] and returns the
	// number of values written. The end of the stream is reported as io.EOF.
	ReadSamples(dst []float32) (int, error)

	Close() error
}

// StreamOpener opens streams for one container format
type StreamOpener interface {
	// Open parses the container header and prepares sample decoding
	Open(r io.ReadSeeker) (Stream, error)

	// CanDecode checks if this opener handles the given filename
	CanDecode(filename string) bool

	// MatchesMIME checks a sniffed MIME type against this container
	MatchesMIME(mime string) bool

	// FormatName returns the name of the format this opener handles
	FormatName() string
}

// bufferStream serves samples that were decoded in one pass
type bufferStream struct {
	buf  *SampleBuffer
	rate int
	pos  int
}

func newBufferStream(buf *SampleBuffer, rate int) *bufferStream {
	return &bufferStream{buf: buf, rate: rate}
}

func (s *bufferStream) SampleRate() int { return s.rate }
func (s *bufferStream) Channels() int   { return s.buf.Channels }
func (s *bufferStream) Close() error    { return nil }

func (s *bufferStream) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.buf.Samples) {
		return 0, io.EOF
	}
	n := copy(dst, s.buf.Samples[s.pos:])
	s.pos += n
	return n, nil
}
