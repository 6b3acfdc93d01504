package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always yields 16-bit little-endian stereo
const (
	mp3Channels       = 2
	mp3BytesPerSample = 2
)

// Mp3Opener opens MPEG audio layer III files
type Mp3Opener struct{}

// NewMp3Opener creates a new MP3 stream opener
func NewMp3Opener() *Mp3Opener {
	return &Mp3Opener{}
}

// FormatName returns the name of the format this opener handles
func (o *Mp3Opener) FormatName() string {
	return "MP3"
}

// CanDecode checks if this opener can handle the given filename
func (o *Mp3Opener) CanDecode(filename string) bool {
	return hasExtension(filename, ".mp3")
}

// MatchesMIME checks a sniffed MIME type
func (o *Mp3Opener) MatchesMIME(mime string) bool {
	return mimeContains(mime, "audio/mpeg", "audio/mp3", "audio/x-mpeg")
}

// Open prepares an MP3 decoder over r
func (o *Mp3Opener) Open(r io.ReadSeeker) (Stream, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	slog.Debug("MP3 format detected",
		"sample_rate", decoder.SampleRate(),
		"length_bytes", decoder.Length())

	return &mp3Stream{decoder: decoder}, nil
}

type mp3Stream struct {
	decoder *mp3.Decoder
	raw     []byte
	done    bool
}

func (s *mp3Stream) SampleRate() int { return s.decoder.SampleRate() }
func (s *mp3Stream) Channels() int   { return mp3Channels }
func (s *mp3Stream) Close() error    { return nil }

func (s *mp3Stream) ReadSamples(dst []float32) (int, error) {
	if s.done {
		return 0, io.EOF
	}
	frames := len(dst) / mp3Channels
	if frames == 0 {
		return 0, nil
	}

	size := frames * mp3Channels * mp3BytesPerSample
	if cap(s.raw) < size {
		s.raw = make([]byte, size)
	}
	raw := s.raw[:size]

	m, err := io.ReadFull(s.decoder, raw)
	switch err {
	case nil:
	case io.EOF, io.ErrUnexpectedEOF:
		s.done = true
	default:
		return 0, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}

	// whole frames only
	m -= m % (mp3Channels * mp3BytesPerSample)
	n := m / mp3BytesPerSample
	for i := 0; i < n; i++ {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}
