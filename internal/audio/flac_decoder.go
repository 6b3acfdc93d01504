package audio

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
)

// FlacOpener opens FLAC files through beep's streamer
type FlacOpener struct{}

// NewFlacOpener creates a new FLAC stream opener
func NewFlacOpener() *FlacOpener {
	return &FlacOpener{}
}

// FormatName returns the name of the format this opener handles
func (o *FlacOpener) FormatName() string {
	return "FLAC"
}

// CanDecode checks if this opener can handle the given filename
func (o *FlacOpener) CanDecode(filename string) bool {
	return hasExtension(filename, ".flac")
}

// MatchesMIME checks a sniffed MIME type
func (o *FlacOpener) MatchesMIME(mime string) bool {
	return mimeContains(mime, "flac")
}

// Open prepares a FLAC streamer over r
func (o *FlacOpener) Open(r io.ReadSeeker) (Stream, error) {
	streamer, format, err := flac.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	slog.Debug("FLAC format detected",
		"sample_rate", int(format.SampleRate),
		"channels", format.NumChannels,
		"precision", format.Precision)

	// beep streams stereo pairs; mono files are duplicated into both
	channels := 2
	if format.NumChannels == 1 {
		channels = 1
	}

	return &flacStream{
		streamer:   streamer,
		sampleRate: int(format.SampleRate),
		channels:   channels,
	}, nil
}

type flacStream struct {
	streamer   beep.StreamSeekCloser
	pairs      [][2]float64
	sampleRate int
	channels   int
}

func (s *flacStream) SampleRate() int { return s.sampleRate }
func (s *flacStream) Channels() int   { return s.channels }
func (s *flacStream) Close() error    { return s.streamer.Close() }

func (s *flacStream) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / s.channels
	if frames == 0 {
		return 0, nil
	}
	if cap(s.pairs) < frames {
		s.pairs = make([][2]float64, frames)
	}

	got, ok := s.streamer.Stream(s.pairs[:frames])
	if !ok || got == 0 {
		if err := s.streamer.Err(); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrReadFailure, err)
		}
		return 0, io.EOF
	}

	n := 0
	for _, pair := range s.pairs[:got] {
		for ch := 0; ch < s.channels; ch++ {
			dst[n] = float32(pair[ch])
			n++
		}
	}
	return n, nil
}
