package audio

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
)

// AiffOpener opens AIFF and AIFF-C files
type AiffOpener struct{}

// NewAiffOpener creates a new AIFF stream opener
func NewAiffOpener() *AiffOpener {
	return &AiffOpener{}
}

// FormatName returns the name of the format this opener handles
func (o *AiffOpener) FormatName() string {
	return "AIFF"
}

// CanDecode checks if this opener can handle the given filename
func (o *AiffOpener) CanDecode(filename string) bool {
	return hasExtension(filename, ".aiff", ".aif", ".aifc")
}

// MatchesMIME checks a sniffed MIME type
func (o *AiffOpener) MatchesMIME(mime string) bool {
	return mimeContains(mime, "aiff")
}

// Open reads the full PCM payload; go-audio/aiff exposes no incremental API
// that survives a partial read.
func (o *AiffOpener) Open(r io.ReadSeeker) (Stream, error) {
	decoder := aiff.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid AIFF file", ErrInvalidData)
	}

	sampleRate := int(decoder.SampleRate)
	channels := int(decoder.NumChans)
	bitDepth := int(decoder.SampleBitDepth())

	slog.Debug("AIFF format detected",
		"sample_rate", sampleRate,
		"channels", channels,
		"bits_per_sample", bitDepth)

	if channels == 0 || sampleRate == 0 {
		return nil, fmt.Errorf("%w: channels=%d rate=%d", ErrInvalidData, channels, sampleRate)
	}
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: AIFF with %d bits", ErrUnsupportedFormat, bitDepth)
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}

	return &aiffStream{
		pcm:        pcm,
		sampleRate: sampleRate,
		channels:   channels,
		full:       float32(math.Pow(2, float64(bitDepth)-1)),
	}, nil
}

type aiffStream struct {
	pcm        *goaudio.IntBuffer
	pos        int
	sampleRate int
	channels   int
	full       float32
}

func (s *aiffStream) SampleRate() int { return s.sampleRate }
func (s *aiffStream) Channels() int   { return s.channels }
func (s *aiffStream) Close() error    { return nil }

func (s *aiffStream) ReadSamples(dst []float32) (int, error) {
	remaining := s.pcm.Data[s.pos:]
	n := min(len(dst), len(remaining))
	n -= n % s.channels
	if n == 0 {
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(remaining[i]) / s.full
	}
	s.pos += n
	return n, nil
}
