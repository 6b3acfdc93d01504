package audio

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jfreymuth/oggvorbis"
)

// VorbisOpener opens Ogg Vorbis files
type VorbisOpener struct{}

// NewVorbisOpener creates a new Ogg Vorbis stream opener
func NewVorbisOpener() *VorbisOpener {
	return &VorbisOpener{}
}

// FormatName returns the name of the format this opener handles
func (o *VorbisOpener) FormatName() string {
	return "VORBIS"
}

// CanDecode checks if this opener can handle the given filename
func (o *VorbisOpener) CanDecode(filename string) bool {
	return hasExtension(filename, ".ogg", ".oga")
}

// MatchesMIME checks a sniffed MIME type
func (o *VorbisOpener) MatchesMIME(mime string) bool {
	return mimeContains(mime, "ogg")
}

// Open reads the Vorbis headers from r
func (o *VorbisOpener) Open(r io.ReadSeeker) (Stream, error) {
	reader, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	slog.Debug("Vorbis format detected",
		"sample_rate", reader.SampleRate(),
		"channels", reader.Channels(),
		"length_frames", reader.Length())

	return &vorbisStream{reader: reader}, nil
}

type vorbisStream struct {
	reader *oggvorbis.Reader
}

func (s *vorbisStream) SampleRate() int { return s.reader.SampleRate() }
func (s *vorbisStream) Channels() int   { return s.reader.Channels() }
func (s *vorbisStream) Close() error    { return nil }

func (s *vorbisStream) ReadSamples(dst []float32) (int, error) {
	n, err := s.reader.Read(dst)
	if err == io.EOF && n > 0 {
		return n, nil
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}
	return n, err
}
