package audio

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"

	goaudio "github.com/go-audio/audio"
	gawav "github.com/go-audio/wav"
	"github.com/youpy/go-wav"
)

// youpy/go-wav samples carry at most two channels
const youpyMaxChannels = 2

// WavOpener opens RIFF/WAVE files of any layout the direct path refused
type WavOpener struct{}

// NewWavOpener creates a new WAV stream opener
func NewWavOpener() *WavOpener {
	return &WavOpener{}
}

// FormatName returns the name of the format this opener handles
func (o *WavOpener) FormatName() string {
	return "WAV"
}

// CanDecode checks if this opener can handle the given filename
func (o *WavOpener) CanDecode(filename string) bool {
	return hasExtension(filename, ".wav", ".wave")
}

// MatchesMIME checks a sniffed MIME type
func (o *WavOpener) MatchesMIME(mime string) bool {
	return mimeContains(mime, "wav", "wave")
}

// Open reads the whole file and picks a reader from the fmt chunk. IEEE float
// data, plain or extensible, is converted in-package. Other layouts go to
// youpy/go-wav for mono and stereo (PCM, G.711) and go-audio/wav for wider PCM.
func (o *WavOpener) Open(r io.ReadSeeker) (Stream, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}
	if len(data) < riffHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrInvalidData)
	}

	fmtPayload, err := findChunk(data, "fmt ")
	if err != nil {
		return nil, err
	}
	format, err := parseWaveFormat(fmtPayload)
	if err != nil {
		return nil, err
	}

	slog.Debug("WAV format detected",
		"tag", format.tag,
		"sample_rate", format.sampleRate,
		"channels", format.channels,
		"bits_per_sample", format.bitsPerSample)

	if format.channels == 0 || format.sampleRate == 0 || format.bitsPerSample == 0 {
		return nil, fmt.Errorf("%w: channels=%d rate=%d bits=%d",
			ErrInvalidData, format.channels, format.sampleRate, format.bitsPerSample)
	}

	payload, err := findChunk(data, "data")
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		slog.Debug("WAV data chunk is empty")
		return newBufferStream(&SampleBuffer{Channels: format.channels}, format.sampleRate), nil
	}

	if format.tag == waveFormatIEEEFloat {
		buf, err := convertData(payload, format)
		if err != nil {
			return nil, err
		}
		return newBufferStream(buf, format.sampleRate), nil
	}

	if format.channels > youpyMaxChannels {
		return openMultichannelWav(data, format)
	}

	scale, err := youpyScale(format)
	if err != nil {
		return nil, err
	}
	reader := wav.NewReader(bytes.NewReader(data))
	wavFormat, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	// youpy expands G.711 only when it is the header tag
	if format.tag != waveFormatPCM && wavFormat.AudioFormat != format.tag {
		return nil, fmt.Errorf("%w: extensible WAV sub-format %d", ErrUnsupportedFormat, format.tag)
	}
	return &wavStream{reader: reader, format: wavFormat, scale: scale}, nil
}

// youpyScale maps youpy's integer sample values back into [-1, 1]. The tag is
// the resolved one, so extensible files arrive with their sub-format.
func youpyScale(format waveFormat) (func(int) float32, error) {
	switch format.tag {
	case wav.AudioFormatALaw, wav.AudioFormatMULaw:
		// G.711 is expanded to 16-bit PCM
		return func(v int) float32 { return float32(v) / 32768 }, nil
	case wav.AudioFormatPCM:
		switch format.bitsPerSample {
		case 8:
			return func(v int) float32 { return float32(v-128) / 128 }, nil
		case 16, 24, 32:
			full := math.Pow(2, float64(format.bitsPerSample)-1)
			return func(v int) float32 { return float32(float64(v) / full) }, nil
		}
	}
	return nil, fmt.Errorf("%w: WAV format %d with %d bits", ErrUnsupportedFormat, format.tag, format.bitsPerSample)
}

// wavStream adapts youpy/go-wav to Stream
type wavStream struct {
	reader *wav.Reader
	format *wav.WavFormat
	scale  func(int) float32
}

func (s *wavStream) SampleRate() int { return int(s.format.SampleRate) }
func (s *wavStream) Channels() int   { return int(s.format.NumChannels) }
func (s *wavStream) Close() error    { return nil }

func (s *wavStream) ReadSamples(dst []float32) (int, error) {
	channels := s.Channels()
	frames := len(dst) / channels
	if frames == 0 {
		return 0, nil
	}

	samples, err := s.reader.ReadSamples(uint32(frames))
	n := 0
	for _, sample := range samples {
		for ch := 0; ch < channels; ch++ {
			dst[n] = s.scale(sample.Values[ch])
			n++
		}
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// multichannelWavStream adapts go-audio/wav to Stream
type multichannelWavStream struct {
	decoder *gawav.Decoder
	ints    *goaudio.IntBuffer
	full    float32
	offset  int // added before scaling, for unsigned 8-bit
}

func openMultichannelWav(data []byte, format waveFormat) (Stream, error) {
	if format.tag != waveFormatPCM {
		return nil, fmt.Errorf("%w: multichannel WAV format %d", ErrUnsupportedFormat, format.tag)
	}
	decoder := gawav.NewDecoder(bytes.NewReader(data))
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid multichannel WAV", ErrInvalidData)
	}

	stream := &multichannelWavStream{decoder: decoder}
	switch decoder.BitDepth {
	case 8:
		stream.full, stream.offset = 128, -128
	case 16, 24, 32:
		stream.full = float32(math.Pow(2, float64(decoder.BitDepth)-1))
	default:
		return nil, fmt.Errorf("%w: multichannel WAV with %d bits", ErrUnsupportedFormat, decoder.BitDepth)
	}

	slog.Debug("multichannel WAV opened via go-audio",
		"channels", decoder.NumChans,
		"sample_rate", decoder.SampleRate,
		"bit_depth", decoder.BitDepth)

	return stream, nil
}

func (s *multichannelWavStream) SampleRate() int { return int(s.decoder.SampleRate) }
func (s *multichannelWavStream) Channels() int   { return int(s.decoder.NumChans) }
func (s *multichannelWavStream) Close() error    { return nil }

func (s *multichannelWavStream) ReadSamples(dst []float32) (int, error) {
	channels := s.Channels()
	want := len(dst) / channels * channels
	if want == 0 {
		return 0, nil
	}
	if s.ints == nil || len(s.ints.Data) != want {
		s.ints = &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: channels, SampleRate: s.SampleRate()},
			Data:   make([]int, want),
		}
	}

	n, err := s.decoder.PCMBuffer(s.ints)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}
	n -= n % channels
	if n <= 0 {
		return 0, io.EOF
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(s.ints.Data[i]+s.offset) / s.full
	}
	return n, nil
}
