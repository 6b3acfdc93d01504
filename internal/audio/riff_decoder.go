package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/afero"
)

const (
	riffHeaderSize = 12
	chunkHeaderLen = 8
	minFmtSize     = 16
	extFmtSize     = 40

	waveFormatPCM        = 0x0001
	waveFormatIEEEFloat  = 0x0003
	waveFormatExtensible = 0xFFFE
)

// RIFFDecoder is the direct path: it reads uncompressed RIFF/WAVE files whose
// rate and channel count already match the mix format, without transcoding.
type RIFFDecoder struct {
	fs afero.Fs
}

// NewRIFFDecoder creates a direct-path decoder reading through fs
func NewRIFFDecoder(fs afero.Fs) *RIFFDecoder {
	slog.Debug("creating RIFF direct decoder")
	return &RIFFDecoder{fs: fs}
}

// Name returns the strategy name
func (d *RIFFDecoder) Name() string {
	return "riff-direct"
}

// Decode reads the whole file and converts the data chunk to float32
func (d *RIFFDecoder) Decode(path string, target MixFormat) (*SampleBuffer, error) {
	data, err := afero.ReadFile(d.fs, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}

	slog.Debug("direct path read file", "path", path, "size_bytes", len(data))
	return DecodeRIFF(data, target)
}

// waveFormat is the subset of the fmt chunk the direct path needs
type waveFormat struct {
	tag           uint16
	channels      int
	sampleRate    int
	bitsPerSample int
}

// DecodeRIFF parses an in-memory RIFF/WAVE image. It returns nil and an error
// for anything it cannot convert exactly.
func DecodeRIFF(data []byte, target MixFormat) (*SampleBuffer, error) {
	if len(data) < riffHeaderSize {
		return nil, fmt.Errorf("%w: header is %d bytes", ErrInvalidData, len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE magic", ErrInvalidData)
	}

	fmtPayload, err := findChunk(data, "fmt ")
	if err != nil {
		return nil, err
	}
	format, err := parseWaveFormat(fmtPayload)
	if err != nil {
		return nil, err
	}

	slog.Debug("direct path format chunk",
		"tag", format.tag,
		"channels", format.channels,
		"sample_rate", format.sampleRate,
		"bits_per_sample", format.bitsPerSample)

	if format.sampleRate != target.SampleRate || format.channels != target.Channels {
		return nil, fmt.Errorf("%w: file is %dHz/%dch, device is %dHz/%dch",
			ErrFormatMismatch, format.sampleRate, format.channels, target.SampleRate, target.Channels)
	}

	payload, err := findChunk(data, "data")
	if err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: data chunk is empty", ErrInvalidData)
	}
	return convertData(payload, format)
}

// convertData turns a data chunk payload into float32 samples at the file's
// native layout. A trailing partial frame is dropped.
func convertData(payload []byte, format waveFormat) (*SampleBuffer, error) {
	convert, err := sampleConverter(format)
	if err != nil {
		return nil, err
	}

	bytesPerSample := format.bitsPerSample / 8
	stride := bytesPerSample * format.channels
	frames := len(payload) / stride
	if frames == 0 {
		return nil, fmt.Errorf("%w: data chunk holds no complete frame", ErrInvalidData)
	}

	buf := NewSampleBuffer(frames, format.channels)
	for i := range buf.Samples {
		off := i * bytesPerSample
		buf.Samples[i] = convert(payload[off : off+bytesPerSample])
	}

	if dropped := len(payload) - frames*stride; dropped > 0 {
		slog.Debug("dropped trailing partial frame", "bytes", dropped)
	}

	return buf, nil
}

// findChunk scans the chunk list after the RIFF header for id and returns its
// payload. Payloads are padded to an even length.
func findChunk(data []byte, id string) ([]byte, error) {
	off := riffHeaderSize
	for off+chunkHeaderLen <= len(data) {
		tag := string(data[off : off+4])
		size := uint64(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		start := uint64(off + chunkHeaderLen)
		end := start + size
		if end > uint64(len(data)) {
			return nil, fmt.Errorf("%w: %q claims %d bytes at offset %d", ErrMalformedChunk, tag, size, off)
		}
		if tag == id {
			return data[start:end], nil
		}
		off = int(end + size&1)
	}
	return nil, fmt.Errorf("%w: %q", ErrChunkNotFound, id)
}

func parseWaveFormat(p []byte) (waveFormat, error) {
	if len(p) < minFmtSize {
		return waveFormat{}, fmt.Errorf("%w: fmt chunk is %d bytes", ErrInvalidData, len(p))
	}

	format := waveFormat{
		tag:           binary.LittleEndian.Uint16(p[0:2]),
		channels:      int(binary.LittleEndian.Uint16(p[2:4])),
		sampleRate:    int(binary.LittleEndian.Uint32(p[4:8])),
		bitsPerSample: int(binary.LittleEndian.Uint16(p[14:16])),
	}
	// the sub-format GUID starts with the legacy format tag
	if format.tag == waveFormatExtensible && len(p) >= extFmtSize {
		format.tag = binary.LittleEndian.Uint16(p[24:26])
	}
	return format, nil
}

// sampleConverter picks the per-sample conversion to float32
func sampleConverter(format waveFormat) (func([]byte) float32, error) {
	switch {
	case format.tag == waveFormatIEEEFloat && format.bitsPerSample == 32:
		return func(b []byte) float32 {
			return math.Float32frombits(binary.LittleEndian.Uint32(b))
		}, nil
	case format.tag == waveFormatPCM && format.bitsPerSample == 16:
		return func(b []byte) float32 {
			return float32(int16(binary.LittleEndian.Uint16(b))) / 32768
		}, nil
	case format.tag == waveFormatPCM && format.bitsPerSample == 24:
		return func(b []byte) float32 {
			return float32(decodeInt24(b)) / 8388608
		}, nil
	case format.tag == waveFormatPCM && format.bitsPerSample == 32:
		return func(b []byte) float32 {
			return float32(float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648)
		}, nil
	default:
		return nil, fmt.Errorf("%w: tag 0x%04x with %d bits", ErrUnsupportedFormat, format.tag, format.bitsPerSample)
	}
}

// decodeInt24 assembles a little-endian 24-bit sample. The arithmetic right
// shift on int32 carries the sign bit down.
func decodeInt24(b []byte) int32 {
	return int32(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16) << 8 >> 8
}
