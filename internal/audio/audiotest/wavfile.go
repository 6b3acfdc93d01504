// Package audiotest holds fakes and fixture builders shared by the audio and
// player tests.
package audiotest

import (
	"encoding/binary"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/afero"
)

// Chunk is one RIFF sub-chunk
type Chunk struct {
	ID   string
	Data []byte
}

// RIFF assembles a RIFF/WAVE image from chunks, padding odd payloads
func RIFF(chunks ...Chunk) []byte {
	body := []byte("WAVE")
	for _, c := range chunks {
		body = append(body, c.ID...)
		body = binary.LittleEndian.AppendUint32(body, uint32(len(c.Data)))
		body = append(body, c.Data...)
		if len(c.Data)%2 == 1 {
			body = append(body, 0)
		}
	}
	out := []byte("RIFF")
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}

// FmtChunk builds a 16-byte format chunk
func FmtChunk(tag uint16, channels, rate, bits int) Chunk {
	blockAlign := channels * bits / 8
	p := binary.LittleEndian.AppendUint16(nil, tag)
	p = binary.LittleEndian.AppendUint16(p, uint16(channels))
	p = binary.LittleEndian.AppendUint32(p, uint32(rate))
	p = binary.LittleEndian.AppendUint32(p, uint32(rate*blockAlign))
	p = binary.LittleEndian.AppendUint16(p, uint16(blockAlign))
	p = binary.LittleEndian.AppendUint16(p, uint16(bits))
	return Chunk{ID: "fmt ", Data: p}
}

// ExtensibleFmtChunk builds a 40-byte WAVE_FORMAT_EXTENSIBLE chunk whose
// sub-format GUID starts with subTag
func ExtensibleFmtChunk(subTag uint16, channels, rate, bits int) Chunk {
	c := FmtChunk(0xFFFE, channels, rate, bits)
	p := binary.LittleEndian.AppendUint16(c.Data, 22)
	p = binary.LittleEndian.AppendUint16(p, uint16(bits))
	p = binary.LittleEndian.AppendUint32(p, 0)
	p = binary.LittleEndian.AppendUint16(p, subTag)
	p = append(p, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00, 0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71)
	return Chunk{ID: "fmt ", Data: p}
}

// PCMData quantizes samples to little-endian signed PCM of the given depth
func PCMData(samples []float32, bits int) []byte {
	full := math.Pow(2, float64(bits)-1)
	out := make([]byte, 0, len(samples)*bits/8)
	for _, v := range samples {
		s := int64(math.Round(float64(v) * full))
		s = max(min(s, int64(full)-1), -int64(full))
		switch bits {
		case 16:
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(s)))
		case 24:
			out = append(out, byte(s), byte(s>>8), byte(s>>16))
		case 32:
			out = binary.LittleEndian.AppendUint32(out, uint32(int32(s)))
		}
	}
	return out
}

// FloatData encodes samples as little-endian IEEE float32
func FloatData(samples []float32) []byte {
	out := make([]byte, 0, len(samples)*4)
	for _, v := range samples {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

// PCMWav builds an integer PCM WAV image
func PCMWav(rate, channels, bits int, samples []float32) []byte {
	return RIFF(FmtChunk(1, channels, rate, bits), Chunk{ID: "data", Data: PCMData(samples, bits)})
}

// FloatWav builds an IEEE float WAV image
func FloatWav(rate, channels int, samples []float32) []byte {
	return RIFF(FmtChunk(3, channels, rate, 32), Chunk{ID: "data", Data: FloatData(samples)})
}

// Ramp returns frames*channels samples stepping evenly through [-amp, amp]
func Ramp(frames, channels int, amp float32) []float32 {
	out := make([]float32, frames*channels)
	for f := 0; f < frames; f++ {
		v := amp * (2*float32(f)/float32(max(frames-1, 1)) - 1)
		for c := 0; c < channels; c++ {
			out[f*channels+c] = v
		}
	}
	return out
}

// WriteEncodedWav writes a PCM WAV through go-audio/wav's encoder
func WriteEncodedWav(fs afero.Fs, path string, rate, channels, bits int, ints []int) error {
	f, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, bits, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: rate},
		Data:           ints,
		SourceBitDepth: bits,
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
