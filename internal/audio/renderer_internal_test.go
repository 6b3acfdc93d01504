package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeSamples(t *testing.T) {
	src := []float32{0, 0.5, -0.5, 1, -1, 1.5, -1.5}

	t.Run("pcm16", func(t *testing.T) {
		dst := make([]byte, len(src)*2)
		encodeSamples(dst, src, RepresentationPCM16)
		want := []int16{0, 16384, -16384, 32767, -32768, 32767, -32768}
		for i, w := range want {
			assert.Equal(t, w, int16(binary.LittleEndian.Uint16(dst[i*2:])), "sample %d", i)
		}
	})

	t.Run("pcm24", func(t *testing.T) {
		dst := make([]byte, len(src)*3)
		encodeSamples(dst, src, RepresentationPCM24)
		want := []int32{0, 4194304, -4194304, 8388607, -8388608, 8388607, -8388608}
		for i, w := range want {
			assert.Equal(t, w, decodeInt24(dst[i*3:i*3+3]), "sample %d", i)
		}
	})

	t.Run("pcm32", func(t *testing.T) {
		dst := make([]byte, len(src)*4)
		encodeSamples(dst, src, RepresentationPCM32)
		want := []int32{0, 1073741824, -1073741824, math.MaxInt32, math.MinInt32, math.MaxInt32, math.MinInt32}
		for i, w := range want {
			assert.Equal(t, w, int32(binary.LittleEndian.Uint32(dst[i*4:])), "sample %d", i)
		}
	})

	t.Run("float32 passes through unclamped", func(t *testing.T) {
		dst := make([]byte, len(src)*4)
		encodeSamples(dst, src, RepresentationFloat32)
		for i, w := range src {
			assert.Equal(t, w, math.Float32frombits(binary.LittleEndian.Uint32(dst[i*4:])))
		}
	})
}

func TestQuantizeNaN(t *testing.T) {
	assert.Zero(t, quantize(float32(math.NaN()), 32768))
}

func TestRenderStateString(t *testing.T) {
	assert.Equal(t, "draining", StateDraining.String())
	assert.Equal(t, "state(42)", RenderState(42).String())
}
