package audio

// downsampleAlpha is the one-pole low-pass coefficient applied before
// decimating, so content above the new Nyquist rate is attenuated
const downsampleAlpha = 0.5

// Resample converts a buffer between sample rates with Catmull-Rom cubic
// interpolation. Edge frames are clamped. When downsampling the source is
// low-pass filtered first.
func Resample(buf *SampleBuffer, srcRate, dstRate int) *SampleBuffer {
	if srcRate == dstRate || srcRate <= 0 || dstRate <= 0 {
		return buf
	}

	channels := buf.Channels
	inFrames := buf.Frames()
	outFrames := int(int64(inFrames) * int64(dstRate) / int64(srcRate))
	out := NewSampleBuffer(outFrames, channels)
	if inFrames == 0 {
		return out
	}

	ratio := float64(srcRate) / float64(dstRate)
	src := buf.Samples
	if ratio > 1 {
		src = lowPass(buf.Samples, channels, downsampleAlpha)
	}

	last := inFrames - 1
	at := func(frame, c int) float32 {
		if frame < 0 {
			frame = 0
		} else if frame > last {
			frame = last
		}
		return src[frame*channels+c]
	}

	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		x := float32(pos - float64(idx))
		for c := 0; c < channels; c++ {
			out.Samples[i*channels+c] = cubicInterpolate(
				at(idx-1, c), at(idx, c), at(idx+1, c), at(idx+2, c), x)
		}
	}

	return out
}

// lowPass runs y[n] = alpha*x[n] + (1-alpha)*y[n-1] per channel into a new
// slice. The state starts at the first frame so a constant signal passes
// unchanged.
func lowPass(samples []float32, channels int, alpha float32) []float32 {
	out := make([]float32, len(samples))
	state := make([]float32, channels)
	copy(state, samples)
	for i, v := range samples {
		c := i % channels
		state[c] = alpha*v + (1-alpha)*state[c]
		out[i] = state[c]
	}
	return out
}

func cubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*x*x*x + a1*x*x + a2*x + a3
}
