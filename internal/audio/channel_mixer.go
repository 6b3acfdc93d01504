package audio

// MixChannels remaps an interleaved buffer to the given channel count.
//
//	mono -> N      duplicate into every channel
//	N -> mono      average
//	stereo -> N    left and right kept, the rest silent
//	N -> stereo    even channels fold left, odd fold right, averaged
//	N -> M         first min(N, M) channels kept, the rest silent
func MixChannels(buf *SampleBuffer, channels int) *SampleBuffer {
	if buf.Channels == channels {
		return buf
	}

	src := buf.Channels
	frames := buf.Frames()
	out := NewSampleBuffer(frames, channels)

	for f := 0; f < frames; f++ {
		in := buf.Samples[f*src : (f+1)*src]
		dst := out.Samples[f*channels : (f+1)*channels]

		switch {
		case src == 1:
			for c := range dst {
				dst[c] = in[0]
			}
		case channels == 1:
			var sum float32
			for _, v := range in {
				sum += v
			}
			dst[0] = sum / float32(src)
		case channels == 2 && src > 2:
			var left, right float32
			for c, v := range in {
				if c%2 == 0 {
					left += v
				} else {
					right += v
				}
			}
			dst[0] = left / float32((src+1)/2)
			dst[1] = right / float32(src/2)
		default:
			copy(dst, in)
		}
	}

	return out
}
