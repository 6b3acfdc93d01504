package audio

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/afero"
)

// packetFrames is how many frames are pulled from a stream per read
const packetFrames = 4096

// TranscodingDecoder is the general path: it opens any registered container
// and converts it to the mix format's rate and channel count.
type TranscodingDecoder struct {
	fs       afero.Fs
	registry *FormatRegistry
}

// NewTranscodingDecoder creates a general decoder over fs and registry
func NewTranscodingDecoder(fs afero.Fs, registry *FormatRegistry) *TranscodingDecoder {
	slog.Debug("creating transcoding decoder", "formats", registry.SupportedFormats())
	return &TranscodingDecoder{fs: fs, registry: registry}
}

// Name returns the strategy name
func (d *TranscodingDecoder) Name() string {
	return "transcode"
}

// Decode opens the file, pulls every packet, then mixes and resamples
func (d *TranscodingDecoder) Decode(path string, target MixFormat) (*SampleBuffer, error) {
	file, err := d.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailure, err)
	}
	defer file.Close()

	opener := d.registry.DetectFormatWithContent(path, file)
	if opener == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	stream, err := opener.Open(file)
	if err != nil {
		return nil, fmt.Errorf("open %s stream: %w", opener.FormatName(), err)
	}
	defer stream.Close()

	if stream.Channels() <= 0 || stream.SampleRate() <= 0 {
		return nil, fmt.Errorf("%w: %s stream reports %dHz/%dch",
			ErrInvalidData, opener.FormatName(), stream.SampleRate(), stream.Channels())
	}

	native, err := readAll(stream)
	if err != nil {
		return nil, err
	}
	if native.Frames() == 0 {
		return nil, ErrEmptyOutput
	}

	slog.Debug("stream decoded at native format",
		"format", opener.FormatName(),
		"sample_rate", stream.SampleRate(),
		"channels", stream.Channels(),
		"frames", native.Frames())

	out := Resample(MixChannels(native, target.Channels), stream.SampleRate(), target.SampleRate)
	if out.Frames() == 0 {
		return nil, ErrEmptyOutput
	}
	return out, nil
}

// readAll pulls packets until the stream reports io.EOF
func readAll(stream Stream) (*SampleBuffer, error) {
	channels := stream.Channels()
	packet := make([]float32, packetFrames*channels)
	buf := &SampleBuffer{Channels: channels}

	for packets := 0; ; packets++ {
		n, err := stream.ReadSamples(packet)
		n -= n % channels
		if n > 0 {
			buf.Samples = append(buf.Samples, packet[:n]...)
		}
		if err == io.EOF {
			slog.Debug("end of stream", "packets", packets, "samples", len(buf.Samples))
			return buf, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read packet %d: %w", packets, err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w: stream returned no samples without ending", ErrReadFailure)
		}
	}
}
