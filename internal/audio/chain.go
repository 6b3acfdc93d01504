package audio

import (
	"fmt"
	"log/slog"
)

// DecoderChain tries decoding strategies in order and keeps the first success
type DecoderChain struct {
	decoders []Decoder
}

// NewDecoderChain creates a chain from the given strategies in priority order
func NewDecoderChain(decoders ...Decoder) *DecoderChain {
	chain := &DecoderChain{decoders: make([]Decoder, 0, len(decoders))}
	for _, decoder := range decoders {
		chain.Register(decoder)
	}
	return chain
}

// Register appends a strategy to the end of the chain
func (c *DecoderChain) Register(decoder Decoder) {
	if decoder == nil {
		slog.Warn("attempted to register nil decoder")
		return
	}

	c.decoders = append(c.decoders, decoder)
	slog.Debug("decoder strategy registered",
		"strategy", decoder.Name(),
		"position", len(c.decoders))
}

// Strategies returns the strategy names in the order they are tried
func (c *DecoderChain) Strategies() []string {
	names := make([]string, 0, len(c.decoders))
	for _, decoder := range c.decoders {
		names = append(names, decoder.Name())
	}
	return names
}

// Decode runs each strategy until one produces a non-empty buffer. Failures of
// earlier strategies are logged and absorbed; only the last one is returned.
func (c *DecoderChain) Decode(path string, target MixFormat) (*DecodeResult, error) {
	slog.Debug("starting decoder chain",
		"path", path,
		"target", target,
		"strategies", c.Strategies())

	if len(c.decoders) == 0 {
		return nil, fmt.Errorf("%w: no strategies registered", ErrNoDecoder)
	}

	var lastErr error
	for i, decoder := range c.decoders {
		buf, err := decoder.Decode(path, target)
		if err == nil && buf.Frames() == 0 {
			err = ErrEmptyOutput
		}
		if err == nil && buf.Channels != target.Channels {
			err = fmt.Errorf("%w: decoder returned %d channels", ErrFormatMismatch, buf.Channels)
		}
		if err != nil {
			lastErr = err
			slog.Debug("decoder strategy failed",
				"strategy", decoder.Name(),
				"position", i+1,
				"error", err)
			continue
		}

		slog.Info("file decoded",
			"path", path,
			"strategy", decoder.Name(),
			"frames", buf.Frames(),
			"duration", buf.Duration(target.SampleRate))
		return &DecodeResult{Buffer: buf, Strategy: decoder.Name()}, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrNoDecoder, lastErr)
}
