// Package player runs the single-file playback pipeline: existence check,
// mix format query, decoding, shaping and rendering.
package player

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/afero"

	"minply.click/internal/audio"
	"minply.click/internal/fs"
)

// Result describes one pipeline run. Fields are filled as far as the
// pipeline got.
type Result struct {
	Path          string
	Format        audio.MixFormat
	Strategy      string
	ProgramFrames int
	LeadInFrames  int
	Session       *audio.RenderSession
}

// Player plays one file through an endpoint
type Player struct {
	fs       afero.Fs
	endpoint audio.Endpoint
	chain    *audio.DecoderChain
	timing   audio.RenderTiming
	leadIn   time.Duration
	fade     time.Duration
	sleep    func(time.Duration)
}

// Option configures a Player
type Option func(*Player)

// WithDecoders replaces the default decoder chain
func WithDecoders(decoders ...audio.Decoder) Option {
	return func(p *Player) {
		p.chain = audio.NewDecoderChain(decoders...)
	}
}

// WithTiming sets the renderer intervals
func WithTiming(timing audio.RenderTiming) Option {
	return func(p *Player) { p.timing = timing }
}

// WithShaping sets the lead-in silence and fade window
func WithShaping(leadIn, fade time.Duration) Option {
	return func(p *Player) {
		p.leadIn = leadIn
		p.fade = fade
	}
}

// WithSleep injects the renderer's sleep function
func WithSleep(sleep func(time.Duration)) Option {
	return func(p *Player) { p.sleep = sleep }
}

// New creates a player reading from filesystem and writing to endpoint. The
// default chain tries the direct RIFF path before the general decoder.
func New(filesystem afero.Fs, endpoint audio.Endpoint, opts ...Option) *Player {
	p := &Player{
		fs:       filesystem,
		endpoint: endpoint,
		timing:   audio.DefaultRenderTiming(),
		leadIn:   audio.DefaultLeadInDuration,
		fade:     audio.DefaultFadeDuration,
		sleep:    time.Sleep,
	}
	p.chain = audio.NewDecoderChain(
		audio.NewRIFFDecoder(filesystem),
		audio.NewTranscodingDecoder(filesystem, audio.NewDefaultFormatRegistry()),
	)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckPath returns a NotFoundError unless path names an existing regular file
func CheckPath(filesystem afero.Fs, path string) error {
	if _, err := fs.StatRegular(filesystem, path); err != nil {
		return &NotFoundError{Path: path, Err: err}
	}
	return nil
}

// Play runs the pipeline for path. The first failing stage stops it and
// its typed error is returned.
func (p *Player) Play(path string) (*Result, error) {
	result := &Result{Path: path}
	log := slog.With("path", path)

	if err := CheckPath(p.fs, path); err != nil {
		return result, err
	}

	format, err := p.endpoint.MixFormat()
	if err != nil {
		return result, &DeviceError{Err: err}
	}
	result.Format = format
	log.Debug("mix format resolved", "endpoint", p.endpoint.Name(), "format", format)

	decoded, err := p.chain.Decode(path, format)
	if err != nil {
		return result, &DecodeError{Path: path, Err: err}
	}
	result.Strategy = decoded.Strategy

	program := decoded.Buffer
	audio.ApplyFade(program, format.SampleRate, p.fade)
	leadIn := audio.Silence(format, p.leadIn)
	result.ProgramFrames = program.Frames()
	result.LeadInFrames = leadIn.Frames()

	log.Debug("buffers shaped",
		"strategy", decoded.Strategy,
		"program_frames", result.ProgramFrames,
		"lead_in_frames", result.LeadInFrames)

	renderer := audio.NewRendererWithSleep(p.endpoint, p.timing, p.sleep)
	session, err := renderer.Render(format, leadIn, program)
	result.Session = session
	if err != nil {
		if errors.Is(err, audio.ErrRenderInit) {
			return result, &DeviceError{Err: err}
		}
		return result, &PlaybackError{Err: err}
	}

	log.Info("playback complete",
		"session", session.ID,
		"frames", session.FramesWritten,
		"duration", program.Duration(format.SampleRate))
	return result, nil
}
