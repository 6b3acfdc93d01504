//go:build !cgo

package audio

import (
	"errors"
	"time"
)

var errCGORequired = errors.New(`minply requires CGO support for audio output.

To fix this issue:
1. Ensure CGO_ENABLED=1 (this is the default for native builds)
2. Install a C compiler and the ALSA headers on Linux:
   sudo apt-get install build-essential libasound2-dev
3. Then run: go install minply.click@latest`)

// NewMalgoEndpoint is unavailable without cgo
func NewMalgoEndpoint() (Endpoint, error) {
	return nil, errCGORequired
}

// NewOtoEndpoint returns an endpoint whose every call reports the missing cgo
func NewOtoEndpoint(sampleRate, channels int) Endpoint {
	return stubEndpoint{}
}

type stubEndpoint struct{}

func (stubEndpoint) Name() string                  { return "oto" }
func (stubEndpoint) MixFormat() (MixFormat, error) { return MixFormat{}, errCGORequired }
func (stubEndpoint) Close() error                  { return nil }

func (stubEndpoint) OpenStream(MixFormat, time.Duration) (RenderStream, error) {
	return nil, errCGORequired
}
