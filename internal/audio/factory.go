package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Backend names accepted by the factory
const (
	BackendAuto  = "auto"
	BackendMalgo = "malgo"
	BackendOto   = "oto"
)

// Factory errors
var (
	ErrInvalidBackendType    = errors.New("invalid backend type")
	ErrBackendCreationFailed = errors.New("backend creation failed")
)

// EndpointOptions configures endpoints that cannot query the hardware
type EndpointOptions struct {
	OtoSampleRate int
	OtoChannels   int
}

// EndpointFactory creates the Endpoint for a configured backend name
type EndpointFactory struct {
	isWSLFunc func() bool
	options   EndpointOptions
}

// NewEndpointFactory creates a factory with real platform detection
func NewEndpointFactory(options EndpointOptions) *EndpointFactory {
	return &EndpointFactory{isWSLFunc: IsWSL, options: options}
}

// NewEndpointFactoryWithDependencies creates a factory with injected platform detection
func NewEndpointFactoryWithDependencies(isWSLFunc func() bool, options EndpointOptions) *EndpointFactory {
	return &EndpointFactory{isWSLFunc: isWSLFunc, options: options}
}

// SupportedBackends returns every accepted backend name
func SupportedBackends() []string {
	return []string{BackendAuto, BackendMalgo, BackendOto}
}

// IsValidBackendType checks if a backend type is supported. Empty means auto.
func IsValidBackendType(backendType string) bool {
	return backendType == "" || slices.Contains(SupportedBackends(), backendType)
}

// Resolve maps a configured name to a concrete backend name
func (f *EndpointFactory) Resolve(backendType string) (string, error) {
	switch backendType {
	case "", BackendAuto:
		return detectOptimalBackend(f.isWSLFunc()), nil
	case BackendMalgo, BackendOto:
		return backendType, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidBackendType, backendType)
	}
}

// CreateEndpoint opens the endpoint for backendType
func (f *EndpointFactory) CreateEndpoint(backendType string) (Endpoint, error) {
	resolved, err := f.Resolve(backendType)
	if err != nil {
		return nil, err
	}

	slog.Debug("creating audio endpoint", "requested", backendType, "backend", resolved)

	switch resolved {
	case BackendOto:
		return NewOtoEndpoint(f.options.OtoSampleRate, f.options.OtoChannels), nil
	default:
		endpoint, err := NewMalgoEndpoint()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBackendCreationFailed, err)
		}
		return endpoint, nil
	}
}
