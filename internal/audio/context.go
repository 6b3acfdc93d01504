//go:build cgo

package audio

import (
	"log/slog"

	"github.com/gen2brain/malgo"
)

// malgoContext owns the miniaudio context that both the format probe and the
// render device are created from. It is released once, when the endpoint
// closes.
type malgoContext struct {
	allocated *malgo.AllocatedContext
	logger    *slog.Logger
}

func newMalgoContext() (*malgoContext, error) {
	logger := slog.With("backend", "malgo")

	allocated, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("miniaudio", "message", message)
	})
	if err != nil {
		logger.Error("miniaudio context init failed", "error", err)
		return nil, err
	}

	logger.Debug("miniaudio context ready")
	return &malgoContext{allocated: allocated, logger: logger}, nil
}

// initDevice creates a device on this context. A released context yields
// ErrBackendClosed.
func (c *malgoContext) initDevice(cfg malgo.DeviceConfig, callbacks malgo.DeviceCallbacks) (*malgo.Device, error) {
	if c.allocated == nil {
		return nil, ErrBackendClosed
	}
	return malgo.InitDevice(c.allocated.Context, cfg, callbacks)
}

// release uninitializes and frees the context; later calls are no-ops
func (c *malgoContext) release() error {
	if c.allocated == nil {
		return nil
	}
	if err := c.allocated.Uninit(); err != nil {
		c.logger.Error("miniaudio context uninit failed", "error", err)
		return err
	}
	c.allocated.Free()
	c.allocated = nil

	c.logger.Debug("miniaudio context released")
	return nil
}
