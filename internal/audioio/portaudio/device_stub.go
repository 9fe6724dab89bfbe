//go:build !portaudio

package portaudio

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-guitarfx/internal/audioio"
)

// Available reports whether the binary was built with the PortAudio binding.
const Available = false

var errUnavailable = fmt.Errorf("%w: built without portaudio support (use -tags portaudio)", audioio.ErrSetup)

// CaptureDevices implements audioio.Provider.
func (p *Provider) CaptureDevices(context.Context) ([]audioio.Device, error) {
	return nil, errUnavailable
}

// OpenDuplex implements audioio.Provider.
func (p *Provider) OpenDuplex(context.Context, string) (audioio.Session, error) {
	return nil, errUnavailable
}
