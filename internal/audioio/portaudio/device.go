//go:build portaudio

package portaudio

import (
	"context"
	"fmt"
	"strconv"

	pa "github.com/drgolem/go-portaudio/portaudio"

	"github.com/cwbudde/algo-guitarfx/internal/audioio"
)

// Available reports whether the binary was built with the PortAudio binding.
const Available = true

// CaptureDevices implements audioio.Provider. Only devices with input
// channels are listed.
func (p *Provider) CaptureDevices(ctx context.Context) ([]audioio.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: portaudio: %w", audioio.ErrSetup, err)
	}
	defer pa.Terminate()

	infos, err := pa.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate devices: %w", audioio.ErrSetup, err)
	}
	def := -1
	if d, err := pa.DefaultInputDevice(); err == nil && d != nil {
		def = d.Index
	}
	return inputDevices(convert(infos), def), nil
}

func convert(infos []*pa.DeviceInfo) []deviceInfo {
	out := make([]deviceInfo, 0, len(infos))
	for _, d := range infos {
		if d == nil {
			continue
		}
		out = append(out, deviceInfo{
			Index:             d.Index,
			Name:              d.Name,
			MaxInputChannels:  d.MaxInputChannels,
			MaxOutputChannels: d.MaxOutputChannels,
		})
	}
	return out
}

// OpenDuplex implements audioio.Provider. captureID is a device index as
// listed by CaptureDevices; empty selects the default input.
func (p *Provider) OpenDuplex(ctx context.Context, captureID string) (_ audioio.Session, err error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", audioio.ErrSetup, err)
	}
	f, renderSize, err := p.cfg.format()
	if err != nil {
		return nil, err
	}

	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: portaudio: %w", audioio.ErrSetup, err)
	}
	var cleanup audioio.Cleanup
	cleanup.Add(pa.Terminate)
	defer func() {
		if err != nil {
			_ = cleanup.Close()
		}
	}()

	in, err := inputDevice(captureID)
	if err != nil {
		return nil, err
	}
	out, err := outputDevice(p.cfg.OutputDevice)
	if err != nil {
		return nil, err
	}

	inChannels := min(f.Channels, in.MaxInputChannels)
	inParams := pa.LowLatencyParameters(in, inChannels, pa.SampleFmtFloat32, true)
	inParams.DeviceIndex = in.Index
	outParams := pa.LowLatencyParameters(out, f.Channels, pa.SampleFmtFloat32, false)
	outParams.DeviceIndex = out.Index

	if err := pa.IsFormatSupported(&inParams, &outParams, float64(f.SampleRate)); err != nil {
		return nil, fmt.Errorf("%w: %w: %s: %w", audioio.ErrSetup, audioio.ErrFormatUnsupported, f, err)
	}

	s, err := newSession(f, inChannels, renderSize)
	if err != nil {
		return nil, err
	}
	st := &pa.PaStream{
		InputParameters:  &inParams,
		OutputParameters: &outParams,
		SampleRate:       float64(f.SampleRate),
		StreamFlags:      pa.ClipOff,
	}
	if err := st.OpenCallback(f.CaptureCapacity, s.callback); err != nil {
		return nil, fmt.Errorf("%w: open stream: %w", audioio.ErrSetup, err)
	}
	cleanup.Add(st.CloseCallback)

	s.stream = st
	s.cleanup = cleanup.Disarm()
	return s, nil
}

func (s *Session) callback(input, output []byte, frames uint, _ *pa.StreamCallbackTimeInfo, _ pa.StreamCallbackFlags) pa.StreamCallbackResult {
	s.transfer(input, output, int(frames))
	return pa.Continue
}

func inputDevice(id string) (*pa.DeviceInfo, error) {
	var (
		d   *pa.DeviceInfo
		err error
	)
	if id == "" {
		d, err = pa.DefaultInputDevice()
	} else {
		idx, perr := strconv.Atoi(id)
		if perr != nil {
			return nil, fmt.Errorf("%w: %q", audioio.ErrNoDevice, id)
		}
		d, err = pa.GetDeviceInfo(idx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", audioio.ErrNoDevice, id, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: %q", audioio.ErrNoDevice, id)
	}
	if d.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("%w: %q has no input channels", audioio.ErrNoDevice, d.Name)
	}
	return d, nil
}

func outputDevice(idx int) (*pa.DeviceInfo, error) {
	var (
		d   *pa.DeviceInfo
		err error
	)
	if idx < 0 {
		d, err = pa.DefaultOutputDevice()
	} else {
		d, err = pa.GetDeviceInfo(idx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: output device %d: %w", audioio.ErrSetup, idx, err)
	}
	if d == nil {
		return nil, fmt.Errorf("%w: output device %d not found", audioio.ErrSetup, idx)
	}
	if d.MaxOutputChannels <= 0 {
		return nil, fmt.Errorf("%w: %q has no output channels", audioio.ErrSetup, d.Name)
	}
	return d, nil
}
