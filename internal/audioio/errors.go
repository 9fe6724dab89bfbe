package audioio

import "errors"

var (
	// ErrSetup marks failures while enumerating, activating or negotiating
	// a device. No session exists afterwards.
	ErrSetup = errors.New("audio setup failed")

	// ErrTransport marks buffer acquire/release or start/stop failures on
	// a running session.
	ErrTransport = errors.New("audio transport failed")

	// ErrFormatUnsupported marks a negotiated format the effect chain
	// cannot process.
	ErrFormatUnsupported = errors.New("audio format unsupported")

	// ErrNoDevice is returned when the requested capture device is absent.
	ErrNoDevice = errors.New("audio device not found")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("audio session closed")
)
