package engine

import "fmt"

// State is the lifecycle position of the audio loop.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stats are cumulative counters of the current session, readable from any
// goroutine.
type Stats struct {
	// Packets and Frames count captured packets that were rendered.
	Packets uint64
	Frames  uint64
	// Dropped counts packets skipped because the render queue lacked room.
	Dropped uint64
	// IdlePolls counts polls that found no captured frames.
	IdlePolls uint64
	// Passthrough counts packets rendered without processing because the
	// format is unsupported.
	Passthrough uint64
}
