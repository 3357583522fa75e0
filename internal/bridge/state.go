package bridge

// State is a connection supervisor state
type State int

const (
	StateIdle State = iota
	StateResolving
	StateConnecting
	StateStreaming
	StateFailed
	StateDeviceDisconnected
	StateBackoff
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateResolving:
		return "Resolving"
	case StateConnecting:
		return "Connecting"
	case StateStreaming:
		return "Streaming"
	case StateFailed:
		return "Failed"
	case StateDeviceDisconnected:
		return "DeviceDisconnected"
	case StateBackoff:
		return "Backoff"
	default:
		return "Unknown"
	}
}

// transitions lists the legal moves of the state machine
var transitions = map[State][]State{
	StateIdle:               {StateResolving},
	StateResolving:          {StateConnecting, StateFailed},
	StateConnecting:         {StateStreaming, StateFailed},
	StateStreaming:          {StateFailed, StateDeviceDisconnected},
	StateFailed:             {StateBackoff},
	StateDeviceDisconnected: {StateBackoff},
	StateBackoff:            {StateResolving},
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
