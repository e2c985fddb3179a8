package lifecycle

// State is where the controller is in its lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateError
	StateResetting
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateResetting:
		return "resetting"
	default:
		return "unknown"
	}
}
