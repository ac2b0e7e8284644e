package feed

// State is the lifecycle state of a feeder run.
type State int32

const (
	StateIdle State = iota
	StateFeeding
	StateFinishing
	StateFailed
	StateCancelling
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFeeding:
		return "feeding"
	case StateFinishing:
		return "finishing"
	case StateFailed:
		return "failed"
	case StateCancelling:
		return "cancelling"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// cursor tracks the next frame to submit.
type cursor struct {
	index int
	total int
}

func (c *cursor) done() bool {
	return c.index >= c.total
}
