package pipeline

// State is the pipeline run state.
type State string

// Pipeline states. A run moves Idle → Detecting → Computing → Encoding and
// terminates in exactly one of Completed, Failed, or Cancelled.
const (
	StateIdle      State = "IDLE"
	StateDetecting State = "DETECTING"
	StateComputing State = "COMPUTING"
	StateEncoding  State = "ENCODING"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
	StateCancelled State = "CANCELLED"
)

// IsTerminal returns true if the state represents a finished run.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	default:
		return false
	}
}
