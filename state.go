package refetch

// Phase describes where the orchestrator is in the request lifecycle.
type Phase int32

const (
	// PhaseUnstarted indicates no operation has ever been issued.
	PhaseUnstarted Phase = iota

	// PhaseLoading indicates an operation has been issued and its
	// completion has not yet been published.
	PhaseLoading

	// PhaseSettled indicates the most recent published completion has
	// resolved, successfully or not.
	PhaseSettled
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUnstarted:
		return "unstarted"
	case PhaseLoading:
		return "loading"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// State is the observable snapshot delivered to observers on every publish.
// After a completed operation at most one of Data and Err reflects that
// operation; a successful completion always clears Err.
type State struct {
	// Phase is the loading phase of the most recent operation.
	Phase Phase

	// Data is the last successfully decoded and reduced payload, or nil.
	Data any

	// Err is the last operation failure, or nil. Cleared whenever a
	// subsequent operation succeeds.
	Err error

	// Request describes the most recently issued operation. Zero before
	// any issue.
	Request RequestDescriptor

	// Response holds transport-level metadata of the most recent
	// completed operation, or nil.
	Response *Response
}
