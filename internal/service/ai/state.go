package ai

// State is a stage of one resolution.
type State string

const (
	StateReceived     State = "received"
	StateClassified   State = "classified"
	StateDirect       State = "direct"
	StateToolSelected State = "tool_selected"
	StateObserved     State = "observed"
	StateFinalized    State = "finalized"
)
