package chat

// OutcomeKind distinguishes direct answers from answers backed by a tool call.
type OutcomeKind string

const (
	OutcomeDirect         OutcomeKind = "direct"
	OutcomeToolInvocation OutcomeKind = "tool_invocation"
)

// Step records one classify/act round of a resolution.
type Step struct {
	Thought     string `json:"thought,omitempty"`
	Tool        string `json:"tool,omitempty"`
	Query       string `json:"query,omitempty"`
	Observation string `json:"observation,omitempty"`
	// Rejected is set when Tool is not in the registry; Observation then only
	// tells the model which tools exist.
	Rejected bool `json:"rejected,omitempty"`
}

// Outcome is the result of resolving one user utterance. Only Text is shown to
// the end user; the remaining fields exist for audit and tests.
type Outcome struct {
	Kind        OutcomeKind `json:"kind"`
	ToolName    string      `json:"toolName,omitempty"`
	Query       string      `json:"query,omitempty"`
	Observation string      `json:"observation,omitempty"`
	Text        string      `json:"text"`
	Steps       []Step      `json:"steps,omitempty"`
	Iterations  int         `json:"iterations"`
	// Stopped is set when the iteration or time budget cut the loop short.
	Stopped bool `json:"stopped,omitempty"`
	// Failed is set when Text is the fixed fallback message.
	Failed bool `json:"failed,omitempty"`
}
