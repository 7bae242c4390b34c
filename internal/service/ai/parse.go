package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// DecisionKind is one of the two shapes a classification may take.
type DecisionKind int

const (
	DecisionAnswer DecisionKind = iota
	DecisionTool
)

// Decision is a parsed model reply.
type Decision struct {
	Kind    DecisionKind
	Thought string
	Answer  string
	Tool    string
	Input   string
}

var (
	finalAnswerRe = regexp.MustCompile(`(?i)\bfinal\s+answer\s*:`)
	actionRe      = regexp.MustCompile(`(?i)\baction\s*\d*\s*:`)
	actionInputRe = regexp.MustCompile(`(?i)\baction\s*\d*\s*input\s*\d*\s*:`)
	thoughtRe     = regexp.MustCompile(`(?i)^\s*thought\s*:`)
	observationRe = regexp.MustCompile(`(?i)\n\s*observation\s*:`)
)

// ParseDecision reads a reply written in the Thought / Action / Action Input /
// Final Answer format. Whichever of "Final Answer:" and "Action:" comes first
// wins. A reply with neither marker is taken as a direct answer; an empty reply
// is ErrClassification.
func ParseDecision(text string) (Decision, error) {
	if loc := observationRe.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Decision{}, fmt.Errorf("%w: empty reply", ErrClassification)
	}

	final := finalAnswerRe.FindStringIndex(text)
	action := actionRe.FindStringIndex(text)

	switch {
	case final != nil && (action == nil || final[0] < action[0]):
		answer := strings.TrimSpace(text[final[1]:])
		if answer == "" {
			return Decision{}, fmt.Errorf("%w: empty final answer", ErrClassification)
		}
		return Decision{Kind: DecisionAnswer, Thought: thought(text[:final[0]]), Answer: answer}, nil

	case action != nil:
		d := Decision{Kind: DecisionTool, Thought: thought(text[:action[0]])}
		rest := text[action[1]:]
		if in := actionInputRe.FindStringIndex(rest); in != nil {
			d.Tool = cleanToolName(rest[:in[0]])
			d.Input = cleanInput(firstLine(rest[in[1]:]))
		} else {
			d.Tool = cleanToolName(firstLine(rest))
		}
		if d.Tool == "" {
			return Decision{}, fmt.Errorf("%w: action without tool name", ErrClassification)
		}
		return d, nil

	default:
		return Decision{Kind: DecisionAnswer, Answer: thought(text)}, nil
	}
}

func thought(s string) string {
	if loc := thoughtRe.FindStringIndex(s); loc != nil {
		s = s[loc[1]:]
	}
	return strings.TrimSpace(s)
}

func cleanToolName(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`*\"' []")
}

func cleanInput(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
