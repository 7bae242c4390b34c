package chat

import (
	"strings"
	"time"
)

// DefaultMaxExchanges is the number of user/assistant pairs kept in a session log.
const DefaultMaxExchanges = 10

// nameTriggers are matched case-insensitively in this order. When several occur in
// one utterance the earliest entry of this list wins, not the earliest position.
var nameTriggers = []string{"my name is", "i am", "i'm"}

// Session captures a transient conversation: a bounded turn log plus the
// display name the user introduced themselves with, if any.
//
// A Session is not safe for concurrent use; the chat service serialises access.
type Session struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	CreatedAt time.Time `json:"createdAt"`

	maxTurns    int
	turns       []Turn
	displayName string
}

// NewSession creates an empty session keeping at most maxExchanges*2 turns.
func NewSession(id, profileID string, maxExchanges int) *Session {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &Session{
		ID:        id,
		ProfileID: profileID,
		CreatedAt: time.Now().UTC(),
		maxTurns:  maxExchanges * 2,
		turns:     make([]Turn, 0, maxExchanges*2+1),
	}
}

// Append records a turn and trims the log to the configured window.
func (s *Session) Append(role Role, content string) {
	s.turns = append(s.turns, Turn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	s.trim()
}

// trim drops the oldest turns once the log exceeds maxTurns. The kept window is
// copied to the front so the backing array never grows past maxTurns+1.
func (s *Session) trim() {
	overflow := len(s.turns) - s.maxTurns
	if overflow <= 0 {
		return
	}
	n := copy(s.turns, s.turns[overflow:])
	clear(s.turns[n:])
	s.turns = s.turns[:n]
}

// RenderHistory serialises the log as "role: content" lines in chronological order.
func (s *Session) RenderHistory() string {
	var builder strings.Builder
	for i, turn := range s.turns {
		if i > 0 {
			builder.WriteByte('\n')
		}
		builder.WriteString(string(turn.Role))
		builder.WriteString(": ")
		builder.WriteString(turn.Content)
	}
	return builder.String()
}

// DetectName looks for a self-introduction in utterance and stores the text that
// follows the trigger phrase as the display name. The heuristic is deliberately
// naive: "I'm Bob." yields "Bob." and "I am hungry" yields "hungry".
func (s *Session) DetectName(utterance string) (string, bool) {
	for _, trigger := range nameTriggers {
		idx := indexFold(utterance, trigger)
		if idx < 0 {
			continue
		}
		name := strings.TrimSpace(utterance[idx+len(trigger):])
		if name == "" {
			return "", false
		}
		s.displayName = name
		return name, true
	}
	return "", false
}

// DisplayName returns the last detected name.
func (s *Session) DisplayName() (string, bool) {
	return s.displayName, s.displayName != ""
}

// Turns returns a copy of the current log.
func (s *Session) Turns() []Turn {
	copied := make([]Turn, len(s.turns))
	copy(copied, s.turns)
	return copied
}

// Len reports the number of turns currently kept.
func (s *Session) Len() int {
	return len(s.turns)
}

// MaxTurns reports the size of the rolling window.
func (s *Session) MaxTurns() int {
	return s.maxTurns
}

// Clear drops all turns. The display name is kept.
func (s *Session) Clear() {
	clear(s.turns)
	s.turns = s.turns[:0]
}

// indexFold is strings.Index with ASCII case folding on substr. Matching on the
// original string keeps byte offsets valid for slicing.
func indexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}
