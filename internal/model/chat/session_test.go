package chat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTrimKeepsMostRecentTurns(t *testing.T) {
	const k = 3
	for n := 0; n <= 10; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			s := NewSession("s", "aiml", k)
			for i := 0; i < n; i++ {
				role := RoleUser
				if i%2 == 1 {
					role = RoleAssistant
				}
				s.Append(role, fmt.Sprintf("m%d", i))
			}

			want := min(n, 2*k)
			require.Equal(t, want, s.Len())

			turns := s.Turns()
			for i, turn := range turns {
				assert.Equal(t, fmt.Sprintf("m%d", n-want+i), turn.Content)
			}
		})
	}
}

func TestSessionDefaultWindow(t *testing.T) {
	s := NewSession("s", "aiml", 0)
	for i := 0; i < 25; i++ {
		s.Append(RoleUser, fmt.Sprintf("m%d", i))
	}

	assert.Equal(t, 20, s.Len())
	assert.Equal(t, "m5", s.Turns()[0].Content)
}

func TestSessionRenderHistory(t *testing.T) {
	s := NewSession("s", "aiml", 10)
	assert.Empty(t, s.RenderHistory())

	s.Append(RoleUser, "hello")
	s.Append(RoleAssistant, "Hi there.")

	assert.Equal(t, "user: hello\nassistant: Hi there.", s.RenderHistory())
}

func TestSessionRenderHistoryAfterTrim(t *testing.T) {
	s := NewSession("s", "aiml", 1)
	s.Append(RoleUser, "a")
	s.Append(RoleAssistant, "b")
	s.Append(RoleUser, "c")

	assert.Equal(t, "assistant: b\nuser: c", s.RenderHistory())
	assert.Equal(t, 1, strings.Count(s.RenderHistory(), "\n"))
}

func TestSessionDetectName(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		want      string
		found     bool
	}{
		{name: "my name is", utterance: "My name is Alice", want: "Alice", found: true},
		{name: "contraction keeps punctuation", utterance: "I'm Bob.", want: "Bob.", found: true},
		{name: "i am", utterance: "hello, I AM Carol", want: "Carol", found: true},
		{name: "trigger order wins over position", utterance: "I'm happy, my name is Dana", want: "Dana", found: true},
		{name: "no trigger", utterance: "What's the weather?", found: false},
		{name: "trigger without name", utterance: "my name is   ", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("s", "aiml", 10)
			got, ok := s.DetectName(tt.utterance)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)

			name, stored := s.DisplayName()
			assert.Equal(t, tt.found, stored)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestSessionDetectNameKeepsPreviousName(t *testing.T) {
	s := NewSession("s", "aiml", 10)
	s.DetectName("My name is Dana")
	s.DetectName("What's my name?")

	name, ok := s.DisplayName()
	require.True(t, ok)
	assert.Equal(t, "Dana", name)
}

func TestSessionClear(t *testing.T) {
	s := NewSession("s", "aiml", 10)
	s.DetectName("I am Eve")
	s.Append(RoleUser, "I am Eve")
	s.Clear()

	assert.Zero(t, s.Len())
	name, ok := s.DisplayName()
	assert.True(t, ok)
	assert.Equal(t, "Eve", name)
}
