package ai

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/menuka400/chatbot-spera/internal/model/profile"
)

const reactInstructions = `You have access to the following tools:

{tools}

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [{tool_names}]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

If no tool is needed, go straight from Thought to Final Answer.`

const turnTemplate = `Previous conversation history:
{history}
{user_context}
Question: {input}
Thought:{scratchpad}`

// newTurnTemplate builds the two-message ReAct template. Everything variable is
// passed as a value, so braces inside profiles or history are never parsed.
func newTurnTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}\n\n"+reactInstructions),
		schema.UserMessage(turnTemplate),
	)
}

// PromptManager renders profile system prompts.
type PromptManager struct{}

// NewPromptManager returns a PromptManager.
func NewPromptManager() *PromptManager {
	return &PromptManager{}
}

// BuildSystemPrompt renders the identity, specialty and guidelines of p.
func (pm *PromptManager) BuildSystemPrompt(p *profile.Profile) string {
	if p == nil {
		return "You are a helpful assistant. Answer clearly and concisely."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.", p.Name, strings.TrimSpace(p.Title))
	if p.Description != "" {
		b.WriteString(" ")
		b.WriteString(p.Description)
	}
	if p.Specialty != "" {
		fmt.Fprintf(&b, "\n\nYou only handle questions about %s.", p.Specialty)
		if p.Redirect != "" {
			fmt.Fprintf(&b, " For anything else reply with the Final Answer: %q", p.Redirect)
		}
	}
	if len(p.Guidelines) > 0 {
		b.WriteString("\n\nGuidelines:")
		for i, g := range p.Guidelines {
			fmt.Fprintf(&b, "\n%d. %s", i+1, g)
		}
	}
	b.WriteString("\n\nIf the conversation history tells you the user's name, you may address them by it.")
	return b.String()
}
