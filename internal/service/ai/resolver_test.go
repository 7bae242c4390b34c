package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuka400/chatbot-spera/internal/logging"
	"github.com/menuka400/chatbot-spera/internal/model/chat"
	"github.com/menuka400/chatbot-spera/internal/model/profile"
	"github.com/menuka400/chatbot-spera/internal/tools"
)

// scriptedModel replies with the next scripted entry on every call.
type scriptedModel struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
	prompts [][]*schema.Message
	opts    []*model.Options
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.calls
	m.calls++
	m.prompts = append(m.prompts, input)
	m.opts = append(m.opts, model.GetCommonOptions(&model.Options{}, opts...))

	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if len(m.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	if i >= len(m.replies) {
		i = len(m.replies) - 1
	}
	return schema.AssistantMessage(m.replies[i], nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) lastUserPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.prompts[len(m.prompts)-1]
	return msgs[len(msgs)-1].Content
}

// funcModel delegates Generate to fn.
type funcModel func(ctx context.Context) (*schema.Message, error)

func (f funcModel) Generate(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return f(ctx)
}

func (f funcModel) Stream(ctx context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f(ctx)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func newRegistry(t *testing.T, calls *[]string) *tools.Registry {
	t.Helper()
	mk := func(name, out string) tools.Descriptor {
		return tools.Descriptor{
			Name:        name,
			Description: "looks things up in " + name,
			Invoke: func(_ context.Context, query string) (string, error) {
				if calls != nil {
					*calls = append(*calls, name+"("+query+")")
				}
				return out, nil
			},
		}
	}
	registry, err := tools.NewRegistry(
		mk("AI_ML_News_Search", "Latest AI/ML News:\n\n1. **Model X released**"),
		mk("AI_ML_Wikipedia", "Backpropagation computes gradients"),
	)
	require.NoError(t, err)
	return registry
}

func newResolver(t *testing.T, m model.BaseChatModel, registry *tools.Registry, opts ...Option) *Resolver {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	r, err := NewResolver(m, registry, opts...)
	require.NoError(t, err)
	return r
}

func TestResolveDirectAnswer(t *testing.T) {
	m := &scriptedModel{replies: []string{"Thought: I know this\nFinal Answer: gradient descent minimises loss"}}
	r := newResolver(t, m, newRegistry(t, nil))
	sess := chat.NewSession("s1", profile.AIMLID, 10)

	out := r.Resolve(context.Background(), sess, "what is gradient descent")

	assert.Equal(t, chat.OutcomeDirect, out.Kind)
	assert.Equal(t, "Gradient descent minimises loss.", out.Text)
	assert.Equal(t, 1, out.Iterations)
	assert.False(t, out.Failed)

	turns := sess.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, chat.Turn{Role: chat.RoleUser, Content: "what is gradient descent"}, stripTime(turns[0]))
	assert.Equal(t, chat.Turn{Role: chat.RoleAssistant, Content: out.Text}, stripTime(turns[1]))
}

func TestResolvePassesModelOptions(t *testing.T) {
	m := &scriptedModel{replies: []string{"Final Answer: ok"}}
	r := newResolver(t, m, nil, WithTemperature(0.1), WithMaxTokens(256))
	r.Resolve(context.Background(), chat.NewSession("s", "", 0), "hi")

	require.Len(t, m.opts, 1)
	assert.Equal(t, []string{"\nObservation:"}, m.opts[0].Stop)
	assert.InDelta(t, 0.1, *m.opts[0].Temperature, 1e-6)
	assert.Equal(t, 256, *m.opts[0].MaxTokens)
}

func TestResolveToolRound(t *testing.T) {
	var calls []string
	m := &scriptedModel{replies: []string{
		"Thought: I need news\nAction: AI_ML_News_Search\nAction Input: model releases",
		"Thought: I now know the final answer\nFinal Answer: Model X was released today!",
	}}
	r := newResolver(t, m, newRegistry(t, &calls))
	sess := chat.NewSession("s1", profile.AIMLID, 10)

	out := r.Resolve(context.Background(), sess, "any AI news?")

	assert.Equal(t, chat.OutcomeToolInvocation, out.Kind)
	assert.Equal(t, "AI_ML_News_Search", out.ToolName)
	assert.Equal(t, "model releases", out.Query)
	assert.Contains(t, out.Observation, "Model X released")
	assert.Equal(t, "Model X was released today!", out.Text)
	assert.Equal(t, 2, out.Iterations)
	assert.Equal(t, []string{"AI_ML_News_Search(model releases)"}, calls)

	second := m.lastUserPrompt()
	assert.Contains(t, second, "Action: AI_ML_News_Search")
	assert.Contains(t, second, "Observation: Latest AI/ML News:")
}

func TestResolveCatalogueInPrompt(t *testing.T) {
	m := &scriptedModel{replies: []string{"Final Answer: hello"}}
	r := newResolver(t, m, newRegistry(t, nil), WithProfile(&profile.Seed()[0]))
	r.Resolve(context.Background(), chat.NewSession("s", profile.AIMLID, 10), "hi")

	system := m.prompts[0][0].Content
	assert.Contains(t, system, "AI_ML_News_Search: looks things up in AI_ML_News_Search")
	assert.Contains(t, system, "[AI_ML_News_Search, AI_ML_Wikipedia]")
	assert.Contains(t, system, "AI/ML Bot")
}

func TestResolveUnknownToolBecomesObservation(t *testing.T) {
	m := &scriptedModel{replies: []string{
		"Action: Stock_Prices\nAction Input: NVDA",
		"Final Answer: I can only look up AI/ML topics",
	}}
	r := newResolver(t, m, newRegistry(t, nil))

	out := r.Resolve(context.Background(), chat.NewSession("s", "", 10), "nvda price")

	assert.False(t, out.Failed)
	require.Len(t, out.Steps, 1)
	assert.Equal(t, "Stock_Prices is not a valid tool, try one of [AI_ML_News_Search, AI_ML_Wikipedia].", out.Steps[0].Observation)
	assert.Equal(t, "I can only look up AI/ML topics.", out.Text)
}

func TestResolveOverrunSkipsUnknownToolObservation(t *testing.T) {
	m := &scriptedModel{replies: []string{"Thought: stock prices are not covered\nAction: Stock_Prices\nAction Input: NVDA"}}
	r := newResolver(t, m, newRegistry(t, nil), WithMaxIterations(2))

	out := r.Resolve(context.Background(), chat.NewSession("s", "", 10), "nvda price")

	assert.True(t, out.Stopped)
	require.Len(t, out.Steps, 2)
	assert.True(t, out.Steps[1].Rejected)
	assert.NotContains(t, out.Text, "not a valid tool")
	assert.Equal(t, "Stock prices are not covered.", out.Text)
}

func TestResolveOverrunWithoutThoughtUsesStopMessage(t *testing.T) {
	m := &scriptedModel{replies: []string{"Action: Stock_Prices\nAction Input: NVDA"}}
	r := newResolver(t, m, newRegistry(t, nil), WithMaxIterations(1), WithStopMessage("Out of steps"))

	out := r.Resolve(context.Background(), chat.NewSession("s", "", 10), "nvda price")

	assert.True(t, out.Stopped)
	assert.Equal(t, "Out of steps.", out.Text)
}

func TestResolveToolErrorIsContained(t *testing.T) {
	registry, err := tools.NewRegistry(tools.Descriptor{
		Name:        "Flaky",
		Description: "fails",
		Invoke: func(context.Context, string) (string, error) {
			return "", errors.New("upstream 503")
		},
	})
	require.NoError(t, err)

	m := &scriptedModel{replies: []string{
		"Action: Flaky\nAction Input: q",
		"Final Answer: the search service is unavailable",
	}}
	out := newResolver(t, m, registry).Resolve(context.Background(), chat.NewSession("s", "", 10), "q")

	assert.False(t, out.Failed)
	assert.Contains(t, out.Steps[0].Observation, "upstream 503")
	assert.Equal(t, "The search service is unavailable.", out.Text)
}

func TestResolveOverrunReturnsLastText(t *testing.T) {
	var calls []string
	m := &scriptedModel{replies: []string{"Thought: keep digging\nAction: AI_ML_Wikipedia\nAction Input: backprop"}}
	r := newResolver(t, m, newRegistry(t, &calls), WithMaxIterations(5))

	done := make(chan chat.Outcome, 1)
	go func() { done <- r.Resolve(context.Background(), chat.NewSession("s", "", 10), "explain backprop") }()

	select {
	case out := <-done:
		assert.True(t, out.Stopped)
		assert.False(t, out.Failed)
		assert.Equal(t, 5, out.Iterations)
		assert.Len(t, calls, 5)
		assert.Equal(t, 5, m.calls)
		assert.Equal(t, "Backpropagation computes gradients.", out.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("resolver did not terminate")
	}
}

func TestResolveDeadlineAbandonsSlowModel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	m := funcModel(func(context.Context) (*schema.Message, error) {
		<-release // ignores ctx on purpose
		return schema.AssistantMessage("Final Answer: too late", nil), nil
	})
	r := newResolver(t, m, nil, WithMaxExecutionTime(50*time.Millisecond), WithStopMessage("Out of time"))

	start := time.Now()
	out := r.Resolve(context.Background(), chat.NewSession("s", "", 10), "slow?")

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, out.Stopped)
	assert.Equal(t, "Out of time.", out.Text)
}

func TestResolveDeadlineMidLoopKeepsPartialText(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	m := funcModel(func(ctx context.Context) (*schema.Message, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return schema.AssistantMessage("Thought: look it up\nAction: AI_ML_Wikipedia\nAction Input: backprop", nil), nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := newResolver(t, m, newRegistry(t, nil), WithMaxExecutionTime(100*time.Millisecond))

	out := r.Resolve(context.Background(), chat.NewSession("s", "", 10), "explain backprop")
	assert.True(t, out.Stopped)
	assert.Equal(t, "Backpropagation computes gradients.", out.Text)
}

func TestResolveClassificationErrorFallsBack(t *testing.T) {
	m := &scriptedModel{errs: []error{errors.New("401 unauthorized")}}
	r := newResolver(t, m, nil, WithFallback("Sorry, try again."))
	sess := chat.NewSession("s", "", 10)

	out := r.Resolve(context.Background(), sess, "hello")

	assert.True(t, out.Failed)
	assert.Equal(t, "Sorry, try again.", out.Text)
	assert.Equal(t, 2, sess.Len())
}

func TestResolveEmptyReplyFallsBack(t *testing.T) {
	m := &scriptedModel{replies: []string{"   "}}
	out := newResolver(t, m, nil).Resolve(context.Background(), chat.NewSession("s", "", 10), "hello")

	assert.True(t, out.Failed)
	assert.Equal(t, DefaultFallback, out.Text)
}

func TestResolvePanickingModelFallsBack(t *testing.T) {
	m := funcModel(func(context.Context) (*schema.Message, error) { panic("boom") })
	out := newResolver(t, m, nil).Resolve(context.Background(), chat.NewSession("s", "", 10), "hello")

	assert.True(t, out.Failed)
	assert.Equal(t, DefaultFallback, out.Text)
}

func TestResolveUnparseableReplyIsDirectAnswer(t *testing.T) {
	m := &scriptedModel{replies: []string{"hello there, how can I help"}}
	out := newResolver(t, m, nil).Resolve(context.Background(), chat.NewSession("s", "", 10), "hi")

	assert.Equal(t, chat.OutcomeDirect, out.Kind)
	assert.Equal(t, "Hello there, how can I help.", out.Text)
}

func TestNameStoredAcrossTurns(t *testing.T) {
	m := &scriptedModel{replies: []string{"Final Answer: Nice to meet you"}}
	r := newResolver(t, m, nil)
	sess := chat.NewSession("s", "", 10)

	r.Resolve(context.Background(), sess, "My name is Dana")
	name, ok := sess.DisplayName()
	require.True(t, ok)
	assert.Equal(t, "Dana", name)

	r.Resolve(context.Background(), sess, "What's my name?")
	name, _ = sess.DisplayName()
	assert.Equal(t, "Dana", name)

	prompt := m.lastUserPrompt()
	assert.Contains(t, prompt, "user: My name is Dana")
	assert.Contains(t, prompt, "Question: What's my name?")
}

func TestHistoryBoundedAcrossResolutions(t *testing.T) {
	m := &scriptedModel{replies: []string{"Final Answer: ok"}}
	r := newResolver(t, m, nil)
	sess := chat.NewSession("s", "", 2)

	for i := 0; i < 5; i++ {
		r.Resolve(context.Background(), sess, fmt.Sprintf("q%d", i))
	}
	turns := sess.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, "q3", turns[0].Content)
	assert.Equal(t, "q4", turns[2].Content)
	assert.True(t, strings.HasPrefix(sess.RenderHistory(), "user: q3\nassistant: Ok."))
}

func TestNewResolverRequiresModel(t *testing.T) {
	_, err := NewResolver(nil, nil)
	assert.Error(t, err)
}

func stripTime(turn chat.Turn) chat.Turn {
	turn.CreatedAt = time.Time{}
	return turn
}
