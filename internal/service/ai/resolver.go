// Package ai owns the turn resolver: the bounded Thought / Action / Observation
// loop that either answers an utterance directly or routes it through tools.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/menuka400/chatbot-spera/internal/model/chat"
	"github.com/menuka400/chatbot-spera/internal/model/profile"
	"github.com/menuka400/chatbot-spera/internal/tools"
)

const (
	DefaultMaxIterations    = 5
	DefaultMaxExecutionTime = 30 * time.Second

	DefaultFallback    = "I encountered an error processing your query. Could you please try again."
	DefaultStopMessage = "I could not finish looking that up in time. Could you please rephrase or narrow the question."
)

// stopSequence keeps the model from inventing its own observations.
var stopSequence = []string{"\nObservation:"}

// Resolver turns one utterance into one answer. A Resolver is immutable and may
// serve many sessions at once; callers serialise calls per session.
type Resolver struct {
	registry *tools.Registry
	chain    compose.Runnable[map[string]any, *schema.Message]

	profileID        string
	system           string
	maxIterations    int
	maxExecutionTime time.Duration
	temperature      *float32
	maxTokens        *int
	fallback         string
	stopMessage      string
	logger           *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithProfile renders p as the system prompt and remembers its ID for logs.
func WithProfile(p *profile.Profile) Option {
	return func(r *Resolver) {
		r.system = NewPromptManager().BuildSystemPrompt(p)
		if p != nil {
			r.profileID = p.ID
		}
	}
}

// WithSystemPrompt replaces the system prompt verbatim.
func WithSystemPrompt(system string) Option {
	return func(r *Resolver) { r.system = system }
}

func WithMaxIterations(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxIterations = n
		}
	}
}

func WithMaxExecutionTime(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.maxExecutionTime = d
		}
	}
}

func WithTemperature(t float32) Option {
	return func(r *Resolver) { r.temperature = &t }
}

func WithMaxTokens(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxTokens = &n
		}
	}
}

// WithFallback sets the reply used when resolution fails.
func WithFallback(msg string) Option {
	return func(r *Resolver) {
		if strings.TrimSpace(msg) != "" {
			r.fallback = msg
		}
	}
}

// WithStopMessage sets the reply used when the budget runs out before any text
// was produced.
func WithStopMessage(msg string) Option {
	return func(r *Resolver) {
		if strings.TrimSpace(msg) != "" {
			r.stopMessage = msg
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver builds a resolver over chatModel and registry. A nil registry
// means no tools.
func NewResolver(chatModel model.BaseChatModel, registry *tools.Registry, opts ...Option) (*Resolver, error) {
	if chatModel == nil {
		return nil, errors.New("resolver requires a chat model")
	}
	if registry == nil {
		registry, _ = tools.NewRegistry()
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(newTurnTemplate())
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(context.Background())
	if err != nil {
		return nil, fmt.Errorf("compile resolver chain: %w", err)
	}

	r := &Resolver{
		registry:         registry,
		chain:            runnable,
		system:           NewPromptManager().BuildSystemPrompt(nil),
		maxIterations:    DefaultMaxIterations,
		maxExecutionTime: DefaultMaxExecutionTime,
		fallback:         DefaultFallback,
		stopMessage:      DefaultStopMessage,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve answers utterance within sess. It never fails: errors and panics turn
// into the fallback reply and are only logged. Both the user turn and the reply
// are appended to sess.
func (r *Resolver) Resolve(ctx context.Context, sess *chat.Session, utterance string) (out chat.Outcome) {
	started := time.Now()
	logger := r.logger.With("session", sess.ID, "profile", r.profileID)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("resolution panicked", "panic", p)
			out = r.fail(sess, out)
		}
	}()

	history := sess.RenderHistory()
	sess.Append(chat.RoleUser, utterance)
	if name, ok := sess.DetectName(utterance); ok {
		logger.Debug("display name detected", "name", name)
	}
	logger.Debug("state", "state", StateReceived)

	ctx, cancel := context.WithTimeout(ctx, r.maxExecutionTime)
	defer cancel()

	out, err := r.run(ctx, logger, sess, history, utterance)
	if err != nil {
		logger.Error("resolution failed", "error", err, "iterations", out.Iterations)
		return r.fail(sess, out)
	}

	out.Text = Finalize(out.Text)
	if out.Text == "" {
		logger.Error("resolution produced no text", "error", ErrClassification)
		return r.fail(sess, out)
	}
	sess.Append(chat.RoleAssistant, out.Text)

	logger.Info("turn resolved",
		"kind", out.Kind,
		"tool", out.ToolName,
		"iterations", out.Iterations,
		"stopped", out.Stopped,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	logger.Debug("state", "state", StateFinalized)
	return out
}

func (r *Resolver) run(ctx context.Context, logger *slog.Logger, sess *chat.Session, history, utterance string) (chat.Outcome, error) {
	out := chat.Outcome{Kind: chat.OutcomeDirect}

	userContext := ""
	if name, ok := sess.DisplayName(); ok {
		userContext = fmt.Sprintf("The user's name is %s.\n", name)
	}
	if history == "" {
		history = "(none)"
	}
	catalogue := r.registry.Catalogue()
	if catalogue == "" {
		catalogue = "(no tools available)"
	}

	vars := map[string]any{
		"system":       r.system,
		"tools":        catalogue,
		"tool_names":   strings.Join(r.registry.Names(), ", "),
		"history":      history,
		"user_context": userContext,
		"input":        utterance,
	}

	var scratchpad strings.Builder
	for round := 1; round <= r.maxIterations; round++ {
		out.Iterations = round
		input := maps.Clone(vars)
		input["scratchpad"] = scratchpad.String()

		reply, err := await(ctx, func(ctx context.Context) (*schema.Message, error) {
			return r.chain.Invoke(ctx, input, compose.WithChatModelOption(r.modelOptions()...))
		})
		if err != nil {
			if ctx.Err() != nil {
				return r.stop(logger, out, ctx.Err()), nil
			}
			return out, fmt.Errorf("%w: %w", ErrClassification, err)
		}
		if reply == nil {
			return out, fmt.Errorf("%w: nil reply", ErrClassification)
		}

		decision, err := ParseDecision(reply.Content)
		if err != nil {
			return out, err
		}
		logger.Debug("state", "state", StateClassified, "round", round)

		if decision.Kind == DecisionAnswer {
			logger.Debug("state", "state", StateDirect, "round", round)
			out.Text = decision.Answer
			return out, nil
		}

		logger.Debug("state", "state", StateToolSelected, "tool", decision.Tool, "round", round)
		query := decision.Input
		if query == "" {
			query = utterance
		}

		observation, err := r.observe(ctx, decision.Tool, query)
		step := chat.Step{
			Thought:     decision.Thought,
			Tool:        decision.Tool,
			Query:       query,
			Observation: observation,
			Rejected:    !r.registry.Has(decision.Tool),
		}
		out.Steps = append(out.Steps, step)
		out.Kind = chat.OutcomeToolInvocation
		out.ToolName, out.Query, out.Observation = step.Tool, step.Query, step.Observation
		if err != nil {
			return r.stop(logger, out, err), nil
		}
		logger.Debug("state", "state", StateObserved, "tool", decision.Tool, "round", round)

		if decision.Thought != "" {
			scratchpad.WriteString(" ")
			scratchpad.WriteString(decision.Thought)
		}
		fmt.Fprintf(&scratchpad, "\nAction: %s\nAction Input: %s\nObservation: %s\nThought:", decision.Tool, query, observation)
	}

	return r.stop(logger, out, ErrBudgetExhausted), nil
}

// observe runs one tool round. Tool failures become observation text so the
// model can recover; only the deadline is returned as an error.
func (r *Resolver) observe(ctx context.Context, name, query string) (string, error) {
	if !r.registry.Has(name) {
		return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, strings.Join(r.registry.Names(), ", ")), nil
	}

	observation, err := await(ctx, func(ctx context.Context) (string, error) {
		return r.registry.Invoke(ctx, name, query)
	})
	switch {
	case err == nil:
		return observation, nil
	case ctx.Err() != nil:
		return "", ctx.Err()
	default:
		r.logger.Warn("tool failed", "tool", name, "error", err)
		return fmt.Sprintf("%s failed: %v. Try another tool or answer from what you already know.", name, err), nil
	}
}

// stop ends a resolution early with the best text gathered so far: the last
// tool observation, else the last thought, else the stop message. Rejected
// steps only contribute their thought.
func (r *Resolver) stop(logger *slog.Logger, out chat.Outcome, cause error) chat.Outcome {
	out.Stopped = true
	out.Text = r.stopMessage
	for i := len(out.Steps) - 1; i >= 0; i-- {
		if obs := strings.TrimSpace(out.Steps[i].Observation); obs != "" && !out.Steps[i].Rejected {
			out.Text = obs
			break
		}
		if thought := strings.TrimSpace(out.Steps[i].Thought); thought != "" {
			out.Text = thought
			break
		}
	}
	logger.Warn("resolution stopped early", "reason", cause, "iterations", out.Iterations)
	return out
}

func (r *Resolver) fail(sess *chat.Session, out chat.Outcome) chat.Outcome {
	out.Text = r.fallback
	out.Failed = true
	sess.Append(chat.RoleAssistant, out.Text)
	return out
}

func (r *Resolver) modelOptions() []model.Option {
	opts := []model.Option{model.WithStop(stopSequence)}
	if r.temperature != nil {
		opts = append(opts, model.WithTemperature(*r.temperature))
	}
	if r.maxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*r.maxTokens))
	}
	return opts
}

// await runs fn but stops waiting once ctx is done, so a collaborator that
// ignores cancellation cannot hold the turn past its deadline.
func await[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- result{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
