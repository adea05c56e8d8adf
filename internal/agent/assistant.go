// Package agent runs the question pipeline: resolve the opportunity,
// assemble its context, ask the completion service, record the answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/revops/internal/assemble"
	"github.com/soyeahso/revops/internal/config"
	"github.com/soyeahso/revops/internal/conversation"
	"github.com/soyeahso/revops/internal/dataset"
	"github.com/soyeahso/revops/internal/hooks"
	"github.com/soyeahso/revops/internal/llm"
	"github.com/soyeahso/revops/internal/logging"
	"github.com/soyeahso/revops/internal/metrics"
	"github.com/soyeahso/revops/internal/resolve"
)

// ErrEmptyQuestion is returned when Ask is called without question text.
// The completion service is never contacted for it.
var ErrEmptyQuestion = errors.New("question is empty")

// CompletionError reports a failed completion call. The session is left
// unchanged and the same question may be asked again.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("completion via %s failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Retryable reports that the request can be submitted again.
func (e *CompletionError) Retryable() bool { return true }

// AssistantConfig configures the pipeline.
type AssistantConfig struct {
	Model       string
	Fallbacks   []string
	MaxTokens   int
	Temperature *float64
	Timeout     time.Duration // 0 means no deadline beyond the caller's
}

// AssistantConfigFrom maps the assistant section of cfg. An empty model
// routes to the primary provider.
func AssistantConfigFrom(cfg config.Config) AssistantConfig {
	model := cfg.Assistant.Model
	if model == "" {
		model = cfg.APIProvider
	}
	return AssistantConfig{
		Model:       model,
		Fallbacks:   cfg.Assistant.Fallbacks,
		MaxTokens:   cfg.Assistant.MaxTokens,
		Temperature: cfg.Assistant.Temperature,
		Timeout:     time.Duration(cfg.Assistant.TimeoutSeconds) * time.Second,
	}
}

// AskResult is the outcome of one answered question.
type AskResult struct {
	Interaction     conversation.Interaction `json:"interaction"`
	SessionID       string                   `json:"sessionId"`
	Opportunity     string                   `json:"opportunity,omitempty"`
	MatchedBy       resolve.MatchedBy        `json:"matchedBy,omitempty"`
	GroupRecords    int                      `json:"groupRecords"`
	Contacts        int                      `json:"contacts"`
	ActivityRecords int                      `json:"activityRecords"`
	Provider        string                   `json:"provider,omitempty"`
	Model           string                   `json:"model,omitempty"`
	Usage           llm.Usage                `json:"usage"`
	Duration        time.Duration            `json:"duration"`
}

// Assistant answers buying-group questions against the current dataset.
// It is safe for concurrent use; each caller brings its own session.
type Assistant struct {
	cfg    AssistantConfig
	client llm.Client
	data   *dataset.Holder
	hooks  *hooks.Manager
	log    *logging.Logger
}

// NewAssistant wires the pipeline to a provider registry. hooks may be nil.
func NewAssistant(cfg AssistantConfig, registry *llm.Registry, data *dataset.Holder, hm *hooks.Manager, log *logging.Logger) *Assistant {
	return &Assistant{
		cfg:    cfg,
		client: NewFailoverClient(registry, cfg.Model, cfg.Fallbacks, log),
		data:   data,
		hooks:  hm,
		log:    log.Sub("agent"),
	}
}

// Context resolves question and assembles its context without contacting
// the completion service.
func (a *Assistant) Context(ctx context.Context, question string) (assemble.Context, resolve.Match, bool, error) {
	ds, err := a.data.Current(ctx)
	if err != nil {
		return assemble.Context{}, resolve.Match{}, false, fmt.Errorf("loading dataset: %w", err)
	}
	c, m, ok := ds.Context(question)
	return c, m, ok, nil
}

// Opportunities lists the opportunity names present in the buying-group view.
func (a *Assistant) Opportunities(ctx context.Context) ([]string, error) {
	ds, err := a.data.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	return ds.OpportunityNames(), nil
}

// Ask runs one question through resolve, assemble, complete and append, in
// that order. On a completion failure it returns a *CompletionError and
// sess is not modified.
func (a *Assistant) Ask(ctx context.Context, sess *conversation.Session, question string) (*AskResult, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if sess.Closed() {
		return nil, conversation.ErrSessionClosed
	}

	assembled, match, resolved, err := a.Context(ctx, question)
	if err != nil {
		return nil, err
	}
	prompt, err := BuildPrompt(assembled, question)
	if err != nil {
		return nil, err
	}

	outcome := metrics.ResolutionNone
	if resolved {
		outcome = string(match.MatchedBy)
	}
	metrics.GroupRecords.Observe(float64(assembled.Group.Len()))

	a.log.Info().
		Str("sessionId", sess.ID).
		Str("opportunity", assembled.Opportunity).
		Str("matchedBy", outcome).
		Int("groupRecords", assembled.Group.Len()).
		Int("activityRecords", assembled.Activities.Len()).
		Msg("question resolved")

	a.emit(ctx, hooks.EventQuestionAsked, map[string]any{
		"sessionId":   sess.ID,
		"question":    question,
		"opportunity": assembled.Opportunity,
	})

	req := llm.UserPrompt(SystemInstruction, prompt)
	req.MaxTokens = a.cfg.MaxTokens
	req.Temperature = a.cfg.Temperature

	cctx := ctx
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	callStart := time.Now()
	resp, err := a.client.Complete(cctx, req)
	if err != nil {
		cerr := &CompletionError{Provider: a.providerOf(err), Err: err}
		metrics.CompletionFailuresTotal.WithLabelValues(cerr.Provider).Inc()
		a.log.Error().
			Str("sessionId", sess.ID).
			Str("provider", cerr.Provider).
			Err(err).
			Msg("completion failed")
		a.emit(ctx, hooks.EventCompletionFailed, map[string]any{
			"sessionId": sess.ID,
			"question":  question,
			"provider":  cerr.Provider,
			"error":     err.Error(),
		})
		return nil, cerr
	}
	metrics.CompletionDuration.WithLabelValues(resp.Provider).Observe(time.Since(callStart).Seconds())

	in, err := sess.Append(question, resp.Content)
	if err != nil {
		return nil, err
	}
	metrics.QuestionsTotal.WithLabelValues(outcome).Inc()

	result := &AskResult{
		Interaction:     in,
		SessionID:       sess.ID,
		Opportunity:     assembled.Opportunity,
		MatchedBy:       match.MatchedBy,
		GroupRecords:    assembled.Group.Len(),
		Contacts:        len(assembled.ContactIDs()),
		ActivityRecords: assembled.Activities.Len(),
		Provider:        resp.Provider,
		Model:           resp.Model,
		Usage:           resp.Usage,
		Duration:        time.Since(start),
	}

	a.log.Info().
		Str("sessionId", sess.ID).
		Str("provider", resp.Provider).
		Str("model", resp.Model).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Dur("duration", result.Duration).
		Msg("answer recorded")

	a.emit(ctx, hooks.EventAnswerRecorded, map[string]any{
		"sessionId":   sess.ID,
		"question":    in.Question,
		"answer":      in.Answer,
		"timestamp":   in.Timestamp,
		"opportunity": assembled.Opportunity,
	})
	return result, nil
}

func (a *Assistant) emit(ctx context.Context, event string, data map[string]any) {
	if a.hooks == nil {
		return
	}
	a.hooks.Emit(ctx, event, data)
}

func (a *Assistant) providerOf(err error) string {
	var pe *llm.ProviderError
	if errors.As(err, &pe) && pe.Provider != "" {
		return pe.Provider
	}
	return a.client.Name()
}
