package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/internal/metrics"
)

// InstrumentedModel wraps a CompletionClient and reports every call to the
// run's activity log, telemetry, the structured logger and Prometheus.
type InstrumentedModel struct {
	Inner     CompletionClient
	Telemetry framework.Telemetry
	Logger    *zap.Logger
	Debug     bool
}

func NewInstrumentedModel(inner CompletionClient, telemetry framework.Telemetry, logger *zap.Logger, debug bool) *InstrumentedModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedModel{Inner: inner, Telemetry: telemetry, Logger: logger, Debug: debug}
}

// Complete implements CompletionClient.
func (m *InstrumentedModel) Complete(ctx context.Context, req Request) (string, error) {
	activity := framework.ActivityLogFrom(ctx)
	activity.Addf(framework.LevelProgress, "Calling %s with model %s...", req.Caller, req.Model)
	m.emitPrompt(ctx, req)

	start := time.Now()
	text, err := m.Inner.Complete(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		message := fmt.Sprintf("Error from %s: %v", req.Caller, err)
		if hint := Hint(err, req.Model); hint != "" {
			message += " " + hint
		}
		activity.Add(framework.LevelError, message)
		m.Logger.Warn("completion failed",
			zap.String("caller", req.Caller),
			zap.String("model", req.Model),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		metrics.RecordCompletion(req.Model, metrics.OutcomeError, elapsed, 0)
	} else {
		chars := utf8.RuneCountInString(text)
		activity.Addf(framework.LevelInfo, "Received %d chars from %s", chars, req.Caller)
		m.Logger.Debug("completion received",
			zap.String("caller", req.Caller),
			zap.String("model", req.Model),
			zap.Duration("elapsed", elapsed),
			zap.Int("chars", chars))
		metrics.RecordCompletion(req.Model, metrics.OutcomeSuccess, elapsed, chars)
	}
	m.emitResponse(ctx, req, text, elapsed, err)
	return text, err
}

func (m *InstrumentedModel) emitPrompt(ctx context.Context, req Request) {
	if m.Telemetry == nil {
		return
	}
	run, _ := framework.RunContextFrom(ctx)
	metadata := map[string]interface{}{
		"model":          req.Model,
		"caller":         req.Caller,
		"max_tokens":     req.MaxTokens,
		"prompt_chars":   utf8.RuneCountInString(req.Prompt),
		"prompt_preview": clip(req.Prompt, 1024),
	}
	if m.Debug {
		metadata["system"] = clip(req.System, 8192)
		metadata["prompt"] = clip(req.Prompt, 8192)
	}
	framework.Emit(m.Telemetry, framework.Event{
		Type:     framework.EventLLMPrompt,
		RunID:    run.RunID,
		Stage:    run.Stage,
		Agent:    run.Agent,
		Message:  "llm prompt",
		Metadata: metadata,
	})
}

func (m *InstrumentedModel) emitResponse(ctx context.Context, req Request, text string, elapsed time.Duration, err error) {
	if m.Telemetry == nil {
		return
	}
	run, _ := framework.RunContextFrom(ctx)
	metadata := map[string]interface{}{
		"model":      req.Model,
		"caller":     req.Caller,
		"elapsed_ms": elapsed.Milliseconds(),
		"chars":      utf8.RuneCountInString(text),
	}
	if text != "" {
		metadata["text_preview"] = clip(text, 1024)
	}
	if err != nil {
		metadata["error"] = err.Error()
		if kind, ok := KindOf(err); ok {
			metadata["error_kind"] = string(kind)
		}
	}
	framework.Emit(m.Telemetry, framework.Event{
		Type:     framework.EventLLMResponse,
		RunID:    run.RunID,
		Stage:    run.Stage,
		Agent:    run.Agent,
		Message:  "llm response",
		Metadata: metadata,
	})
}

// clip keeps at most max runes of s.
func clip(s string, max int) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if max <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "...(truncated)"
		}
		n++
	}
	return s
}
