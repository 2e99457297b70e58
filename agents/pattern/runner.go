package pattern

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/internal/metrics"
	"github.com/lexcodex/swarmcouncil/llm"
)

// DefaultSynthesisModel backs the synthesis and proposal calls.
const DefaultSynthesisModel = "anthropic/claude-sonnet-4.5"

var (
	// ErrNoResults means every agent of a fan-out stage failed.
	ErrNoResults = errors.New("no agent produced a usable result")
	// ErrUnrecognizedObject means the response held JSON but none of the
	// fields the stage asked for.
	ErrUnrecognizedObject = errors.New("response object has none of the requested fields")
)

// TokenBudgets caps output tokens per stage.
type TokenBudgets struct {
	Exploration int
	Review      int
	Synthesis   int
	Proposal    int
}

// Options tunes the stage runners.
type Options struct {
	// Parallel runs fan-out stages concurrently, bounded by MaxConcurrent.
	Parallel      bool
	MaxConcurrent int
	Tokens        TokenBudgets
	// SynthesisModel backs synthesis and proposal.
	SynthesisModel string
	RankingPolicy  RankingPolicy
	// ProposalFallback stores a degraded proposal when parsing fails instead
	// of failing the stage.
	ProposalFallback bool
	Shuffle          Shuffler
}

// DefaultOptions returns sequential fan-out with the stock token budgets.
func DefaultOptions() Options {
	return Options{
		MaxConcurrent: 5,
		Tokens: TokenBudgets{
			Exploration: 2000,
			Review:      2000,
			Synthesis:   4000,
			Proposal:    2000,
		},
		SynthesisModel:   DefaultSynthesisModel,
		RankingPolicy:    RankingLog,
		ProposalFallback: true,
	}
}

// Runner executes the four pipeline stages against a completion client.
type Runner struct {
	Model     llm.CompletionClient
	Logger    *zap.Logger
	Telemetry framework.Telemetry
	Options   Options
}

// NewRunner wires a runner. The model is wrapped so every call is reported
// to the run's activity log.
func NewRunner(model llm.CompletionClient, logger *zap.Logger, telemetry framework.Telemetry, opts Options) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if _, ok := model.(*llm.InstrumentedModel); !ok {
		model = llm.NewInstrumentedModel(model, telemetry, logger, false)
	}
	defaults := DefaultOptions()
	if opts.SynthesisModel == "" {
		opts.SynthesisModel = defaults.SynthesisModel
	}
	if opts.RankingPolicy == "" {
		opts.RankingPolicy = defaults.RankingPolicy
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaults.MaxConcurrent
	}
	if opts.Tokens.Exploration <= 0 {
		opts.Tokens.Exploration = defaults.Tokens.Exploration
	}
	if opts.Tokens.Review <= 0 {
		opts.Tokens.Review = defaults.Tokens.Review
	}
	if opts.Tokens.Synthesis <= 0 {
		opts.Tokens.Synthesis = defaults.Tokens.Synthesis
	}
	if opts.Tokens.Proposal <= 0 {
		opts.Tokens.Proposal = defaults.Tokens.Proposal
	}
	return &Runner{Model: model, Logger: logger, Telemetry: telemetry, Options: opts}
}

func (r *Runner) concurrency() int {
	if r.Options.Parallel {
		return r.Options.MaxConcurrent
	}
	return 1
}

// agentCall brackets one persona's work with telemetry and failure logging.
func (r *Runner) agentCall(ctx context.Context, stage framework.Stage, profile framework.AgentProfile, fn func(ctx context.Context) error) error {
	ctx = framework.WithAgent(ctx, profile.ID)
	run, _ := framework.RunContextFrom(ctx)
	framework.Emit(r.Telemetry, framework.Event{
		Type:    framework.EventAgentStart,
		RunID:   run.RunID,
		Stage:   stage,
		Agent:   profile.ID,
		Message: profile.Name,
	})
	err := fn(ctx)
	if err == nil {
		framework.Emit(r.Telemetry, framework.Event{
			Type:    framework.EventAgentFinish,
			RunID:   run.RunID,
			Stage:   stage,
			Agent:   profile.ID,
			Message: profile.Name,
		})
		return nil
	}

	metrics.AgentFailures.WithLabelValues(string(stage), profile.ID).Inc()
	framework.Emit(r.Telemetry, framework.Event{
		Type:     framework.EventAgentError,
		RunID:    run.RunID,
		Stage:    stage,
		Agent:    profile.ID,
		Message:  err.Error(),
		Metadata: map[string]interface{}{"agent_name": profile.Name},
	})
	r.Logger.Warn("agent omitted from stage",
		zap.String("stage", string(stage)),
		zap.String("agent", profile.ID),
		zap.Error(err))
	// completion failures were already reported by the instrumented model
	if _, isCompletion := llm.KindOf(err); !isCompletion {
		run.Log.Addf(framework.LevelError, "%s %s failed: %v", profile.Name, stageNoun(stage), err)
	}
	return err
}

func (r *Runner) logMissing(ctx context.Context, who string, missing []string) {
	if len(missing) == 0 {
		return
	}
	framework.ActivityLogFrom(ctx).Addf(framework.LevelError, "%s response is missing fields: %s", who, strings.Join(missing, ", "))
}

func stageNoun(stage framework.Stage) string {
	switch stage {
	case framework.StageExploration:
		return "analysis"
	case framework.StageReview:
		return "peer review"
	}
	return string(stage)
}

func noResults(stage framework.Stage, failures []AgentFailure) error {
	if len(failures) == 0 {
		return fmt.Errorf("%s: %w", stage, ErrNoResults)
	}
	return fmt.Errorf("%s: %w (last failure %v)", stage, ErrNoResults, failures[len(failures)-1])
}
