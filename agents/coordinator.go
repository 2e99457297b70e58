package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lexcodex/swarmcouncil/agents/pattern"
	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/internal/metrics"
	"github.com/lexcodex/swarmcouncil/llm"
)

var (
	// ErrNoTopic means no topic was submitted.
	ErrNoTopic = errors.New("no topic submitted")
	// ErrMissingArtifact means the stage's predecessor has not produced output.
	ErrMissingArtifact = errors.New("predecessor stage has no output")
	// ErrStageInProgress means another stage is running for the current run.
	ErrStageInProgress = errors.New("a stage is already running")
	// ErrRunReplaced means the run was submitted over or reset while the
	// stage ran; its output was discarded.
	ErrRunReplaced = errors.New("run was replaced while the stage ran")
)

// PreconditionError reports a stage that refused to start.
type PreconditionError struct {
	Stage  framework.Stage
	Reason error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot start %s: %v", e.Stage, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return e.Reason }

// StageError reports a stage that started and failed.
type StageError struct {
	Stage framework.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ProgressObserver receives fan-out progress for a stage.
type ProgressObserver func(stage framework.Stage, done, total int)

// CouncilOptions wires a Council.
type CouncilOptions struct {
	Registry   *Registry
	Model      llm.CompletionClient
	Credential *llm.Credential
	Logger     *zap.Logger
	Telemetry  framework.Telemetry
	Runner     pattern.Options
	Observer   ProgressObserver
}

// RunOptions controls Run.
type RunOptions struct {
	SkipReview bool
	// Until stops after the named stage. Empty runs all stages.
	Until framework.Stage
}

// Council owns the run state and drives the four stages over it. Stages run
// one at a time; observers read through Snapshot.
type Council struct {
	registry   *Registry
	runner     *pattern.Runner
	credential *llm.Credential
	logger     *zap.Logger
	telemetry  framework.Telemetry
	observer   ProgressObserver

	mu     sync.Mutex
	state  *framework.RunState
	active *activeStage
}

type activeStage struct {
	runID string
	stage framework.Stage
}

// NewCouncil builds a council with an empty idle run.
func NewCouncil(opts CouncilOptions) (*Council, error) {
	if opts.Registry == nil {
		return nil, errors.New("council requires a registry")
	}
	if opts.Model == nil {
		return nil, errors.New("council requires a completion client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	credential := opts.Credential
	if credential == nil {
		credential = llm.NewCredential("")
	}
	return &Council{
		registry:   opts.Registry,
		runner:     pattern.NewRunner(opts.Model, logger, opts.Telemetry, opts.Runner),
		credential: credential,
		logger:     logger,
		telemetry:  opts.Telemetry,
		observer:   opts.Observer,
		state:      framework.NewRunState("", logger),
	}, nil
}

// Registry exposes the persona registry.
func (c *Council) Registry() *Registry { return c.registry }

// SetCredential replaces the API key used by subsequent calls.
func (c *Council) SetCredential(key string) { c.credential.Set(key) }

// Submit replaces the run with a fresh one for topic.
func (c *Council) Submit(topic string) string {
	state := framework.NewRunState(topic, c.logger)
	c.mu.Lock()
	c.state = state
	c.active = nil
	c.mu.Unlock()
	framework.Emit(c.telemetry, framework.Event{
		Type:    framework.EventRunStart,
		RunID:   state.ID,
		Message: state.Topic,
	})
	return state.ID
}

// Reset returns the council to an idle run with no topic.
func (c *Council) Reset() {
	c.Submit("")
}

// Snapshot returns a deep copy of the current run.
func (c *Council) Snapshot() *framework.RunState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Explore runs stage 1 over every registered persona.
func (c *Council) Explore(ctx context.Context) error {
	return c.runStage(ctx, framework.StageExploration, func(ctx context.Context, in *framework.RunState, out *framework.RunState) error {
		results, err := c.runner.Explore(ctx, in.Topic, c.registry.List(), c.progress(framework.StageExploration))
		if err != nil {
			return err
		}
		out.Explorations = results
		return nil
	})
}

// Review runs stage 2: anonymous peer review of the explorations.
func (c *Council) Review(ctx context.Context) error {
	return c.runStage(ctx, framework.StageReview, func(ctx context.Context, in *framework.RunState, out *framework.RunState) error {
		result, err := c.runner.Review(ctx, in.Explorations, c.registry.List(), c.progress(framework.StageReview))
		if err != nil {
			return err
		}
		out.Reviews = result.Reviews
		out.IdeaAssignments = result.Assignments
		return nil
	})
}

// Synthesize runs stage 3. Reviews are used when present.
func (c *Council) Synthesize(ctx context.Context) error {
	return c.runStage(ctx, framework.StageSynthesis, func(ctx context.Context, in *framework.RunState, out *framework.RunState) error {
		record, err := c.runner.Synthesize(ctx, in.Topic, in.Explorations, in.Reviews, in.IdeaAssignments)
		if err != nil {
			return err
		}
		out.Synthesis = record
		return nil
	})
}

// Propose runs stage 4.
func (c *Council) Propose(ctx context.Context) error {
	return c.runStage(ctx, framework.StageProposal, func(ctx context.Context, in *framework.RunState, out *framework.RunState) error {
		record, err := c.runner.Propose(ctx, in.Topic, in.Synthesis)
		if err != nil {
			return err
		}
		out.Proposal = record
		return nil
	})
}

// Run submits topic (unless empty, which keeps the current run) and drives
// the pipeline until opts.Until or the proposal.
func (c *Council) Run(ctx context.Context, topic string, opts RunOptions) (*framework.RunState, error) {
	if strings.TrimSpace(topic) != "" {
		c.Submit(topic)
	}
	if opts.Until != "" && opts.Until.Index() == 0 {
		return c.Snapshot(), fmt.Errorf("unknown stage %q", opts.Until)
	}
	steps := map[framework.Stage]func(context.Context) error{
		framework.StageExploration: c.Explore,
		framework.StageReview:      c.Review,
		framework.StageSynthesis:   c.Synthesize,
		framework.StageProposal:    c.Propose,
	}
	for _, stage := range framework.Stages {
		if stage == framework.StageReview && opts.SkipReview {
			if opts.Until == stage {
				break
			}
			continue
		}
		if err := steps[stage](ctx); err != nil {
			return c.Snapshot(), err
		}
		if opts.Until == stage {
			break
		}
	}
	return c.Snapshot(), nil
}

type stageFunc func(ctx context.Context, in *framework.RunState, out *framework.RunState) error

// runStage checks preconditions, clears the stage's artifacts and everything
// downstream, runs fn against a detached copy of the inputs, and commits the
// output only if the run was not replaced meanwhile.
func (c *Council) runStage(ctx context.Context, stage framework.Stage, fn stageFunc) error {
	c.mu.Lock()
	if err := c.checkPreconditions(stage); err != nil {
		c.mu.Unlock()
		return &PreconditionError{Stage: stage, Reason: err}
	}
	c.state.ClearFrom(stage)
	c.state.Phase = stage.Phase()
	c.active = &activeStage{runID: c.state.ID, stage: stage}
	runID := c.state.ID
	log := c.state.Log
	input := c.state.Clone()
	c.mu.Unlock()

	log.Addf(framework.LevelProgress, "Stage %d: %s starting...", stage.Index(), stage.Title())
	framework.Emit(c.telemetry, framework.Event{Type: framework.EventStageStart, RunID: runID, Stage: stage})
	c.emitStateChange(runID, stage.Phase())

	ctx = framework.WithRunContext(ctx, framework.RunContext{
		RunID: runID,
		Topic: input.Topic,
		Stage: stage,
		Log:   log,
	})
	start := time.Now()
	output := &framework.RunState{}
	err := fn(ctx, input, output)
	elapsed := time.Since(start)

	c.mu.Lock()
	replaced := c.state.ID != runID
	if !replaced {
		c.active = nil
		if err == nil {
			commit(c.state, stage, output)
		}
		c.state.Phase = phaseOf(c.state)
	}
	phase := c.state.Phase
	c.mu.Unlock()

	if replaced {
		c.logger.Info("discarding stage output for replaced run",
			zap.String("run_id", runID),
			zap.String("stage", string(stage)))
		return &StageError{Stage: stage, Err: ErrRunReplaced}
	}
	if err != nil {
		metrics.RecordStage(string(stage), metrics.OutcomeError, elapsed)
		log.Addf(framework.LevelError, "Stage failed: %s: %v", stage, err)
		framework.Emit(c.telemetry, framework.Event{
			Type:    framework.EventStageError,
			RunID:   runID,
			Stage:   stage,
			Message: err.Error(),
		})
		c.emitStateChange(runID, phase)
		return &StageError{Stage: stage, Err: err}
	}
	metrics.RecordStage(string(stage), metrics.OutcomeSuccess, elapsed)
	log.Addf(framework.LevelSuccess, "Stage complete: %s", stage)
	framework.Emit(c.telemetry, framework.Event{
		Type:     framework.EventStageFinish,
		RunID:    runID,
		Stage:    stage,
		Metadata: map[string]interface{}{"duration_ms": elapsed.Milliseconds()},
	})
	c.emitStateChange(runID, phase)
	return nil
}

// checkPreconditions must be called with c.mu held.
func (c *Council) checkPreconditions(stage framework.Stage) error {
	if c.active != nil && c.active.runID == c.state.ID {
		return fmt.Errorf("%w (%s)", ErrStageInProgress, c.active.stage)
	}
	if c.state.Topic == "" {
		return ErrNoTopic
	}
	if !c.credential.Present() {
		return llm.ErrCredentialMissing
	}
	switch stage {
	case framework.StageReview, framework.StageSynthesis:
		if !c.state.HasArtifact(framework.StageExploration) {
			return fmt.Errorf("%w: exploration", ErrMissingArtifact)
		}
	case framework.StageProposal:
		if !c.state.HasArtifact(framework.StageSynthesis) {
			return fmt.Errorf("%w: synthesis", ErrMissingArtifact)
		}
	}
	return nil
}

func (c *Council) progress(stage framework.Stage) pattern.Progress {
	if c.observer == nil {
		return nil
	}
	return func(done, total int) { c.observer(stage, done, total) }
}

func (c *Council) emitStateChange(runID string, phase framework.Phase) {
	framework.Emit(c.telemetry, framework.Event{
		Type:    framework.EventStateChange,
		RunID:   runID,
		Message: string(phase),
	})
}

func commit(state *framework.RunState, stage framework.Stage, output *framework.RunState) {
	switch stage {
	case framework.StageExploration:
		state.Explorations = output.Explorations
	case framework.StageReview:
		state.Reviews = output.Reviews
		state.IdeaAssignments = output.IdeaAssignments
	case framework.StageSynthesis:
		state.Synthesis = output.Synthesis
	case framework.StageProposal:
		state.Proposal = output.Proposal
	}
}

// phaseOf derives the resting phase from the artifacts present.
func phaseOf(state *framework.RunState) framework.Phase {
	for i := len(framework.Stages) - 1; i >= 0; i-- {
		if state.HasArtifact(framework.Stages[i]) {
			return framework.Stages[i].RestingPhase()
		}
	}
	return framework.PhaseIdle
}
