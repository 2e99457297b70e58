package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lexcodex/swarmcouncil/agents/pattern"
	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/llm"
)

func newTestCouncil(t *testing.T, model llm.CompletionClient, opts pattern.Options) (*Council, *framework.RecordingTelemetry) {
	t.Helper()
	reg, err := NewRegistry(DefaultProfiles())
	require.NoError(t, err)
	telemetry := &framework.RecordingTelemetry{}
	council, err := NewCouncil(CouncilOptions{
		Registry:   reg,
		Model:      model,
		Credential: llm.NewCredential("sk-test"),
		Logger:     zaptest.NewLogger(t),
		Telemetry:  telemetry,
		Runner:     opts,
	})
	require.NoError(t, err)
	return council, telemetry
}

func countMessages(log *framework.ActivityLog, prefix string) int {
	return log.Count(func(e framework.ActivityEntry) bool {
		return strings.HasPrefix(e.Message, prefix)
	})
}

func TestCouncilRunEndToEnd(t *testing.T) {
	model := &stageModel{script: happyScript()}
	council, telemetry := newTestCouncil(t, model, pattern.DefaultOptions())

	state, err := council.Run(context.Background(), "spaced repetition in clinical training", RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "spaced repetition in clinical training", state.Topic)
	assert.Equal(t, framework.PhaseDone, state.Phase)
	require.Len(t, state.Explorations, 5)
	for _, e := range state.Explorations {
		assert.NotEmpty(t, e.AgentID)
		assert.Equal(t, []string{"spacing effect"}, []string(e.KeyConcepts))
	}
	require.Len(t, state.Reviews, 5)
	for _, r := range state.Reviews {
		assert.True(t, r.RankingValid)
	}
	require.Len(t, state.IdeaAssignments, 5)
	require.NotNil(t, state.Synthesis)
	assert.NotEmpty(t, state.Synthesis.ClarifiedFocus)
	require.NotNil(t, state.Proposal)
	assert.NotEmpty(t, state.Proposal.Title)

	assert.Equal(t, 4, countMessages(state.Log, "Stage complete"))
	for _, stage := range framework.Stages {
		assert.Equal(t, 1, countMessages(state.Log, "Stage complete: "+string(stage)), stage)
	}
	assert.Equal(t, 0, countMessages(state.Log, "Stage failed"))
	assert.Len(t, model.Calls(), 12)
	assert.Len(t, telemetry.OfType(framework.EventStageFinish), 4)
	assert.Len(t, telemetry.OfType(framework.EventAgentFinish), 10)
}

func TestCouncilReviewNeverSeesAgentNames(t *testing.T) {
	model := &stageModel{script: happyScript()}
	council, _ := newTestCouncil(t, model, pattern.DefaultOptions())

	_, err := council.Run(context.Background(), "spaced repetition", RunOptions{Until: framework.StageReview})
	require.NoError(t, err)

	for _, req := range model.Calls() {
		if stageOf(req) != framework.StageReview {
			continue
		}
		for _, p := range DefaultProfiles() {
			assert.NotContains(t, req.Prompt, p.Name)
		}
	}
}

func TestCouncilSkipReview(t *testing.T) {
	model := &stageModel{script: happyScript()}
	council, _ := newTestCouncil(t, model, pattern.DefaultOptions())

	state, err := council.Run(context.Background(), "spaced repetition", RunOptions{SkipReview: true})
	require.NoError(t, err)
	assert.Empty(t, state.Reviews)
	require.NotNil(t, state.Synthesis)
	assert.Empty(t, state.Synthesis.PeerReviewInsights)
	require.NotNil(t, state.Proposal)
	for _, req := range model.Calls() {
		assert.NotEqual(t, framework.StageReview, stageOf(req))
	}
	assert.Equal(t, 3, countMessages(state.Log, "Stage complete"))
}

func TestCouncilUntilStopsEarly(t *testing.T) {
	model := &stageModel{script: happyScript()}
	council, _ := newTestCouncil(t, model, pattern.DefaultOptions())

	state, err := council.Run(context.Background(), "spaced repetition", RunOptions{Until: framework.StageSynthesis})
	require.NoError(t, err)
	assert.NotNil(t, state.Synthesis)
	assert.Nil(t, state.Proposal)
	assert.Equal(t, framework.PhaseSynthesized, state.Phase)
	assert.False(t, state.Phase.Running())
}

func TestCouncilRestsBetweenStages(t *testing.T) {
	model := &stageModel{script: happyScript()}
	council, telemetry := newTestCouncil(t, model, pattern.DefaultOptions())

	state, err := council.Run(context.Background(), "spaced repetition", RunOptions{Until: framework.StageReview})
	require.NoError(t, err)
	assert.Equal(t, framework.PhaseReviewed, state.Phase)

	var phases []string
	for _, event := range telemetry.OfType(framework.EventStateChange) {
		phases = append(phases, event.Message)
	}
	assert.Equal(t, []string{"exploring", "explored", "reviewing", "reviewed"}, phases)
}

func TestCouncilExploreClearsDownstreamBeforeFirstCall(t *testing.T) {
	model := &stageModel{script: happyScript()}
	council, _ := newTestCouncil(t, model, pattern.DefaultOptions())
	_, err := council.Run(context.Background(), "spaced repetition", RunOptions{})
	require.NoError(t, err)

	var once sync.Once
	var seen *framework.RunState
	model.mu.Lock()
	model.script[framework.StageExploration] = func(req llm.Request) (string, error) {
		once.Do(func() { seen = council.Snapshot() })
		return explorationFixture, nil
	}
	model.mu.Unlock()

	require.NoError(t, council.Explore(context.Background()))
	require.NotNil(t, seen)
	assert.Empty(t, seen.Explorations)
	assert.Empty(t, seen.Reviews)
	assert.Empty(t, seen.IdeaAssignments)
	assert.Nil(t, seen.Synthesis)
	assert.Nil(t, seen.Proposal)
	assert.Equal(t, framework.PhaseExploring, seen.Phase)

	after := council.Snapshot()
	assert.Len(t, after.Explorations, 5)
	assert.Empty(t, after.Reviews)
	assert.Nil(t, after.Synthesis)
	assert.Equal(t, framework.PhaseExplored, after.Phase)
}

func TestCouncilPartialExplorationFailure(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			script := happyScript()
			script[framework.StageExploration] = func(req llm.Request) (string, error) {
				if req.Caller == "Clinical Educator" || req.Caller == "Technology Innovator" {
					return "", &llm.CompletionError{Kind: llm.KindTransport, Caller: req.Caller, Model: req.Model, Err: fmt.Errorf("connection reset")}
				}
				return explorationFixture, nil
			}
			opts := pattern.DefaultOptions()
			opts.Parallel = parallel
			council, _ := newTestCouncil(t, &stageModel{script: script}, opts)
			council.Submit("spaced repetition")

			require.NoError(t, council.Explore(context.Background()))
			state := council.Snapshot()
			require.Len(t, state.Explorations, 3)
			assert.Equal(t, []string{"cognitive", "assessment", "crosscultural"}, []string{
				state.Explorations[0].AgentID, state.Explorations[1].AgentID, state.Explorations[2].AgentID,
			})
			errorsLogged := state.Log.Count(func(e framework.ActivityEntry) bool { return e.Level == framework.LevelError })
			assert.Equal(t, 2, errorsLogged)
			assert.Equal(t, 1, countMessages(state.Log, "Stage complete: exploration"))
		})
	}
}

func TestCouncilStageFailure(t *testing.T) {
	script := happyScript()
	script[framework.StageExploration] = func(req llm.Request) (string, error) {
		return "I would rather not answer in JSON.", nil
	}
	council, telemetry := newTestCouncil(t, &stageModel{script: script}, pattern.DefaultOptions())

	_, err := council.Run(context.Background(), "spaced repetition", RunOptions{})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, framework.StageExploration, stageErr.Stage)
	assert.ErrorIs(t, err, pattern.ErrNoResults)

	state := council.Snapshot()
	assert.Equal(t, framework.PhaseIdle, state.Phase)
	assert.Equal(t, 1, countMessages(state.Log, "Stage failed: exploration"))
	assert.Equal(t, 0, countMessages(state.Log, "Stage complete"))
	assert.Len(t, telemetry.OfType(framework.EventStageError), 1)
}

func TestCouncilPreconditions(t *testing.T) {
	council, _ := newTestCouncil(t, &stageModel{script: happyScript()}, pattern.DefaultOptions())
	ctx := context.Background()

	err := council.Explore(ctx)
	var pre *PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.ErrorIs(t, err, ErrNoTopic)

	council.Submit("spaced repetition")
	assert.ErrorIs(t, council.Review(ctx), ErrMissingArtifact)
	assert.ErrorIs(t, council.Synthesize(ctx), ErrMissingArtifact)
	assert.ErrorIs(t, council.Propose(ctx), ErrMissingArtifact)

	council.SetCredential("  ")
	assert.ErrorIs(t, council.Explore(ctx), llm.ErrCredentialMissing)

	council.SetCredential("sk-new")
	require.NoError(t, council.Explore(ctx))
	require.NoError(t, council.Synthesize(ctx))
	require.NoError(t, council.Propose(ctx))
}

func TestCouncilSubmitDuringStageDiscardsOutput(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	script := happyScript()
	script[framework.StageExploration] = func(req llm.Request) (string, error) {
		once.Do(func() {
			close(started)
			<-release
		})
		return explorationFixture, nil
	}
	council, _ := newTestCouncil(t, &stageModel{script: script}, pattern.DefaultOptions())
	council.Submit("first topic")

	errCh := make(chan error, 1)
	go func() { errCh <- council.Explore(context.Background()) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("exploration never started")
	}
	assert.ErrorIs(t, council.Explore(context.Background()), ErrStageInProgress)

	newID := council.Submit("second topic")
	close(release)

	err := <-errCh
	assert.ErrorIs(t, err, ErrRunReplaced)
	state := council.Snapshot()
	assert.Equal(t, newID, state.ID)
	assert.Equal(t, "second topic", state.Topic)
	assert.Empty(t, state.Explorations)
	assert.Equal(t, framework.PhaseIdle, state.Phase)
}

func TestCouncilProgressObserver(t *testing.T) {
	reg, err := NewRegistry(DefaultProfiles())
	require.NoError(t, err)
	var mu sync.Mutex
	var seen []int
	council, err := NewCouncil(CouncilOptions{
		Registry:   reg,
		Model:      &stageModel{script: happyScript()},
		Credential: llm.NewCredential("sk-test"),
		Runner:     pattern.DefaultOptions(),
		Observer: func(stage framework.Stage, done, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, framework.StageExploration, stage)
			assert.Equal(t, 5, total)
			seen = append(seen, done)
		},
	})
	require.NoError(t, err)
	council.Submit("spaced repetition")
	require.NoError(t, council.Explore(context.Background()))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, seen)
}

func TestCouncilReset(t *testing.T) {
	council, _ := newTestCouncil(t, &stageModel{script: happyScript()}, pattern.DefaultOptions())
	_, err := council.Run(context.Background(), "spaced repetition", RunOptions{Until: framework.StageExploration})
	require.NoError(t, err)

	before := council.Snapshot().ID
	council.Reset()
	state := council.Snapshot()
	assert.NotEqual(t, before, state.ID)
	assert.Empty(t, state.Topic)
	assert.Empty(t, state.Explorations)
	assert.Zero(t, state.Log.Len())
	assert.Equal(t, framework.PhaseIdle, state.Phase)
}
