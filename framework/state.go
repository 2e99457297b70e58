package framework

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Phase is the pipeline position of a run.
type Phase string

// In-flight phases hold only while a stage runs; the -ed phases are where a
// run rests once that stage has committed.
const (
	PhaseIdle         Phase = "idle"
	PhaseExploring    Phase = "exploring"
	PhaseExplored     Phase = "explored"
	PhaseReviewing    Phase = "reviewing"
	PhaseReviewed     Phase = "reviewed"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseSynthesized  Phase = "synthesized"
	PhaseProposing    Phase = "proposing"
	PhaseDone         Phase = "done"
)

// Running reports whether p is an in-flight phase.
func (p Phase) Running() bool {
	switch p {
	case PhaseExploring, PhaseReviewing, PhaseSynthesizing, PhaseProposing:
		return true
	}
	return false
}

// Stage names one step of the four-step pipeline.
type Stage string

const (
	StageExploration Stage = "exploration"
	StageReview      Stage = "review"
	StageSynthesis   Stage = "synthesis"
	StageProposal    Stage = "proposal"
)

// Stages lists the pipeline in execution order.
var Stages = []Stage{StageExploration, StageReview, StageSynthesis, StageProposal}

// Index returns the 1-based position of the stage, or 0 if unknown.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i + 1
		}
	}
	return 0
}

// Title is the operator-facing label.
func (s Stage) Title() string {
	switch s {
	case StageExploration:
		return "Diverse Idea Generation"
	case StageReview:
		return "Anonymous Peer Review"
	case StageSynthesis:
		return "Synthesis"
	case StageProposal:
		return "Research Proposal"
	}
	return string(s)
}

// Phase is the in-flight phase while the stage runs.
func (s Stage) Phase() Phase {
	switch s {
	case StageExploration:
		return PhaseExploring
	case StageReview:
		return PhaseReviewing
	case StageSynthesis:
		return PhaseSynthesizing
	case StageProposal:
		return PhaseProposing
	}
	return PhaseIdle
}

// RestingPhase is the phase once the stage has committed its output.
func (s Stage) RestingPhase() Phase {
	switch s {
	case StageExploration:
		return PhaseExplored
	case StageReview:
		return PhaseReviewed
	case StageSynthesis:
		return PhaseSynthesized
	case StageProposal:
		return PhaseDone
	}
	return PhaseIdle
}

// ParseStage accepts stage names and their verb forms.
func ParseStage(value string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "exploration", "explore":
		return StageExploration, nil
	case "review", "peer-review", "peer_review":
		return StageReview, nil
	case "synthesis", "synthesize":
		return StageSynthesis, nil
	case "proposal", "propose":
		return StageProposal, nil
	}
	return "", fmt.Errorf("unknown stage %q", value)
}

// RunState is everything one topic run has produced so far.
type RunState struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Phase     Phase     `json:"phase"`
	StartedAt time.Time `json:"startedAt"`

	Explorations []ExplorationResult `json:"explorations"`
	Reviews      []ReviewResult      `json:"reviews"`
	// IdeaAssignments maps the idea numbers shown to reviewers back to the
	// authoring agent. It is only read by synthesis and never placed in a
	// review prompt.
	IdeaAssignments map[int]string   `json:"ideaAssignments,omitempty"`
	Synthesis       *SynthesisRecord `json:"synthesis,omitempty"`
	Proposal        *ProposalRecord  `json:"proposal,omitempty"`

	Log *ActivityLog `json:"log"`
}

// NewRunState starts an idle run for topic with a fresh identifier and log.
func NewRunState(topic string, logger *zap.Logger) *RunState {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	return &RunState{
		ID:        id,
		Topic:     strings.TrimSpace(topic),
		Phase:     PhaseIdle,
		StartedAt: time.Now().UTC(),
		Log:       NewActivityLog(logger.With(zap.String("run_id", id))),
	}
}

// HasArtifact reports whether the stage's output is present.
func (s *RunState) HasArtifact(stage Stage) bool {
	switch stage {
	case StageExploration:
		return len(s.Explorations) > 0
	case StageReview:
		return len(s.Reviews) > 0
	case StageSynthesis:
		return s.Synthesis != nil
	case StageProposal:
		return s.Proposal != nil
	}
	return false
}

// ClearFrom drops the artifact of stage and of every stage after it.
func (s *RunState) ClearFrom(stage Stage) {
	idx := stage.Index()
	if idx == 0 {
		return
	}
	if idx <= StageExploration.Index() {
		s.Explorations = nil
	}
	if idx <= StageReview.Index() {
		s.Reviews = nil
		s.IdeaAssignments = nil
	}
	if idx <= StageSynthesis.Index() {
		s.Synthesis = nil
	}
	if idx <= StageProposal.Index() {
		s.Proposal = nil
	}
}

// Clone deep-copies the state. The copy's log is detached from the logger.
func (s *RunState) Clone() *RunState {
	if s == nil {
		return nil
	}
	out := &RunState{
		ID:        s.ID,
		Topic:     s.Topic,
		Phase:     s.Phase,
		StartedAt: s.StartedAt,
		Synthesis: s.Synthesis.clone(),
		Proposal:  s.Proposal.clone(),
		Log:       s.Log.snapshot(),
	}
	if s.Explorations != nil {
		out.Explorations = make([]ExplorationResult, len(s.Explorations))
		for i, e := range s.Explorations {
			out.Explorations[i] = e.clone()
		}
	}
	if s.Reviews != nil {
		out.Reviews = make([]ReviewResult, len(s.Reviews))
		for i, r := range s.Reviews {
			out.Reviews[i] = r.clone()
		}
	}
	if s.IdeaAssignments != nil {
		out.IdeaAssignments = make(map[int]string, len(s.IdeaAssignments))
		for k, v := range s.IdeaAssignments {
			out.IdeaAssignments[k] = v
		}
	}
	return out
}
