package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lexcodex/swarmcouncil/framework"
)

func TestRenderReportSections(t *testing.T) {
	state := &framework.RunState{
		ID:    "run-1",
		Topic: "spaced repetition",
		Phase: framework.PhaseDone,
		Explorations: []framework.ExplorationResult{{
			AgentName:   "Cognitive Scientist",
			Model:       "anthropic/claude-sonnet-4.5",
			KeyConcepts: framework.StringList{"spacing effect", "retrieval practice"},
		}},
		Reviews: []framework.ReviewResult{{
			ReviewerName: "Clinical Educator",
			Ranking:      framework.Ranking{2, 2},
			RankingIssue: "duplicate idea numbers: 2",
		}},
		Synthesis: &framework.SynthesisRecord{ClarifiedFocus: "procedural skills", Degraded: true},
		Proposal:  &framework.ProposalRecord{Title: "Spaced Retrieval"},
	}

	out := renderReport(state)
	assert.Contains(t, out, "AI Swarm Council: spaced repetition")
	assert.Contains(t, out, "Stage 1: Diverse Idea Generation")
	assert.Contains(t, out, "spacing effect, retrieval practice")
	assert.Contains(t, out, "#2 > #2")
	assert.Contains(t, out, "duplicate idea numbers")
	assert.Contains(t, out, "could not be parsed")
	assert.Contains(t, out, "Stage 4: Research Proposal")
	assert.Contains(t, out, "Spaced Retrieval")
}

func TestRenderActivity(t *testing.T) {
	at := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	out := renderActivity([]framework.ActivityEntry{
		{Timestamp: at, Message: "Stage complete: exploration", Level: framework.LevelSuccess},
		{Timestamp: at, Message: "Error from Clinical Educator: boom", Level: framework.LevelError},
	})
	assert.Contains(t, out, "09:30:00")
	assert.Contains(t, out, "Stage complete: exploration")
	assert.Contains(t, out, "Error from Clinical Educator: boom")
}
