package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/llm"
)

// stageModel answers every call from the script of the stage it belongs to.
type stageModel struct {
	mu     sync.Mutex
	script map[framework.Stage]func(req llm.Request) (string, error)
	calls  []llm.Request
}

func (m *stageModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn := m.script[stageOf(req)]
	m.mu.Unlock()
	if fn == nil {
		return "", fmt.Errorf("no script for %s", req.Caller)
	}
	return fn(req)
}

func (m *stageModel) Calls() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.calls...)
}

func stageOf(req llm.Request) framework.Stage {
	switch {
	case req.Caller == "Synthesizer":
		return framework.StageSynthesis
	case req.Caller == "Proposal Writer":
		return framework.StageProposal
	case strings.Contains(req.System, "anonymous peer reviewer"):
		return framework.StageReview
	}
	return framework.StageExploration
}

func answer(text string) func(llm.Request) (string, error) {
	return func(llm.Request) (string, error) { return text, nil }
}

func happyScript() map[framework.Stage]func(llm.Request) (string, error) {
	return map[framework.Stage]func(llm.Request) (string, error){
		framework.StageExploration: answer(explorationFixture),
		framework.StageReview:      answer(reviewFixture),
		framework.StageSynthesis:   answer(synthesisFixture),
		framework.StageProposal:    answer(proposalFixture),
	}
}

const explorationFixture = "Here is my analysis:\n```json\n" + `{
  "keyConcepts": ["spacing effect"],
  "theoreticalFrameworks": ["cognitive load theory"],
  "whatsClear": "distributed practice beats massed practice",
  "whatsFuzzy": "intervals for procedural skills",
  "importantQuestions": ["which skills decay fastest?"],
  "considerations": "shift schedules"
}` + "\n```"

const reviewFixture = `{
  "reviews": [
    {"ideaNumber": 1, "strengths": ["grounded"], "weaknesses": ["broad"], "missingElements": ["outcomes"]},
    {"ideaNumber": 2, "strengths": ["practical"], "weaknesses": ["thin theory"], "missingElements": []}
  ],
  "ranking": [3, 1, 5, 2, 4],
  "overallCommentary": "strong convergence on retrieval practice"
}`

const synthesisFixture = `{
  "clarifiedFocus": "spaced retrieval for procedural skills in residency",
  "theoreticalFoundations": ["spacing effect"],
  "keyTensions": ["rotation length vs interval"],
  "criticalQuestions": ["what interval?"],
  "integratedPerspectives": "views align on retrieval practice",
  "peerReviewInsights": "reviewers asked for outcome measures",
  "recommendedNextSteps": ["pilot"]
}`

const proposalFixture = `{
  "title": "Spaced Retrieval in Residency Training",
  "researchQuestion": "Does spaced retrieval improve retention of procedural skills?",
  "background": "retention gap",
  "methodology": "cluster randomized trial",
  "expectedContribution": "curriculum evidence",
  "feasibilityNotes": "requires program buy-in"
}`
