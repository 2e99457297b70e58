package pattern

import (
	"context"
	"fmt"
	"sync"

	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/llm"
)

// scriptedModel answers by caller name and records every request.
type scriptedModel struct {
	mu       sync.Mutex
	byCaller map[string]func(req llm.Request) (string, error)
	fallback func(req llm.Request) (string, error)
	calls    []llm.Request
}

func (m *scriptedModel) Complete(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn, ok := m.byCaller[req.Caller]
	if !ok {
		fn = m.fallback
	}
	m.mu.Unlock()
	if fn == nil {
		return "", fmt.Errorf("no script for %s", req.Caller)
	}
	return fn(req)
}

func (m *scriptedModel) Calls() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.calls...)
}

func reply(text string) func(llm.Request) (string, error) {
	return func(llm.Request) (string, error) { return text, nil }
}

func transportFailure(req llm.Request) (string, error) {
	return "", &llm.CompletionError{Kind: llm.KindTransport, Caller: req.Caller, Model: req.Model, Err: fmt.Errorf("connection reset")}
}

func testProfiles() []framework.AgentProfile {
	return []framework.AgentProfile{
		{ID: "cognitive", Name: "Cognitive Scientist", Icon: "🧠", Model: "anthropic/claude-sonnet-4.5", SystemPrompt: "cognitive prompt"},
		{ID: "clinical", Name: "Clinical Educator", Icon: "👨‍⚕️", Model: "google/gemini-3-flash-preview", SystemPrompt: "clinical prompt"},
		{ID: "assessment", Name: "Assessment Specialist", Icon: "📊", Model: "openai/gpt-oss-120b", SystemPrompt: "assessment prompt"},
		{ID: "technology", Name: "Technology Innovator", Icon: "💻", Model: "anthropic/claude-sonnet-4.5", SystemPrompt: "technology prompt"},
		{ID: "crosscultural", Name: "Cross-Cultural Researcher", Icon: "🌍", Model: "z-ai/glm-4.7", SystemPrompt: "crosscultural prompt"},
	}
}

const explorationJSON = `{
  "keyConcepts": ["spacing effect", "retrieval practice"],
  "theoreticalFrameworks": ["cognitive load theory"],
  "whatsClear": "spacing improves retention",
  "whatsFuzzy": "optimal intervals for clinical skills",
  "importantQuestions": ["which skills?", "what intervals?"],
  "considerations": "rotation schedules"
}`

func reviewJSON(ranking string) string {
	return fmt.Sprintf(`{
  "reviews": [{"ideaNumber": 1, "strengths": ["clear"], "weaknesses": ["narrow"], "missingElements": ["outcomes"]}],
  "ranking": %s,
  "overallCommentary": "ideas converge on retrieval practice"
}`, ranking)
}

const synthesisJSON = `{
  "clarifiedFocus": "spaced retrieval for procedural clinical skills",
  "theoreticalFoundations": ["spacing effect"],
  "keyTensions": ["rotation length vs spacing interval"],
  "criticalQuestions": ["what interval works in residency?"],
  "integratedPerspectives": "cognitive and clinical views align",
  "peerReviewInsights": "reviewers wanted outcome measures",
  "recommendedNextSteps": ["pilot study"]
}`

const proposalJSON = `{
  "title": "Spaced Retrieval in Residency",
  "researchQuestion": "Does spaced retrieval improve skill retention?",
  "background": "gap in procedural retention research",
  "methodology": "cluster randomized trial",
  "expectedContribution": "evidence for curriculum design",
  "feasibilityNotes": "needs program director buy-in"
}`

func testContext(log *framework.ActivityLog) context.Context {
	return framework.WithRunContext(context.Background(), framework.RunContext{RunID: "run-test", Log: log})
}
