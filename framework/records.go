package framework

// AgentProfile describes a persona taking part in the council. Profiles are
// built once from configuration and never mutated; the registry hands out
// copies.
type AgentProfile struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Icon         string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Model        string `json:"model" yaml:"model"`
	SystemPrompt string `json:"systemPrompt" yaml:"systemPrompt"`
}

// ExplorationResult is one persona's take on the topic.
type ExplorationResult struct {
	AgentID   string `json:"agentId"`
	AgentName string `json:"agentName"`
	Icon      string `json:"icon,omitempty"`
	Model     string `json:"model"`

	KeyConcepts           StringList `json:"keyConcepts"`
	TheoreticalFrameworks StringList `json:"theoreticalFrameworks"`
	WhatsClear            Text       `json:"whatsClear"`
	WhatsFuzzy            Text       `json:"whatsFuzzy"`
	ImportantQuestions    StringList `json:"importantQuestions"`
	Considerations        Text       `json:"considerations"`

	Strategy      string   `json:"parseStrategy,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// AnonymizedIdea is an exploration stripped of its author. IdeaNumber is the
// only handle reviewers ever see.
type AnonymizedIdea struct {
	IdeaNumber            int        `json:"ideaNumber"`
	KeyConcepts           StringList `json:"keyConcepts"`
	TheoreticalFrameworks StringList `json:"theoreticalFrameworks"`
	WhatsClear            Text       `json:"whatsClear"`
	WhatsFuzzy            Text       `json:"whatsFuzzy"`
	ImportantQuestions    StringList `json:"importantQuestions"`
	Considerations        Text       `json:"considerations"`
}

// IdeaCritique is a reviewer's assessment of a single anonymized idea.
type IdeaCritique struct {
	IdeaNumber      IdeaNumber `json:"ideaNumber"`
	Strengths       StringList `json:"strengths"`
	Weaknesses      StringList `json:"weaknesses"`
	MissingElements StringList `json:"missingElements"`
}

// ReviewResult is one persona's anonymous review of every idea.
type ReviewResult struct {
	ReviewerID   string `json:"reviewerId"`
	ReviewerName string `json:"reviewerName"`
	Icon         string `json:"icon,omitempty"`
	Model        string `json:"model"`

	Reviews           []IdeaCritique `json:"reviews"`
	Ranking           Ranking        `json:"ranking"`
	OverallCommentary Text           `json:"overallCommentary"`

	// RankingValid is false when Ranking is not exactly a permutation of the
	// idea numbers under review; RankingIssue says why.
	RankingValid bool   `json:"rankingValid"`
	RankingIssue string `json:"rankingIssue,omitempty"`

	Strategy      string   `json:"parseStrategy,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// SynthesisRecord merges explorations and reviews into a single view of the
// topic. A degraded record is produced when the model answer could not be
// parsed; RawResponse then holds the text for debugging.
type SynthesisRecord struct {
	ClarifiedFocus         Text       `json:"clarifiedFocus"`
	TheoreticalFoundations StringList `json:"theoreticalFoundations"`
	KeyTensions            StringList `json:"keyTensions"`
	CriticalQuestions      StringList `json:"criticalQuestions"`
	IntegratedPerspectives Text       `json:"integratedPerspectives"`
	PeerReviewInsights     Text       `json:"peerReviewInsights,omitempty"`
	RecommendedNextSteps   StringList `json:"recommendedNextSteps"`

	Degraded      bool     `json:"degraded,omitempty"`
	RawResponse   string   `json:"rawResponse,omitempty"`
	Strategy      string   `json:"parseStrategy,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// ProposalRecord is the terminal artifact of a run.
type ProposalRecord struct {
	Title                Text `json:"title"`
	ResearchQuestion     Text `json:"researchQuestion"`
	Background           Text `json:"background"`
	Methodology          Text `json:"methodology"`
	ExpectedContribution Text `json:"expectedContribution"`
	FeasibilityNotes     Text `json:"feasibilityNotes"`

	Degraded      bool     `json:"degraded,omitempty"`
	RawResponse   string   `json:"rawResponse,omitempty"`
	Strategy      string   `json:"parseStrategy,omitempty"`
	MissingFields []string `json:"missingFields,omitempty"`
}

// Anonymize projects the exploration onto an idea without author identity.
func (e ExplorationResult) Anonymize(number int) AnonymizedIdea {
	return AnonymizedIdea{
		IdeaNumber:            number,
		KeyConcepts:           append(StringList(nil), e.KeyConcepts...),
		TheoreticalFrameworks: append(StringList(nil), e.TheoreticalFrameworks...),
		WhatsClear:            e.WhatsClear,
		WhatsFuzzy:            e.WhatsFuzzy,
		ImportantQuestions:    append(StringList(nil), e.ImportantQuestions...),
		Considerations:        e.Considerations,
	}
}

func (r ReviewResult) clone() ReviewResult {
	out := r
	out.Reviews = make([]IdeaCritique, len(r.Reviews))
	for i, c := range r.Reviews {
		out.Reviews[i] = IdeaCritique{
			IdeaNumber:      c.IdeaNumber,
			Strengths:       append(StringList(nil), c.Strengths...),
			Weaknesses:      append(StringList(nil), c.Weaknesses...),
			MissingElements: append(StringList(nil), c.MissingElements...),
		}
	}
	out.Ranking = append(Ranking(nil), r.Ranking...)
	out.MissingFields = append([]string(nil), r.MissingFields...)
	return out
}

func (e ExplorationResult) clone() ExplorationResult {
	out := e
	out.KeyConcepts = append(StringList(nil), e.KeyConcepts...)
	out.TheoreticalFrameworks = append(StringList(nil), e.TheoreticalFrameworks...)
	out.ImportantQuestions = append(StringList(nil), e.ImportantQuestions...)
	out.MissingFields = append([]string(nil), e.MissingFields...)
	return out
}

func (s *SynthesisRecord) clone() *SynthesisRecord {
	if s == nil {
		return nil
	}
	out := *s
	out.TheoreticalFoundations = append(StringList(nil), s.TheoreticalFoundations...)
	out.KeyTensions = append(StringList(nil), s.KeyTensions...)
	out.CriticalQuestions = append(StringList(nil), s.CriticalQuestions...)
	out.RecommendedNextSteps = append(StringList(nil), s.RecommendedNextSteps...)
	out.MissingFields = append([]string(nil), s.MissingFields...)
	return &out
}

func (p *ProposalRecord) clone() *ProposalRecord {
	if p == nil {
		return nil
	}
	out := *p
	out.MissingFields = append([]string(nil), p.MissingFields...)
	return &out
}
