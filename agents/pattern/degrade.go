package pattern

import (
	"github.com/lexcodex/swarmcouncil/framework"
)

const (
	// RawResponseLimit caps the raw text kept on a degraded record.
	RawResponseLimit  = 2000
	degradedTextLimit = 500
)

// DegradedSynthesis builds the fallback record used when a synthesis answer
// could not be parsed at all. Downstream templating still has every field.
func DegradedSynthesis(raw string) *framework.SynthesisRecord {
	return &framework.SynthesisRecord{
		ClarifiedFocus:         framework.Text(truncate(raw, degradedTextLimit)),
		TheoreticalFoundations: framework.StringList{"See raw response for details"},
		KeyTensions:            framework.StringList{"JSON parsing failed - review raw response"},
		CriticalQuestions:      framework.StringList{"Why did the LLM not return JSON?"},
		IntegratedPerspectives: "The LLM response was not in JSON format. See the raw response for the full text.",
		PeerReviewInsights:     "Could not extract structured insights",
		RecommendedNextSteps: framework.StringList{
			"Review raw response",
			"Try running synthesis again",
			"Check if model supports JSON output",
		},
		Degraded:      true,
		RawResponse:   truncate(raw, RawResponseLimit),
		Strategy:      string(strategyFailed),
		MissingFields: append([]string(nil), SynthesisSchema.Required...),
	}
}

// DegradedProposal is the proposal counterpart of DegradedSynthesis.
func DegradedProposal(raw string) *framework.ProposalRecord {
	return &framework.ProposalRecord{
		Title:                "Proposal draft (parsing failed)",
		ResearchQuestion:     framework.Text(truncate(raw, degradedTextLimit)),
		Background:           "See raw response for details",
		Methodology:          "JSON parsing failed - review raw response",
		ExpectedContribution: "See raw response for details",
		FeasibilityNotes:     "Try running the proposal stage again",
		Degraded:             true,
		RawResponse:          truncate(raw, RawResponseLimit),
		Strategy:             string(strategyFailed),
		MissingFields:        append([]string(nil), ProposalSchema.Required...),
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
