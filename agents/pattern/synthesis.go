package pattern

import (
	"context"

	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/llm"
)

const synthesisCaller = "Synthesizer"

// Synthesize merges explorations, and reviews when there are any, into one
// record. A failed model call is returned as an error. An answer that cannot
// be parsed yields a degraded record instead, so a successful call never
// leaves synthesis empty.
func (r *Runner) Synthesize(ctx context.Context, topic string, explorations []framework.ExplorationResult, reviews []framework.ReviewResult, assignments map[int]string) (*framework.SynthesisRecord, error) {
	log := framework.ActivityLogFrom(ctx)
	if len(reviews) == 0 {
		log.Add(framework.LevelInfo, "Synthesizing without peer reviews")
	}
	text, err := r.Model.Complete(ctx, llm.Request{
		System:    SynthesisSystemPrompt,
		Prompt:    SynthesisPrompt(topic, explorations, reviews, assignments),
		Model:     r.Options.SynthesisModel,
		Caller:    synthesisCaller,
		MaxTokens: r.Options.Tokens.Synthesis,
	})
	if err != nil {
		return nil, err
	}

	record, err := decodeSynthesis(text)
	if err != nil {
		log.Addf(framework.LevelError, "Synthesis response could not be parsed, keeping raw response: %v", err)
		record = DegradedSynthesis(text)
		if len(reviews) == 0 {
			record.PeerReviewInsights = ""
		}
		return record, nil
	}
	if len(reviews) == 0 {
		record.PeerReviewInsights = ""
	}
	r.logMissing(ctx, synthesisCaller, record.MissingFields)
	log.Add(framework.LevelSuccess, "Synthesis parsed")
	return record, nil
}

func decodeSynthesis(text string) (*framework.SynthesisRecord, error) {
	parsed, err := Parse(text, SynthesisSchema)
	if err != nil {
		return nil, err
	}
	if !parsed.Known() {
		return nil, ErrUnrecognizedObject
	}
	var record framework.SynthesisRecord
	if err := parsed.Decode(&record); err != nil {
		return nil, err
	}
	record.Strategy = string(parsed.Strategy)
	record.MissingFields = parsed.Missing
	return &record, nil
}
