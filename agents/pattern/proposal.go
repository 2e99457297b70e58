package pattern

import (
	"context"
	"errors"

	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/llm"
)

const proposalCaller = "Proposal Writer"

// ErrNoSynthesis is returned when Propose is called without a synthesis.
var ErrNoSynthesis = errors.New("proposal needs a synthesis record")

// Propose drafts a research proposal from the synthesis. When the answer
// cannot be parsed the result depends on Options.ProposalFallback: a degraded
// record, or the parse error and no record.
func (r *Runner) Propose(ctx context.Context, topic string, synthesis *framework.SynthesisRecord) (*framework.ProposalRecord, error) {
	if synthesis == nil {
		return nil, ErrNoSynthesis
	}
	log := framework.ActivityLogFrom(ctx)
	text, err := r.Model.Complete(ctx, llm.Request{
		System:    ProposalSystemPrompt,
		Prompt:    ProposalPrompt(topic, synthesis),
		Model:     r.Options.SynthesisModel,
		Caller:    proposalCaller,
		MaxTokens: r.Options.Tokens.Proposal,
	})
	if err != nil {
		return nil, err
	}

	record, err := decodeProposal(text)
	if err != nil {
		if !r.Options.ProposalFallback {
			log.Addf(framework.LevelError, "Proposal error: %v", err)
			return nil, err
		}
		log.Addf(framework.LevelError, "Proposal response could not be parsed, keeping raw response: %v", err)
		return DegradedProposal(text), nil
	}
	r.logMissing(ctx, proposalCaller, record.MissingFields)
	log.Add(framework.LevelSuccess, "Proposal generated")
	return record, nil
}

func decodeProposal(text string) (*framework.ProposalRecord, error) {
	parsed, err := Parse(text, ProposalSchema)
	if err != nil {
		return nil, err
	}
	if !parsed.Known() {
		return nil, &ParseError{Schema: ProposalSchema.Name, Reason: ErrUnrecognizedObject}
	}
	var record framework.ProposalRecord
	if err := parsed.Decode(&record); err != nil {
		return nil, err
	}
	record.Strategy = string(parsed.Strategy)
	record.MissingFields = parsed.Missing
	return &record, nil
}
