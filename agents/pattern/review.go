package pattern

import (
	"context"
	"fmt"

	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/internal/metrics"
	"github.com/lexcodex/swarmcouncil/llm"
)

// ReviewOutput is what the peer-review stage hands to synthesis.
type ReviewOutput struct {
	Reviews []framework.ReviewResult
	// Ideas is the anonymized set every reviewer saw, ordered by number.
	Ideas []framework.AnonymizedIdea
	// Assignments maps idea numbers back to agent IDs.
	Assignments map[int]string
}

// Review anonymizes explorations and asks every profile to critique and rank
// all of them. The idea count used for numbering and ranking checks is the
// number of explorations, not the number of profiles.
func (r *Runner) Review(ctx context.Context, explorations []framework.ExplorationResult, profiles []framework.AgentProfile, progress Progress) (*ReviewOutput, error) {
	if len(explorations) == 0 {
		return nil, fmt.Errorf("%s: no explorations to review: %w", framework.StageReview, ErrNoResults)
	}
	ideas, assignments := Anonymize(explorations, r.Options.Shuffle)
	prompt := ReviewPrompt(IdeasSummary(ideas), len(ideas))

	results, failures := fanOut(ctx, profiles, r.concurrency(), progress,
		func(ctx context.Context, profile framework.AgentProfile) (framework.ReviewResult, error) {
			var result framework.ReviewResult
			err := r.agentCall(ctx, framework.StageReview, profile, func(ctx context.Context) error {
				var err error
				result, err = r.review(ctx, prompt, len(ideas), profile)
				return err
			})
			return result, err
		})
	if len(results) == 0 {
		return nil, noResults(framework.StageReview, failures)
	}
	return &ReviewOutput{Reviews: results, Ideas: ideas, Assignments: assignments}, nil
}

func (r *Runner) review(ctx context.Context, prompt string, ideaCount int, profile framework.AgentProfile) (framework.ReviewResult, error) {
	var result framework.ReviewResult
	text, err := r.Model.Complete(ctx, llm.Request{
		System:    ReviewerSystemPrompt(profile),
		Prompt:    prompt,
		Model:     profile.Model,
		Caller:    profile.Name,
		MaxTokens: r.Options.Tokens.Review,
	})
	if err != nil {
		return result, err
	}
	parsed, err := Parse(text, ReviewSchema)
	if err != nil {
		return result, err
	}
	if !parsed.Known() {
		return result, ErrUnrecognizedObject
	}
	if err := parsed.Decode(&result); err != nil {
		return result, err
	}
	result.ReviewerID = profile.ID
	result.ReviewerName = profile.Name
	result.Icon = profile.Icon
	result.Model = profile.Model
	result.Strategy = string(parsed.Strategy)
	result.MissingFields = parsed.Missing
	result.RankingValid = true

	log := framework.ActivityLogFrom(ctx)
	if err := ValidateRanking(result.Ranking, ideaCount); err != nil {
		metrics.RankingViolations.Inc()
		if r.Options.RankingPolicy == RankingReject {
			return result, err
		}
		result.RankingValid = false
		result.RankingIssue = err.Error()
		log.Addf(framework.LevelError, "%s ranking kept as-is: %v", profile.Name, err)
	}
	r.logMissing(ctx, profile.Name, parsed.Missing)
	log.Addf(framework.LevelSuccess, "%s peer review complete", profile.Name)
	return result, nil
}
