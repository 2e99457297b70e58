package pattern

import (
	"context"

	"github.com/lexcodex/swarmcouncil/framework"
	"github.com/lexcodex/swarmcouncil/llm"
)

// Explore asks every profile for its perspective on topic. Agents whose call
// or parse fails are logged and left out; the stage only fails when none
// succeed. Results follow profile order.
func (r *Runner) Explore(ctx context.Context, topic string, profiles []framework.AgentProfile, progress Progress) ([]framework.ExplorationResult, error) {
	results, failures := fanOut(ctx, profiles, r.concurrency(), progress,
		func(ctx context.Context, profile framework.AgentProfile) (framework.ExplorationResult, error) {
			var result framework.ExplorationResult
			err := r.agentCall(ctx, framework.StageExploration, profile, func(ctx context.Context) error {
				var err error
				result, err = r.explore(ctx, topic, profile)
				return err
			})
			return result, err
		})
	if len(results) == 0 {
		return nil, noResults(framework.StageExploration, failures)
	}
	return results, nil
}

func (r *Runner) explore(ctx context.Context, topic string, profile framework.AgentProfile) (framework.ExplorationResult, error) {
	var result framework.ExplorationResult
	text, err := r.Model.Complete(ctx, llm.Request{
		System:    profile.SystemPrompt,
		Prompt:    ExplorationPrompt(topic, profile),
		Model:     profile.Model,
		Caller:    profile.Name,
		MaxTokens: r.Options.Tokens.Exploration,
	})
	if err != nil {
		return result, err
	}
	parsed, err := Parse(text, ExplorationSchema)
	if err != nil {
		return result, err
	}
	if !parsed.Known() {
		return result, ErrUnrecognizedObject
	}
	if err := parsed.Decode(&result); err != nil {
		return result, err
	}
	result.AgentID = profile.ID
	result.AgentName = profile.Name
	result.Icon = profile.Icon
	result.Model = profile.Model
	result.Strategy = string(parsed.Strategy)
	result.MissingFields = parsed.Missing

	log := framework.ActivityLogFrom(ctx)
	r.logMissing(ctx, profile.Name, parsed.Missing)
	log.Addf(framework.LevelSuccess, "%s analysis complete", profile.Name)
	return result, nil
}
