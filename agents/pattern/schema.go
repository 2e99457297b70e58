package pattern

import (
	"bytes"
	"encoding/json"

	"github.com/samber/lo"
)

// Schema names the fields a stage asks the model for.
type Schema struct {
	Name     string
	Required []string
	Optional []string
}

var (
	ExplorationSchema = Schema{
		Name: "exploration",
		Required: []string{
			"keyConcepts", "theoreticalFrameworks", "whatsClear",
			"whatsFuzzy", "importantQuestions", "considerations",
		},
	}
	ReviewSchema = Schema{
		Name:     "review",
		Required: []string{"reviews", "ranking", "overallCommentary"},
	}
	SynthesisSchema = Schema{
		Name: "synthesis",
		Required: []string{
			"clarifiedFocus", "theoreticalFoundations", "keyTensions",
			"criticalQuestions", "integratedPerspectives", "recommendedNextSteps",
		},
		Optional: []string{"peerReviewInsights"},
	}
	ProposalSchema = Schema{
		Name: "proposal",
		Required: []string{
			"title", "researchQuestion", "background",
			"methodology", "expectedContribution", "feasibilityNotes",
		},
	}
)

// SchemaByName resolves one of the stage schemas.
func SchemaByName(name string) (Schema, bool) {
	return lo.Find([]Schema{ExplorationSchema, ReviewSchema, SynthesisSchema, ProposalSchema}, func(s Schema) bool {
		return s.Name == name
	})
}

// Fields returns required then optional field names.
func (s Schema) Fields() []string {
	return append(append([]string(nil), s.Required...), s.Optional...)
}

// Missing lists required fields that are absent or null.
func (s Schema) Missing(fields map[string]json.RawMessage) []string {
	return lo.Filter(s.Required, func(name string, _ int) bool {
		raw, ok := fields[name]
		return !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
	})
}

// Known reports whether any schema field is present.
func (s Schema) Known(fields map[string]json.RawMessage) bool {
	return lo.SomeBy(s.Fields(), func(name string) bool {
		_, ok := fields[name]
		return ok
	})
}
