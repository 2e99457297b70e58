package pattern

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExactObjectUnchanged(t *testing.T) {
	raw := `{"keyConcepts":["spacing effect"],"whatsClear":"x"}`
	parsed, err := Parse(raw, ExplorationSchema)
	require.NoError(t, err)
	assert.Equal(t, StrategyBalanced, parsed.Strategy)
	assert.JSONEq(t, raw, string(parsed.Object))
	assert.ElementsMatch(t, []string{"theoreticalFrameworks", "whatsFuzzy", "importantQuestions", "considerations"}, parsed.Missing)
}

func TestParseWrappedObjects(t *testing.T) {
	cases := map[string]struct {
		raw      string
		strategy Strategy
	}{
		"fenced":       {raw: "Sure!\n```json\n" + explorationJSON + "\n```\nHope this helps.", strategy: StrategyFenced},
		"bare fence":   {raw: "```\n" + explorationJSON + "\n```", strategy: StrategyFenced},
		"prose around": {raw: "Here is my analysis: " + explorationJSON + " Let me know.", strategy: StrategyBalanced},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			parsed, err := Parse(tc.raw, ExplorationSchema)
			require.NoError(t, err)
			assert.Equal(t, tc.strategy, parsed.Strategy)
			assert.JSONEq(t, explorationJSON, string(parsed.Object))
			assert.Empty(t, parsed.Missing)
		})
	}
}

func TestParseSkipsUnrelatedLongerObject(t *testing.T) {
	raw := `For reference {"unrelated": "a much longer decoy object than the answer"} and the answer: {"title": "T"}`
	parsed, err := Parse(raw, ProposalSchema)
	require.NoError(t, err)
	assert.Equal(t, StrategyBalanced, parsed.Strategy)
	assert.JSONEq(t, `{"title":"T"}`, string(parsed.Object))
}

func TestParseLooksPastFencedObjectWithoutSchemaFields(t *testing.T) {
	cases := map[string]struct {
		raw    string
		schema Schema
		want   string
	}{
		"example fence before answer": {
			raw:    "Example:\n```json\n{\"example\": true}\n```\nAnswer:\n" + synthesisJSON,
			schema: SynthesisSchema,
			want:   synthesisJSON,
		},
		"fenced wrapper object": {
			raw:    "```json\n{\"analysis\": " + explorationJSON + "}\n```",
			schema: ExplorationSchema,
			want:   explorationJSON,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			parsed, err := Parse(tc.raw, tc.schema)
			require.NoError(t, err)
			assert.True(t, parsed.Known())
			assert.Equal(t, StrategyBalanced, parsed.Strategy)
			assert.JSONEq(t, tc.want, string(parsed.Object))
		})
	}
}

func TestParseKeepsUnrecognizedFenceAsLastResort(t *testing.T) {
	parsed, err := Parse("```json\n{\"example\": true}\n```", SynthesisSchema)
	require.NoError(t, err)
	assert.Equal(t, StrategyFenced, parsed.Strategy)
	assert.False(t, parsed.Known())
}

func TestParseFallsBackToSpan(t *testing.T) {
	parsed, err := Parse(`noise {"other": 1} noise`, ExplorationSchema)
	require.NoError(t, err)
	assert.Equal(t, StrategySpan, parsed.Strategy)
	assert.False(t, parsed.Known())
}

func TestParseRepairs(t *testing.T) {
	parsed, err := Parse("{\"title\": \"line one\nline two\"}", ProposalSchema)
	require.NoError(t, err)
	assert.Equal(t, StrategyRepairNewlines, parsed.Strategy)
	var out struct {
		Title string `json:"title"`
	}
	require.NoError(t, parsed.Decode(&out))
	assert.Equal(t, "line one line two", out.Title)

	parsed, err = Parse(`{\"title\": \"T\"}`, ProposalSchema)
	require.NoError(t, err)
	assert.Equal(t, StrategyRepairEscapes, parsed.Strategy)
	require.NoError(t, json.Unmarshal(parsed.Object, &out))
	assert.Equal(t, "T", out.Title)
}

func TestParseFailures(t *testing.T) {
	_, err := Parse("I cannot produce JSON today.", SynthesisSchema)
	require.Error(t, err)
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "synthesis", perr.Schema)
	assert.True(t, errors.Is(err, ErrNoJSON))

	_, err = Parse("{not json at all}", SynthesisSchema)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidJSON))
}

func TestBalancedSpans(t *testing.T) {
	spans := BalancedSpans(`} stray {"a": {"b": "}"}} tail {"c": 1`)
	assert.Equal(t, []string{`{"a": {"b": "}"}}`, `{"b": "}"}`}, spans)
}

func TestSchemaByName(t *testing.T) {
	schema, ok := SchemaByName("review")
	require.True(t, ok)
	assert.Equal(t, []string{"reviews", "ranking", "overallCommentary"}, schema.Fields())

	_, ok = SchemaByName("unknown")
	assert.False(t, ok)
}

func TestDegradedRecords(t *testing.T) {
	raw := ""
	for i := 0; i < 300; i++ {
		raw += "no json here "
	}
	synthesis := DegradedSynthesis(raw)
	assert.True(t, synthesis.Degraded)
	assert.Len(t, []rune(string(synthesis.ClarifiedFocus)), 500)
	assert.Len(t, synthesis.RawResponse, RawResponseLimit)
	assert.Equal(t, []string{"See raw response for details"}, []string(synthesis.TheoreticalFoundations))
	assert.NotEmpty(t, synthesis.RecommendedNextSteps)

	proposal := DegradedProposal("short answer")
	assert.True(t, proposal.Degraded)
	assert.Equal(t, "short answer", proposal.RawResponse)
	assert.NotEmpty(t, proposal.Title)
}
