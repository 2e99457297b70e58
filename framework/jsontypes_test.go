package framework

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringListAcceptsLooseShapes(t *testing.T) {
	var payload struct {
		A StringList `json:"a"`
		B StringList `json:"b"`
		C StringList `json:"c"`
		D StringList `json:"d"`
	}
	raw := `{"a":["spacing effect", 42, {"k":"v"}, ""],"b":"single","c":null,"d":""}`
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, StringList{"spacing effect", "42", `{"k":"v"}`}, payload.A)
	assert.Equal(t, StringList{"single"}, payload.B)
	assert.Nil(t, payload.C)
	assert.Empty(t, payload.D)
}

func TestTextAcceptsLooseShapes(t *testing.T) {
	var payload struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	raw := `{"a":"  clear  ","b":["one","two"],"c":3.5,"d":{"x": 1}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	assert.Equal(t, Text("clear"), payload.A)
	assert.Equal(t, Text("one; two"), payload.B)
	assert.Equal(t, Text("3.5"), payload.C)
	assert.Equal(t, Text(`{"x":1}`), payload.D)
}

func TestRankingDecodesMixedEntries(t *testing.T) {
	cases := map[string]Ranking{
		`[3, "1", "Idea #2", 4.0]`: {3, 1, 2, 4},
		`["no number", 2]`:         {0, 2},
		`[1.9, 2.2, 3.7]`:          {0, 0, 0},
		`[1, 1e12, {"n": 2}]`:      {1, 0, 0},
		`["3.5", "#2"]`:            {0, 2},
		`"2, 1, 3"`:                {2, 1, 3},
		`"2, 1.5"`:                 {2, 0},
		`5`:                        {5},
		`2.5`:                      {0},
		`null`:                     nil,
	}
	for raw, want := range cases {
		var got Ranking
		require.NoError(t, json.Unmarshal([]byte(raw), &got), raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestIdeaNumberDecodes(t *testing.T) {
	var critiques []IdeaCritique
	raw := `[{"ideaNumber":"Idea #4"},{"ideaNumber":2},{"ideaNumber":"n/a"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &critiques))
	require.Len(t, critiques, 3)
	assert.Equal(t, IdeaNumber(4), critiques[0].IdeaNumber)
	assert.Equal(t, IdeaNumber(2), critiques[1].IdeaNumber)
	assert.Equal(t, IdeaNumber(0), critiques[2].IdeaNumber)
}
