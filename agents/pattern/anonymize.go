package pattern

import (
	"sort"

	"github.com/samber/lo"

	"github.com/lexcodex/swarmcouncil/framework"
)

// Shuffler permutes numbers in place.
type Shuffler func(numbers []int)

func defaultShuffle(numbers []int) { lo.Shuffle(numbers) }

// Anonymize strips authorship from explorations and numbers the resulting
// ideas with a random permutation of 1..M, M being len(explorations). The
// ideas come back ordered by number so position reveals nothing; the second
// return value maps each number to the authoring agent ID.
func Anonymize(explorations []framework.ExplorationResult, shuffle Shuffler) ([]framework.AnonymizedIdea, map[int]string) {
	if shuffle == nil {
		shuffle = defaultShuffle
	}
	numbers := lo.RangeFrom(1, len(explorations))
	shuffle(numbers)

	ideas := make([]framework.AnonymizedIdea, len(explorations))
	assignments := make(map[int]string, len(explorations))
	for i, exp := range explorations {
		ideas[i] = exp.Anonymize(numbers[i])
		assignments[numbers[i]] = exp.AgentID
	}
	sort.Slice(ideas, func(i, j int) bool { return ideas[i].IdeaNumber < ideas[j].IdeaNumber })
	return ideas, assignments
}
