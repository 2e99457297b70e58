package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// RankingPolicy decides what happens to a review whose ranking is not a
// permutation of the idea numbers.
type RankingPolicy string

const (
	// RankingLog keeps the review, flags it and logs the problem.
	RankingLog RankingPolicy = "log"
	// RankingReject drops the review as an agent failure.
	RankingReject RankingPolicy = "reject"
)

// ParseRankingPolicy validates a configured policy name.
func ParseRankingPolicy(value string) (RankingPolicy, error) {
	switch RankingPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", RankingLog:
		return RankingLog, nil
	case RankingReject:
		return RankingReject, nil
	}
	return "", fmt.Errorf("unknown ranking policy %q (want log or reject)", value)
}

// ErrInvalidRanking is wrapped by every ValidateRanking failure.
var ErrInvalidRanking = errors.New("ranking is not a permutation")

// ValidateRanking checks that ranking holds every number in 1..count exactly
// once.
func ValidateRanking(ranking []int, count int) error {
	var problems []string
	if len(ranking) != count {
		problems = append(problems, fmt.Sprintf("has %d entries, want %d", len(ranking), count))
	}
	if outOfRange := lo.Filter(ranking, func(n int, _ int) bool { return n < 1 || n > count }); len(outOfRange) > 0 {
		problems = append(problems, fmt.Sprintf("out of range %v", outOfRange))
	}
	if dups := lo.FindDuplicates(ranking); len(dups) > 0 {
		problems = append(problems, fmt.Sprintf("duplicates %v", dups))
	}
	if missing, _ := lo.Difference(lo.RangeFrom(1, count), ranking); len(missing) > 0 {
		problems = append(problems, fmt.Sprintf("missing %v", missing))
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w of 1..%d: %s", ErrInvalidRanking, count, strings.Join(problems, "; "))
}
