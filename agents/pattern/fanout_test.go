package pattern

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/swarmcouncil/framework"
)

func TestFanOutKeepsProfileOrder(t *testing.T) {
	profiles := testProfiles()
	var inFlight, peak int32
	var progress []int
	// later profiles finish first
	delays := map[string]time.Duration{
		"cognitive":     25 * time.Millisecond,
		"clinical":      20 * time.Millisecond,
		"assessment":    15 * time.Millisecond,
		"technology":    10 * time.Millisecond,
		"crosscultural": 5 * time.Millisecond,
	}

	results, failures := fanOut(context.Background(), profiles, 3, func(done, total int) {
		assert.Equal(t, len(profiles), total)
		progress = append(progress, done)
	}, func(ctx context.Context, profile framework.AgentProfile) (string, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		defer atomic.AddInt32(&inFlight, -1)
		time.Sleep(delays[profile.ID])
		return profile.ID, nil
	})

	require.Empty(t, failures)
	assert.Equal(t, []string{"cognitive", "clinical", "assessment", "technology", "crosscultural"}, results)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestFanOutIsolatesFailuresAndPanics(t *testing.T) {
	profiles := testProfiles()
	results, failures := fanOut(context.Background(), profiles, len(profiles), nil,
		func(ctx context.Context, profile framework.AgentProfile) (string, error) {
			switch profile.ID {
			case "clinical":
				return "", errors.New("boom")
			case "technology":
				panic("model adapter exploded")
			}
			return profile.ID, nil
		})

	assert.Equal(t, []string{"cognitive", "assessment", "crosscultural"}, results)
	require.Len(t, failures, 2)
	assert.Equal(t, "clinical", failures[0].AgentID)
	assert.Equal(t, "technology", failures[1].AgentID)
	assert.Contains(t, failures[1].Error(), "panic")
}
