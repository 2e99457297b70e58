package pattern

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lexcodex/swarmcouncil/framework"
)

// Progress receives completed/total after every agent finishes.
type Progress func(done, total int)

// AgentFailure records an agent omitted from a stage.
type AgentFailure struct {
	AgentID   string
	AgentName string
	Err       error
}

func (f AgentFailure) Error() string {
	return fmt.Sprintf("%s: %v", f.AgentName, f.Err)
}

func (f AgentFailure) Unwrap() error { return f.Err }

// fanOut calls fn once per profile with at most limit calls in flight. The
// returned successes keep profile order whatever the completion order. A
// failing or panicking call never affects the others.
func fanOut[T any](ctx context.Context, profiles []framework.AgentProfile, limit int, progress Progress,
	fn func(ctx context.Context, profile framework.AgentProfile) (T, error)) ([]T, []AgentFailure) {
	if limit <= 0 {
		limit = 1
	}
	type outcome struct {
		value T
		err   error
	}
	outcomes := make([]outcome, len(profiles))

	var mu sync.Mutex
	done := 0
	report := func() {
		mu.Lock()
		defer mu.Unlock()
		done++
		if progress != nil {
			progress(done, len(profiles))
		}
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, profile := range profiles {
		i, profile := i, profile
		g.Go(func() error {
			defer report()
			defer func() {
				if r := recover(); r != nil {
					outcomes[i].err = fmt.Errorf("panic: %v", r)
				}
			}()
			value, err := fn(ctx, profile)
			outcomes[i] = outcome{value: value, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		results  []T
		failures []AgentFailure
	)
	for i, o := range outcomes {
		if o.err != nil {
			failures = append(failures, AgentFailure{AgentID: profiles[i].ID, AgentName: profiles[i].Name, Err: o.err})
			continue
		}
		results = append(results, o.value)
	}
	return results, failures
}
