package framework

import "context"

type runContextKey struct{}

// RunContext carries run metadata through contexts so telemetry and the
// model wrapper can correlate completion calls to a run, a stage and the
// calling persona.
type RunContext struct {
	RunID string
	Topic string
	Stage Stage
	Agent string
	Log   *ActivityLog
}

// WithRunContext attaches run metadata to the context.
func WithRunContext(ctx context.Context, run RunContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, runContextKey{}, run)
}

// RunContextFrom extracts run metadata, if present.
func RunContextFrom(ctx context.Context) (RunContext, bool) {
	if ctx == nil {
		return RunContext{}, false
	}
	val := ctx.Value(runContextKey{})
	run, ok := val.(RunContext)
	return run, ok
}

// WithAgent narrows the run context to a single persona.
func WithAgent(ctx context.Context, agent string) context.Context {
	run, _ := RunContextFrom(ctx)
	run.Agent = agent
	return WithRunContext(ctx, run)
}

// ActivityLogFrom returns the activity log attached to ctx. The result may be
// nil, which ActivityLog treats as a no-op sink.
func ActivityLogFrom(ctx context.Context) *ActivityLog {
	run, ok := RunContextFrom(ctx)
	if !ok {
		return nil
	}
	return run.Log
}
