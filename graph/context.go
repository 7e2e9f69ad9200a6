package graph

import "context"

type runInfoKey struct{}

// RunInfo describes the step a node is executing in.
type RunInfo struct {
	ThreadID string
	RunID    string
	Node     string
	Step     int
}

// WithRunInfo adds run information to the context.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunInfoFromContext retrieves the run information set by the runnable for the
// current step.
func RunInfoFromContext(ctx context.Context) (RunInfo, bool) {
	info, ok := ctx.Value(runInfoKey{}).(RunInfo)
	return info, ok
}
