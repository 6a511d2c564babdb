package pipeline

import "context"

type invocationIDKey struct{}

// WithInvocationID tags ctx with the trigger's request identifier so it shows
// up in logs and on the invocation span.
func WithInvocationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, invocationIDKey{}, id)
}

// InvocationID returns the identifier set by WithInvocationID.
func InvocationID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(invocationIDKey{}).(string)
	return id, ok
}
