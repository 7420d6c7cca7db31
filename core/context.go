package core

import "context"

// Context keys for audit options
type contextKey string

const suppressHeaderKey contextKey = "suppressHeader"

// withSuppressHeader marks the context so the audit header is not printed
func withSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// WithSuppressHeader is the exported form used by non-interactive callers
func WithSuppressHeader(ctx context.Context) context.Context {
	return withSuppressHeader(ctx)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}
