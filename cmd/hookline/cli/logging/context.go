package logging

import (
	"context"

	"github.com/google/uuid"
)

type contextKey int

const (
	invocationIDKey contextKey = iota
	sessionIDKey
	componentKey
	hookKey
	toolKey
)

// WithInvocation tags the context with a fresh invocation ID so every record
// written by one hook process can be correlated.
func WithInvocation(ctx context.Context) context.Context {
	return context.WithValue(ctx, invocationIDKey, uuid.NewString())
}

// WithSession adds the host's session ID to the context.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithComponent adds a component name (e.g. "hooks", "watch").
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithHook adds the hook name.
func WithHook(ctx context.Context, hook string) context.Context {
	return context.WithValue(ctx, hookKey, hook)
}

// WithTool adds the name of the tool the event describes.
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, toolKey, tool)
}

// InvocationIDFromContext returns the invocation ID, or "" if unset.
func InvocationIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(invocationIDKey).(string)
	return s
}

// HookFromContext returns the hook name, or "" if unset.
func HookFromContext(ctx context.Context) string {
	s, _ := ctx.Value(hookKey).(string)
	return s
}
