package obslog

import "context"

// Context keys for logging values. Private types avoid key collisions.
type contextKey int

const (
	sessionIDKey contextKey = iota
	componentKey
	queryIDKey
)

// WithSession attaches a session ID to ctx so every log call made with it
// automatically carries "session_id".
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithComponent attaches a component name (e.g. "ingest", "retention",
// "filter") to ctx so every log call made with it carries "component".
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithQuery attaches an attribution query ID to ctx, used to correlate a
// query's load/filter/similarity log lines.
func WithQuery(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, queryIDKey, queryID)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
