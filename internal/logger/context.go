package logger

import "context"

type requestIDKey struct{}

// WithRequestID stores the request id on ctx so layers below the HTTP
// handlers can tag their logs and events with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
