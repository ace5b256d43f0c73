package ctxutil

import (
	"context"
	"strings"
)

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// RequestID returns the request id stored on ctx, or "".
func RequestID(ctx context.Context) string {
	td := GetTraceData(ctx)
	if td == nil {
		return ""
	}
	return strings.TrimSpace(td.RequestID)
}
