package appctx

import "context"

// ContextKey is the shared type for all context keys in this codebase.
// Keeping it in a tiny package avoids import cycles (config <-> utils).
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	ContextKeyCorrelationId = ContextKey("CorrelationId")
	ContextKeyRequestId     = ContextKey("RequestId")

	// ContextKeyConsumer names the bus subscriber currently handling an event.
	ContextKeyConsumer = ContextKey("Consumer")
)

func GetString(ctx context.Context, key ContextKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok
}

func GetUint64(ctx context.Context, key ContextKey) (uint64, bool) {
	v, ok := ctx.Value(key).(uint64)
	return v, ok
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
