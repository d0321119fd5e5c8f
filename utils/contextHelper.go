package utils

import (
	"context"

	"github.com/fra-atlas/asset_backend/appctx"
)

// Alias the shared context key type so callers only import utils.
type contextKey = appctx.ContextKey

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyRequestId     = appctx.ContextKeyRequestId
	ContextKeyConsumer      = appctx.ContextKeyConsumer
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetRequestIdFromContext(ctx context.Context) (uint64, bool) {
	return appctx.GetUint64(ctx, ContextKeyRequestId)
}

func SetRequestIdInContext(ctx context.Context, requestId uint64) context.Context {
	return appctx.Set(ctx, ContextKeyRequestId, requestId)
}

func GetConsumerFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyConsumer)
}

func SetConsumerInContext(ctx context.Context, consumer string) context.Context {
	return appctx.Set(ctx, ContextKeyConsumer, consumer)
}
