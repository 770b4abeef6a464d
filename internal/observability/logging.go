// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
)

// LogTransition records a successful status change.
func LogTransition(ctx context.Context, entity string, id uint, from, to string, actorID uint) {
	slog.InfoContext(ctx, "lifecycle transition",
		slog.String("entity", entity),
		slog.Uint64("entity_id", uint64(id)),
		slog.String("from", from),
		slog.String("to", to),
		slog.Uint64("actor_id", uint64(actorID)),
	)
}

// LogDenial records an authorization denial at debug level.
func LogDenial(ctx context.Context, kind, action string, err error) {
	slog.DebugContext(ctx, "authorization denied",
		slog.String("kind", kind),
		slog.String("action", action),
		slog.String("reason", err.Error()),
	)
}
