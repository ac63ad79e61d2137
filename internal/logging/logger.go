// Package logging defines the structured-logging interface every component of
// the engine takes as a dependency. Wiring code decides the backend;
// everything else stays backend-agnostic.
package logging

import "context"

// Logger is a leveled, context-aware structured logger. The variadic args are
// alternating key-value pairs:
//
//	log.Info(ctx, "paste created", "paste_id", id, "documents", n)
type Logger interface {
	// Debug logs fine-grained detail, normally suppressed.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs routine operational events.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions, such as a blob delete
	// that will be retried.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger carrying the given key-value pairs on
	// every record, e.g. a sweep cycle ID.
	With(args ...any) Logger
}
