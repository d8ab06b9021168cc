package simplecms

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) PostCreated(ctx context.Context, post *Post) error { return nil }

func (n *NoopEventSink) PostUpdated(ctx context.Context, post *Post) error { return nil }

func (n *NoopEventSink) PostDeleted(ctx context.Context, postID uuid.UUID, hard bool) error {
	return nil
}

// LogEventSink writes lifecycle events to a structured logger at debug level.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink backed by logger. A nil logger uses
// slog.Default().
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger.With("component", "events")}
}

func (l *LogEventSink) PostCreated(ctx context.Context, post *Post) error {
	l.logger.DebugContext(ctx, "post.created", "post_id", post.ID, "slug", post.Slug, "type", post.Type)
	return nil
}

func (l *LogEventSink) PostUpdated(ctx context.Context, post *Post) error {
	l.logger.DebugContext(ctx, "post.updated", "post_id", post.ID, "slug", post.Slug, "status", post.Status, "pinned", post.Pinned)
	return nil
}

func (l *LogEventSink) PostDeleted(ctx context.Context, postID uuid.UUID, hard bool) error {
	l.logger.DebugContext(ctx, "post.deleted", "post_id", postID, "hard", hard)
	return nil
}
