package audit

import (
	"context"
	"log/slog"

	"github.com/dangerclosesec/studygroups/internal/model"
	"github.com/go-chi/chi/v5/middleware"
)

// Logger records committed group transitions
type Logger interface {
	// LogTransition appends one event. Implementations fill RequestID and ClientIP
	// from ctx when the caller left them empty.
	LogTransition(ctx context.Context, event *model.GroupEvent) error
}

type clientIPKey struct{}

// WithClientIP returns a context carrying the client address of the current request
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the client address stored by WithClientIP
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// Stamp fills the request metadata of event from ctx
func Stamp(ctx context.Context, event *model.GroupEvent) {
	if event.RequestID == "" {
		event.RequestID = middleware.GetReqID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = ClientIP(ctx)
	}
}

// NoOpLogger is a logger that does nothing
type NoOpLogger struct{}

// LogTransition implements Logger.LogTransition
func (l *NoOpLogger) LogTransition(ctx context.Context, event *model.GroupEvent) error {
	return nil
}

// SlogLogger writes events as structured log records. It backs the audit trail when
// no database is configured.
type SlogLogger struct {
	log *slog.Logger
}

func NewSlogLogger(log *slog.Logger) *SlogLogger {
	return &SlogLogger{log: log}
}

// LogTransition implements Logger.LogTransition
func (l *SlogLogger) LogTransition(ctx context.Context, event *model.GroupEvent) error {
	Stamp(ctx, event)

	attrs := []any{
		"action", event.Action,
		"groupID", event.GroupID,
		"actorID", event.ActorID,
		"requestID", event.RequestID,
		"clientIP", event.ClientIP,
	}
	if event.SubjectID != nil {
		attrs = append(attrs, "subjectID", *event.SubjectID)
	}
	if len(event.Details) > 0 {
		attrs = append(attrs, "details", map[string]interface{}(event.Details))
	}
	l.log.InfoContext(ctx, "group event", attrs...)
	return nil
}
