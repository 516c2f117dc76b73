// internal/audit/logger.go
package audit

import (
	"context"

	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/google/uuid"
)

// Decision is one allow or deny outcome of the policy table.
type Decision struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Role           model.Role
	Operation      string
	ResourceType   string
	ResourceID     string
	Allowed        bool
	Context        map[string]interface{}
}

// Logger defines the interface for auditing authorization decisions
type Logger interface {
	LogDecision(ctx context.Context, d Decision) error
}

// NoOpLogger is a logger that does nothing
type NoOpLogger struct{}

// LogDecision implements Logger.LogDecision
func (l *NoOpLogger) LogDecision(ctx context.Context, d Decision) error {
	return nil
}

// RequestInfo describes the HTTP request a decision was made for.
type RequestInfo struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

type requestInfoKey struct{}

// WithRequestInfo attaches request details for audit entries written later
// in the request.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFrom returns the request details stored by WithRequestInfo.
func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
