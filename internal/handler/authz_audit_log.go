package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/service"
)

// AuthzAuditLogHandler serves an organization's authorization audit log
type AuthzAuditLogHandler struct {
	reader *service.AuditLogReader
	logger *slog.Logger
}

// NewAuthzAuditLogHandler creates a new audit log handler
func NewAuthzAuditLogHandler(reader *service.AuditLogReader, logger *slog.Logger) *AuthzAuditLogHandler {
	return &AuthzAuditLogHandler{reader: reader, logger: logger}
}

// GetAuditLogs handles requests to retrieve audit logs with filtering
func (h *AuthzAuditLogHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	s, err := orgScope(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	q, err := auditQuery(r)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	page, err := h.reader.Query(r.Context(), s.userID, s.slug, q)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, page)
}

func auditQuery(r *http.Request) (service.AuditLogQuery, error) {
	var q service.AuditLogQuery
	var err error

	if q.UserID, err = queryUUID(r, "user_id"); err != nil {
		return q, err
	}
	q.Operation = r.URL.Query().Get("operation")

	if raw := r.URL.Query().Get("allowed"); raw != "" {
		allowed, err := strconv.ParseBool(raw)
		if err != nil {
			return q, domain.Invalid("allowed", "must be true or false")
		}
		q.Allowed = &allowed
	}
	if q.StartTime, err = queryTime(r, "start_time"); err != nil {
		return q, err
	}
	if q.EndTime, err = queryTime(r, "end_time"); err != nil {
		return q, err
	}

	// Pagination
	if q.Limit, err = queryInt(r, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = queryInt(r, "offset"); err != nil {
		return q, err
	}
	return q, nil
}
