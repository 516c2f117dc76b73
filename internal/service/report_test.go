package service_test

import (
	"testing"

	"github.com/dangerclosesec/agiletrack/internal/domain"
	"github.com/dangerclosesec/agiletrack/internal/model"
	"github.com/dangerclosesec/agiletrack/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportLifecycle(t *testing.T) {
	h := newHarness(t)
	monitor := h.join(t, "mo@example.com", model.RoleMonitor)
	manager := h.join(t, "pam@example.com", model.RoleProjectManager)

	report, err := h.svc.Reports.Create(h.ctx, manager, "acme", h.project.ID, service.CreateReportInput{
		Type:    model.ReportMonthly,
		Title:   "March",
		Content: map[string]any{"summary": "on track"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReportDraft, report.Status)
	assert.Nil(t, report.SubmittedAt)

	_, err = h.svc.Reports.Approve(h.ctx, monitor, "acme", h.project.ID, report.ID, service.ReviewReportInput{})
	assert.ErrorIs(t, err, domain.ErrReportNotSubmitted)

	_, err = h.svc.Reports.Approve(h.ctx, manager, "acme", h.project.ID, report.ID, service.ReviewReportInput{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	submitted, err := h.svc.Reports.Submit(h.ctx, manager, "acme", h.project.ID, report.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReportSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	_, err = h.svc.Reports.Submit(h.ctx, manager, "acme", h.project.ID, report.ID)
	assert.ErrorIs(t, err, domain.ErrReportNotDraft)

	approved, err := h.svc.Reports.Approve(h.ctx, monitor, "acme", h.project.ID, report.ID, service.ReviewReportInput{Note: "thanks"})
	require.NoError(t, err)
	assert.Equal(t, model.ReportApproved, approved.Status)
	assert.Equal(t, "thanks", approved.ReviewNote)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, monitor, *approved.ApproverID)

	_, err = h.svc.Reports.Reject(h.ctx, monitor, "acme", h.project.ID, report.ID, service.ReviewReportInput{})
	assert.ErrorIs(t, err, domain.ErrReportNotSubmitted)
}

func TestReportCreateSubmitted(t *testing.T) {
	h := newHarness(t)

	report, err := h.svc.Reports.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateReportInput{
		Type:   model.ReportWeekly,
		Title:  "Week 11",
		Status: model.ReportSubmitted,
	})
	require.NoError(t, err)
	require.NotNil(t, report.SubmittedAt)
	assert.Equal(t, fixedNow, *report.SubmittedAt)

	_, err = h.svc.Reports.Create(h.ctx, h.admin, "acme", h.project.ID, service.CreateReportInput{
		Type: model.ReportWeekly, Title: "Approved already", Status: model.ReportApproved,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	listed, err := h.svc.Reports.List(h.ctx, h.admin, "acme", h.project.ID, model.ReportSubmitted)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, report.ID, listed[0].ID)
}
