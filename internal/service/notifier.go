// internal/service/notifier.go
package service

import (
	"context"
	"log/slog"

	"github.com/dangerclosesec/agiletrack/internal/email"
	"github.com/dangerclosesec/agiletrack/internal/email/mailer"
)

// Notifier tells people about things that happened to them. Delivery
// failures never fail the operation that triggered them.
type Notifier interface {
	ExpenseDecided(ctx context.Context, n ExpenseDecisionNotice)
	MemberAdded(ctx context.Context, n MemberAddedNotice)
}

type ExpenseDecisionNotice struct {
	To          string
	Reporter    string
	Description string
	Amount      float64
	Category    string
	ProjectName string
	Status      string
	DecidedBy   string
	Note        string
}

type MemberAddedNotice struct {
	To               string
	Name             string
	OrganizationName string
	OrganizationSlug string
	Role             string
}

// LogNotifier only records notifications in the log.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ExpenseDecided(ctx context.Context, notice ExpenseDecisionNotice) {
	n.logger.InfoContext(ctx, "notification: expense decided",
		"to", notice.To,
		"status", notice.Status,
		"amount", notice.Amount,
		"category", notice.Category,
	)
}

func (n *LogNotifier) MemberAdded(ctx context.Context, notice MemberAddedNotice) {
	n.logger.InfoContext(ctx, "notification: member added",
		"to", notice.To,
		"organization", notice.OrganizationSlug,
		"role", notice.Role,
	)
}

// EmailNotifier sends notifications through the email service.
type EmailNotifier struct {
	email   *email.Service
	baseURL string
	logger  *slog.Logger
}

func NewEmailNotifier(emailService *email.Service, baseURL string, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{email: emailService, baseURL: baseURL, logger: logger}
}

func (n *EmailNotifier) ExpenseDecided(ctx context.Context, notice ExpenseDecisionNotice) {
	err := mailer.SendExpenseDecisionEmail(n.email, notice.To, mailer.ExpenseDecisionTemplateData{
		ReporterName: notice.Reporter,
		Description:  notice.Description,
		Amount:       notice.Amount,
		Category:     notice.Category,
		ProjectName:  notice.ProjectName,
		Status:       notice.Status,
		DecidedBy:    notice.DecidedBy,
		Note:         notice.Note,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "sending expense decision email", "to", notice.To, "error", err)
	}
}

func (n *EmailNotifier) MemberAdded(ctx context.Context, notice MemberAddedNotice) {
	err := mailer.SendMemberAddedEmail(n.email, notice.To, mailer.MemberAddedTemplateData{
		Name:             notice.Name,
		OrganizationName: notice.OrganizationName,
		Role:             notice.Role,
		Link:             n.baseURL + "/api/orgs/" + notice.OrganizationSlug,
	})
	if err != nil {
		n.logger.ErrorContext(ctx, "sending member added email", "to", notice.To, "error", err)
	}
}
