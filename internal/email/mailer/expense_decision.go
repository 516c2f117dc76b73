// internal/email/mailer/expense_decision.go
package mailer

import (
	"fmt"

	"github.com/dangerclosesec/agiletrack/internal/email"
)

// ExpenseDecisionTemplateData contains data for the expense_decision template
type ExpenseDecisionTemplateData struct {
	ReporterName string
	Description  string
	Amount       float64
	Category     string
	ProjectName  string
	Status       string
	DecidedBy    string
	Note         string
}

// SendExpenseDecisionEmail tells the reporter their expense was approved or rejected
func SendExpenseDecisionEmail(s *email.Service, to string, data ExpenseDecisionTemplateData) error {
	emailData := email.EmailData{
		To:           to,
		ToName:       data.ReporterName,
		Subject:      fmt.Sprintf("Your expense was %s", data.Status),
		TemplateName: "expense_decision",
		TemplateData: data,
	}

	return s.SendEmail(emailData)
}
