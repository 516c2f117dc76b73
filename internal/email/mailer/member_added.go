// internal/email/mailer/member_added.go
package mailer

import "github.com/dangerclosesec/agiletrack/internal/email"

// MemberAddedTemplateData contains data for the member_added template
type MemberAddedTemplateData struct {
	Name             string
	OrganizationName string
	Role             string
	Link             string
}

// SendMemberAddedEmail welcomes a user to an organization
func SendMemberAddedEmail(s *email.Service, to string, data MemberAddedTemplateData) error {
	emailData := email.EmailData{
		To:           to,
		ToName:       data.Name,
		Subject:      "You were added to " + data.OrganizationName,
		TemplateName: "member_added",
		TemplateData: data,
	}

	return s.SendEmail(emailData)
}
