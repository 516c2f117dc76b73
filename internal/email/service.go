// internal/email/service.go
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	texttemplate "text/template"

	"github.com/dangerclosesec/agiletrack"
	"github.com/dangerclosesec/agiletrack/internal/config"
	"github.com/sendgrid/sendgrid-go"
)

const DefaultTemplatePath = "templates/emails"

// EmailData contains all necessary information for sending an email
type EmailData struct {
	To           string
	ToName       string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData interface{}
}

// Sender delivers a rendered message.
type Sender interface {
	Send(data EmailData, htmlContent, textContent string) error
}

// Service renders templates and hands messages to a Sender
type Service struct {
	config    config.Sendgrid
	sender    Sender
	Templates map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *texttemplate.Template
}

// NewEmailService loads the embedded templates and delivers through SendGrid.
func NewEmailService(cfg config.Sendgrid) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	return NewEmailServiceWithSender(cfg, &sendgridSender{client: sendgrid.NewSendClient(cfg.APIKey)}, agiletrack.EmailFS)
}

// NewEmailServiceWithSender is NewEmailService with an explicit transport and
// template filesystem.
func NewEmailServiceWithSender(cfg config.Sendgrid, sender Sender, templates fs.FS) (*Service, error) {
	s := &Service{
		config:    cfg,
		sender:    sender,
		Templates: make(map[string]*Template),
	}

	if err := s.loadTemplates(templates); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	return s, nil
}

// loadTemplates loads every template group below DefaultTemplatePath
func (s *Service) loadTemplates(templateFS fs.FS) error {
	templateGroups, err := fs.ReadDir(templateFS, DefaultTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read email templates directory: %w", err)
	}

	for _, group := range templateGroups {
		if !group.IsDir() {
			continue
		}

		groupPath := DefaultTemplatePath + "/" + group.Name()
		html, err := template.ParseFS(templateFS, groupPath+"/html.tmpl")
		if err != nil {
			return fmt.Errorf("parsing %s html template: %w", group.Name(), err)
		}
		text, err := texttemplate.ParseFS(templateFS, groupPath+"/plaintext.tmpl")
		if err != nil {
			return fmt.Errorf("parsing %s plaintext template: %w", group.Name(), err)
		}

		s.Templates[group.Name()] = &Template{HTML: html, Plaintext: text}
	}

	if len(s.Templates) == 0 {
		return fmt.Errorf("no email templates found")
	}

	return nil
}

// SendEmail renders the named template and sends it
func (s *Service) SendEmail(data EmailData) error {
	htmlContent, textContent, err := s.Render(data.TemplateName, data.TemplateData)
	if err != nil {
		return err
	}

	if data.From == "" {
		data.From = s.config.From
	}
	if data.FromName == "" {
		data.FromName = s.config.FromName
	}

	return s.sender.Send(data, htmlContent, textContent)
}

// Render executes both variants of a template
func (s *Service) Render(name string, data interface{}) (string, string, error) {
	tmpl, exists := s.Templates[name]
	if !exists {
		return "", "", fmt.Errorf("template %s not found", name)
	}

	var htmlbuf bytes.Buffer
	if err := tmpl.HTML.Execute(&htmlbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	var textbuf bytes.Buffer
	if err := tmpl.Plaintext.Execute(&textbuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute template: %w", err)
	}

	return htmlbuf.String(), textbuf.String(), nil
}
