package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	texttemplate "text/template"

	"github.com/dangerclosesec/studygroups"
	"github.com/dangerclosesec/studygroups/internal/config"
	"github.com/sendgrid/sendgrid-go"
)

// Provider identifies supported email providers
type Provider string

const (
	ProviderSMTP     Provider = "smtp"
	ProviderSendgrid Provider = "sendgrid"
	// ProviderLog writes messages to the application log instead of delivering them.
	ProviderLog Provider = "log"

	DefaultTemplatePath = "templates/emails"
)

// EmailData contains all necessary information for sending an email
type EmailData struct {
	To           string
	From         string
	FromName     string
	Subject      string
	TemplateName string
	TemplateData interface{}
}

// Service handles email operations
type Service struct {
	config         *config.Config
	provider       Provider
	sendgridClient *sendgrid.Client
	logger         *slog.Logger
	Templates      map[string]*Template
}

type Template struct {
	HTML      *template.Template
	Plaintext *texttemplate.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg *config.Config, provider Provider, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		config:    cfg,
		provider:  provider,
		logger:    logger,
		Templates: make(map[string]*Template),
	}

	switch provider {
	case ProviderSendgrid:
		if cfg.Sendgrid.APIKey == "" {
			return nil, fmt.Errorf("sendgrid provider requires SENDGRID_API_KEY")
		}
		s.sendgridClient = sendgrid.NewSendClient(cfg.Sendgrid.APIKey)
	case ProviderSMTP, ProviderLog:
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", provider)
	}

	if err := s.loadTemplates(studygroups.EmailFS); err != nil {
		return nil, fmt.Errorf("loading email templates: %w", err)
	}

	return s, nil
}

// loadTemplates loads all email templates from the embedded filesystem
func (s *Service) loadTemplates(fsys fs.FS) error {
	templateGroups, err := fs.ReadDir(fsys, DefaultTemplatePath)
	if err != nil {
		return fmt.Errorf("failed to read email templates directory: %w", err)
	}

	for _, group := range templateGroups {
		if !group.IsDir() {
			continue
		}

		groupPath := DefaultTemplatePath + "/" + group.Name()
		htmlTmpl, err := template.ParseFS(fsys, groupPath+"/html.tmpl")
		if err != nil {
			return fmt.Errorf("parsing %s html template: %w", group.Name(), err)
		}
		textTmpl, err := texttemplate.ParseFS(fsys, groupPath+"/plaintext.tmpl")
		if err != nil {
			return fmt.Errorf("parsing %s plaintext template: %w", group.Name(), err)
		}

		s.Templates[group.Name()] = &Template{HTML: htmlTmpl, Plaintext: textTmpl}
	}

	if len(s.Templates) == 0 {
		return fmt.Errorf("no email templates found")
	}

	return nil
}

// SendEmail sends an email using the configured provider
func (s *Service) SendEmail(ctx context.Context, data EmailData) error {
	htmlContent, textContent, err := s.renderTemplate(data.TemplateName, data.TemplateData)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}

	if data.From == "" {
		data.From = s.config.Email.From
	}
	if data.FromName == "" {
		data.FromName = s.config.Email.FromName
	}

	switch s.provider {
	case ProviderSendgrid:
		if s.config.Sendgrid.From != "" {
			data.From = s.config.Sendgrid.From
		}
		return s.sendWithSendgrid(ctx, data, htmlContent, textContent)
	case ProviderSMTP:
		return s.sendWithSMTP(data, htmlContent, textContent)
	case ProviderLog:
		s.logger.InfoContext(ctx, "email not delivered, log provider configured",
			"to", data.To,
			"subject", data.Subject,
			"template", data.TemplateName,
		)
		// Bodies carry one-time codes.
		s.logger.DebugContext(ctx, "email body",
			"to", data.To,
			"template", data.TemplateName,
			"body", textContent,
		)
		return nil
	default:
		return fmt.Errorf("unsupported email provider: %s", s.provider)
	}
}

// renderTemplate renders a template with the given data
func (s *Service) renderTemplate(name string, data interface{}) (string, string, error) {
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
