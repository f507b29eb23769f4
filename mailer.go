package visitor

import (
	"context"
	"html"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	goerrors "github.com/goliatone/go-errors"
	"github.com/microcosm-cc/bluemonday"
	mail "github.com/wneessen/go-mail"
)

// Email describes a templated notification before rendering. Subject is
// itself a template string evaluated against Context, so subjects can
// interpolate values.
type Email struct {
	// Template is the name of the HTML template, required
	Template string
	// TextTemplate is the optional plaintext template. When missing or not
	// resolvable the plaintext body is derived by stripping the HTML render.
	TextTemplate string
	// Subject template string
	Subject string
	// Context passed to the templates
	Context map[string]any
	// From address, falls back to the mailer default
	From string
	// To is the recipient list
	To []string
	// Recipient is a single-address convenience, merged into To
	Recipient string
}

// MailMessage is a fully rendered multipart message handed to a Sender
type MailMessage struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// TemplateMailer renders a named template pair and dispatches the result
// through the configured Sender.
type TemplateMailer struct {
	set      *pongo2.TemplateSet
	sender   Sender
	from     string
	stripper *bluemonday.Policy
	logger   Logger
}

// NewTemplateMailer builds a mailer rendering templates from the given
// filesystem, e.g. os.DirFS("./templates") or the embedded defaults from
// GetTemplatesFS.
func NewTemplateMailer(fsys fs.FS, sender Sender, cfg Config) *TemplateMailer {
	return &TemplateMailer{
		set:      pongo2.NewSet("emails", pongo2.NewFSLoader(fsys)),
		sender:   sender,
		from:     cfg.GetFromAddress(),
		stripper: bluemonday.StrictPolicy(),
		logger:   defLogger{},
	}
}

func (m *TemplateMailer) WithLogger(l Logger) *TemplateMailer {
	m.logger = l
	return m
}

// Send renders the email and dispatches it. A missing HTML template is
// fatal, a missing text template falls back to the stripped HTML render.
func (m *TemplateMailer) Send(ctx context.Context, email Email) error {
	to := normalizeRecipients(email)
	if len(to) == 0 {
		return goerrors.New("email has no recipients", goerrors.CategoryBadInput)
	}

	tplCtx := pongo2.Context(email.Context)
	if tplCtx == nil {
		tplCtx = pongo2.Context{}
	}

	htmlTpl, err := m.set.FromFile(email.Template)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load email template").
			WithMetadata(map[string]any{"template": email.Template})
	}

	htmlBody, err := htmlTpl.Execute(tplCtx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to render email template").
			WithMetadata(map[string]any{"template": email.Template})
	}

	textBody := ""
	if email.TextTemplate != "" {
		if textTpl, err := m.set.FromFile(email.TextTemplate); err == nil {
			if textBody, err = textTpl.Execute(tplCtx); err != nil {
				textBody = ""
			}
		} else {
			m.logger.Debug("text template %s not resolvable, deriving from HTML", email.TextTemplate)
		}
	}

	if textBody == "" {
		textBody = stripTags(m.stripper, htmlBody)
	}

	subject := email.Subject
	if subjectTpl, err := m.set.FromString(email.Subject); err == nil {
		if rendered, err := subjectTpl.Execute(tplCtx); err == nil {
			subject = rendered
		}
	}

	from := email.From
	if from == "" {
		from = m.from
	}

	msg := &MailMessage{
		From:     from,
		To:       to,
		Subject:  strings.TrimSpace(subject),
		TextBody: textBody,
		HTMLBody: htmlBody,
	}

	if err := m.sender.Send(ctx, msg); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "failed to dispatch email").
			WithMetadata(map[string]any{"template": email.Template})
	}

	return nil
}

func normalizeRecipients(email Email) []string {
	// never append onto email.To, the caller keeps the backing array
	out := make([]string, 0, len(email.To)+1)
	for _, addr := range email.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}

	if addr := strings.TrimSpace(email.Recipient); addr != "" {
		out = append(out, addr)
	}

	return out
}

func stripTags(p *bluemonday.Policy, s string) string {
	return strings.TrimSpace(html.UnescapeString(p.Sanitize(s)))
}

// SMTPSender delivers messages over SMTP using go-mail
type SMTPSender struct {
	client *mail.Client
}

// NewSMTPSender connects the sender to an SMTP endpoint. Options are passed
// through to go-mail, e.g. mail.WithPort, mail.WithSMTPAuth.
func NewSMTPSender(host string, opts ...mail.Option) (*SMTPSender, error) {
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "failed to create SMTP client")
	}
	return &SMTPSender{client: client}, nil
}

func (s *SMTPSender) Send(ctx context.Context, m *MailMessage) error {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return err
	}
	if err := msg.To(m.To...); err != nil {
		return err
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextPlain, m.TextBody)
	msg.AddAlternativeString(mail.TypeTextHTML, m.HTMLBody)

	return s.client.DialAndSendWithContext(ctx, msg)
}

var _ Sender = (*SMTPSender)(nil)

// MemorySender collects messages instead of delivering them. Useful in
// tests and local development.
type MemorySender struct {
	mu       sync.Mutex
	Messages []*MailMessage
}

func (s *MemorySender) Send(ctx context.Context, m *MailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, m)
	return nil
}

// Last returns the most recently sent message, nil when empty
func (s *MemorySender) Last() *MailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

var _ Sender = (*MemorySender)(nil)
