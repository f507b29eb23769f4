package visitor

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Default template names resolved against the mailer's filesystem
const (
	InvitationTemplateHTML = "invitation.html"
	InvitationTemplateText = "invitation.txt"
	WelcomeTemplateHTML    = "welcome.html"
	WelcomeTemplateText    = "welcome.txt"

	invitationSubject = "You are invited to join{% if site_name %} {{ site_name }}{% endif %}"
	welcomeSubject    = "Welcome{% if name %}, {{ name }}{% endif %}!"
)

// InvitationNotifier composes the notification emails for the invitation
// workflow. It is the explicit second step after StartInvitationHandler
// persisted the record: callers decide when (and whether) to notify, and a
// dispatch failure leaves the invitation intact.
type InvitationNotifier struct {
	mailer   *TemplateMailer
	codec    *TokenCodec
	cfg      Config
	SiteName string
	logger   Logger
}

func NewInvitationNotifier(mailer *TemplateMailer, codec *TokenCodec, cfg Config) *InvitationNotifier {
	return &InvitationNotifier{
		mailer: mailer,
		codec:  codec,
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (n *InvitationNotifier) WithLogger(l Logger) *InvitationNotifier {
	n.logger = l
	return n
}

// InvitationLink seals the invitation into a token and appends it to the
// configured base URL.
func (n *InvitationNotifier) InvitationLink(invitation *Invitation) (string, error) {
	token, err := n.codec.Encrypt(TokenPayload{
		Email: invitation.Email,
		Name:  invitation.Name,
	})
	if err != nil {
		return "", err
	}

	base := strings.TrimRight(n.cfg.GetInvitationURL(), "/")
	return fmt.Sprintf("%s/%s", base, token), nil
}

// NotifyInvitee sends the invitation email with the tokenized link
func (n *InvitationNotifier) NotifyInvitee(ctx context.Context, invitation *Invitation) error {
	if invitation == nil || invitation.Email == "" {
		return goerrors.New("invitation has no recipient", goerrors.CategoryBadInput)
	}

	link, err := n.InvitationLink(invitation)
	if err != nil {
		return err
	}

	return n.mailer.Send(ctx, Email{
		Template:     InvitationTemplateHTML,
		TextTemplate: InvitationTemplateText,
		Subject:      invitationSubject,
		Recipient:    invitation.Email,
		Context: map[string]any{
			"name":      invitation.Name,
			"email":     invitation.Email,
			"link":      link,
			"site_name": n.SiteName,
		},
	})
}

// NotifyWelcome sends the post-registration email. The generated password is
// included only when the config flag is on, which is discouraged: mailing
// cleartext credentials should stay a legacy escape hatch.
func (n *InvitationNotifier) NotifyWelcome(ctx context.Context, user *User, password string) error {
	if user == nil || user.Email == "" {
		return goerrors.New("user has no recipient address", goerrors.CategoryBadInput)
	}

	emailCtx := map[string]any{
		"name":      user.FirstName,
		"username":  user.Username,
		"email":     user.Email,
		"site_name": n.SiteName,
	}

	if n.cfg.GetSendUserPassword() && password != "" {
		n.logger.Warn("including generated password in welcome email for %s", user.Email)
		emailCtx["password"] = password
	}

	return n.mailer.Send(ctx, Email{
		Template:     WelcomeTemplateHTML,
		TextTemplate: WelcomeTemplateText,
		Subject:      welcomeSubject,
		Recipient:    user.Email,
		Context:      emailCtx,
	})
}
