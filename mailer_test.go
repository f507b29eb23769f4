package visitor_test

import (
	"context"
	"errors"
	"testing"

	visitor "github.com/goliatone/go-visitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTemplateMailerSend(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	t.Run("renders the multipart pair", func(t *testing.T) {
		sender := &visitor.MemorySender{}
		mailer := visitor.NewTemplateMailer(visitor.GetTemplatesFS(), sender, cfg)

		err := mailer.Send(ctx, visitor.Email{
			Template:     visitor.InvitationTemplateHTML,
			TextTemplate: visitor.InvitationTemplateText,
			Subject:      "Join {{ site_name }}",
			Recipient:    "invitee@example.com",
			Context: map[string]any{
				"name":      "Invitee",
				"link":      "https://example.com/invitation/abc",
				"site_name": "Example",
			},
		})

		require.NoError(t, err)
		msg := sender.Last()
		require.NotNil(t, msg)

		assert.Equal(t, []string{"invitee@example.com"}, msg.To)
		assert.Equal(t, "noreply@example.com", msg.From)
		assert.Equal(t, "Join Example", msg.Subject)
		assert.Contains(t, msg.HTMLBody, `<a href="https://example.com/invitation/abc">`)
		assert.Contains(t, msg.TextBody, "https://example.com/invitation/abc")
		assert.NotContains(t, msg.TextBody, "<a href")
	})

	t.Run("derives plaintext when the text template is missing", func(t *testing.T) {
		sender := &visitor.MemorySender{}
		mailer := visitor.NewTemplateMailer(visitor.GetTemplatesFS(), sender, cfg)

		err := mailer.Send(ctx, visitor.Email{
			Template:     visitor.InvitationTemplateHTML,
			TextTemplate: "no_such_template.txt",
			Subject:      "hello",
			Recipient:    "invitee@example.com",
			Context: map[string]any{
				"name": "Invitee",
				"link": "https://example.com/invitation/abc",
			},
		})

		require.NoError(t, err)
		msg := sender.Last()
		require.NotNil(t, msg)
		assert.NotEmpty(t, msg.TextBody)
		assert.NotContains(t, msg.TextBody, "<p>")
		assert.Contains(t, msg.TextBody, "Hi Invitee")
	})

	t.Run("missing HTML template is fatal", func(t *testing.T) {
		sender := &visitor.MemorySender{}
		mailer := visitor.NewTemplateMailer(visitor.GetTemplatesFS(), sender, cfg)

		err := mailer.Send(ctx, visitor.Email{
			Template:  "no_such_template.html",
			Subject:   "hello",
			Recipient: "invitee@example.com",
		})

		assert.Error(t, err)
		assert.Nil(t, sender.Last())
	})

	t.Run("requires a recipient", func(t *testing.T) {
		sender := &visitor.MemorySender{}
		mailer := visitor.NewTemplateMailer(visitor.GetTemplatesFS(), sender, cfg)

		err := mailer.Send(ctx, visitor.Email{
			Template: visitor.InvitationTemplateHTML,
			Subject:  "hello",
		})

		assert.Error(t, err)
	})

	t.Run("normalizes the recipient list", func(t *testing.T) {
		sender := &visitor.MemorySender{}
		mailer := visitor.NewTemplateMailer(visitor.GetTemplatesFS(), sender, cfg)

		err := mailer.Send(ctx, visitor.Email{
			Template:  visitor.InvitationTemplateHTML,
			Subject:   "hello",
			To:        []string{"a@example.com", " "},
			Recipient: "b@example.com",
			Context:   map[string]any{"link": "x"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, sender.Last().To)
	})

	t.Run("leaves the caller's recipient slice alone", func(t *testing.T) {
		sender := &visitor.MemorySender{}
		mailer := visitor.NewTemplateMailer(visitor.GetTemplatesFS(), sender, cfg)

		backing := make([]string, 2, 4)
		backing[0] = "a@example.com"
		backing[1] = "sentinel"

		err := mailer.Send(ctx, visitor.Email{
			Template:  visitor.InvitationTemplateHTML,
			Subject:   "hello",
			To:        backing[:1],
			Recipient: "b@example.com",
			Context:   map[string]any{"link": "x"},
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, sender.Last().To)
		assert.Equal(t, "sentinel", backing[1])
	})

	t.Run("transport failures surface", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("Send", mock.Anything, mock.Anything).
			Return(errors.New("connection refused")).Once()

		mailer := visitor.NewTemplateMailer(visitor.GetTemplatesFS(), sender, cfg)

		err := mailer.Send(ctx, visitor.Email{
			Template:  visitor.InvitationTemplateHTML,
			Subject:   "hello",
			Recipient: "invitee@example.com",
			Context:   map[string]any{"link": "x"},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "dispatch")
		sender.AssertExpectations(t)
	})
}
