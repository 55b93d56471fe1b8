// internal/mail/notifier.go
//
// Recipient notification over SendGrid.
//
// Context
// -------
// When a heart carries a recipient email, the confirmation pipeline sends
// one best-effort notice after the row is durably saved.  A failed send is
// logged and counted but never changes the outcome of the confirmation;
// the heart already exists, which is the operation's success criterion.
//
// All user-supplied text is interpolated through html/template, which
// escapes it; name, message, and date are attacker-controlled strings.

package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Notification carries the already-validated fields rendered into the
// email body.
type Notification struct {
	RecipientEmail string
	SenderName     string
	Category       string
	Message        string
	Date           string
}

// Notifier sends one heart-placed notice.  Implementations must treat the
// call as best effort; callers ignore the error beyond logging it.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

const bodyTmpl = `
<div style="font-family: Georgia, 'Times New Roman', serif; max-width: 520px; margin: 0 auto; padding: 60px 40px; background-color: #FDFCFB;">
  <div style="text-align: center; margin-bottom: 48px;">
    <span style="font-size: 32px; opacity: 0.7;">&#9825;</span>
  </div>
  <h1 style="text-align: center; color: #1a1a1a; font-size: 24px; font-weight: 400; margin-bottom: 40px;">
    A heart was placed for you
  </h1>
  <div style="text-align: center; padding: 0 20px;">
    <p style="color: #374151; font-size: 17px; line-height: 1.75; margin-bottom: 32px;">
      <strong style="font-weight: 600;">{{.SenderName}}</strong> added your name to the wall.<br>
      It's there now. Quietly, permanently.
    </p>
    <p style="color: #6b7280; font-size: 15px; margin-bottom: 8px; font-style: italic;">
      For {{.Category}}
    </p>
    {{if .Message}}
    <p style="color: #374151; font-size: 16px; line-height: 1.7; margin: 32px 0; padding: 0 10px;">
      "{{.Message}}"
    </p>
    {{end}}
    <p style="color: #9ca3af; font-size: 13px; margin-top: 40px;">
      {{.Date}}
    </p>
  </div>
  <div style="text-align: center; margin-top: 56px; padding-top: 32px; border-top: 1px solid #e5e5e5;">
    <p style="color: #9ca3af; font-size: 13px;">
      It stays.
    </p>
  </div>
</div>`

var heartPlaced = template.Must(template.New("heart_placed").Parse(bodyTmpl))

// SendGridNotifier implements Notifier over the SendGrid v3 mail API.
type SendGridNotifier struct {
	apiKey   string
	fromName string
	fromAddr string
}

// NewSendGridNotifier builds a notifier sending from fromAddr.
func NewSendGridNotifier(apiKey, fromName, fromAddr string) *SendGridNotifier {
	return &SendGridNotifier{apiKey: apiKey, fromName: fromName, fromAddr: fromAddr}
}

// Send renders and delivers one notification.
func (s *SendGridNotifier) Send(ctx context.Context, n Notification) error {
	if s.apiKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if n.RecipientEmail == "" {
		return fmt.Errorf("recipient address is empty")
	}

	html, err := RenderBody(n)
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}

	from := sgmail.NewEmail(s.fromName, s.fromAddr)
	to := sgmail.NewEmail("", n.RecipientEmail)
	subject := fmt.Sprintf("%s placed a heart for you", n.SenderName)
	plain := fmt.Sprintf("%s added your name to the wall. It stays.", n.SenderName)

	msg := sgmail.NewSingleEmail(from, subject, to, plain, html)

	client := sendgrid.NewSendClient(s.apiKey)
	resp, err := client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

// RenderBody produces the HTML body for n with every user field escaped.
// Exposed so tests can assert on the escaping without a SendGrid client.
func RenderBody(n Notification) (string, error) {
	// The category reads as prose ("For friendship"), so lowercase it the
	// way the wall cards do.
	n.Category = strings.ToLower(n.Category)

	var buf bytes.Buffer
	if err := heartPlaced.Execute(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
