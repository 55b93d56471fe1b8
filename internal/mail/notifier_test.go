// internal/mail/notifier_test.go
//
// Run: go test ./internal/mail -v

package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBody_EscapesUserFields(t *testing.T) {
	body, err := RenderBody(Notification{
		RecipientEmail: "jane@example.com",
		SenderName:     `<script>alert("x")</script>`,
		Category:       "Romantic",
		Message:        `a "quoted" <b>message</b>`,
		Date:           "2025-01-01",
	})
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>", "sender name must be escaped")
	assert.NotContains(t, body, "<b>message</b>", "message must be escaped")
	assert.Contains(t, body, "&lt;script&gt;")
	assert.Contains(t, body, "A heart was placed for you")
	assert.Contains(t, body, "For romantic", "category renders lowercased")
	assert.Contains(t, body, "2025-01-01")
}

func TestRenderBody_OmitsEmptyMessage(t *testing.T) {
	body, err := RenderBody(Notification{
		SenderName: "Emma & James",
		Category:   "family",
		Date:       "2025-01-01",
	})
	require.NoError(t, err)

	assert.NotContains(t, body, `""`, "no empty quoted block for a blank message")
	assert.Contains(t, body, "Emma &amp; James")
}

func TestSend_RequiresConfiguration(t *testing.T) {
	n := Notification{RecipientEmail: "jane@example.com", SenderName: "Emma"}

	err := NewSendGridNotifier("", "Heart Wall", "hello@example.com").Send(context.Background(), n)
	assert.Error(t, err, "empty api key must fail before any network call")

	err = NewSendGridNotifier("SG.key", "Heart Wall", "hello@example.com").
		Send(context.Background(), Notification{SenderName: "Emma"})
	assert.Error(t, err, "empty recipient must fail before any network call")
}
