// Package notify contains Reset Notifier adapters.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const sendTimeout = 10 * time.Second

// MailgunNotifier delivers password-reset links over Mailgun. It owns turning
// the relative reset path handed down by the core into an absolute link.
type MailgunNotifier struct {
	client  *mg.MailgunImpl
	sender  string
	baseURL string
}

func NewMailgunNotifier(domain, apiKey, sender, baseURL string) *MailgunNotifier {
	return &MailgunNotifier{
		client:  mg.NewMailgun(domain, apiKey),
		sender:  sender,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (n *MailgunNotifier) SendPasswordReset(ctx context.Context, email, resetPath string) error {
	resetLink := n.baseURL + resetPath

	body := fmt.Sprintf(
		"You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n"+
			"Please click on the following link, or paste this into your browser to complete the process:\n\n"+
			"%s\n\n"+
			"If you did not request this, please ignore this email and your password will remain unchanged.\n",
		resetLink,
	)

	msg := n.client.NewMessage(n.sender, "Password Reset", body, email)

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if _, _, err := n.client.Send(sendCtx, msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}
