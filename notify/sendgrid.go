package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// ModeShadow routes every message to a single inbox
const ModeShadow = "shadow"

type mailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridNotifier sends email through the SendGrid v3 API
type SendGridNotifier struct {
	client     mailClient
	fromName   string
	fromEmail  string
	shadowAddr string
}

// Options configures a SendGridNotifier
type Options struct {
	APIKey        string
	FromName      string
	FromAddress   string
	Mode          string
	ShadowAddress string
}

// NewSendGridNotifier builds a notifier. Without an API key every Send fails
// with a "not configured" delivery.
func NewSendGridNotifier(o Options) *SendGridNotifier {
	n := &SendGridNotifier{
		fromName:  o.FromName,
		fromEmail: o.FromAddress,
	}
	if o.APIKey != "" {
		n.client = sendgrid.NewSendClient(o.APIKey)
	}
	if o.Mode == ModeShadow {
		n.shadowAddr = strings.TrimSpace(o.ShadowAddress)
		if n.shadowAddr == "" {
			zap.S().Warnw("EMAIL_MODE=shadow without EMAIL_SHADOW_ADDRESS, mail goes to real recipients")
		}
	}
	return n
}

// Send delivers msg. It never returns an error.
func (n *SendGridNotifier) Send(ctx context.Context, msg Message) Delivery {
	if n.client == nil {
		return Delivery{Error: "email delivery not configured"}
	}

	to, toName := msg.To, msg.ToName
	if n.shadowAddr != "" {
		zap.S().Infow("shadow mode redirecting email", "originalTo", to, "shadowTo", n.shadowAddr)
		to = n.shadowAddr
	}

	from := mail.NewEmail(n.fromName, n.fromEmail)
	message := mail.NewSingleEmail(from, msg.Subject, mail.NewEmail(toName, to), msg.PlainText, msg.HTML)

	response, err := n.client.SendWithContext(ctx, message)
	if err != nil {
		zap.S().Errorw("failed to send email", "to", to, "error", err)
		return Delivery{Error: err.Error()}
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", to)
		return Delivery{Error: fmt.Sprintf("sendgrid error: status %d", response.StatusCode)}
	}

	return Delivery{Success: true, MessageID: messageID(response)}
}

func messageID(r *rest.Response) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, "X-Message-Id") && len(v) > 0 {
			return v[0]
		}
	}
	return ""
}
