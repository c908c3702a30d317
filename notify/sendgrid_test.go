package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailClient struct {
	sent     []*mail.SGMailV3
	response *rest.Response
	err      error
}

func (f *fakeMailClient) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	f.sent = append(f.sent, email)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func newTestNotifier(client mailClient, shadow string) *SendGridNotifier {
	return &SendGridNotifier{client: client, fromName: "SmartCity Reporter", fromEmail: "no-reply@cityreporter.lk", shadowAddr: shadow}
}

func TestSendGridNotifier_Send(t *testing.T) {
	fake := &fakeMailClient{response: &rest.Response{
		StatusCode: 202,
		Headers:    map[string][]string{"X-Message-Id": {"msg-123"}},
	}}
	n := newTestNotifier(fake, "")

	d := n.Send(context.Background(), Message{To: "ds.colombo@gov.lk", ToName: "DS Colombo", Subject: "New issue", HTML: "<p>hi</p>"})
	assert.True(t, d.Success)
	assert.Equal(t, "msg-123", d.MessageID)
	assert.Empty(t, d.Error)

	require.Len(t, fake.sent, 1)
	assert.Equal(t, "ds.colombo@gov.lk", fake.sent[0].Personalizations[0].To[0].Address)
	assert.Equal(t, "New issue", fake.sent[0].Subject)
}

func TestSendGridNotifier_SendFailures(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		d := newTestNotifier(&fakeMailClient{err: errors.New("connection reset")}, "").Send(context.Background(), Message{To: "a@b.lk"})
		assert.False(t, d.Success)
		assert.Equal(t, "connection reset", d.Error)
	})

	t.Run("error status", func(t *testing.T) {
		d := newTestNotifier(&fakeMailClient{response: &rest.Response{StatusCode: 401}}, "").Send(context.Background(), Message{To: "a@b.lk"})
		assert.False(t, d.Success)
		assert.Equal(t, "sendgrid error: status 401", d.Error)
	})

	t.Run("not configured", func(t *testing.T) {
		d := NewSendGridNotifier(Options{}).Send(context.Background(), Message{To: "a@b.lk"})
		assert.False(t, d.Success)
		assert.Contains(t, d.Error, "not configured")
	})
}

func TestSendGridNotifier_ShadowMode(t *testing.T) {
	fake := &fakeMailClient{response: &rest.Response{StatusCode: 202}}
	n := newTestNotifier(fake, "pilot@cityreporter.lk")

	d := n.Send(context.Background(), Message{To: "ps.kandy@police.lk", Subject: "New issue"})
	assert.True(t, d.Success)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, "pilot@cityreporter.lk", fake.sent[0].Personalizations[0].To[0].Address)
}

func TestNewSendGridNotifierShadowOption(t *testing.T) {
	n := NewSendGridNotifier(Options{APIKey: "SG.x", Mode: ModeShadow, ShadowAddress: " pilot@x.lk "})
	assert.Equal(t, "pilot@x.lk", n.shadowAddr)

	n = NewSendGridNotifier(Options{APIKey: "SG.x", ShadowAddress: "pilot@x.lk"})
	assert.Empty(t, n.shadowAddr)
}
