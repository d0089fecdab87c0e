package notification

import (
	"context"
	"fmt"
	"strings"

	"callsync/internal/config"

	"github.com/wneessen/go-mail"
)

const ChannelEmail = "email"

type sendFunc func(ctx context.Context, m *mail.Msg) error

type smtpNotifier struct {
	cfg  config.NotificationConfig
	send sendFunc
}

// NewSMTPNotifier returns nil when no SMTP host is configured, so callers can
// leave it out of a chain.
func NewSMTPNotifier(cfg config.NotificationConfig) Notifier {
	if cfg.SMTPHost == "" {
		return nil
	}
	n := &smtpNotifier{cfg: cfg}
	n.send = n.dialAndSend
	return n
}

func tlsPolicy(name string) mail.TLSPolicy {
	switch name {
	case "opportunistic":
		return mail.TLSOpportunistic
	case "none":
		return mail.NoTLS
	default:
		return mail.TLSMandatory
	}
}

func (n *smtpNotifier) dialAndSend(ctx context.Context, m *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(n.cfg.SMTPPort),
		mail.WithTLSPolicy(tlsPolicy(n.cfg.SMTPTLS)),
	}
	if n.cfg.SMTPTimeout > 0 {
		opts = append(opts, mail.WithTimeout(n.cfg.SMTPTimeout))
	}
	if n.cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.SMTPUser),
			mail.WithPassword(n.cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(n.cfg.SMTPHost, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}

func (n *smtpNotifier) Send(ctx context.Context, msg Message) (DeliveryResult, error) {
	res := DeliveryResult{Channel: ChannelEmail}
	if msg.ToEmail == "" {
		return res, ErrNoRecipient
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return res, fmt.Errorf("notification: header injection rejected")
	}

	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return res, fmt.Errorf("notification: sender address: %w", err)
	}
	if err := m.To(msg.ToEmail); err != nil {
		return res, fmt.Errorf("notification: recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	m.SetBodyString(mail.TypeTextPlain, msg.Text)

	if err := n.send(ctx, m); err != nil {
		return res, fmt.Errorf("notification: smtp send: %w", err)
	}

	res.Delivered = true
	return res, nil
}
