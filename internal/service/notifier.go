package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"
)

// PostNotice carries what an author needs to hear about a moderation decision.
type PostNotice struct {
	Email     string
	FirstName string
	Title     string
	Reason    string
}

// Notifier delivers moderation outcomes to authors.
type Notifier interface {
	PostApproved(ctx context.Context, notice PostNotice) error
	PostRejected(ctx context.Context, notice PostNotice) error
}

// MailSettings configures MailNotifier.
type MailSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteURL  string
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailNotifier sends moderation mails over SMTP.
type MailNotifier struct {
	from    string
	siteURL string
	sender  mailSender
}

// NewMailNotifier builds a MailNotifier backed by a gomail dialer.
func NewMailNotifier(settings MailSettings) *MailNotifier {
	return &MailNotifier{
		from:    settings.From,
		siteURL: strings.TrimRight(settings.SiteURL, "/"),
		sender:  gomail.NewDialer(settings.Host, settings.Port, settings.Username, settings.Password),
	}
}

// NewNotifier picks the mail notifier when SMTP is configured and the log notifier otherwise.
func NewNotifier(settings MailSettings) Notifier {
	if strings.TrimSpace(settings.Host) == "" {
		return LogNotifier{}
	}
	return NewMailNotifier(settings)
}

// PostApproved tells the author their post is live.
func (n *MailNotifier) PostApproved(ctx context.Context, notice PostNotice) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your post <strong>%s</strong> has been approved and is now published.</p>
		<p><a href="%s">Visit the blog</a></p>
	`, html.EscapeString(notice.FirstName), html.EscapeString(notice.Title), n.siteURL)
	return n.send(ctx, notice.Email, "Your post has been published", body)
}

// PostRejected tells the author why their post was not accepted.
func (n *MailNotifier) PostRejected(ctx context.Context, notice PostNotice) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your post <strong>%s</strong> was not approved.</p>
		<p>Reason: %s</p>
		<p>You can revise it and submit it for review again.</p>
	`, html.EscapeString(notice.FirstName), html.EscapeString(notice.Title), html.EscapeString(notice.Reason))
	return n.send(ctx, notice.Email, "Your post needs changes", body)
}

func (n *MailNotifier) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// LogNotifier only logs; used when no SMTP server is configured.
type LogNotifier struct{}

// PostApproved logs the approval.
func (LogNotifier) PostApproved(_ context.Context, notice PostNotice) error {
	log.Info().Str("to", notice.Email).Str("title", notice.Title).Msg("post approved notification")
	return nil
}

// PostRejected logs the rejection.
func (LogNotifier) PostRejected(_ context.Context, notice PostNotice) error {
	log.Info().Str("to", notice.Email).Str("title", notice.Title).Str("reason", notice.Reason).Msg("post rejected notification")
	return nil
}
