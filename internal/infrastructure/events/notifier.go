package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/pkg/mailer"
)

// ErrMalformedEvent marks a message that can never be processed.
var ErrMalformedEvent = errors.New("malformed account event")

// Sender is implemented by mailer.Mailgun.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Notifier emails account owners about account events.
type Notifier struct {
	Mail    Sender
	AppName string
	Logger  *logrus.Logger
	// Sent is optional; without it a redelivery mails every recipient again.
	Sent SentLog
}

func NewNotifier(mail Sender, appName string, logger *logrus.Logger) *Notifier {
	return &Notifier{Mail: mail, AppName: appName, Logger: logger}
}

// Handle decodes one queue message and sends the matching notice. When an
// email address changed, the previous address is told as well. Each recipient
// is tried independently; msgID keys the sent log.
func (n *Notifier) Handle(ctx context.Context, msgID string, body []byte) error {
	var ev application.AccountEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.AccountID == "" || ev.Email == "" {
		return fmt.Errorf("%w: missing account id or email", ErrMalformedEvent)
	}

	data := mailer.NoticeData{
		AppName: n.AppName,
		Name:    ev.Name,
		Email:   ev.Email,
		Changed: ev.Changed,
		Time:    ev.OccurredAt.UTC().Format(time.RFC1123),
	}

	switch ev.Type {
	case application.EventAccountCreated:
		return n.send(ctx, msgID, mailer.Welcome, data, ev.Email)
	case application.EventAccountUpdated:
		if len(ev.Changed) == 0 {
			return nil
		}
		to := []string{ev.Email}
		if ev.PrevEmail != "" {
			to = append(to, ev.PrevEmail)
		}
		return n.send(ctx, msgID, mailer.AccountChanged, data, to...)
	default:
		if n.Logger != nil {
			n.Logger.WithField("type", ev.Type).Debug("ignoring account event")
		}
		return nil
	}
}

func (n *Notifier) send(ctx context.Context, msgID, kind string, data mailer.NoticeData, to ...string) error {
	subject, text, html, err := mailer.Render(kind, data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	var errs []error
	for _, addr := range to {
		key := msgID + ":" + addr
		if n.alreadySent(ctx, msgID, key) {
			continue
		}
		if err := n.Mail.Send(ctx, addr, subject, text, html); err != nil {
			errs = append(errs, fmt.Errorf("send %s to %s: %w", kind, addr, err))
			continue
		}
		if n.Sent != nil && msgID != "" {
			if err := n.Sent.Mark(ctx, key); err != nil && n.Logger != nil {
				n.Logger.WithError(err).WithField("message_id", msgID).Warn("record sent notice failed")
			}
		}
	}
	return errors.Join(errs...)
}

// alreadySent errs toward sending: a log failure may duplicate a notice but
// never drops one.
func (n *Notifier) alreadySent(ctx context.Context, msgID, key string) bool {
	if n.Sent == nil || msgID == "" {
		return false
	}
	seen, err := n.Sent.Seen(ctx, key)
	if err != nil {
		if n.Logger != nil {
			n.Logger.WithError(err).WithField("message_id", msgID).Warn("sent log lookup failed")
		}
		return false
	}
	return seen
}
