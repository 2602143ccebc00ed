// Package notify renders interview invitations and hands them to a message transport.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// ErrNoEmail is reported for recipients without an email address
var ErrNoEmail = errors.New("recipient has no email address")

// Template is an invitation with {name}, {date} and {time} placeholders
type Template struct {
	Subject string
	Body    string
}

// Render substitutes the placeholders in subject and body
func (t Template) Render(name, date, time string) (subject, body string) {
	r := strings.NewReplacer("{name}", name, "{date}", date, "{time}", time)
	return r.Replace(t.Subject), r.Replace(t.Body)
}

// Message is one rendered invitation
type Message struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Transport delivers a single message
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Recipient is a candidate to invite
type Recipient struct {
	Name  string
	Email string
}

// RecipientsFrom returns the (name, email) pairs of a snapshot in ranking order
func RecipientsFrom(s models.Snapshot) []Recipient {
	out := make([]Recipient, 0, len(s.Records))
	for _, r := range s.Records {
		out = append(out, Recipient{Name: r.DisplayName(), Email: models.StringValue(r.Profile.Email)})
	}
	return out
}

// Failure records why a recipient could not be invited
type Failure struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Error string `json:"error"`
}

// Summary reports the outcome of an invitation run
type Summary struct {
	Sent   int       `json:"sent"`
	Failed []Failure `json:"failed"`
}

// FailedNames lists the names of the recipients that were not invited
func (s Summary) FailedNames() []string {
	names := make([]string, 0, len(s.Failed))
	for _, f := range s.Failed {
		names = append(names, f.Name)
	}
	return names
}

// Dispatcher sends invitations to many recipients.
// A failure for one recipient never stops the others.
type Dispatcher struct {
	transport Transport
	template  Template
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(transport Transport, template Template, log *zap.Logger) *Dispatcher {
	return &Dispatcher{transport: transport, template: template, logger: logger.OrNop(log)}
}

// Invite renders and sends one invitation per recipient
func (d *Dispatcher) Invite(ctx context.Context, recipients []Recipient, date, time string) Summary {
	summary := Summary{Failed: []Failure{}}

	for _, rcpt := range recipients {
		log := d.logger.With(zap.String("name", rcpt.Name), zap.String("email", rcpt.Email))

		if err := ctx.Err(); err != nil {
			summary.Failed = append(summary.Failed, Failure{Name: rcpt.Name, Email: rcpt.Email, Error: err.Error()})
			continue
		}

		if strings.TrimSpace(rcpt.Email) == "" {
			log.Warn("skipping invitation", zap.Error(ErrNoEmail))
			summary.Failed = append(summary.Failed, Failure{Name: rcpt.Name, Error: ErrNoEmail.Error()})
			continue
		}

		subject, body := d.template.Render(rcpt.Name, date, time)
		msg := Message{To: rcpt.Email, Name: rcpt.Name, Subject: subject, Body: body}

		if err := d.transport.Send(ctx, msg); err != nil {
			log.Warn("invitation failed", zap.Error(err))
			summary.Failed = append(summary.Failed, Failure{
				Name:  rcpt.Name,
				Email: rcpt.Email,
				Error: fmt.Sprintf("send: %v", err),
			})
			continue
		}

		log.Info("invitation sent")
		summary.Sent++
	}

	return summary
}
