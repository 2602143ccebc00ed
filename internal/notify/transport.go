package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"gopkg.in/gomail.v2"
)

// SMTPTransport sends mail through an SMTP server using STARTTLS and sender credentials
type SMTPTransport struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPTransport creates a transport for the given server and sender
func NewSMTPTransport(host string, port int, sender, password string) *SMTPTransport {
	return &SMTPTransport{
		dialer: gomail.NewDialer(host, port, sender, password),
		from:   sender,
	}
}

// Send delivers a plain text message. gomail has no context support, so ctx is only
// checked before dialing.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.dialer.DialAndSend(newMail(t.from, msg)); err != nil {
		return fmt.Errorf("smtp: %w", err)
	}
	return nil
}

func newMail(from string, msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}

// GmailTransport sends mail through the Gmail API as the authorized user
type GmailTransport struct {
	service *gmail.Service
	from    string
}

// NewGmailTransport wraps an authorized Gmail service
func NewGmailTransport(service *gmail.Service, from string) *GmailTransport {
	return &GmailTransport{service: service, from: from}
}

// Send delivers the message as a raw RFC 2822 mail
func (t *GmailTransport) Send(ctx context.Context, msg Message) error {
	raw, err := rawMessage(t.from, msg)
	if err != nil {
		return err
	}

	_, err = t.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail: %w", err)
	}
	return nil
}

// rawMessage encodes the mail the way the Gmail API expects it
func rawMessage(from string, msg Message) (string, error) {
	var buf bytes.Buffer
	m := newMail(from, msg)
	if from == "" {
		m.SetHeader("From", "me")
	}
	if _, err := m.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// Publisher publishes a JSON document to a broker
type Publisher interface {
	PublishJSON(ctx context.Context, data any) error
}

// QueueTransport hands invitations to a message broker for delivery by another service
type QueueTransport struct {
	publisher Publisher
}

// NewQueueTransport creates a transport that publishes every message
func NewQueueTransport(p Publisher) *QueueTransport {
	return &QueueTransport{publisher: p}
}

// Send publishes the message as JSON
func (t *QueueTransport) Send(ctx context.Context, msg Message) error {
	if err := t.publisher.PublishJSON(ctx, msg); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	return nil
}
