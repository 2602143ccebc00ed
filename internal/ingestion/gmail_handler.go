package ingestion

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/gmailclient"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// GmailHandler fetches CV attachments from a Gmail mailbox
type GmailHandler struct {
	service *gmail.Service
	logger  *zap.Logger
}

// NewGmailHandler creates a read-only Gmail handler
func NewGmailHandler(ctx context.Context, opts gmailclient.Options, log *zap.Logger) (*GmailHandler, error) {
	opts.Scopes = []string{gmail.GmailReadonlyScope}
	srv, err := gmailclient.NewService(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &GmailHandler{
		service: srv,
		logger:  logger.OrNop(log),
	}, nil
}

// FetchDocuments downloads the supported attachments of messages matching the subject.
// Attachments are named after the sender and indexed in message order.
func (gh *GmailHandler) FetchDocuments(ctx context.Context, subject string) ([]models.Document, error) {
	user := "me"
	query := fmt.Sprintf("subject:%s has:attachment", subject)

	r, err := gh.service.Users.Messages.List(user).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	if len(r.Messages) == 0 {
		return nil, fmt.Errorf("no messages found with subject: %s", subject)
	}

	var docs []models.Document
	for _, msg := range r.Messages {
		message, err := gh.service.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			gh.logger.Warn("unable to retrieve message", zap.String("message_id", msg.Id), zap.Error(err))
			continue
		}

		sender := extractSenderName(message)

		for _, part := range message.Payload.Parts {
			if part.Filename == "" || part.Body == nil || part.Body.AttachmentId == "" {
				continue
			}

			attachment, err := gh.service.Users.Messages.Attachments.Get(user, msg.Id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				gh.logger.Warn("unable to retrieve attachment", zap.String("file", part.Filename), zap.Error(err))
				continue
			}

			data, err := base64.URLEncoding.DecodeString(attachment.Data)
			if err != nil {
				gh.logger.Warn("unable to decode attachment", zap.String("file", part.Filename), zap.Error(err))
				continue
			}

			format, ok := DetectFormat(part.Filename, data)
			if !ok {
				gh.logger.Debug("skipping unsupported attachment", zap.String("file", part.Filename))
				continue
			}

			name := fmt.Sprintf("%s_%s", sender, part.Filename)
			docs = append(docs, models.Document{
				Name:   name,
				Format: format,
				Data:   data,
				Index:  len(docs),
			})
			gh.logger.Info("downloaded attachment", zap.String(logger.FieldDocument, name))
		}
	}

	return docs, nil
}

// extractSenderName extracts the sender's name from email headers
func extractSenderName(message *gmail.Message) string {
	if message.Payload == nil {
		return "Unknown"
	}
	for _, header := range message.Payload.Headers {
		if header.Name == "From" {
			return senderFromHeader(header.Value)
		}
	}
	return "Unknown"
}

// senderFromHeader parses "Name <email@example.com>" and falls back to the mailbox name
func senderFromHeader(from string) string {
	if idx := strings.Index(from, "<"); idx > 0 {
		name := strings.Trim(strings.TrimSpace(from[:idx]), `"`)
		return strings.ReplaceAll(name, " ", "")
	}
	from = strings.TrimPrefix(strings.TrimSpace(from), "<")
	if idx := strings.Index(from, "@"); idx > 0 {
		return from[:idx]
	}
	return "Unknown"
}
