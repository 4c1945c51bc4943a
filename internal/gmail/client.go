package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/grnsync/internal/instrumentation"
)

const (
	// MaxAttachmentSize is the largest attachment downloaded (25MB, the
	// Gmail limit).
	MaxAttachmentSize = 25 * 1024 * 1024

	me = "me"
)

// Config configures a Client.
type Config struct {
	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Client wraps the Gmail Users service.
type Client struct {
	svc     *gmail.UsersService
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewClient creates a Gmail client. Pass option.WithHTTPClient with an
// authorized client in production.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{svc: svc.Users, metrics: cfg.Metrics, logger: logger}, nil
}

// Search returns the IDs of messages matching query, newest first, up to
// maxResults.
func (c *Client) Search(ctx context.Context, query string, maxResults int64) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		call := c.svc.Messages.List(me).Q(query)
		if maxResults > 0 {
			call = call.MaxResults(min(maxResults-int64(len(ids)), 500))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var resp *gmail.ListMessagesResponse
		err := instrumentation.TrackGoogleCall(ctx, c.metrics, instrumentation.ServiceGmail, instrumentation.OperationSearch,
			func(ctx context.Context) error {
				var err error
				resp, err = call.Context(ctx).Do()
				return err
			})
		if err != nil {
			return nil, fmt.Errorf("failed to search messages: %w", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" || (maxResults > 0 && int64(len(ids)) >= maxResults) {
			break
		}
		pageToken = resp.NextPageToken
	}
	return ids, nil
}

// GetMessage retrieves a full message with its headers and attachment
// parts.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	var msg *gmail.Message
	err := instrumentation.TrackGoogleCall(ctx, c.metrics, instrumentation.ServiceGmail, instrumentation.OperationGet,
		func(ctx context.Context) error {
			var err error
			msg, err = c.svc.Messages.Get(me, messageID).Format("full").Context(ctx).Do()
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, err)
	}
	return convertMessage(msg), nil
}

// GetAttachment downloads and decodes an attachment.
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	if attachmentID == "" {
		return nil, fmt.Errorf("attachmentID is required")
	}

	var body *gmail.MessagePartBody
	err := instrumentation.TrackGoogleCall(ctx, c.metrics, instrumentation.ServiceGmail, instrumentation.OperationDownload,
		func(ctx context.Context) error {
			var err error
			body, err = c.svc.Messages.Attachments.Get(me, messageID, attachmentID).Context(ctx).Do()
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %s: %w", attachmentID, err)
	}
	if body.Size > MaxAttachmentSize {
		return nil, fmt.Errorf("attachment size %d exceeds maximum size %d", body.Size, MaxAttachmentSize)
	}
	return decodeBase64(body.Data)
}

// decodeBase64 decodes Gmail's base64url payloads, with or without padding.
func decodeBase64(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		if data, err := enc.DecodeString(s); err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("failed to decode attachment data")
}
