package gmail

import (
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// Message is the part of a Gmail message the fetch workflow needs.
type Message struct {
	ID      string
	From    string
	Subject string
	Date    string
	// Attachments lists every part with a filename and attachment ID.
	Attachments []Attachment
}

// SenderEmail returns the bare address of the From header.
func (m *Message) SenderEmail() string {
	return ExtractEmail(m.From)
}

// Attachment is an attachment part of a message.
type Attachment struct {
	MessageID    string
	PartID       string
	AttachmentID string
	Filename     string
	MimeType     string
	Size         int64
}

func convertMessage(msg *gmail.Message) *Message {
	m := &Message{
		ID:      msg.Id,
		From:    "Unknown",
		Subject: "(No Subject)",
	}
	if msg.Payload == nil {
		return m
	}
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			m.From = h.Value
		case "subject":
			m.Subject = h.Value
		case "date":
			m.Date = h.Value
		}
	}
	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Filename != "" && part.Body != nil && part.Body.AttachmentId != "" {
			m.Attachments = append(m.Attachments, Attachment{
				MessageID:    msg.Id,
				PartID:       part.PartId,
				AttachmentID: part.Body.AttachmentId,
				Filename:     part.Filename,
				MimeType:     part.MimeType,
				Size:         part.Body.Size,
			})
		}
	})
	return m
}

// walkParts visits part and all nested parts depth first.
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, sub := range part.Parts {
		walkParts(sub, fn)
	}
}
