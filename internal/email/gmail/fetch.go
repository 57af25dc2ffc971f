package gmail

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/vijay-prabhu/gmail-cli/internal/email"
)

// convertMessage converts a Gmail message to our Message type
func convertMessage(msg *gmail.Message) *email.Message {
	m := &email.Message{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIds,
	}

	if msg.InternalDate != 0 {
		m.InternalDate = time.UnixMilli(msg.InternalDate)
	}

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			m.Headers = append(m.Headers, email.Header{Name: h.Name, Value: h.Value})
		}
		m.Payload = convertPart(msg.Payload)
	}

	return m
}

// convertPart recursively converts a payload tree
func convertPart(part *gmail.MessagePart) *email.Part {
	if part == nil {
		return nil
	}

	p := &email.Part{
		PartID:   part.PartId,
		MimeType: part.MimeType,
		Filename: part.Filename,
	}

	if part.Body != nil {
		p.Body = &email.PartBody{
			AttachmentID: part.Body.AttachmentId,
			Size:         part.Body.Size,
			Data:         part.Body.Data,
		}
	}

	for _, sub := range part.Parts {
		if c := convertPart(sub); c != nil {
			p.Parts = append(p.Parts, c)
		}
	}

	return p
}

// convertLabel converts a Gmail label
func convertLabel(l *gmail.Label) email.Label {
	return email.Label{
		ID:             l.Id,
		Name:           l.Name,
		Type:           l.Type,
		MessagesTotal:  l.MessagesTotal,
		MessagesUnread: l.MessagesUnread,
	}
}

// classify maps an API error onto the email error taxonomy
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %w", op, email.ErrNotFound, err)
	}
	return &email.TransportError{Op: op, Err: err}
}
