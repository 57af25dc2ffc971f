package email

import (
	"strings"
	"time"
)

// Label represents a mailbox label
type Label struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type,omitempty"`           // "system" or "user"
	MessagesTotal  int64  `json:"messagesTotal,omitempty"`  // Only set when the provider reports it
	MessagesUnread int64  `json:"messagesUnread,omitempty"` // Only set when the provider reports it
}

// Header is a single message header. Names are not unique within a message.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message represents a provider-agnostic email message
type Message struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"threadId,omitempty"`
	InternalDate time.Time `json:"internalDate"`
	Snippet      string    `json:"snippet,omitempty"`
	LabelIDs     []string  `json:"labelIds,omitempty"`
	Headers      []Header  `json:"headers,omitempty"`
	Payload      *Part     `json:"payload,omitempty"`
}

// Part is a node of the message payload tree
type Part struct {
	PartID   string    `json:"partId,omitempty"`
	MimeType string    `json:"mimeType,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Body     *PartBody `json:"body,omitempty"`
	Parts    []*Part   `json:"parts,omitempty"`
}

// PartBody references the content of a part, inline or by attachment id
type PartBody struct {
	AttachmentID string `json:"attachmentId,omitempty"`
	Size         int64  `json:"size,omitempty"`
	Data         string `json:"data,omitempty"`
}

// Attachment describes a downloadable part of a message
type Attachment struct {
	MessageID    string `json:"messageId"`
	AttachmentID string `json:"attachmentId"`
	MimeType     string `json:"mimeType"`
	Filename     string `json:"filename"`  // As named by the sender
	LocalName    string `json:"localName"` // Filename with the message id inserted
	Size         int64  `json:"size,omitempty"`
}

// Header returns the value of the first header called name.
// The comparison ignores case.
func (m *Message) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Subject returns the Subject header
func (m *Message) Subject() string {
	return m.Header("Subject")
}

// From returns the From header
func (m *Message) From() string {
	return m.Header("From")
}

// HasLabel checks if the message carries the given label
func (m *Message) HasLabel(label string) bool {
	for _, l := range m.LabelIDs {
		if l == label {
			return true
		}
	}
	return false
}

// Address represents an email address with optional name
type Address struct {
	Name  string
	Email string
}

// String returns the formatted address
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// ParseAddress parses an email address string like "Name <email@example.com>"
func ParseAddress(s string) Address {
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "<"); start != -1 {
		if end := strings.Index(s, ">"); end > start {
			return Address{
				Name:  strings.Trim(strings.TrimSpace(s[:start]), `"`),
				Email: strings.TrimSpace(s[start+1 : end]),
			}
		}
	}

	return Address{Email: s}
}
