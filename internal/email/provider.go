package email

import (
	"context"
)

// Provider defines the interface for mailbox providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// ListLabels returns every label in the mailbox, fetched fresh
	ListLabels(ctx context.Context) ([]Label, error)

	// MessageIDs returns a new iterator over the ids matching opts
	MessageIDs(opts ListOptions) *IDIterator

	// GetMessage retrieves a single message by ID
	GetMessage(ctx context.Context, id string) (*Message, error)

	// Attachments returns the downloadable attachments of a message
	Attachments(ctx context.Context, id string) ([]Attachment, error)

	// AttachmentData returns the decoded bytes of one attachment
	AttachmentData(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// ListOptions configures message listing
type ListOptions struct {
	LabelIDs []string // Only messages carrying all of these labels
	Query    string   // Provider-specific search query
}

// DefaultLabelIDs returns the labels searched when none are given
func DefaultLabelIDs() []string {
	return []string{"INBOX"}
}
