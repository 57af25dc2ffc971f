package gmail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/api/gmail/v1"

	"github.com/vijay-prabhu/gmail-cli/internal/email"
)

// Provider implements the email.Provider interface for Gmail
type Provider struct {
	users     *gmail.UsersService
	userID    string
	pageSize  int64
	recursive bool
	log       zerolog.Logger
}

// Options configures a Provider
type Options struct {
	UserID         string // Defaults to "me"
	PageSize       int    // 0 leaves the page size to the server
	RecursiveParts bool   // Find attachments at any depth
	Logger         zerolog.Logger
}

// New creates a Gmail provider on top of an API client
func New(svc *gmail.Service, opts Options) *Provider {
	userID := opts.UserID
	if userID == "" {
		userID = "me"
	}
	return &Provider{
		users:     svc.Users,
		userID:    userID,
		pageSize:  int64(opts.PageSize),
		recursive: opts.RecursiveParts,
		log:       opts.Logger.With().Str("component", "gmail").Logger(),
	}
}

// NewFromSession creates a Gmail provider for an authenticated session
func NewFromSession(s *Session, opts Options) *Provider {
	return New(s.Service, opts)
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "gmail"
}

// ListLabels returns all labels in the user's mailbox
func (p *Provider) ListLabels(ctx context.Context) ([]email.Label, error) {
	p.log.Debug().Str("user_id", p.userID).Msg("users.labels.list")

	resp, err := p.users.Labels.List(p.userID).Context(ctx).Do()
	if err != nil {
		return nil, classify("list labels", err)
	}

	labels := make([]email.Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, convertLabel(l))
	}
	return labels, nil
}

// MessageIDs returns an iterator over the ids of matching messages. Each
// call starts a new listing.
func (p *Provider) MessageIDs(opts email.ListOptions) *email.IDIterator {
	return email.NewIDIterator(func(ctx context.Context, pageToken string) (email.Page, error) {
		call := p.users.Messages.List(p.userID)
		if len(opts.LabelIDs) > 0 {
			call = call.LabelIds(opts.LabelIDs...)
		}
		if opts.Query != "" {
			call = call.Q(opts.Query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		if p.pageSize > 0 {
			call = call.MaxResults(p.pageSize)
		}

		p.log.Debug().
			Strs("label_ids", opts.LabelIDs).
			Str("query", opts.Query).
			Str("page_token", pageToken).
			Msg("users.messages.list")

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return email.Page{}, classify("list messages", err)
		}

		page := email.Page{NextPageToken: resp.NextPageToken}
		for _, m := range resp.Messages {
			page.IDs = append(page.IDs, m.Id)
		}
		p.log.Trace().Int("count", len(page.IDs)).Str("next_page_token", page.NextPageToken).Msg("page")
		return page, nil
	})
}

// GetMessage retrieves a single message with its full payload
func (p *Provider) GetMessage(ctx context.Context, id string) (*email.Message, error) {
	p.log.Debug().Str("message_id", id).Msg("users.messages.get")

	msg, err := p.users.Messages.Get(p.userID, id).
		Format("full").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify(fmt.Sprintf("get message %s", id), err)
	}

	return convertMessage(msg), nil
}

// Attachments returns the downloadable attachments of a message
func (p *Provider) Attachments(ctx context.Context, id string) ([]email.Attachment, error) {
	msg, err := p.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	return email.ExtractAttachments(msg, email.ExtractOptions{
		Recursive: p.recursive,
		Logger:    p.log,
	}), nil
}

// AttachmentData fetches and decodes the content of an attachment
func (p *Provider) AttachmentData(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	if attachmentID == "" {
		return nil, fmt.Errorf("attachmentID is required")
	}

	p.log.Debug().Str("message_id", messageID).Str("attachment_id", attachmentID).Msg("users.messages.attachments.get")

	body, err := p.users.Messages.Attachments.Get(p.userID, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Sprintf("get attachment %s", attachmentID), err)
	}

	data, err := email.DecodeData(body.Data)
	if err != nil {
		return nil, fmt.Errorf("attachment %s of message %s: %w", attachmentID, messageID, err)
	}
	return data, nil
}

var _ email.Provider = (*Provider)(nil)
