// Package emailtest provides an in-memory email.Provider for tests
package emailtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vijay-prabhu/gmail-cli/internal/email"
)

// Provider serves labels, messages and attachment data from memory.
// Listings page through the matching ids PageSize at a time.
type Provider struct {
	Labels   []email.Label
	Messages []*email.Message // In listing order
	Data     map[string][]byte
	PageSize int // Defaults to 2

	// ListErr, when set, fails the listing page with this index (0-based)
	ListErr     error
	ListErrPage int

	mu       sync.Mutex
	Listings []email.ListOptions // Every listing that fetched its first page
	Pages    int                 // Pages served across all listings
}

// New creates an empty fake provider
func New() *Provider {
	return &Provider{Data: make(map[string][]byte)}
}

// AddAttachment registers a leaf part on msg and its content
func (p *Provider) AddAttachment(msg *email.Message, attID, mimeType, filename string, data []byte) {
	if msg.Payload == nil {
		msg.Payload = &email.Part{MimeType: "multipart/mixed"}
	}
	msg.Payload.Parts = append(msg.Payload.Parts, &email.Part{
		MimeType: mimeType,
		Filename: filename,
		Body:     &email.PartBody{AttachmentID: attID, Size: int64(len(data))},
	})
	p.Data[msg.ID+"/"+attID] = data
}

func (p *Provider) Name() string { return "fake" }

func (p *Provider) ListLabels(ctx context.Context) ([]email.Label, error) {
	return p.Labels, nil
}

func (p *Provider) MessageIDs(opts email.ListOptions) *email.IDIterator {
	var ids []string
	for _, m := range p.Messages {
		if matches(m, opts) {
			ids = append(ids, m.ID)
		}
	}

	size := p.PageSize
	if size <= 0 {
		size = 2
	}

	return email.NewIDIterator(func(ctx context.Context, token string) (email.Page, error) {
		page := 0
		if token != "" {
			fmt.Sscanf(token, "page-%d", &page)
		}

		p.mu.Lock()
		if page == 0 {
			p.Listings = append(p.Listings, opts)
		}
		p.Pages++
		p.mu.Unlock()

		if p.ListErr != nil && page == p.ListErrPage {
			return email.Page{}, p.ListErr
		}

		start := page * size
		end := min(start+size, len(ids))
		res := email.Page{IDs: ids[min(start, len(ids)):end]}
		if end < len(ids) {
			res.NextPageToken = fmt.Sprintf("page-%d", page+1)
		}
		return res, nil
	})
}

// matches applies label filters and "has:attachment" queries
func matches(m *email.Message, opts email.ListOptions) bool {
	for _, l := range opts.LabelIDs {
		if !m.HasLabel(l) {
			return false
		}
	}
	if strings.Contains(opts.Query, "has:attachment") {
		return len(email.ExtractAttachments(m, email.ExtractOptions{})) > 0
	}
	return true
}

func (p *Provider) GetMessage(ctx context.Context, id string) (*email.Message, error) {
	for _, m := range p.Messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("get message %s: %w", id, email.ErrNotFound)
}

func (p *Provider) Attachments(ctx context.Context, id string) ([]email.Attachment, error) {
	msg, err := p.GetMessage(ctx, id)
	if err != nil {
		return nil, err
	}
	return email.ExtractAttachments(msg, email.ExtractOptions{}), nil
}

func (p *Provider) AttachmentData(ctx context.Context, msgID, attID string) ([]byte, error) {
	data, ok := p.Data[msgID+"/"+attID]
	if !ok {
		return nil, fmt.Errorf("get attachment %s: %w", attID, email.ErrNotFound)
	}
	return data, nil
}

var _ email.Provider = (*Provider)(nil)
