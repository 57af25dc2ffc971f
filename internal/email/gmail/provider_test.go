package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/vijay-prabhu/gmail-cli/internal/email"
)

// fakeGmail serves the subset of the Gmail REST API the provider uses
type fakeGmail struct {
	mu       sync.Mutex
	requests []*http.Request

	labels      []*gmail.Label
	pages       map[string]*gmail.ListMessagesResponse // By page token
	failOnToken string
	messages    map[string]*gmail.Message
	attachments map[string]*gmail.MessagePartBody // By "msgID/attID"
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/gmail/v1/users/me/")
	parts := strings.Split(path, "/")

	switch {
	case path == "labels":
		writeJSON(w, &gmail.ListLabelsResponse{Labels: f.labels})

	case path == "messages":
		token := r.URL.Query().Get("pageToken")
		if f.failOnToken != "" && token == f.failOnToken {
			writeError(w, http.StatusForbidden, "rate limited")
			return
		}
		page, ok := f.pages[token]
		if !ok {
			writeError(w, http.StatusBadRequest, "bad page token")
			return
		}
		writeJSON(w, page)

	case len(parts) == 2 && parts[0] == "messages":
		msg, ok := f.messages[parts[1]]
		if !ok {
			writeError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		writeJSON(w, msg)

	case len(parts) == 4 && parts[0] == "messages" && parts[2] == "attachments":
		body, ok := f.attachments[parts[1]+"/"+parts[3]]
		if !ok {
			writeError(w, http.StatusNotFound, "Requested entity was not found.")
			return
		}
		writeJSON(w, body)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGmail) queries() []map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string][]string
	for _, r := range f.requests {
		out = append(out, r.URL.Query())
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func newTestProvider(t *testing.T, fake *fakeGmail, opts Options) *Provider {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gmail.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	opts.Logger = zerolog.Nop()
	return New(svc, opts)
}

func ids(ss ...string) []*gmail.Message {
	out := make([]*gmail.Message, len(ss))
	for i, s := range ss {
		out[i] = &gmail.Message{Id: s, ThreadId: "t-" + s}
	}
	return out
}

func TestProvider_ListLabels(t *testing.T) {
	fake := &fakeGmail{labels: []*gmail.Label{
		{Id: "INBOX", Name: "INBOX", Type: "system", MessagesTotal: 42},
		{Id: "Label_1", Name: "Receipts", Type: "user"},
	}}
	p := newTestProvider(t, fake, Options{})

	labels, err := p.ListLabels(context.Background())
	require.NoError(t, err)

	require.Len(t, labels, 2)
	assert.Equal(t, email.Label{ID: "INBOX", Name: "INBOX", Type: "system", MessagesTotal: 42}, labels[0])
	assert.Equal(t, "Receipts", labels[1].Name)
}

func TestProvider_MessageIDs_FollowsPages(t *testing.T) {
	fake := &fakeGmail{pages: map[string]*gmail.ListMessagesResponse{
		"":   {Messages: ids("a1", "a2"), NextPageToken: "t1"},
		"t1": {Messages: ids("b1", "b2"), NextPageToken: "t2"},
		"t2": {Messages: ids("c1")},
	}}
	p := newTestProvider(t, fake, Options{PageSize: 2})

	got, err := p.MessageIDs(email.ListOptions{
		LabelIDs: []string{"INBOX"},
		Query:    "has:attachment",
	}).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2", "b1", "b2", "c1"}, got)

	qs := fake.queries()
	require.Len(t, qs, 3, "no request after the final page")
	assert.Empty(t, qs[0]["pageToken"])
	assert.Equal(t, []string{"t1"}, qs[1]["pageToken"])
	assert.Equal(t, []string{"t2"}, qs[2]["pageToken"])
	for _, q := range qs {
		assert.Equal(t, []string{"INBOX"}, q["labelIds"])
		assert.Equal(t, []string{"has:attachment"}, q["q"])
		assert.Equal(t, []string{"2"}, q["maxResults"])
	}
}

func TestProvider_MessageIDs_PageFailure(t *testing.T) {
	fake := &fakeGmail{
		pages: map[string]*gmail.ListMessagesResponse{
			"": {Messages: ids("a1", "a2"), NextPageToken: "t1"},
		},
		failOnToken: "t1",
	}
	p := newTestProvider(t, fake, Options{})

	got, err := p.MessageIDs(email.ListOptions{}).Collect(context.Background())

	assert.Equal(t, []string{"a1", "a2"}, got)
	var te *email.TransportError
	require.True(t, errors.As(err, &te), "got %v", err)
	assert.Equal(t, "list messages", te.Op)
}

func TestProvider_MessageIDs_Empty(t *testing.T) {
	fake := &fakeGmail{pages: map[string]*gmail.ListMessagesResponse{"": {}}}
	p := newTestProvider(t, fake, Options{})

	n, err := p.MessageIDs(email.ListOptions{LabelIDs: []string{"SPAM"}}).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func sampleMessage() *gmail.Message {
	return &gmail.Message{
		Id:           "m1",
		ThreadId:     "t1",
		Snippet:      "see attached",
		LabelIds:     []string{"INBOX", "UNREAD"},
		InternalDate: 1709294400000,
		Payload: &gmail.MessagePart{
			MimeType: "multipart/mixed",
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Quarterly report"},
				{Name: "From", Value: `"Ann Example" <ann@example.com>`},
			},
			Parts: []*gmail.MessagePart{
				{PartId: "0", MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: "aGk", Size: 2}},
				{PartId: "1", MimeType: "application/pdf", Filename: "report.pdf",
					Body: &gmail.MessagePartBody{AttachmentId: "att-1", Size: 11}},
				{PartId: "2", MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{
					{PartId: "2.0", MimeType: "multipart/related", Parts: []*gmail.MessagePart{
						{PartId: "2.0.0", MimeType: "image/png", Filename: "nested.png",
							Body: &gmail.MessagePartBody{AttachmentId: "att-2", Size: 5}},
					}},
				}},
			},
		},
	}
}

func TestProvider_GetMessage(t *testing.T) {
	fake := &fakeGmail{messages: map[string]*gmail.Message{"m1": sampleMessage()}}
	p := newTestProvider(t, fake, Options{})

	msg, err := p.GetMessage(context.Background(), "m1")
	require.NoError(t, err)

	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "Quarterly report", msg.Subject())
	assert.Equal(t, time.UnixMilli(1709294400000), msg.InternalDate)
	assert.True(t, msg.HasLabel("UNREAD"))
	require.NotNil(t, msg.Payload)
	assert.Len(t, msg.Payload.Parts, 3)
	assert.Equal(t, []string{"full"}, fake.queries()[0]["format"])
}

func TestProvider_GetMessage_NotFound(t *testing.T) {
	p := newTestProvider(t, &fakeGmail{}, Options{})

	_, err := p.GetMessage(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, email.ErrNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestProvider_Attachments(t *testing.T) {
	fake := &fakeGmail{messages: map[string]*gmail.Message{"m1": sampleMessage()}}

	t.Run("top level only", func(t *testing.T) {
		p := newTestProvider(t, fake, Options{})
		atts, err := p.Attachments(context.Background(), "m1")
		require.NoError(t, err)

		require.Len(t, atts, 1)
		assert.Equal(t, email.Attachment{
			MessageID:    "m1",
			AttachmentID: "att-1",
			MimeType:     "application/pdf",
			Filename:     "report.pdf",
			LocalName:    "report-m1.pdf",
			Size:         11,
		}, atts[0])
	})

	t.Run("recursive", func(t *testing.T) {
		p := newTestProvider(t, fake, Options{RecursiveParts: true})
		atts, err := p.Attachments(context.Background(), "m1")
		require.NoError(t, err)

		require.Len(t, atts, 2)
		assert.Equal(t, "nested-m1.png", atts[1].LocalName)
	})
}

func TestProvider_AttachmentData(t *testing.T) {
	fake := &fakeGmail{attachments: map[string]*gmail.MessagePartBody{
		"m1/att-1": {Data: "SGVsbG8-V29ybGQ_", Size: 11},
		"m1/bad":   {Data: "!!!not base64!!!"},
	}}
	p := newTestProvider(t, fake, Options{})

	data, err := p.AttachmentData(context.Background(), "m1", "att-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello>World?"), data)

	_, err = p.AttachmentData(context.Background(), "m1", "bad")
	assert.ErrorIs(t, err, email.ErrDecode)

	_, err = p.AttachmentData(context.Background(), "m1", "gone")
	assert.ErrorIs(t, err, email.ErrNotFound)

	_, err = p.AttachmentData(context.Background(), "", "att-1")
	assert.Error(t, err)
}
