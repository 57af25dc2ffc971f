// Package download saves message attachments to the local download directory
package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vijay-prabhu/gmail-cli/internal/email"
)

// Service downloads the attachments of messages whose MIME type is accepted
type Service struct {
	provider  email.Provider
	dir       string
	mimeTypes []string
	out       io.Writer
	log       zerolog.Logger
}

// Options configures a Service
type Options struct {
	Dir string
	// MimeTypes lists accepted types; entries ending in "/" match a prefix
	MimeTypes []string
	Out       io.Writer // Receives "Downloading <path>" lines
	Logger    zerolog.Logger
}

// Result summarizes the downloads of one or more messages
type Result struct {
	Saved   []string       `json:"saved"`             // Paths written
	Unknown map[string]int `json:"unknown,omitempty"` // Skipped MIME types and how often they occurred
}

// NewService creates a download service with dependencies injected
func NewService(p email.Provider, opts Options) *Service {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Service{
		provider:  p,
		dir:       opts.Dir,
		mimeTypes: opts.MimeTypes,
		out:       out,
		log:       opts.Logger.With().Str("component", "download").Logger(),
	}
}

// Accepts reports whether attachments of mimeType are downloaded
func (s *Service) Accepts(mimeType string) bool {
	for _, m := range s.mimeTypes {
		if strings.HasSuffix(m, "/") {
			if strings.HasPrefix(mimeType, m) {
				return true
			}
			continue
		}
		if mimeType == m {
			return true
		}
	}
	return false
}

// Message downloads the accepted attachments of one message into the
// download directory and adds them to res. Files of the same name are
// overwritten.
func (s *Service) Message(ctx context.Context, msgID string, res *Result) error {
	attachments, err := s.provider.Attachments(ctx, msgID)
	if err != nil {
		return err
	}

	for _, att := range attachments {
		log := s.log.With().
			Str("message_id", msgID).
			Str("mime_type", att.MimeType).
			Str("filename", att.Filename).
			Logger()

		if !s.Accepts(att.MimeType) {
			log.Debug().Msg("skipping unaccepted mimeType")
			if res.Unknown == nil {
				res.Unknown = make(map[string]int)
			}
			res.Unknown[att.MimeType]++
			continue
		}

		path := filepath.Join(s.dir, att.LocalName)
		fmt.Fprintln(s.out, "Downloading", path)

		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return fmt.Errorf("failed to create download directory: %w", err)
		}

		data, err := s.provider.AttachmentData(ctx, msgID, att.AttachmentID)
		if err != nil {
			return err
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		log.Info().Str("path", path).Int("bytes", len(data)).Msg("saved attachment")
		res.Saved = append(res.Saved, path)
	}

	return nil
}

// ReportUnknown prints how many attachments of each skipped MIME type were
// seen, in type order
func ReportUnknown(w io.Writer, unknown map[string]int) {
	types := make([]string, 0, len(unknown))
	for t := range unknown {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		fmt.Fprintf(w, "unknown mimeType %5d %s\n", unknown[t], t)
	}
}
