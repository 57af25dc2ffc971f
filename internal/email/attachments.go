package email

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// FlattenParts lifts the children of nested parts one level up.
//
// A part without children is kept as is; a part with children is replaced
// by its children. Grandchildren are not expanded, so attachments nested
// deeper than two levels are not found. Use FlattenPartsRecursive for a full
// walk.
func FlattenParts(parts []*Part) []*Part {
	var all []*Part
	for _, part := range parts {
		if part == nil {
			continue
		}
		if len(part.Parts) > 0 {
			for _, child := range part.Parts {
				if child != nil {
					all = append(all, child)
				}
			}
		} else {
			all = append(all, part)
		}
	}
	return all
}

// FlattenPartsRecursive returns every leaf part of the tree in depth-first
// order
func FlattenPartsRecursive(parts []*Part) []*Part {
	var all []*Part
	for _, part := range parts {
		if part == nil {
			continue
		}
		if len(part.Parts) > 0 {
			all = append(all, FlattenPartsRecursive(part.Parts)...)
		} else {
			all = append(all, part)
		}
	}
	return all
}

// ExtractOptions controls ExtractAttachments
type ExtractOptions struct {
	Recursive bool // Walk the whole part tree instead of one level
	Logger    zerolog.Logger
}

// ExtractAttachments returns the attachments of msg. Parts missing a
// mimeType, filename, body or attachment id are skipped.
func ExtractAttachments(msg *Message, opts ExtractOptions) []Attachment {
	log := opts.Logger
	if msg.Payload == nil {
		log.Debug().Str("message_id", msg.ID).Msg("no payload")
		return nil
	}
	if len(msg.Payload.Parts) == 0 {
		log.Debug().Str("message_id", msg.ID).Msg("no parts")
		return nil
	}

	parts := FlattenParts(msg.Payload.Parts)
	if opts.Recursive {
		parts = FlattenPartsRecursive(msg.Payload.Parts)
	}

	var attachments []Attachment
	for _, part := range parts {
		var attachmentID string
		if part.Body != nil {
			attachmentID = part.Body.AttachmentID
		}

		ev := log.Debug().
			Str("message_id", msg.ID).
			Str("mime_type", part.MimeType).
			Str("filename", part.Filename).
			Str("attachment_id", attachmentID)

		switch {
		case part.MimeType == "":
			ev.Msg("skipping part: missing mimeType")
			continue
		case part.Filename == "":
			ev.Msg("skipping part: missing filename")
			continue
		case part.Body == nil:
			ev.Msg("skipping part: missing body")
			continue
		case attachmentID == "":
			ev.Msg("skipping part: missing attachmentId")
			continue
		}
		ev.Msg("attachment part")

		attachments = append(attachments, Attachment{
			MessageID:    msg.ID,
			AttachmentID: attachmentID,
			MimeType:     part.MimeType,
			Filename:     part.Filename,
			LocalName:    LocalName(part.Filename, msg.ID),
			Size:         part.Body.Size,
		})
	}

	return attachments
}

// LocalName inserts the message id before the extension of filename, so
// that same-named attachments of different messages do not collide:
// "report.pdf" in message "18c2" becomes "report-18c2.pdf".
func LocalName(filename, messageID string) string {
	name := SanitizeFilename(filename)
	base, ext := splitExt(name)
	return base + "-" + messageID + ext
}

// splitExt splits name at its last dot. Leading dots are part of the base,
// so ".profile" has no extension.
func splitExt(name string) (string, string) {
	trimmed := strings.TrimLeft(name, ".")
	ext := filepath.Ext(trimmed)
	return name[:len(name)-len(ext)], ext
}

// SanitizeFilename strips path separators so a sender-chosen filename
// cannot escape the download directory
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	if filename == "." || filename == ".." {
		return "_"
	}
	return filename
}

var urlSafeToStd = strings.NewReplacer("-", "+", "_", "/")

// DecodeData decodes attachment data in the URL-safe base64 alphabet.
// Padding is optional.
func DecodeData(data string) ([]byte, error) {
	std := urlSafeToStd.Replace(data)
	decoded, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(std, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return decoded, nil
}
