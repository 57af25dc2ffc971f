package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/gmail-cli/internal/email"
)

// LabelRow is one line of the labels listing
type LabelRow struct {
	Index int         `json:"index"` // 1-based
	Total int         `json:"total"`
	Label email.Label `json:"label"`
	Count *int        `json:"count,omitempty"` // Set when message counts were requested
}

// LabelLine prints a label the way the labels command lists it
func LabelLine(w io.Writer, r LabelRow) {
	if r.Count != nil {
		fmt.Fprintf(w, "Label %3d of %3d: %7d msgs id %-20s name %s\n",
			r.Index, r.Total, *r.Count, r.Label.ID, r.Label.Name)
		return
	}
	fmt.Fprintf(w, "Label %3d of %3d: id %-20s name %s\n",
		r.Index, r.Total, r.Label.ID, r.Label.Name)
}

// LabelsTable renders labels with tablewriter
func LabelsTable(w io.Writer, rows []LabelRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No labels found.")
		return nil
	}

	showCounts := rows[0].Count != nil

	table := tablewriter.NewWriter(w)
	header := []string{"#", "ID", "NAME", "TYPE"}
	if showCounts {
		header = append(header, "MSGS")
	}
	table.Header(header)

	for _, r := range rows {
		row := []string{strconv.Itoa(r.Index), r.Label.ID, r.Label.Name, r.Label.Type}
		if showCounts {
			row = append(row, strconv.Itoa(*r.Count))
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}

	return table.Render()
}

// Summary is the listing view of a message
type Summary struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"threadId,omitempty"`
	Date     time.Time `json:"date,omitzero"`
	From     string    `json:"from,omitempty"`
	Subject  string    `json:"subject,omitempty"`
	Snippet  string    `json:"snippet,omitempty"`
	LabelIDs []string  `json:"labelIds,omitempty"`
}

// Summarize extracts the listing fields of msg
func Summarize(msg *email.Message) Summary {
	return Summary{
		ID:       msg.ID,
		ThreadID: msg.ThreadID,
		Date:     msg.InternalDate,
		From:     msg.From(),
		Subject:  msg.Subject(),
		Snippet:  msg.Snippet,
		LabelIDs: msg.LabelIDs,
	}
}

// Listing prints a one-line summary of a message
func Listing(w io.Writer, s Summary) {
	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		s.ID,
		formatDate(s.Date),
		runewidth.FillRight(truncate(email.ParseAddress(s.From).String(), 25), 25),
		s.Subject,
	)
}

// ListingTable renders message summaries with tablewriter. Messages that
// were not fetched only fill the ID column.
func ListingTable(w io.Writer, summaries []Summary) error {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No messages found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "DATE", "FROM", "SUBJECT"})

	for _, s := range summaries {
		row := []string{
			s.ID,
			formatDate(s.Date),
			truncate(email.ParseAddress(s.From).String(), 30),
			truncate(s.Subject, 50),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}

	return table.Render()
}

// MessageDetail prints the headers, labels and part tree of a message
func MessageDetail(w io.Writer, msg *email.Message) error {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Message: %s\n", msg.ID)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	if msg.ThreadID != "" {
		fmt.Fprintf(w, "Thread:  %s\n", msg.ThreadID)
	}
	if !msg.InternalDate.IsZero() {
		fmt.Fprintf(w, "Date:    %s\n", msg.InternalDate.Format("Mon, Jan 02 2006 3:04 PM"))
	}
	for _, name := range []string{"From", "To", "Cc", "Subject"} {
		if v := msg.Header(name); v != "" {
			fmt.Fprintf(w, "%-8s %s\n", name+":", v)
		}
	}
	if len(msg.LabelIDs) > 0 {
		fmt.Fprintf(w, "Labels:  %s\n", strings.Join(msg.LabelIDs, ", "))
	}

	if msg.Snippet != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, wordWrap(msg.Snippet, 78))
	}

	if msg.Payload != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Parts:")
		writePart(w, msg.Payload, 1)
	}

	fmt.Fprintln(w, strings.Repeat("=", 60))
	return nil
}

func writePart(w io.Writer, p *email.Part, depth int) {
	indent := strings.Repeat("  ", depth)
	line := indent + p.MimeType
	if p.Filename != "" {
		line += " " + strconv.Quote(p.Filename)
	}
	if p.Body != nil && p.Body.Size > 0 {
		line += fmt.Sprintf(" (%d bytes)", p.Body.Size)
	}
	fmt.Fprintln(w, line)

	for _, child := range p.Parts {
		writePart(w, child, depth+1)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// truncate shortens s to max terminal columns
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}

// wordWrap wraps text at the specified width
func wordWrap(text string, width int) string {
	var result strings.Builder
	lines := strings.Split(text, "\n")

	for _, line := range lines {
		if len(line) <= width {
			result.WriteString(line)
			result.WriteString("\n")
			continue
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if len(currentLine)+1+len(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}
		result.WriteString(currentLine)
		result.WriteString("\n")
	}

	return strings.TrimSuffix(result.String(), "\n")
}
