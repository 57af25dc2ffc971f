package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/gmail-cli/internal/download"
	"github.com/vijay-prabhu/gmail-cli/internal/email"
	"github.com/vijay-prabhu/gmail-cli/internal/output"
)

// Search box queries, see https://support.google.com/mail/answer/7190
const (
	queryHasAttachments = "has:attachment"
	queryHasImages      = "filename:(jpg OR jpeg OR png OR tiff OR bmp OR pdf)"
	queryHasVideos      = "filename:(mp4 OR wmv OR mov OR mpg)"
)

type listOptions struct {
	printMessage   bool
	printListing   bool
	prettyPrint    bool
	download       bool
	msgID          string
	labelIDs       []string
	hasAttachments bool
	hasImages      bool
	hasVideos      bool
	searchQuery    string
}

// query returns the search query; the first has-* flag set replaces
// --search-query
func (o listOptions) query() string {
	switch {
	case o.hasAttachments:
		return queryHasAttachments
	case o.hasImages:
		return queryHasImages
	case o.hasVideos:
		return queryHasVideos
	default:
		return o.searchQuery
	}
}

// needsMessage reports whether each listed message must be fetched
func (o listOptions) needsMessage() bool {
	return o.printMessage || o.printListing || o.prettyPrint
}

func (a *app) newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List mail messages",
		Long: `List the messages matching labels and a search query.

Examples:
  gmail list                                # Ids of messages in INBOX
  gmail list --print-listing --limit 20     # Date, sender and subject
  gmail list --has-images --download        # Download attached images
  gmail list --label-ids INBOX,UNREAD       # Messages carrying both labels
  gmail list --label-ids= --search-query 'from:bank'   # Search all mail
  gmail list --msg-id 18c2f0a1 --print-message`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("label-ids") {
				opts.labelIDs = a.cfg.Gmail.DefaultLabelIDs
			}
			return a.runList(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.printMessage, "print-message", false, "print message")
	f.BoolVar(&opts.printListing, "print-listing", false, "print listing")
	f.BoolVar(&opts.prettyPrint, "pretty-print", false, "pretty-print items")
	f.BoolVar(&opts.download, "download", false, "download attachments")
	f.StringVar(&opts.msgID, "msg-id", "", "operate on MSG_ID only")
	f.StringSliceVar(&opts.labelIDs, "label-ids", email.DefaultLabelIDs(), "match labels, comma-separated or repeated (empty for all mail)")
	f.BoolVar(&opts.hasAttachments, "has-attachments", false, "search messages with any files attached")
	f.BoolVar(&opts.hasImages, "has-images", false, "search messages with image files attached")
	f.BoolVar(&opts.hasVideos, "has-videos", false, "search messages with video files attached")
	f.StringVar(&opts.searchQuery, "search-query", "", "gmail search box query pattern")
	f.SetNormalizeFunc(aliasFlags(map[string]string{
		"print-msg": "print-message",
		"msgid":     "msg-id",
	}))

	return cmd
}

func (a *app) runList(cmd *cobra.Command, opts listOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	p, err := a.connect(ctx)
	if err != nil {
		return err
	}

	var dl *download.Service
	var res download.Result
	progress := a.progressOut(cmd)
	if opts.download {
		dl = a.downloader(p, progress)
	}

	if opts.msgID != "" {
		if err := a.showMessage(ctx, out, p, opts.msgID, opts); err != nil {
			return err
		}
		if dl != nil {
			if err := dl.Message(ctx, opts.msgID, &res); err != nil {
				return err
			}
			download.ReportUnknown(progress, res.Unknown)
		}
		return nil
	}

	query := opts.query()
	if a.format == output.FormatText {
		fmt.Fprintf(out, "Searching for %q in %v\n", query, opts.labelIDs)
	}
	a.log.Debug().Str("query", query).Strs("label_ids", opts.labelIDs).Msg("searching")

	it := p.MessageIDs(email.ListOptions{LabelIDs: opts.labelIDs, Query: query})
	lim := a.limiter(cmd)
	var summaries []output.Summary

	for n := 1; ; n++ {
		if lim.reached() || !it.Next(ctx) {
			break
		}
		id := it.ID()
		a.log.Info().Int("n", n).Str("message_id", id).Msg("message")

		if a.format == output.FormatTable {
			s := output.Summary{ID: id}
			if opts.needsMessage() {
				msg, err := p.GetMessage(ctx, id)
				if err != nil {
					return err
				}
				s = output.Summarize(msg)
			}
			summaries = append(summaries, s)
		} else if err := a.showMessage(ctx, out, p, id, opts); err != nil {
			return err
		}

		if dl != nil {
			if err := dl.Message(ctx, id, &res); err != nil {
				return err
			}
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("failed to list messages: %w", err)
	}

	if a.format == output.FormatTable {
		if err := output.ListingTable(out, summaries); err != nil {
			return err
		}
	}
	if dl != nil {
		download.ReportUnknown(progress, res.Unknown)
	}

	return nil
}

// showMessage prints one message in the selected format
func (a *app) showMessage(ctx context.Context, out io.Writer, p email.Provider, id string, opts listOptions) error {
	if !opts.needsMessage() {
		if a.format == output.FormatJSON {
			return output.JSONCompactTo(out, output.Summary{ID: id})
		}
		return nil
	}

	msg, err := p.GetMessage(ctx, id)
	if err != nil {
		return err
	}

	if a.format == output.FormatJSON {
		if opts.prettyPrint || opts.printMessage {
			return output.JSONTo(out, msg)
		}
		return output.JSONCompactTo(out, output.Summarize(msg))
	}

	if opts.printListing {
		output.Listing(out, output.Summarize(msg))
	}
	if opts.printMessage {
		if err := output.MessageDetail(out, msg); err != nil {
			return err
		}
	}
	if opts.prettyPrint {
		return output.JSONTo(out, msg)
	}
	return nil
}

// progressOut is where download progress goes: stdout for text output,
// stderr when stdout carries JSON or a table
func (a *app) progressOut(cmd *cobra.Command) io.Writer {
	if a.format == output.FormatText {
		return cmd.OutOrStdout()
	}
	return cmd.ErrOrStderr()
}

// downloader creates the attachment download service
func (a *app) downloader(p email.Provider, out io.Writer) *download.Service {
	return download.NewService(p, download.Options{
		Dir:       a.cfg.Download.Dir,
		MimeTypes: a.cfg.Download.MimeTypes,
		Out:       out,
		Logger:    a.log,
	})
}
