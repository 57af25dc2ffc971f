package cli

import (
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/gmail-cli/internal/download"
	"github.com/vijay-prabhu/gmail-cli/internal/output"
)

func (a *app) newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download MSG_ID",
		Short: "Download the attachments of a message",
		Long: `Download the image, video and PDF attachments of a message into the
download directory (default: $XDG_DATA_HOME/gmail).

Files are named after the attachment with the message id inserted before
the extension, e.g. report-18c2f0a1.pdf. Existing files are overwritten.`,
		Args: exactArgs(1),
		RunE: a.runDownload,
	}
}

func (a *app) runDownload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	msgID := args[0]

	p, err := a.connect(ctx)
	if err != nil {
		return err
	}

	var res download.Result
	if err := a.downloader(p, a.progressOut(cmd)).Message(ctx, msgID, &res); err != nil {
		return err
	}

	if a.format == output.FormatJSON {
		return output.JSONTo(out, res)
	}
	download.ReportUnknown(out, res.Unknown)
	return nil
}
