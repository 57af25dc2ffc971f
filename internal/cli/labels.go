package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/gmail-cli/internal/email"
	"github.com/vijay-prabhu/gmail-cli/internal/output"
)

type labelsOptions struct {
	showCounts  bool
	prettyPrint bool
}

func (a *app) newLabelsCmd() *cobra.Command {
	var opts labelsOptions

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "List labels",
		Long: `List the labels of the mailbox.

Examples:
  gmail labels                  # List all labels
  gmail labels --show-counts    # Count the messages of each label
  gmail labels --limit 3        # Only the first three labels
  gmail labels -o table         # Render as a table`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLabels(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.showCounts, "show-counts", false, "show message counts")
	cmd.Flags().BoolVar(&opts.prettyPrint, "pretty-print", false, "pretty-print items")

	return cmd
}

func (a *app) runLabels(cmd *cobra.Command, opts labelsOptions) error {
	ctx := cmd.Context()

	p, err := a.connect(ctx)
	if err != nil {
		return err
	}

	labels, err := p.ListLabels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list labels: %w", err)
	}

	total := len(labels)
	out := cmd.OutOrStdout()

	if a.format == output.FormatText {
		fmt.Fprintln(out, "There are", total, "labels")
	}

	lim := a.limiter(cmd)
	rows := []output.LabelRow{}

	for i, label := range labels {
		if lim.reached() {
			break
		}

		a.log.Debug().Int("idx", i).Str("label_id", label.ID).Str("name", label.Name).Msg("label")

		row := output.LabelRow{Index: i + 1, Total: total, Label: label}
		if opts.showCounts {
			n, err := p.MessageIDs(email.ListOptions{LabelIDs: []string{label.ID}}).Count(ctx)
			if err != nil {
				return fmt.Errorf("failed to count messages of %s: %w", label.ID, err)
			}
			row.Count = &n
		}

		if a.format != output.FormatText {
			rows = append(rows, row)
			continue
		}

		output.LabelLine(out, row)
		if opts.prettyPrint {
			if err := output.JSONTo(out, label); err != nil {
				return err
			}
		}
	}

	switch a.format {
	case output.FormatJSON:
		return output.JSONTo(out, rows)
	case output.FormatTable:
		return output.LabelsTable(out, rows)
	}
	return nil
}
