package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agutierrezreginodev/potencia-agenda/internal/domain"
	"github.com/agutierrezreginodev/potencia-agenda/internal/runtime"
	"github.com/agutierrezreginodev/potencia-agenda/internal/storage"
)

func newUsageCommand(open func(*cobra.Command) (*runtime.App, error)) *cobra.Command {
	var (
		actor  string
		limit  int
		offset int
		output string
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "List recorded generation attempts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output, outputTable, outputJSON, outputYAML); err != nil {
				return err
			}
			if limit <= 0 || offset < 0 {
				return fmt.Errorf("--limit must be positive and --offset non-negative")
			}

			app, err := open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(app)

			records, err := app.Store().ListUsage(cmd.Context(), storage.UsageListOptions{
				ActorID: actor,
				Limit:   limit,
				Offset:  offset,
			})
			if err != nil {
				return err
			}
			if output == outputTable {
				return writeUsageTable(cmd.OutOrStdout(), records)
			}
			if records == nil {
				records = []*domain.UsageRecord{}
			}
			return encode(cmd.OutOrStdout(), output, records)
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "", "Only show records of this user ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "Max records to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Records to skip")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table, json or yaml")
	return cmd
}

func writeUsageTable(w io.Writer, records []*domain.UsageRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tUSER\tPROVIDER\tMODEL\tSTATUS\tOUTCOME\tTOKENS\tLATENCY")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%dms\n",
			r.CreatedAt.Format(time.RFC3339),
			r.ActorID,
			r.Provider,
			r.ModelUsed,
			r.Status,
			r.Outcome,
			r.PromptTokens+r.CompletionTokens,
			r.LatencyMs,
		)
	}
	return tw.Flush()
}
