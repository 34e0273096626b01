package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"booktrack/internal/ipc"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var role string
	var period string
	var start string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Aggregate per-person hours over a day, week, or month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Report(ipc.ReportRequest{Role: role, Period: period, Start: start})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "%s through %s\n", resp.From, resp.To)
				fmt.Fprintln(stdout, renderReportTable(resp.Rows, shouldColorize(stdout)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "editor", "Log table to aggregate: editor or qc")
	cmd.Flags().StringVar(&period, "period", "week", "Window size: today, week, or month")
	cmd.Flags().StringVar(&start, "start", "", "Any date inside the window (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the report as JSON")
	return cmd
}

func renderReportTable(rows []ipc.ReportRow, pretty bool) string {
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			row.Name,
			formatHours(row.Total),
			formatHours(row.Punch),
			formatHours(row.Roll),
		})
	}
	return renderTable(
		[]string{"Person", "Total", "Punch", "Roll"},
		tableRows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
		pretty,
	)
}
