package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"booktrack/internal/ipc"
)

func newWeekCommand(ctx *commandContext) *cobra.Command {
	var role string
	var start string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "week <project-id>",
		Short: "Show a project's weekly log grid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Week(ipc.WeekRequest{ProjectID: id, Role: role, Start: start})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Week of %s\n", resp.Start)
				fmt.Fprintln(stdout, renderWeekTable(resp, shouldColorize(stdout)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "editor", "Log table to read: editor or qc")
	cmd.Flags().StringVar(&start, "start", "", "Any date inside the week to show (YYYY-MM-DD, default current week)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the grid as JSON")
	return cmd
}

// renderWeekTable lays people out as rows and the Monday to Friday days as
// columns. Weekend entries are absent from the grid but still counted in
// the person and week totals.
func renderWeekTable(resp ipc.WeekResponse, pretty bool) string {
	cells := make(map[string]map[string]float64)
	notes := make(map[string]map[string]bool)
	for _, entry := range resp.Entries {
		if cells[entry.Person] == nil {
			cells[entry.Person] = make(map[string]float64)
			notes[entry.Person] = make(map[string]bool)
		}
		cells[entry.Person][entry.Date] = entry.Hours
		if entry.Note != "" {
			notes[entry.Person][entry.Date] = true
		}
	}

	people := make([]string, 0, len(resp.PersonTotals))
	for person := range resp.PersonTotals {
		people = append(people, person)
	}
	sort.Strings(people)

	headers := make([]string, 0, len(resp.Days)+2)
	aligns := make([]columnAlignment, 0, len(resp.Days)+2)
	headers = append(headers, "Person")
	aligns = append(aligns, alignLeft)
	for _, day := range resp.Days {
		headers = append(headers, day[5:])
		aligns = append(aligns, alignRight)
	}
	headers = append(headers, "Total")
	aligns = append(aligns, alignRight)

	rows := make([][]string, 0, len(people)+1)
	for _, person := range people {
		row := make([]string, 0, len(headers))
		row = append(row, person)
		for _, day := range resp.Days {
			cell := formatHours(cells[person][day])
			if notes[person][day] {
				cell += " *"
			}
			row = append(row, cell)
		}
		row = append(row, formatHours(resp.PersonTotals[person]))
		rows = append(rows, row)
	}

	total := make([]string, len(headers))
	total[0] = "Week"
	total[len(total)-1] = formatHours(resp.WeekTotal)
	rows = append(rows, total)

	return renderTable(headers, rows, aligns, pretty)
}
