package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"booktrack/internal/ipc"
)

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "Project list operations",
	}

	projectsCmd.AddCommand(newProjectsListCommand(ctx))
	projectsCmd.AddCommand(newProjectsUpdateCommand(ctx))
	projectsCmd.AddCommand(newProjectsSetStatusCommand(ctx))

	return projectsCmd
}

func newProjectsListCommand(ctx *commandContext) *cobra.Command {
	var view string
	var person string
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects for a dashboard view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectList(ipc.ProjectListRequest{
					View:     view,
					Person:   person,
					Statuses: statuses,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Projects) == 0 {
					fmt.Fprintln(stdout, "No projects")
					return nil
				}
				fmt.Fprintln(stdout, renderProjectTable(resp.Projects, shouldColorize(stdout)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&view, "view", "manager", "View to project: manager, editor, or qc")
	cmd.Flags().StringVar(&person, "person", "", "Person the editor/qc view is filtered to")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Statuses to include (repeatable; default depends on view)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit projects as JSON")
	return cmd
}

func renderProjectTable(projects []ipc.Project, pretty bool) string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Client,
			p.Title,
			p.Status,
			p.DueDate,
			p.Editor,
			p.QC,
			formatHours(p.TotalEdited),
			p.WhatsLeftShort,
			yesNo(p.OnHold),
		})
	}
	return renderTable(
		[]string{"ID", "Client", "Title", "Status", "Due", "Editor", "QC", "Edited", "Left", "Hold"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
		pretty,
	)
}

func formatHours(value float64) string {
	if value == 0 {
		return ""
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func newProjectsUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		title        string
		dueDate      string
		notes        string
		editor       string
		master       string
		qc           string
		estimatedRT  float64
		totalEdited  float64
		remainingRaw float64
		onHold       bool
		newEdit      bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update project fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}

			req := ipc.ProjectUpdateRequest{ID: id}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("due") {
				req.DueDate = &dueDate
			}
			if flags.Changed("notes") {
				req.Notes = &notes
			}
			if flags.Changed("editor") {
				req.Editor = &editor
			}
			if flags.Changed("master") {
				req.Master = &master
			}
			if flags.Changed("qc") {
				req.QC = &qc
			}
			if flags.Changed("runtime") {
				req.EstimatedRunTime = &estimatedRT
			}
			if flags.Changed("edited") {
				req.TotalEdited = &totalEdited
			}
			if flags.Changed("remaining") {
				req.RemainingRaw = &remainingRaw
			}
			if flags.Changed("hold") {
				req.OnHold = &onHold
			}
			if flags.Changed("new-edit") {
				req.NewEdit = &newEdit
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectUpdate(req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project %d updated (%s)\n", resp.Project.ID, resp.Project.Title)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Project title")
	cmd.Flags().StringVar(&dueDate, "due", "", "Due date (YYYY-MM-DD, empty clears)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&editor, "editor", "", "Assigned editor")
	cmd.Flags().StringVar(&master, "master", "", "Assigned master")
	cmd.Flags().StringVar(&qc, "qc", "", "Assigned QC")
	cmd.Flags().Float64Var(&estimatedRT, "runtime", 0, "Estimated run time in hours")
	cmd.Flags().Float64Var(&totalEdited, "edited", 0, "Manual total edited hours")
	cmd.Flags().Float64Var(&remainingRaw, "remaining", 0, "Remaining raw hours")
	cmd.Flags().BoolVar(&onHold, "hold", false, "Place the project on hold")
	cmd.Flags().BoolVar(&newEdit, "new-edit", false, "Mark the project as a new edit")
	return cmd
}

func newProjectsSetStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Move a project through its status cycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			status := strings.TrimSpace(args[1])

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ProjectUpdate(ipc.ProjectUpdateRequest{ID: id, Status: &status})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project %d is now %s\n", resp.Project.ID, resp.Project.Status)
				return nil
			})
		},
	}
}

func parseProjectID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", arg)
	}
	return id, nil
}
