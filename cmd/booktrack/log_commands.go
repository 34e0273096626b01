package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"booktrack/internal/ipc"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Productivity log edits",
	}

	logCmd.AddCommand(newLogSetCommand(ctx))
	logCmd.AddCommand(newLogRemoveCommand(ctx))

	return logCmd
}

func newLogSetCommand(ctx *commandContext) *cobra.Command {
	var role string
	var note string
	var category string

	cmd := &cobra.Command{
		Use:   "set <project-id> <person> <date> <hours>",
		Short: "Record hours for one person on one day",
		Long: "Record hours for one person on one day. Writes are debounced and\n" +
			"applied shortly after; zero hours with no note removes the entry.",
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LogSet(ipc.LogSetRequest{
					ProjectID: id,
					Role:      role,
					Person:    args[1],
					Date:      args[2],
					Hours:     args[3],
					Note:      note,
					Category:  category,
				})
				if err != nil {
					return err
				}
				if resp.Queued {
					fmt.Fprintln(cmd.OutOrStdout(), "Log write queued")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "editor", "Log table to write: editor or qc")
	cmd.Flags().StringVar(&note, "note", "", "Note attached to the cell")
	cmd.Flags().StringVar(&category, "category", "", "Work category: P (punch) or R (roll)")
	return cmd
}

func newLogRemoveCommand(ctx *commandContext) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "rm <project-id> <person> <date>",
		Short: "Remove one person's entry for one day",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LogDelete(ipc.LogDeleteRequest{
					ProjectID: id,
					Role:      role,
					Person:    args[1],
					Date:      args[2],
				})
				if err != nil {
					return err
				}
				if resp.Queued {
					fmt.Fprintln(cmd.OutOrStdout(), "Log delete queued")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", "editor", "Log table to write: editor or qc")
	return cmd
}
