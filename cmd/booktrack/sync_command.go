package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"booktrack/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Request an immediate pull from the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SyncNow()
				if err != nil {
					return err
				}
				if resp.Requested {
					fmt.Fprintln(cmd.OutOrStdout(), "Sync requested")
				}
				return nil
			})
		},
	}
}
