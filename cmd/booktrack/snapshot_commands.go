package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"booktrack/internal/projects"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the JSON project snapshot",
		Long: "Export or import the JSON project snapshot. These commands open the\n" +
			"local database directly; stop the daemon before importing.",
	}

	snapshotCmd.AddCommand(newSnapshotExportCommand(ctx))
	snapshotCmd.AddCommand(newSnapshotImportCommand(ctx))

	return snapshotCmd
}

func newSnapshotExportCommand(ctx *commandContext) *cobra.Command {
	var targetPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the project list as a JSON snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target := strings.TrimSpace(targetPath)
			if target == "" {
				target = cfg.SnapshotPath()
			}

			store, err := projects.Open(cfg)
			if err != nil {
				return fmt.Errorf("open project store: %w", err)
			}
			defer store.Close()

			if err := store.ExportSnapshot(cmd.Context(), target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported snapshot to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination file (default snapshot path)")
	return cmd
}

func newSnapshotImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Replace the project list with a JSON snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := projects.Open(cfg)
			if err != nil {
				return fmt.Errorf("open project store: %w", err)
			}
			defer store.Close()

			count, err := store.ImportSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects from %s\n", count, args[0])
			return nil
		},
	}
}
