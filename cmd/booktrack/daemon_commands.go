package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"booktrack/internal/config"
	"booktrack/internal/ipc"
)

const (
	startWaitTimeout = 10 * time.Second
	stopWaitTimeout  = 5 * time.Second
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the booktrack daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			if client, err := ctx.dialClient(); err == nil {
				client.Close()
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}

			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon not running, launching...")
			if err := launchDaemon(exe, ctx); err != nil {
				return err
			}
			if err := waitForSocket(ctx, startWaitTimeout); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the booktrack daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.dialClient()
			if err != nil {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			// Stop flushes any pending debounced log writes before the
			// process is signaled.
			if _, err := client.Stop(); err != nil {
				client.Close()
				return fmt.Errorf("stop daemon workflow: %w", err)
			}
			client.Close()
			fmt.Fprintln(stdout, "Stopping daemon workflow...")

			pid, err := readDaemonPID(ctx.configValue())
			if err == nil && pid > 0 {
				if err := terminateProcess(pid, stopWaitTimeout); err != nil {
					return err
				}
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	var statusJSON bool
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if statusJSON {
					return writeJSON(cmd, status)
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit status as JSON")

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func printStatus(stdout io.Writer, status ipc.StatusResponse) {
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon Status", colorize) {
		fmt.Fprintln(stdout, line)
	}
	runningKind := statusError
	runningDetail := "stopped"
	if status.Running {
		runningKind = statusOK
		runningDetail = "running"
	}
	fmt.Fprintln(stdout, renderStatusLine("Daemon", runningKind, runningDetail, colorize))

	remoteKind := statusWarn
	remoteDetail := "not configured (local-only)"
	if status.RemoteEnabled {
		remoteKind = statusOK
		remoteDetail = "configured"
	}
	fmt.Fprintln(stdout, renderStatusLine("Remote store", remoteKind, remoteDetail, colorize))

	syncKind := statusInfo
	syncDetail := "never"
	if status.LastSync != "" {
		syncKind = statusOK
		syncDetail = status.LastSync
	}
	if status.LastError != "" {
		syncKind = statusError
		syncDetail = status.LastError
	}
	fmt.Fprintln(stdout, renderStatusLine("Last sync", syncKind, syncDetail, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DBPath, colorize))
	if status.APIAddress != "" {
		fmt.Fprintln(stdout, renderStatusLine("HTTP API", statusInfo, status.APIAddress, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Projects", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if len(status.ProjectCounts) == 0 {
		fmt.Fprintln(stdout, "No projects")
		return
	}
	names := make([]string, 0, len(status.ProjectCounts))
	for name := range status.ProjectCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(status.ProjectCounts[name])})
	}
	fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}, colorize))
}

func daemonExecutable() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	sibling := filepath.Join(filepath.Dir(self), "booktrackd")
	if _, err := os.Stat(sibling); err == nil {
		return sibling, nil
	}
	path, err := exec.LookPath("booktrackd")
	if err != nil {
		return "", errors.New("booktrackd binary not found next to booktrack or on PATH")
	}
	return path, nil
}

func launchDaemon(exe string, ctx *commandContext) error {
	cmd := exec.Command(exe)
	cmd.SysProcAttr = &unix.SysProcAttr{Setsid: true}
	cmd.Stdout = nil
	cmd.Stderr = nil
	if ctx.configFlag != nil && strings.TrimSpace(*ctx.configFlag) != "" {
		cmd.Env = append(os.Environ(), "BOOKTRACK_CONFIG="+strings.TrimSpace(*ctx.configFlag))
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return cmd.Process.Release()
}

func waitForSocket(ctx *commandContext, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		client, err := ctx.dialClient()
		if err == nil {
			client.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon did not come up within %s", timeout)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func readDaemonPID(cfg *config.Config) (int, error) {
	if cfg == nil {
		return 0, errors.New("config unavailable")
	}
	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "booktrackd.pid"))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse pid file: %w", err)
	}
	return pid, nil
}

func terminateProcess(pid int, timeout time.Duration) error {
	if err := unix.Kill(pid, unix.SIGTERM); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	deadline := time.Now().Add(timeout)
	for {
		if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon process %d did not exit within %s", pid, timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
