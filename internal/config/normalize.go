package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRemoteStore()
	c.normalizePersonnel()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	if strings.TrimSpace(c.Snapshot.Path) != "" {
		if c.Snapshot.Path, err = expandPath(c.Snapshot.Path); err != nil {
			return fmt.Errorf("snapshot.path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeRemoteStore() {
	c.RemoteStore.BaseURL = strings.TrimRight(strings.TrimSpace(c.RemoteStore.BaseURL), "/")
	c.RemoteStore.APIKey = strings.TrimSpace(c.RemoteStore.APIKey)
	if strings.TrimSpace(c.RemoteStore.ProjectsTable) == "" {
		c.RemoteStore.ProjectsTable = defaultProjectsTable
	}
	if strings.TrimSpace(c.RemoteStore.LogsTable) == "" {
		c.RemoteStore.LogsTable = defaultLogsTable
	}
	if strings.TrimSpace(c.RemoteStore.QCLogsTable) == "" {
		c.RemoteStore.QCLogsTable = defaultQCLogsTable
	}
	if c.RemoteStore.RequestTimeout <= 0 {
		c.RemoteStore.RequestTimeout = defaultRemoteTimeout
	}
}

func (c *Config) normalizePersonnel() {
	c.Personnel.Editors = trimNames(c.Personnel.Editors)
	c.Personnel.Masters = trimNames(c.Personnel.Masters)
	c.Personnel.QC = trimNames(c.Personnel.QC)
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.SyncInterval <= 0 {
		c.Workflow.SyncInterval = defaultSyncInterval
	}
	if c.Workflow.DebounceMillis <= 0 {
		c.Workflow.DebounceMillis = defaultDebounceMillis
	}
	if c.Workflow.WriteTimeout < 0 {
		c.Workflow.WriteTimeout = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// trimNames drops blank entries while preserving list order, which is the
// tie-break order for forgiving name resolution.
func trimNames(names []string) []string {
	out := names[:0]
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
