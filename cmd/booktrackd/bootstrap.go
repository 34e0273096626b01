package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"booktrack/internal/config"
	"booktrack/internal/logging"
	"booktrack/internal/services/tablestore"
	"booktrack/internal/workflow"
)

// buildRemote constructs the table store client when one is configured.
// Without a base URL the daemon serves the local store and snapshot only.
func buildRemote(cfg *config.Config, logger *slog.Logger) (workflow.RemoteSource, error) {
	if cfg == nil || !cfg.RemoteStore.Enabled() {
		logger.Info("remote store not configured, running local-only")
		return nil, nil
	}
	client, err := tablestore.New(cfg, nil)
	if err != nil {
		return nil, err
	}
	logger.Info("remote store configured", logging.String("base_url", cfg.RemoteStore.BaseURL))
	return client, nil
}

func pidFilePath(cfg *config.Config) string {
	if cfg == nil {
		return filepath.Join(os.TempDir(), "booktrackd.pid")
	}
	return filepath.Join(cfg.Paths.LogDir, "booktrackd.pid")
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
