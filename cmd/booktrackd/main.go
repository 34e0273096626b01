package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"booktrack/internal/config"
	"booktrack/internal/daemon"
	"booktrack/internal/ipc"
	"booktrack/internal/logging"
	"booktrack/internal/notifications"
	"booktrack/internal/projects"
	"booktrack/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := os.Getenv("BOOKTRACK_CONFIG")
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	pidPath := pidFilePath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		log.Fatalf("write pid file: %v", err)
	}
	defer os.Remove(pidPath)

	store, err := projects.Open(cfg)
	if err != nil {
		logger.Error("open project store", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	remote, err := buildRemote(cfg, logger)
	if err != nil {
		logger.Error("configure remote store", logging.Error(err))
		os.Exit(1)
	}

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManager(cfg, store, remote, notifier, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.Paths.SocketPath, d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("booktrackd shutting down")
}
