package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"booktrack/internal/logging"
	"booktrack/internal/testsupport"
)

func TestBuildRemoteLocalOnly(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	remote, err := buildRemote(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("buildRemote: %v", err)
	}
	if remote != nil {
		t.Fatal("expected nil remote without a base URL")
	}
}

func TestBuildRemoteConfigured(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRemoteStore("https://rows.example.com/rest/v1", "key"))
	remote, err := buildRemote(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("buildRemote: %v", err)
	}
	if remote == nil {
		t.Fatal("expected remote client when a base URL is configured")
	}
}

func TestPIDFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := pidFilePath(cfg)
	if !strings.HasPrefix(path, cfg.Paths.LogDir) {
		t.Fatalf("pid file %q not under log dir %q", path, cfg.Paths.LogDir)
	}

	target := filepath.Join(t.TempDir(), "booktrackd.pid")
	if err := writePIDFile(target); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid != os.Getpid() {
		t.Fatalf("unexpected pid file contents %q", data)
	}
}
