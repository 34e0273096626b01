package testsupport

import (
	"path/filepath"
	"testing"

	"booktrack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "booktrackd.sock")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Snapshot.Enabled = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRemoteStore points the test config at a remote row store endpoint.
func WithRemoteStore(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.RemoteStore.BaseURL = baseURL
		b.cfg.RemoteStore.APIKey = apiKey
	}
}

// WithSnapshot enables the JSON snapshot mirror at the given path. An empty
// path uses the config default inside the test data directory.
func WithSnapshot(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Snapshot.Enabled = true
		if path != "" {
			b.cfg.Snapshot.Path = path
		}
	}
}

// WithRoster replaces the canonical staff lists on the test config.
func WithRoster(editors, masters, qc []string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Personnel.Editors = editors
		b.cfg.Personnel.Masters = masters
		b.cfg.Personnel.QC = qc
	}
}
