package config

import "booktrack/internal/personnel"

const (
	defaultDataDir         = "~/.local/share/booktrack"
	defaultLogDir          = "~/.local/share/booktrack/logs"
	defaultSocketPath      = "~/.local/share/booktrack/booktrackd.sock"
	defaultAPIBind         = "127.0.0.1:7319"
	defaultProjectsTable   = "projects"
	defaultLogsTable       = "productivity_logs"
	defaultQCLogsTable     = "qc_productivity_logs"
	defaultRemoteTimeout   = 15
	defaultSyncInterval    = 60
	defaultDebounceMillis  = 600
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultNotifyTimeout   = 10
	defaultSnapshotEnabled = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	roster := personnel.DefaultRoster()
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
			APIBind:    defaultAPIBind,
		},
		RemoteStore: RemoteStore{
			ProjectsTable:  defaultProjectsTable,
			LogsTable:      defaultLogsTable,
			QCLogsTable:    defaultQCLogsTable,
			RequestTimeout: defaultRemoteTimeout,
		},
		Personnel: Personnel{
			Editors: roster.Editors,
			Masters: roster.Masters,
			QC:      roster.QC,
		},
		Workflow: Workflow{
			SyncInterval:   defaultSyncInterval,
			DebounceMillis: defaultDebounceMillis,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Errors:         true,
			Sync:           false,
		},
		Snapshot: Snapshot{
			Enabled: defaultSnapshotEnabled,
		},
	}
}

// Roster converts the configured personnel lists into the shared type.
func (c *Config) Roster() personnel.Roster {
	return personnel.Roster{
		Editors: c.Personnel.Editors,
		Masters: c.Personnel.Masters,
		QC:      c.Personnel.QC,
	}
}
