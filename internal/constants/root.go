package constants

import "time"

const (
	AppName            = "cadence"
	DefaultKeyringUser = "database-connection"
	DefaultConfigDir   = "~/.config/cadence"
	DefaultConfigPath  = "~/.config/cadence/cadence.db"
	DefaultConfigFile  = "~/.config/cadence/config.yaml"
	DefaultServerAddr  = "127.0.0.1:7420"
	Version            = "v0.3.0"

	// Environment variables
	EnvDatabase   = "CADENCE_DB"
	EnvConfigFile = "CADENCE_CONFIG"
	EnvDebug      = "CADENCE_DEBUG"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is how timestamps are persisted. It is fixed-width UTC so
	// that stored values order lexicographically the same way they order in time.
	TimestampFormat = "2006-01-02T15:04:05.000000000Z"

	// DisplayTimeFormat is used when rendering timestamps in tables
	DisplayTimeFormat = "2006-01-02 15:04"

	// Period lengths
	DailyPeriod   = 24 * time.Hour
	WeeklyPeriod  = 7 * DailyPeriod
	MonthlyPeriod = 30 * DailyPeriod

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "cadence-"
	BackupFileSuffix = ".db"

	// Lock constants
	SyncLockfileName = "cadence-sync.lock"

	// Log constants
	LogDirName  = "logs"
	LogFileName = "cadence.log"
)
