package constants

import "time"

const (
	AppName             = "ibadah"
	DefaultKeyringUser  = "remote-connection"
	FirebaseKeyringUser = "firebase-credentials"
	DefaultConfigPath   = "~/.config/ibadah/ibadah.db"
	Version             = "v0.3.0"

	// DateFormat is the canonical day key layout (YYYY-MM-DD).
	DateFormat = "2006-01-02"
	// MonthFormat is the prefix layout used to filter day keys by month.
	MonthFormat = "2006-01"

	// Local storage keys
	DayKeyPrefix      = "worshipTasks_"
	SummaryKey        = "worshipHistory"
	FastingKey        = "fastingHistory"
	LegacyFastingKey  = "fastingStatus"
	BookmarkKey       = "quranBookmark"
	SessionKey        = "session"
	DeviceIDKey       = "deviceId"
	RedisKeyNamespace = "ibadah:"

	// Remote document defaults
	UsersCollection     = "users"
	DailyLogsCollection = "dailyLogs"
	DefaultCity         = "Jakarta"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "ibadah-"
	BackupFileSuffix = ".db"

	// Remote call budget for a single operation
	RemoteTimeout = 15 * time.Second

	// Recap
	TopTaskCount     = 5
	FivePrayersLabel = "Sholat 5 Waktu"
)
