package constants

import "time"

const (
	RemoteTimeout   = 10 * time.Second
	SyncTimeout     = 30 * time.Second
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 30 * time.Second
	BackupTimeout   = 30 * time.Second
)

const (
	DBMaxOpenConns = 1
	DBMaxIdleConns = 1
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	LeaderboardTopLimit = 10
	MaxNameLength       = 64
)
