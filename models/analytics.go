package models

import (
	"time"
)

// CommandLogEntry is one best-effort analytics row for a bot command.
// Entries may be dropped under load; nothing reads them on the hot path.
type CommandLogEntry struct {
	ID             int64     `db:"id"`
	PlatformUserID int64     `db:"platform_user_id"`
	Command        string    `db:"command"`
	Success        bool      `db:"success"`
	ErrorMessage   *string   `db:"error_message"`
	ExecutedAt     time.Time `db:"executed_at"`
}
