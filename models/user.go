package models

import (
	"time"
)

// Platform identifies which chat platform a user registered from
type Platform string

const (
	PlatformDiscord  Platform = "discord"
	PlatformTelegram Platform = "telegram"
)

// User represents a registered user linked to a Goated affiliate account.
// Exactly one of DiscordID or TelegramID is set, enforced by a database
// check constraint.
type User struct {
	ID                   int64      `db:"id"`
	DiscordID            *int64     `db:"discord_id"`
	TelegramID           *int64     `db:"telegram_id"`
	Platform             Platform   `db:"platform"`
	DisplayName          string     `db:"display_name"`
	GoatedUsername       string     `db:"goated_username"`
	IsActive             bool       `db:"is_active"`
	LastWagerCheck       *time.Time `db:"last_wager_check"`
	LastLeaderboardCheck *time.Time `db:"last_leaderboard_check"`
	CreatedAt            time.Time  `db:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

// PlatformID returns whichever platform id the user registered with.
func (u *User) PlatformID() int64 {
	if u.DiscordID != nil {
		return *u.DiscordID
	}
	if u.TelegramID != nil {
		return *u.TelegramID
	}
	return 0
}

// UserUpdate enumerates the mutable user fields for partial updates.
// Nil fields are left untouched.
type UserUpdate struct {
	DisplayName          *string
	IsActive             *bool
	LastWagerCheck       *time.Time
	LastLeaderboardCheck *time.Time
}

// IsEmpty reports whether the update would change nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.DisplayName == nil && u.IsActive == nil &&
		u.LastWagerCheck == nil && u.LastLeaderboardCheck == nil
}

// UserDataSummary summarizes a user's stored data, shown before unregistering.
type UserDataSummary struct {
	GoatedUsername   string
	RegisteredAt     time.Time
	LastWagerCheck   *time.Time
	AchievementCount int
	RequestCount     int
	TotalBonusEarned float64
}
