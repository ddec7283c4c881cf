package service

import (
	"context"
	"time"

	"goatedbot/events"
	"goatedbot/goated"
	"goatedbot/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByDiscordID retrieves an active user by their Discord ID
	GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error)

	// GetByTelegramID retrieves an active user by their Telegram ID
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)

	// GetByGoatedUsername retrieves a user by their linked Goated username
	GetByGoatedUsername(ctx context.Context, username string) (*models.User, error)

	// Create inserts a new user, filling ID and timestamps. Returns
	// ErrUsernameTaken if the Goated username is already linked.
	Create(ctx context.Context, user *models.User) error

	// Update applies a typed partial update to the user
	Update(ctx context.Context, id int64, update models.UserUpdate) error

	// Delete removes the user row
	Delete(ctx context.Context, id int64) error

	// GetAllActive returns all active users
	GetAllActive(ctx context.Context) ([]*models.User, error)

	// Count returns the number of active users
	Count(ctx context.Context) (int, error)
}

// WagerCacheRepository memoizes externally-fetched snapshots with a TTL.
// Expired rows are treated as absent even if they still exist physically.
type WagerCacheRepository interface {
	// GetStats returns the cached wager snapshot, or nil past expiry
	GetStats(ctx context.Context, username string) (*models.WagerStats, error)

	// PutStats stores a snapshot with expiry now+ttl, replacing any prior row
	PutStats(ctx context.Context, stats *models.WagerStats, ttl time.Duration) error

	// GetLeaderboard returns the cached leaderboard position, or nil past expiry
	GetLeaderboard(ctx context.Context, username string) (*models.LeaderboardPosition, error)

	// PutLeaderboard stores a position snapshot with expiry now+ttl
	PutLeaderboard(ctx context.Context, pos *models.LeaderboardPosition, ttl time.Duration) error

	// DeleteForUser removes both cache rows for the username
	DeleteForUser(ctx context.Context, username string) error
}

// WagerLedgerRepository is the durable per-day wager ledger from which
// rolling-window sums are derived.
type WagerLedgerRepository interface {
	// Record upserts the (username, date) row, replacing any prior value
	Record(ctx context.Context, username string, date time.Time, dailyWager, totalWager float64) error

	// RollingSum sums daily amounts for dates in (asOf-windowDays, asOf]
	RollingSum(ctx context.Context, username string, windowDays int, asOf time.Time) (float64, error)

	// History returns ledger rows for the trailing N days, newest first
	History(ctx context.Context, username string, days int) ([]*models.DailyWagerRecord, error)

	// Prune deletes rows older than the retention horizon, returning the count
	Prune(ctx context.Context, retentionDays int) (int64, error)

	// DeleteForUser removes all ledger rows for the username
	DeleteForUser(ctx context.Context, username string) error
}

// MilestoneRepository defines data access for milestone definitions and
// achievements.
type MilestoneRepository interface {
	// GetActiveDefinitions returns active definitions in ascending threshold order
	GetActiveDefinitions(ctx context.Context) ([]*models.MilestoneDefinition, error)

	// GetAchievedAmounts returns the set of thresholds already credited for
	// (username, monthYear)
	GetAchievedAmounts(ctx context.Context, username, monthYear string) (map[int64]bool, error)

	// CreateAchievement inserts an achievement. Returns false without error
	// when the (username, amount, month) row already exists.
	CreateAchievement(ctx context.Context, a *models.MilestoneAchievement) (bool, error)

	// GetAchievements returns achievements for a user, filtered to one month
	// when monthYear is non-empty, in ascending threshold order
	GetAchievements(ctx context.Context, username, monthYear string) ([]*models.MilestoneAchievement, error)

	// MarkNotified flags the given thresholds as notified for the user
	// within one month bucket
	MarkNotified(ctx context.Context, username, monthYear string, amounts []int64) error

	// DeleteForUser removes all achievements for the username
	DeleteForUser(ctx context.Context, username string) error
}

// MilestoneRequestRepository defines data access for reward requests.
type MilestoneRequestRepository interface {
	// Create inserts a pending request, filling ID and RequestedAt. Returns
	// ErrAlreadyRequested if a request for (username, amount, month) exists.
	Create(ctx context.Context, req *models.MilestoneRequest) error

	// GetPending returns all pending requests oldest-first
	GetPending(ctx context.Context) ([]*models.MilestoneRequest, error)

	// GetByID returns the request, or nil when absent
	GetByID(ctx context.Context, id int64) (*models.MilestoneRequest, error)

	// GetForUser returns a user's requests, filtered to one month when
	// monthYear is non-empty, newest first
	GetForUser(ctx context.Context, username, monthYear string) ([]*models.MilestoneRequest, error)

	// Resolve transitions a pending request to a terminal status, stamping
	// decider and timestamp. Returns ErrRequestNotFound when the request is
	// missing or not pending.
	Resolve(ctx context.Context, id int64, status models.RequestStatus, adminID int64, notes *string) error

	// DeleteForUser removes all requests tied to the username or requester
	DeleteForUser(ctx context.Context, username string, requesterID int64) error
}

// LeaderboardSnapshotRepository persists weekly top-N captures.
type LeaderboardSnapshotRepository interface {
	// Store replaces the snapshot for the date with the given entries
	Store(ctx context.Context, snapshotDate time.Time, entries []*models.LeaderboardEntry) error

	// GetByDate returns the snapshot for a date, or nil when absent
	GetByDate(ctx context.Context, snapshotDate time.Time) (*models.LeaderboardSnapshot, error)

	// GetRecent returns the most recent snapshots, newest first
	GetRecent(ctx context.Context, limit int) ([]*models.LeaderboardSnapshot, error)
}

// CommandLogRepository persists best-effort analytics rows.
type CommandLogRepository interface {
	Log(ctx context.Context, entry *models.CommandLogEntry) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork bundles repositories over one database transaction. Events
// published through its bus are flushed only after commit.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	WagerCacheRepository() WagerCacheRepository
	WagerLedgerRepository() WagerLedgerRepository
	MilestoneRepository() MilestoneRepository
	MilestoneRequestRepository() MilestoneRequestRepository
	LeaderboardSnapshotRepository() LeaderboardSnapshotRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// GoatedClient is the external wager-data source. Treated as an opaque
// collaborator: lookups may legitimately return (nil, nil) for unknown
// players, and any transport failure is non-fatal to business logic.
type GoatedClient interface {
	FindPlayer(ctx context.Context, username string) (*goated.Player, error)
	ValidateUsername(ctx context.Context, username string) (bool, error)
	PlayerPosition(ctx context.Context, username string) (*goated.Position, error)
	TopPlayers(ctx context.Context, limit int) ([]*goated.Player, error)
}

// UserService defines account lifecycle operations
type UserService interface {
	// Register links a chat identity to a Goated username after validating
	// it against the affiliate API
	Register(ctx context.Context, reg Registration) (*models.User, error)

	// GetByPlatformID retrieves a user by platform identity
	GetByPlatformID(ctx context.Context, platform models.Platform, platformID int64) (*models.User, error)

	// GetByGoatedUsername retrieves a user by their linked Goated username
	GetByGoatedUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateProfile applies a typed partial update
	UpdateProfile(ctx context.Context, userID int64, update models.UserUpdate) error

	// DataSummary summarizes a user's stored data
	DataSummary(ctx context.Context, platform models.Platform, platformID int64) (*models.UserDataSummary, error)

	// Unregister removes the user and all dependent data in one transaction
	Unregister(ctx context.Context, platform models.Platform, platformID int64) (*models.UserDataSummary, error)

	// ActiveUsers returns all active users
	ActiveUsers(ctx context.Context) ([]*models.User, error)

	// UserCount returns the number of active users
	UserCount(ctx context.Context) (int, error)
}

// WagerStatsService fetches wager data through the cache and keeps the
// daily ledger current.
type WagerStatsService interface {
	// GetWagerStats returns the player's wager snapshot, serving from cache
	// when fresh and recording today's ledger row on a live fetch
	GetWagerStats(ctx context.Context, username string) (*models.WagerStats, error)

	// GetLeaderboardPosition returns the player's ranks, cached likewise
	GetLeaderboardPosition(ctx context.Context, username string) (*models.LeaderboardPosition, error)

	// RollingSevenDay returns the ledger-derived trailing 7-day wager sum
	RollingSevenDay(ctx context.Context, username string) (float64, error)

	// PruneLedger deletes ledger rows past the retention horizon
	PruneLedger(ctx context.Context) (int64, error)
}

// MilestoneService is the milestone engine.
type MilestoneService interface {
	// Evaluate credits every threshold crossed by the current monthly wager
	// that is not yet achieved this calendar month and returns exactly the
	// newly-created achievements. Idempotent; a storage error aborts the
	// whole batch.
	Evaluate(ctx context.Context, username string, monthlyWager float64) ([]*models.MilestoneAchievement, error)

	// NextMilestone returns the smallest unachieved threshold above the
	// current monthly wager, or nil when no rule produces one
	NextMilestone(ctx context.Context, username string, monthlyWager float64) (*models.NextMilestone, error)

	// ProgressReport combines this month's achievements, requests, and the
	// next milestone
	ProgressReport(ctx context.Context, username string, monthlyWager float64) (*models.MilestoneProgress, error)

	// MarkNotified flags one month's achievements as notified
	MarkNotified(ctx context.Context, username, monthYear string, amounts []int64) error
}

// RequestService is the reward request workflow.
type RequestService interface {
	// Request creates a pending reward claim. Fails with ErrNoAchievement
	// when the milestone was not achieved, ErrAlreadyRequested when a claim
	// already exists regardless of status.
	Request(ctx context.Context, username string, requesterID int64, amount int64, bonus float64, monthYear string) (*models.MilestoneRequest, error)

	// ListPending returns pending requests oldest-first
	ListPending(ctx context.Context) ([]*models.MilestoneRequest, error)

	// Resolve transitions a pending request to approved or denied
	Resolve(ctx context.Context, requestID int64, decision models.RequestStatus, adminID int64, notes string) error

	// UserRequests returns a user's requests for a month
	UserRequests(ctx context.Context, username, monthYear string) ([]*models.MilestoneRequest, error)
}

// SnapshotService captures and serves weekly leaderboard snapshots.
type SnapshotService interface {
	// CaptureWeekly fetches the current top players and stores them under
	// today's date, replacing any prior capture for that date
	CaptureWeekly(ctx context.Context) (*models.LeaderboardSnapshot, error)

	// Recent returns the most recent snapshots
	Recent(ctx context.Context, limit int) ([]*models.LeaderboardSnapshot, error)
}

// Registration carries the inputs for UserService.Register. Exactly one of
// DiscordID or TelegramID must be set.
type Registration struct {
	Platform       models.Platform
	DiscordID      *int64
	TelegramID     *int64
	DisplayName    string
	GoatedUsername string
}
