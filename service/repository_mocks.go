package service

import (
	"context"
	"time"

	"goatedbot/events"
	"goatedbot/goated"
	"goatedbot/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByGoatedUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, id int64, update models.UserUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) GetAllActive(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockWagerCacheRepository is a mock implementation of WagerCacheRepository
type MockWagerCacheRepository struct {
	mock.Mock
}

func (m *MockWagerCacheRepository) GetStats(ctx context.Context, username string) (*models.WagerStats, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WagerStats), args.Error(1)
}

func (m *MockWagerCacheRepository) PutStats(ctx context.Context, stats *models.WagerStats, ttl time.Duration) error {
	args := m.Called(ctx, stats, ttl)
	return args.Error(0)
}

func (m *MockWagerCacheRepository) GetLeaderboard(ctx context.Context, username string) (*models.LeaderboardPosition, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaderboardPosition), args.Error(1)
}

func (m *MockWagerCacheRepository) PutLeaderboard(ctx context.Context, pos *models.LeaderboardPosition, ttl time.Duration) error {
	args := m.Called(ctx, pos, ttl)
	return args.Error(0)
}

func (m *MockWagerCacheRepository) DeleteForUser(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// MockWagerLedgerRepository is a mock implementation of WagerLedgerRepository
type MockWagerLedgerRepository struct {
	mock.Mock
}

func (m *MockWagerLedgerRepository) Record(ctx context.Context, username string, date time.Time, dailyWager, totalWager float64) error {
	args := m.Called(ctx, username, date, dailyWager, totalWager)
	return args.Error(0)
}

func (m *MockWagerLedgerRepository) RollingSum(ctx context.Context, username string, windowDays int, asOf time.Time) (float64, error) {
	args := m.Called(ctx, username, windowDays, asOf)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockWagerLedgerRepository) History(ctx context.Context, username string, days int) ([]*models.DailyWagerRecord, error) {
	args := m.Called(ctx, username, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailyWagerRecord), args.Error(1)
}

func (m *MockWagerLedgerRepository) Prune(ctx context.Context, retentionDays int) (int64, error) {
	args := m.Called(ctx, retentionDays)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWagerLedgerRepository) DeleteForUser(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// MockMilestoneRepository is a mock implementation of MilestoneRepository
type MockMilestoneRepository struct {
	mock.Mock
}

func (m *MockMilestoneRepository) GetActiveDefinitions(ctx context.Context) ([]*models.MilestoneDefinition, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MilestoneDefinition), args.Error(1)
}

func (m *MockMilestoneRepository) GetAchievedAmounts(ctx context.Context, username, monthYear string) (map[int64]bool, error) {
	args := m.Called(ctx, username, monthYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]bool), args.Error(1)
}

func (m *MockMilestoneRepository) CreateAchievement(ctx context.Context, a *models.MilestoneAchievement) (bool, error) {
	args := m.Called(ctx, a)
	return args.Bool(0), args.Error(1)
}

func (m *MockMilestoneRepository) GetAchievements(ctx context.Context, username, monthYear string) ([]*models.MilestoneAchievement, error) {
	args := m.Called(ctx, username, monthYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MilestoneAchievement), args.Error(1)
}

func (m *MockMilestoneRepository) MarkNotified(ctx context.Context, username, monthYear string, amounts []int64) error {
	args := m.Called(ctx, username, monthYear, amounts)
	return args.Error(0)
}

func (m *MockMilestoneRepository) DeleteForUser(ctx context.Context, username string) error {
	args := m.Called(ctx, username)
	return args.Error(0)
}

// MockMilestoneRequestRepository is a mock implementation of MilestoneRequestRepository
type MockMilestoneRequestRepository struct {
	mock.Mock
}

func (m *MockMilestoneRequestRepository) Create(ctx context.Context, req *models.MilestoneRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockMilestoneRequestRepository) GetPending(ctx context.Context) ([]*models.MilestoneRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MilestoneRequest), args.Error(1)
}

func (m *MockMilestoneRequestRepository) GetByID(ctx context.Context, id int64) (*models.MilestoneRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MilestoneRequest), args.Error(1)
}

func (m *MockMilestoneRequestRepository) GetForUser(ctx context.Context, username, monthYear string) ([]*models.MilestoneRequest, error) {
	args := m.Called(ctx, username, monthYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MilestoneRequest), args.Error(1)
}

func (m *MockMilestoneRequestRepository) Resolve(ctx context.Context, id int64, status models.RequestStatus, adminID int64, notes *string) error {
	args := m.Called(ctx, id, status, adminID, notes)
	return args.Error(0)
}

func (m *MockMilestoneRequestRepository) DeleteForUser(ctx context.Context, username string, requesterID int64) error {
	args := m.Called(ctx, username, requesterID)
	return args.Error(0)
}

// MockLeaderboardSnapshotRepository is a mock implementation of LeaderboardSnapshotRepository
type MockLeaderboardSnapshotRepository struct {
	mock.Mock
}

func (m *MockLeaderboardSnapshotRepository) Store(ctx context.Context, snapshotDate time.Time, entries []*models.LeaderboardEntry) error {
	args := m.Called(ctx, snapshotDate, entries)
	return args.Error(0)
}

func (m *MockLeaderboardSnapshotRepository) GetByDate(ctx context.Context, snapshotDate time.Time) (*models.LeaderboardSnapshot, error) {
	args := m.Called(ctx, snapshotDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeaderboardSnapshot), args.Error(1)
}

func (m *MockLeaderboardSnapshotRepository) GetRecent(ctx context.Context, limit int) ([]*models.LeaderboardSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardSnapshot), args.Error(1)
}

// MockGoatedClient is a mock implementation of GoatedClient
type MockGoatedClient struct {
	mock.Mock
}

func (m *MockGoatedClient) FindPlayer(ctx context.Context, username string) (*goated.Player, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*goated.Player), args.Error(1)
}

func (m *MockGoatedClient) ValidateUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockGoatedClient) PlayerPosition(ctx context.Context, username string) (*goated.Position, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*goated.Position), args.Error(1)
}

func (m *MockGoatedClient) TopPlayers(ctx context.Context, limit int) ([]*goated.Player, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*goated.Player), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// RecordingEventPublisher collects published events without expectations,
// for tests that only care about what was emitted.
type RecordingEventPublisher struct {
	Events []events.Event
}

func (p *RecordingEventPublisher) Publish(event events.Event) {
	p.Events = append(p.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Begin, Commit, and
// Rollback go through expectations; repository getters return whatever was
// wired via SetRepositories.
type MockUnitOfWork struct {
	mock.Mock

	userRepo    UserRepository
	cacheRepo   WagerCacheRepository
	ledgerRepo  WagerLedgerRepository
	mileRepo    MilestoneRepository
	requestRepo MilestoneRequestRepository
	snapRepo    LeaderboardSnapshotRepository
	bus         EventPublisher
}

// SetRepositories wires the repositories this unit of work hands out. Nil is
// fine for repositories the test never touches.
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	cacheRepo WagerCacheRepository,
	ledgerRepo WagerLedgerRepository,
	mileRepo MilestoneRepository,
	requestRepo MilestoneRequestRepository,
	snapRepo LeaderboardSnapshotRepository,
	bus EventPublisher,
) {
	m.userRepo = userRepo
	m.cacheRepo = cacheRepo
	m.ledgerRepo = ledgerRepo
	m.mileRepo = mileRepo
	m.requestRepo = requestRepo
	m.snapRepo = snapRepo
	m.bus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository { return m.userRepo }

func (m *MockUnitOfWork) WagerCacheRepository() WagerCacheRepository { return m.cacheRepo }

func (m *MockUnitOfWork) WagerLedgerRepository() WagerLedgerRepository { return m.ledgerRepo }

func (m *MockUnitOfWork) MilestoneRepository() MilestoneRepository { return m.mileRepo }

func (m *MockUnitOfWork) MilestoneRequestRepository() MilestoneRequestRepository {
	return m.requestRepo
}

func (m *MockUnitOfWork) LeaderboardSnapshotRepository() LeaderboardSnapshotRepository {
	return m.snapRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.bus == nil {
		return &RecordingEventPublisher{}
	}
	return m.bus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
