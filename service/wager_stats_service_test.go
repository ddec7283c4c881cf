package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"goatedbot/goated"
	"goatedbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWagerStatsService_GetWagerStats_CacheHit(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockCacheRepo := new(MockWagerCacheRepository)
	mockGoated := new(MockGoatedClient)
	mockUoW.SetRepositories(nil, mockCacheRepo, nil, nil, nil, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewWagerStatsService(factory, mockGoated, 0, 0)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	cached := &models.WagerStats{
		Username:       "HighRoller",
		DailyWager:     1200,
		Last7DaysWager: 8000,
		MonthlyWager:   30000,
		CachedAt:       time.Now(),
	}
	mockCacheRepo.On("GetStats", ctx, "HighRoller").Return(cached, nil)

	stats, err := svc.GetWagerStats(ctx, "HighRoller")
	require.NoError(t, err)
	assert.Equal(t, cached, stats)

	// A fresh cache row means no external call at all.
	mockGoated.AssertNotCalled(t, "FindPlayer")
}

func TestWagerStatsService_GetWagerStats_CacheMiss(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockUserRepo := new(MockUserRepository)
	mockCacheRepo := new(MockWagerCacheRepository)
	mockLedgerRepo := new(MockWagerLedgerRepository)
	mockGoated := new(MockGoatedClient)
	mockUoW.SetRepositories(mockUserRepo, mockCacheRepo, mockLedgerRepo, nil, nil, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewWagerStatsService(factory, mockGoated, 5*time.Minute, 30)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockCacheRepo.On("GetStats", ctx, "highroller").Return(nil, nil)

	mockGoated.On("FindPlayer", ctx, "highroller").Return(&goated.Player{
		UID:  "uid-1",
		Name: "HighRoller",
		Wagered: goated.Wagers{
			Today:     1500,
			ThisWeek:  8200,
			ThisMonth: 32000,
			AllTime:   450000,
		},
	}, nil)

	mockLedgerRepo.On("Record", ctx, "HighRoller", mock.AnythingOfType("time.Time"), 1500.0, 450000.0).Return(nil)
	mockLedgerRepo.On("RollingSum", ctx, "HighRoller", RollingWindowDays, mock.AnythingOfType("time.Time")).Return(9100.0, nil)
	mockCacheRepo.On("PutStats", ctx, mock.AnythingOfType("*models.WagerStats"), 5*time.Minute).Return(nil)
	mockUserRepo.On("GetByGoatedUsername", ctx, "HighRoller").Return(nil, nil)

	stats, err := svc.GetWagerStats(ctx, "highroller")
	require.NoError(t, err)
	assert.Equal(t, "HighRoller", stats.Username)
	assert.Equal(t, 1500.0, stats.DailyWager)
	// The rolling figure comes from the ledger, not the API's weekly bucket.
	assert.Equal(t, 9100.0, stats.Last7DaysWager)
	assert.Equal(t, 32000.0, stats.MonthlyWager)

	mockLedgerRepo.AssertExpectations(t)
	mockCacheRepo.AssertExpectations(t)
}

func TestWagerStatsService_GetWagerStats_UnknownPlayer(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockCacheRepo := new(MockWagerCacheRepository)
	mockGoated := new(MockGoatedClient)
	mockUoW.SetRepositories(nil, mockCacheRepo, nil, nil, nil, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewWagerStatsService(factory, mockGoated, 0, 0)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockCacheRepo.On("GetStats", ctx, "ghost").Return(nil, nil)
	mockGoated.On("FindPlayer", ctx, "ghost").Return(nil, nil)

	stats, err := svc.GetWagerStats(ctx, "ghost")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Nil(t, stats)
}

func TestWagerStatsService_GetWagerStats_LedgerFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockUserRepo := new(MockUserRepository)
	mockCacheRepo := new(MockWagerCacheRepository)
	mockLedgerRepo := new(MockWagerLedgerRepository)
	mockGoated := new(MockGoatedClient)
	mockUoW.SetRepositories(mockUserRepo, mockCacheRepo, mockLedgerRepo, nil, nil, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewWagerStatsService(factory, mockGoated, 0, 0)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockCacheRepo.On("GetStats", ctx, "HighRoller").Return(nil, nil)
	mockGoated.On("FindPlayer", ctx, "HighRoller").Return(&goated.Player{
		Name:    "HighRoller",
		Wagered: goated.Wagers{Today: 100, ThisWeek: 700, ThisMonth: 3000, AllTime: 90000},
	}, nil)

	// Ledger writes fail; the caller still gets API data.
	mockLedgerRepo.On("Record", ctx, "HighRoller", mock.Anything, 100.0, 90000.0).Return(errors.New("disk full"))
	mockLedgerRepo.On("RollingSum", ctx, "HighRoller", RollingWindowDays, mock.Anything).Return(0.0, errors.New("disk full"))
	mockCacheRepo.On("PutStats", ctx, mock.Anything, mock.Anything).Return(nil)
	mockUserRepo.On("GetByGoatedUsername", ctx, "HighRoller").Return(nil, nil)

	stats, err := svc.GetWagerStats(ctx, "HighRoller")
	require.NoError(t, err)
	assert.Equal(t, 100.0, stats.DailyWager)
	assert.Equal(t, 0.0, stats.Last7DaysWager)
}

func TestWagerStatsService_RollingSevenDay(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockLedgerRepo := new(MockWagerLedgerRepository)
	mockUoW.SetRepositories(nil, nil, mockLedgerRepo, nil, nil, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewWagerStatsService(factory, new(MockGoatedClient), 0, 0)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLedgerRepo.On("RollingSum", ctx, "HighRoller", RollingWindowDays, mock.AnythingOfType("time.Time")).Return(12345.67, nil)

	sum, err := svc.RollingSevenDay(ctx, "HighRoller")
	require.NoError(t, err)
	assert.Equal(t, 12345.67, sum)
}

func TestWagerStatsService_PruneLedger(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockLedgerRepo := new(MockWagerLedgerRepository)
	mockUoW.SetRepositories(nil, nil, mockLedgerRepo, nil, nil, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewWagerStatsService(factory, new(MockGoatedClient), 0, 14)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockLedgerRepo.On("Prune", ctx, 14).Return(int64(42), nil)

	deleted, err := svc.PruneLedger(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), deleted)
}
