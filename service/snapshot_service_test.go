package service

import (
	"context"
	"testing"
	"time"

	"goatedbot/goated"
	"goatedbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSnapshotServiceForTest(uow *MockUnitOfWork, client GoatedClient, loc *time.Location, now time.Time) *snapshotService {
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	return &snapshotService{
		uowFactory: factory,
		goated:     client,
		size:       DefaultSnapshotSize,
		loc:        loc,
		now:        func() time.Time { return now },
	}
}

func topPlayersFixture() []*goated.Player {
	return []*goated.Player{
		{UID: "u1", Name: "Whale", AffiliateID: "aff1", Wagered: goated.Wagers{Today: 100, ThisWeek: 5000, ThisMonth: 20000, AllTime: 90000}},
		{UID: "u2", Name: "Grinder", AffiliateID: "aff1", Wagered: goated.Wagers{Today: 50, ThisWeek: 3000, ThisMonth: 8000, AllTime: 40000}},
	}
}

func TestSnapshotService_CaptureWeekly_DatesInConfiguredLocation(t *testing.T) {
	ctx := context.Background()

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	mockUoW := new(MockUnitOfWork)
	mockLedgerRepo := new(MockWagerLedgerRepository)
	mockSnapRepo := new(MockLeaderboardSnapshotRepository)
	mockClient := new(MockGoatedClient)
	mockUoW.SetRepositories(nil, nil, mockLedgerRepo, nil, nil, mockSnapRepo, nil)

	// Sunday 19:30 in Chicago is already Monday 00:30 UTC. The snapshot
	// must still file under the Sunday.
	now := time.Date(2025, 7, 14, 0, 30, 0, 0, time.UTC)
	svc := newSnapshotServiceForTest(mockUoW, mockClient, chicago, now)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockClient.On("TopPlayers", ctx, DefaultSnapshotSize).Return(topPlayersFixture(), nil)
	mockLedgerRepo.On("RollingSum", ctx, mock.AnythingOfType("string"), RollingWindowDays, now).Return(0.0, nil)

	mockSnapRepo.On("Store", ctx, mock.MatchedBy(func(d time.Time) bool {
		return d.Format("2006-01-02") == "2025-07-13"
	}), mock.AnythingOfType("[]*models.LeaderboardEntry")).Return(nil)

	snapshot, err := svc.CaptureWeekly(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-13", snapshot.SnapshotDate.Format("2006-01-02"))
	assert.Equal(t, now, snapshot.CapturedAt)

	mockSnapRepo.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
}

func TestSnapshotService_CaptureWeekly_LedgerOverridesWeeklyFigure(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockLedgerRepo := new(MockWagerLedgerRepository)
	mockSnapRepo := new(MockLeaderboardSnapshotRepository)
	mockClient := new(MockGoatedClient)
	mockUoW.SetRepositories(nil, nil, mockLedgerRepo, nil, nil, mockSnapRepo, nil)

	now := time.Date(2025, 7, 13, 19, 0, 0, 0, time.UTC)
	svc := newSnapshotServiceForTest(mockUoW, mockClient, time.UTC, now)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockClient.On("TopPlayers", ctx, DefaultSnapshotSize).Return(topPlayersFixture(), nil)
	// Whale has ledger history, Grinder does not.
	mockLedgerRepo.On("RollingSum", ctx, "Whale", RollingWindowDays, now).Return(6200.0, nil)
	mockLedgerRepo.On("RollingSum", ctx, "Grinder", RollingWindowDays, now).Return(0.0, nil)

	var stored []*models.LeaderboardEntry
	mockSnapRepo.On("Store", ctx, mock.AnythingOfType("time.Time"), mock.AnythingOfType("[]*models.LeaderboardEntry")).
		Run(func(args mock.Arguments) {
			stored = args.Get(2).([]*models.LeaderboardEntry)
		}).Return(nil)

	_, err := svc.CaptureWeekly(ctx)
	require.NoError(t, err)

	require.Len(t, stored, 2)
	assert.Equal(t, 6200.0, stored[0].Last7DaysWager)
	assert.Equal(t, 3000.0, stored[1].Last7DaysWager)
	assert.Equal(t, 1, stored[0].Rank)
	assert.Equal(t, 2, stored[1].Rank)
}

func TestSnapshotService_CaptureWeekly_EmptyLeaderboardFails(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockClient := new(MockGoatedClient)

	svc := newSnapshotServiceForTest(mockUoW, mockClient, time.UTC, time.Date(2025, 7, 13, 19, 0, 0, 0, time.UTC))

	mockClient.On("TopPlayers", ctx, DefaultSnapshotSize).Return([]*goated.Player{}, nil)

	snapshot, err := svc.CaptureWeekly(ctx)
	assert.Error(t, err)
	assert.Nil(t, snapshot)
	mockUoW.AssertNotCalled(t, "Begin")
}
