package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"goatedbot/events"
	"goatedbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)
	}
}

func newMilestoneServiceForTest(uow *MockUnitOfWork) (*milestoneService, *MockUnitOfWorkFactory) {
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	return &milestoneService{uowFactory: factory, now: fixedClock()}, factory
}

func TestMilestoneService_Evaluate_CreditsNewThresholds(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	recorder := &RecordingEventPublisher{}
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, nil, nil, recorder)

	svc, factory := newMilestoneServiceForTest(mockUoW)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMileRepo.On("GetActiveDefinitions", ctx).Return(staticDefs(), nil)
	mockMileRepo.On("GetAchievedAmounts", ctx, "HighRoller", "2025-07").Return(map[int64]bool{10000: true}, nil)
	mockMileRepo.On("CreateAchievement", ctx, mock.AnythingOfType("*models.MilestoneAchievement")).Return(true, nil)

	created, err := svc.Evaluate(ctx, "HighRoller", 60000)
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.Equal(t, int64(25000), created[0].Amount)
	assert.Equal(t, int64(50000), created[1].Amount)
	assert.Equal(t, "2025-07", created[0].MonthYear)
	assert.Equal(t, 60000.0, created[0].MonthlyWager)

	require.Len(t, recorder.Events, 1)
	ev, ok := recorder.Events[0].(events.MilestoneAchievedEvent)
	require.True(t, ok)
	assert.Equal(t, "HighRoller", ev.Username)
	assert.Len(t, ev.Achievements, 2)

	factory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockMileRepo.AssertExpectations(t)
}

func TestMilestoneService_Evaluate_Idempotent(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	recorder := &RecordingEventPublisher{}
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, nil, nil, recorder)

	svc, _ := newMilestoneServiceForTest(mockUoW)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// Everything the wager covers is already achieved this month.
	mockMileRepo.On("GetActiveDefinitions", ctx).Return(staticDefs(), nil)
	mockMileRepo.On("GetAchievedAmounts", ctx, "HighRoller", "2025-07").
		Return(map[int64]bool{10000: true, 25000: true, 50000: true}, nil)

	created, err := svc.Evaluate(ctx, "HighRoller", 60000)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, recorder.Events)

	mockMileRepo.AssertNotCalled(t, "CreateAchievement")
}

func TestMilestoneService_Evaluate_SyntheticLadder(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, nil, nil, nil)

	svc, _ := newMilestoneServiceForTest(mockUoW)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	achieved := map[int64]bool{10000: true, 25000: true, 50000: true, 100000: true}
	mockMileRepo.On("GetActiveDefinitions", ctx).Return(staticDefs(), nil)
	mockMileRepo.On("GetAchievedAmounts", ctx, "Whale", "2025-07").Return(achieved, nil)
	mockMileRepo.On("CreateAchievement", ctx, mock.AnythingOfType("*models.MilestoneAchievement")).Return(true, nil)

	// 230k crosses the 150k and 200k rungs, not 250k.
	created, err := svc.Evaluate(ctx, "Whale", 230000)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, int64(150000), created[0].Amount)
	assert.Equal(t, int64(200000), created[1].Amount)
	assert.Equal(t, SyntheticLadderBonus, created[0].BonusAmount)
}

func TestMilestoneService_Evaluate_ConflictSkipsSilently(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	recorder := &RecordingEventPublisher{}
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, nil, nil, recorder)

	svc, _ := newMilestoneServiceForTest(mockUoW)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMileRepo.On("GetActiveDefinitions", ctx).Return(staticDefs(), nil)
	mockMileRepo.On("GetAchievedAmounts", ctx, "Racer", "2025-07").Return(map[int64]bool{}, nil)

	// A concurrent evaluation already inserted 10k; only 25k is new.
	mockMileRepo.On("CreateAchievement", ctx, mock.MatchedBy(func(a *models.MilestoneAchievement) bool {
		return a.Amount == 10000
	})).Return(false, nil)
	mockMileRepo.On("CreateAchievement", ctx, mock.MatchedBy(func(a *models.MilestoneAchievement) bool {
		return a.Amount == 25000
	})).Return(true, nil)

	created, err := svc.Evaluate(ctx, "Racer", 30000)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, int64(25000), created[0].Amount)

	require.Len(t, recorder.Events, 1)
}

func TestMilestoneService_Evaluate_StorageErrorAbortsBatch(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	recorder := &RecordingEventPublisher{}
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, nil, nil, recorder)

	svc, _ := newMilestoneServiceForTest(mockUoW)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMileRepo.On("GetActiveDefinitions", ctx).Return(staticDefs(), nil)
	mockMileRepo.On("GetAchievedAmounts", ctx, "Unlucky", "2025-07").Return(map[int64]bool{}, nil)
	mockMileRepo.On("CreateAchievement", ctx, mock.Anything).Return(false, errors.New("connection reset"))

	created, err := svc.Evaluate(ctx, "Unlucky", 30000)
	assert.Error(t, err)
	assert.Nil(t, created)
	assert.Empty(t, recorder.Events)

	mockUoW.AssertNotCalled(t, "Commit")
}

func TestMilestoneService_NextMilestone(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, nil, nil, nil)

	svc, _ := newMilestoneServiceForTest(mockUoW)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMileRepo.On("GetActiveDefinitions", ctx).Return(staticDefs(), nil)
	mockMileRepo.On("GetAchievedAmounts", ctx, "Grinder", "2025-07").Return(map[int64]bool{10000: true}, nil)

	next, err := svc.NextMilestone(ctx, "Grinder", 18000)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, int64(25000), next.Amount)
	assert.Equal(t, float64(7000), next.Remaining)
}

func TestMilestoneService_MarkNotified_ScopedToMonth(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, nil, nil, nil)

	svc, _ := newMilestoneServiceForTest(mockUoW)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMileRepo.On("MarkNotified", ctx, "HighRoller", "2025-07", []int64{25000, 50000}).Return(nil)

	require.NoError(t, svc.MarkNotified(ctx, "HighRoller", "2025-07", []int64{25000, 50000}))
	mockMileRepo.AssertExpectations(t)

	t.Run("empty amount list skips storage", func(t *testing.T) {
		require.NoError(t, svc.MarkNotified(ctx, "HighRoller", "2025-07", nil))
		mockMileRepo.AssertNumberOfCalls(t, "MarkNotified", 1)
	})
}

func TestMilestoneService_ProgressReport(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	mockReqRepo := new(MockMilestoneRequestRepository)
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, mockReqRepo, nil, nil)

	svc, _ := newMilestoneServiceForTest(mockUoW)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	achievements := []*models.MilestoneAchievement{
		{Username: "Grinder", Amount: 10000, BonusAmount: 10.0, MonthYear: "2025-07"},
	}
	requests := []*models.MilestoneRequest{
		{Username: "Grinder", Amount: 10000, MonthYear: "2025-07", Status: models.RequestStatusPending},
	}

	mockMileRepo.On("GetAchievements", ctx, "Grinder", "2025-07").Return(achievements, nil)
	mockReqRepo.On("GetForUser", ctx, "Grinder", "2025-07").Return(requests, nil)
	mockMileRepo.On("GetActiveDefinitions", ctx).Return(staticDefs(), nil)

	report, err := svc.ProgressReport(ctx, "Grinder", 18000)
	require.NoError(t, err)
	assert.Equal(t, "2025-07", report.MonthYear)
	assert.Len(t, report.Achievements, 1)
	assert.Len(t, report.Requests, 1)
	require.NotNil(t, report.Next)
	assert.Equal(t, int64(25000), report.Next.Amount)
}
