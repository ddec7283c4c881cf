package service

import (
	"context"
	"testing"

	"goatedbot/events"
	"goatedbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRequestService_Request_Success(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	mockReqRepo := new(MockMilestoneRequestRepository)
	recorder := &RecordingEventPublisher{}
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, mockReqRepo, nil, recorder)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewRequestService(factory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMileRepo.On("GetAchievedAmounts", ctx, "HighRoller", "2025-07").Return(map[int64]bool{25000: true}, nil)
	mockReqRepo.On("Create", ctx, mock.AnythingOfType("*models.MilestoneRequest")).Return(nil)

	req, err := svc.Request(ctx, "HighRoller", 42, 25000, 15.0, "2025-07")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, req.Status)
	assert.Equal(t, int64(25000), req.Amount)

	require.Len(t, recorder.Events, 1)
	_, ok := recorder.Events[0].(events.RequestCreatedEvent)
	assert.True(t, ok)
}

func TestRequestService_Request_NoAchievement(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	mockReqRepo := new(MockMilestoneRequestRepository)
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, mockReqRepo, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewRequestService(factory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// No achievement row backs the claim.
	mockMileRepo.On("GetAchievedAmounts", ctx, "Pretender", "2025-07").Return(map[int64]bool{}, nil)

	req, err := svc.Request(ctx, "Pretender", 42, 25000, 15.0, "2025-07")
	assert.ErrorIs(t, err, ErrNoAchievement)
	assert.Nil(t, req)

	mockReqRepo.AssertNotCalled(t, "Create")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestRequestService_Request_Duplicate(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockMileRepo := new(MockMilestoneRepository)
	mockReqRepo := new(MockMilestoneRequestRepository)
	mockUoW.SetRepositories(nil, nil, nil, mockMileRepo, mockReqRepo, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewRequestService(factory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockMileRepo.On("GetAchievedAmounts", ctx, "HighRoller", "2025-07").Return(map[int64]bool{25000: true}, nil)
	// A prior request exists for this (user, milestone, month), even a denied one.
	mockReqRepo.On("Create", ctx, mock.Anything).Return(ErrAlreadyRequested)

	req, err := svc.Request(ctx, "HighRoller", 42, 25000, 15.0, "2025-07")
	assert.ErrorIs(t, err, ErrAlreadyRequested)
	assert.Nil(t, req)

	mockUoW.AssertNotCalled(t, "Commit")
}

func TestRequestService_Resolve_Approve(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockReqRepo := new(MockMilestoneRequestRepository)
	recorder := &RecordingEventPublisher{}
	mockUoW.SetRepositories(nil, nil, nil, nil, mockReqRepo, nil, recorder)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewRequestService(factory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	pending := &models.MilestoneRequest{
		ID:          7,
		Username:    "HighRoller",
		RequesterID: 42,
		Amount:      25000,
		BonusAmount: 15.0,
		MonthYear:   "2025-07",
		Status:      models.RequestStatusPending,
	}

	mockReqRepo.On("GetByID", ctx, int64(7)).Return(pending, nil)
	mockReqRepo.On("Resolve", ctx, int64(7), models.RequestStatusApproved, int64(99), mock.AnythingOfType("*string")).Return(nil)

	err := svc.Resolve(ctx, 7, models.RequestStatusApproved, 99, "paid out")
	require.NoError(t, err)

	require.Len(t, recorder.Events, 1)
	ev, ok := recorder.Events[0].(events.RequestResolvedEvent)
	require.True(t, ok)
	assert.Equal(t, models.RequestStatusApproved, ev.Status)
	assert.Equal(t, int64(99), ev.AdminID)
}

func TestRequestService_Resolve_AlreadyResolved(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockReqRepo := new(MockMilestoneRequestRepository)
	mockUoW.SetRepositories(nil, nil, nil, nil, mockReqRepo, nil, nil)

	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(mockUoW)
	svc := NewRequestService(factory)

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	denied := &models.MilestoneRequest{ID: 7, Status: models.RequestStatusDenied}
	mockReqRepo.On("GetByID", ctx, int64(7)).Return(denied, nil)

	err := svc.Resolve(ctx, 7, models.RequestStatusApproved, 99, "")
	assert.ErrorIs(t, err, ErrRequestNotFound)

	mockReqRepo.AssertNotCalled(t, "Resolve")
}

func TestRequestService_Resolve_InvalidDecision(t *testing.T) {
	ctx := context.Background()

	factory := new(MockUnitOfWorkFactory)
	svc := NewRequestService(factory)

	err := svc.Resolve(ctx, 7, models.RequestStatusPending, 99, "")
	assert.Error(t, err)

	factory.AssertNotCalled(t, "Create")
}
