package service

import (
	"context"
	"fmt"

	"goatedbot/events"
	"goatedbot/models"

	log "github.com/sirupsen/logrus"
)

// requestService implements the RequestService interface
type requestService struct {
	uowFactory UnitOfWorkFactory
}

// NewRequestService creates a new reward request service
func NewRequestService(uowFactory UnitOfWorkFactory) RequestService {
	return &requestService{
		uowFactory: uowFactory,
	}
}

// Request creates a pending reward claim against an existing achievement.
// Exactly one lifetime request per (user, milestone, month): a prior request
// blocks re-submission whatever its status, denied included.
func (s *requestService) Request(ctx context.Context, username string, requesterID int64, amount int64, bonus float64, monthYear string) (*models.MilestoneRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// The claim must be backed by an achievement row; the UI offering the
	// button is not trusted to guarantee that.
	achieved, err := uow.MilestoneRepository().GetAchievedAmounts(ctx, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to verify achievement: %w", err)
	}
	if !achieved[amount] {
		return nil, ErrNoAchievement
	}

	req := &models.MilestoneRequest{
		Username:    username,
		RequesterID: requesterID,
		Amount:      amount,
		BonusAmount: bonus,
		MonthYear:   monthYear,
		Status:      models.RequestStatusPending,
	}

	if err := uow.MilestoneRequestRepository().Create(ctx, req); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.RequestCreatedEvent{
		Username:    username,
		RequesterID: requesterID,
		Amount:      amount,
		BonusAmount: bonus,
		MonthYear:   monthYear,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit request: %w", err)
	}

	log.WithFields(log.Fields{
		"username":  username,
		"milestone": amount,
		"monthYear": monthYear,
	}).Info("Created milestone reward request")

	return req, nil
}

// ListPending returns all pending requests oldest-first for admin review.
func (s *requestService) ListPending(ctx context.Context) ([]*models.MilestoneRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pending, err := uow.MilestoneRequestRepository().GetPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending requests: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return pending, nil
}

// Resolve transitions a pending request to approved or denied. Resolved
// requests are terminal; re-resolution fails with ErrRequestNotFound.
func (s *requestService) Resolve(ctx context.Context, requestID int64, decision models.RequestStatus, adminID int64, notes string) error {
	if !decision.IsTerminal() {
		return fmt.Errorf("invalid decision %q: must be approved or denied", decision)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	req, err := uow.MilestoneRequestRepository().GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to load request %d: %w", requestID, err)
	}
	if req == nil || req.Status != models.RequestStatusPending {
		return ErrRequestNotFound
	}

	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}

	if err := uow.MilestoneRequestRepository().Resolve(ctx, requestID, decision, adminID, notesPtr); err != nil {
		return err
	}

	uow.EventBus().Publish(events.RequestResolvedEvent{
		RequestID:   requestID,
		Username:    req.Username,
		RequesterID: req.RequesterID,
		Amount:      req.Amount,
		BonusAmount: req.BonusAmount,
		Status:      decision,
		AdminID:     adminID,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolution: %w", err)
	}

	log.WithFields(log.Fields{
		"requestId": requestID,
		"decision":  decision,
		"adminId":   adminID,
	}).Info("Resolved milestone reward request")

	return nil
}

// UserRequests returns a user's requests, optionally filtered to one month.
func (s *requestService) UserRequests(ctx context.Context, username, monthYear string) ([]*models.MilestoneRequest, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	requests, err := uow.MilestoneRequestRepository().GetForUser(ctx, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return requests, nil
}
