package service

import (
	"context"
	"fmt"
	"time"

	"goatedbot/events"
	"goatedbot/models"

	log "github.com/sirupsen/logrus"
)

// milestoneService implements the MilestoneService interface
type milestoneService struct {
	uowFactory UnitOfWorkFactory
	now        func() time.Time
}

// NewMilestoneService creates a new milestone service
func NewMilestoneService(uowFactory UnitOfWorkFactory) MilestoneService {
	return &milestoneService{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

// Evaluate credits thresholds crossed by the current monthly wager. The
// month bucket comes from the wall clock at evaluation time, never from the
// caller. The whole batch runs in one transaction: a storage error reports
// zero new achievements and the next call re-evaluates from scratch.
func (s *milestoneService) Evaluate(ctx context.Context, username string, monthlyWager float64) ([]*models.MilestoneAchievement, error) {
	monthYear := models.MonthKey(s.now())

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	defs, err := uow.MilestoneRepository().GetActiveDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestone definitions: %w", err)
	}

	achieved, err := uow.MilestoneRepository().GetAchievedAmounts(ctx, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load achieved milestones: %w", err)
	}

	var created []*models.MilestoneAchievement
	for _, def := range crossedThresholds(defs, achieved, monthlyWager) {
		achievement := &models.MilestoneAchievement{
			Username:     username,
			Amount:       def.Amount,
			BonusAmount:  def.BonusAmount,
			MonthYear:    monthYear,
			MonthlyWager: monthlyWager,
		}

		inserted, err := uow.MilestoneRepository().CreateAchievement(ctx, achievement)
		if err != nil {
			return nil, fmt.Errorf("failed to record achievement %d for %s: %w", def.Amount, username, err)
		}
		// A concurrent evaluation may have credited this threshold first;
		// the uniqueness constraint makes that a silent skip.
		if inserted {
			created = append(created, achievement)
		}
	}

	if len(created) > 0 {
		uow.EventBus().Publish(events.MilestoneAchievedEvent{
			Username:     username,
			MonthYear:    monthYear,
			Achievements: created,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit achievements: %w", err)
	}

	if len(created) > 0 {
		log.WithFields(log.Fields{
			"username":  username,
			"monthYear": monthYear,
			"count":     len(created),
		}).Info("Credited new monthly milestones")
	}

	return created, nil
}

// NextMilestone returns the smallest unachieved threshold above the current
// monthly wager for this calendar month.
func (s *milestoneService) NextMilestone(ctx context.Context, username string, monthlyWager float64) (*models.NextMilestone, error) {
	monthYear := models.MonthKey(s.now())

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	defs, err := uow.MilestoneRepository().GetActiveDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestone definitions: %w", err)
	}

	achieved, err := uow.MilestoneRepository().GetAchievedAmounts(ctx, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load achieved milestones: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return nextThreshold(defs, achieved, monthlyWager), nil
}

// ProgressReport returns the user's full progress picture for the current
// month: achievements, outstanding requests, and the next target.
func (s *milestoneService) ProgressReport(ctx context.Context, username string, monthlyWager float64) (*models.MilestoneProgress, error) {
	monthYear := models.MonthKey(s.now())

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	achievements, err := uow.MilestoneRepository().GetAchievements(ctx, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	requests, err := uow.MilestoneRequestRepository().GetForUser(ctx, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}

	defs, err := uow.MilestoneRepository().GetActiveDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load milestone definitions: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	achieved := make(map[int64]bool, len(achievements))
	for _, a := range achievements {
		achieved[a.Amount] = true
	}

	return &models.MilestoneProgress{
		MonthYear:    monthYear,
		Achievements: achievements,
		Requests:     requests,
		Next:         nextThreshold(defs, achieved, monthlyWager),
	}, nil
}

// MarkNotified flags one month's achievements as notified after a delivery
// attempt. Month-scoped so a repeated threshold in a later month stays
// eligible for its own notification.
func (s *milestoneService) MarkNotified(ctx context.Context, username, monthYear string, amounts []int64) error {
	if len(amounts) == 0 {
		return nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.MilestoneRepository().MarkNotified(ctx, username, monthYear, amounts); err != nil {
		return fmt.Errorf("failed to mark achievements notified: %w", err)
	}

	return uow.Commit()
}
