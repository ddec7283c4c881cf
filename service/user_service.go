package service

import (
	"context"
	"fmt"

	"goatedbot/events"
	"goatedbot/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	goated     GoatedClient
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, goated GoatedClient) UserService {
	return &userService{
		uowFactory: uowFactory,
		goated:     goated,
	}
}

// Register links a chat identity to a Goated username. The username must
// resolve to a real player; the stored username uses the API's canonical
// casing, not whatever the user typed. The external lookup happens before
// any transaction is opened.
func (s *userService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	if (reg.DiscordID == nil) == (reg.TelegramID == nil) {
		return nil, fmt.Errorf("exactly one platform id must be provided")
	}

	player, err := s.goated.FindPlayer(ctx, reg.GoatedUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to validate goated username: %w", err)
	}
	if player == nil {
		return nil, ErrPlayerNotFound
	}

	user := &models.User{
		DiscordID:      reg.DiscordID,
		TelegramID:     reg.TelegramID,
		Platform:       reg.Platform,
		DisplayName:    reg.DisplayName,
		GoatedUsername: player.Name,
		IsActive:       true,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.UserRegisteredEvent{
		UserID:         user.ID,
		Platform:       reg.Platform,
		PlatformID:     user.PlatformID(),
		GoatedUsername: user.GoatedUsername,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	log.WithFields(log.Fields{
		"platform":       reg.Platform,
		"goatedUsername": user.GoatedUsername,
	}).Info("Registered user")

	return user, nil
}

// GetByPlatformID retrieves a user by platform identity.
func (s *userService) GetByPlatformID(ctx context.Context, platform models.Platform, platformID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := s.lookup(ctx, uow, platform, platformID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return user, nil
}

// GetByGoatedUsername retrieves a user by their linked Goated username.
func (s *userService) GetByGoatedUsername(ctx context.Context, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByGoatedUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return user, nil
}

func (s *userService) lookup(ctx context.Context, uow UnitOfWork, platform models.Platform, platformID int64) (*models.User, error) {
	if platform == models.PlatformTelegram {
		return uow.UserRepository().GetByTelegramID(ctx, platformID)
	}
	return uow.UserRepository().GetByDiscordID(ctx, platformID)
}

// UpdateProfile applies a typed partial update to the user.
func (s *userService) UpdateProfile(ctx context.Context, userID int64, update models.UserUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().Update(ctx, userID, update); err != nil {
		return err
	}

	return uow.Commit()
}

// DataSummary summarizes the user's stored data, typically shown before
// unregistering.
func (s *userService) DataSummary(ctx context.Context, platform models.Platform, platformID int64) (*models.UserDataSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	summary, err := s.buildSummary(ctx, uow, platform, platformID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return summary, nil
}

func (s *userService) buildSummary(ctx context.Context, uow UnitOfWork, platform models.Platform, platformID int64) (*models.UserDataSummary, error) {
	user, err := s.lookup(ctx, uow, platform, platformID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	achievements, err := uow.MilestoneRepository().GetAchievements(ctx, user.GoatedUsername, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	requests, err := uow.MilestoneRequestRepository().GetForUser(ctx, user.GoatedUsername, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load requests: %w", err)
	}

	summary := &models.UserDataSummary{
		GoatedUsername:   user.GoatedUsername,
		RegisteredAt:     user.CreatedAt,
		LastWagerCheck:   user.LastWagerCheck,
		AchievementCount: len(achievements),
		RequestCount:     len(requests),
	}
	for _, a := range achievements {
		summary.TotalBonusEarned += a.BonusAmount
	}

	return summary, nil
}

// Unregister removes the user and everything keyed to them in one
// transaction: achievements, requests, ledger rows, and both cache rows.
// The freed Goated username can be claimed again immediately.
func (s *userService) Unregister(ctx context.Context, platform models.Platform, platformID int64) (*models.UserDataSummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := s.lookup(ctx, uow, platform, platformID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	summary, err := s.buildSummary(ctx, uow, platform, platformID)
	if err != nil {
		return nil, err
	}

	username := user.GoatedUsername

	if err := uow.UserRepository().Delete(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	if err := uow.MilestoneRepository().DeleteForUser(ctx, username); err != nil {
		return nil, fmt.Errorf("failed to delete achievements: %w", err)
	}
	if err := uow.MilestoneRequestRepository().DeleteForUser(ctx, username, platformID); err != nil {
		return nil, fmt.Errorf("failed to delete requests: %w", err)
	}
	if err := uow.WagerLedgerRepository().DeleteForUser(ctx, username); err != nil {
		return nil, fmt.Errorf("failed to delete ledger rows: %w", err)
	}
	if err := uow.WagerCacheRepository().DeleteForUser(ctx, username); err != nil {
		return nil, fmt.Errorf("failed to delete cache rows: %w", err)
	}

	uow.EventBus().Publish(events.UserUnregisteredEvent{
		Platform:       platform,
		PlatformID:     platformID,
		GoatedUsername: username,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit unregistration: %w", err)
	}

	log.WithFields(log.Fields{
		"platform":       platform,
		"goatedUsername": username,
	}).Info("Unregistered user and purged their data")

	return summary, nil
}

// ActiveUsers returns all active users.
func (s *userService) ActiveUsers(ctx context.Context) ([]*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().GetAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active users: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return users, nil
}

// UserCount returns the number of active users.
func (s *userService) UserCount(ctx context.Context) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	count, err := uow.UserRepository().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit read transaction: %w", err)
	}

	return count, nil
}
