package repository

import (
	"context"
	"fmt"

	"goatedbot/database"
	"goatedbot/events"
	"goatedbot/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	userRepo         service.UserRepository
	wagerCacheRepo   service.WagerCacheRepository
	wagerLedgerRepo  service.WagerLedgerRepository
	milestoneRepo    service.MilestoneRepository
	requestRepo      service.MilestoneRequestRepository
	snapshotRepo     service.LeaderboardSnapshotRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.userRepo = newUserRepositoryWithTx(tx)
	u.wagerCacheRepo = newWagerCacheRepositoryWithTx(tx)
	u.wagerLedgerRepo = newWagerLedgerRepositoryWithTx(tx)
	u.milestoneRepo = newMilestoneRepositoryWithTx(tx)
	u.requestRepo = newMilestoneRequestRepositoryWithTx(tx)
	u.snapshotRepo = newLeaderboardSnapshotRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// WagerCacheRepository returns the wager cache repository for this unit of work
func (u *unitOfWork) WagerCacheRepository() service.WagerCacheRepository {
	if u.wagerCacheRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerCacheRepo
}

// WagerLedgerRepository returns the wager ledger repository for this unit of work
func (u *unitOfWork) WagerLedgerRepository() service.WagerLedgerRepository {
	if u.wagerLedgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerLedgerRepo
}

// MilestoneRepository returns the milestone repository for this unit of work
func (u *unitOfWork) MilestoneRepository() service.MilestoneRepository {
	if u.milestoneRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.milestoneRepo
}

// MilestoneRequestRepository returns the milestone request repository for this unit of work
func (u *unitOfWork) MilestoneRequestRepository() service.MilestoneRequestRepository {
	if u.requestRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.requestRepo
}

// LeaderboardSnapshotRepository returns the leaderboard snapshot repository for this unit of work
func (u *unitOfWork) LeaderboardSnapshotRepository() service.LeaderboardSnapshotRepository {
	if u.snapshotRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.snapshotRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
