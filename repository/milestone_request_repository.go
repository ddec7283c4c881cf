package repository

import (
	"context"
	"fmt"

	"goatedbot/database"
	"goatedbot/models"
	"goatedbot/service"

	"github.com/jackc/pgx/v5"
)

// MilestoneRequestRepository implements the MilestoneRequestRepository interface
type MilestoneRequestRepository struct {
	q queryable
}

// NewMilestoneRequestRepository creates a new milestone request repository
func NewMilestoneRequestRepository(db *database.DB) *MilestoneRequestRepository {
	return &MilestoneRequestRepository{q: db.Pool}
}

// newMilestoneRequestRepositoryWithTx creates a new milestone request repository with a transaction
func newMilestoneRequestRepositoryWithTx(tx queryable) *MilestoneRequestRepository {
	return &MilestoneRequestRepository{q: tx}
}

const requestColumns = `
	id, username, requester_id, milestone_amount, bonus_amount, month_year,
	status, admin_notes, processed_by, processed_at, requested_at
`

func scanRequest(row pgx.Row) (*models.MilestoneRequest, error) {
	var req models.MilestoneRequest
	err := row.Scan(
		&req.ID,
		&req.Username,
		&req.RequesterID,
		&req.Amount,
		&req.BonusAmount,
		&req.MonthYear,
		&req.Status,
		&req.AdminNotes,
		&req.ProcessedBy,
		&req.ProcessedAt,
		&req.RequestedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a pending request, filling ID and RequestedAt. The
// uniqueness constraint on (username, milestone_amount, month_year) blocks
// re-submission for the lifetime of the row, whatever its status.
func (r *MilestoneRequestRepository) Create(ctx context.Context, req *models.MilestoneRequest) error {
	query := `
		INSERT INTO milestone_requests (username, requester_id, milestone_amount, bonus_amount, month_year, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, requested_at
	`

	err := r.q.QueryRow(ctx, query,
		req.Username,
		req.RequesterID,
		req.Amount,
		req.BonusAmount,
		req.MonthYear,
		req.Status,
	).Scan(&req.ID, &req.RequestedAt)

	if isUniqueViolation(err) {
		return service.ErrAlreadyRequested
	}
	if err != nil {
		return fmt.Errorf("failed to create request %d for %s: %w", req.Amount, req.Username, err)
	}

	return nil
}

// GetPending returns all pending requests oldest-first
func (r *MilestoneRequestRepository) GetPending(ctx context.Context) ([]*models.MilestoneRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM milestone_requests WHERE status = 'pending' ORDER BY requested_at`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending requests: %w", err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// GetByID returns the request, or nil when absent
func (r *MilestoneRequestRepository) GetByID(ctx context.Context, id int64) (*models.MilestoneRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM milestone_requests WHERE id = $1`

	req, err := scanRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get request %d: %w", id, err)
	}
	return req, nil
}

// GetForUser returns a user's requests, filtered to one month when monthYear
// is non-empty, newest first
func (r *MilestoneRequestRepository) GetForUser(ctx context.Context, username, monthYear string) ([]*models.MilestoneRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM milestone_requests
		WHERE LOWER(username) = LOWER($1)
		  AND ($2 = '' OR month_year = $2)
		ORDER BY requested_at DESC
	`

	rows, err := r.q.Query(ctx, query, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to get requests for %s: %w", username, err)
	}
	defer rows.Close()

	return collectRequests(rows)
}

// Resolve transitions a pending request to a terminal status, stamping the
// decider and timestamp. The status guard in the WHERE clause makes a lost
// race with another admin fail cleanly instead of double-resolving.
func (r *MilestoneRequestRepository) Resolve(ctx context.Context, id int64, status models.RequestStatus, adminID int64, notes *string) error {
	query := `
		UPDATE milestone_requests
		SET status = $2, processed_by = $3, processed_at = NOW(), admin_notes = $4
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, id, status, adminID, notes)
	if err != nil {
		return fmt.Errorf("failed to resolve request %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrRequestNotFound
	}

	return nil
}

// DeleteForUser removes all requests tied to the username or requester
func (r *MilestoneRequestRepository) DeleteForUser(ctx context.Context, username string, requesterID int64) error {
	query := `DELETE FROM milestone_requests WHERE LOWER(username) = LOWER($1) OR requester_id = $2`

	_, err := r.q.Exec(ctx, query, username, requesterID)
	if err != nil {
		return fmt.Errorf("failed to delete requests for %s: %w", username, err)
	}
	return nil
}

func collectRequests(rows pgx.Rows) ([]*models.MilestoneRequest, error) {
	var requests []*models.MilestoneRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}

	return requests, nil
}
