package repository

import (
	"context"
	"fmt"

	"goatedbot/database"
	"goatedbot/models"
)

// CommandLogRepository implements the CommandLogRepository interface
type CommandLogRepository struct {
	q queryable
}

// NewCommandLogRepository creates a new command log repository
func NewCommandLogRepository(db *database.DB) *CommandLogRepository {
	return &CommandLogRepository{q: db.Pool}
}

// Log inserts one analytics row
func (r *CommandLogRepository) Log(ctx context.Context, entry *models.CommandLogEntry) error {
	query := `
		INSERT INTO command_log (platform_user_id, command, success, error_message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, executed_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.PlatformUserID,
		entry.Command,
		entry.Success,
		entry.ErrorMessage,
	).Scan(&entry.ID, &entry.ExecutedAt)

	if err != nil {
		return fmt.Errorf("failed to log command %s: %w", entry.Command, err)
	}

	return nil
}
