package repository

import (
	"context"
	"fmt"

	"goatedbot/database"
	"goatedbot/models"
	"goatedbot/service"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `
	id, discord_id, telegram_id, platform, display_name, goated_username,
	is_active, last_wager_check, last_leaderboard_check, created_at, updated_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.DiscordID,
		&user.TelegramID,
		&user.Platform,
		&user.DisplayName,
		&user.GoatedUsername,
		&user.IsActive,
		&user.LastWagerCheck,
		&user.LastLeaderboardCheck,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByDiscordID retrieves an active user by their Discord ID
func (r *UserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE discord_id = $1 AND is_active`

	user, err := scanUser(r.q.QueryRow(ctx, query, discordID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by discord ID %d: %w", discordID, err)
	}
	return user, nil
}

// GetByTelegramID retrieves an active user by their Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1 AND is_active`

	user, err := scanUser(r.q.QueryRow(ctx, query, telegramID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID %d: %w", telegramID, err)
	}
	return user, nil
}

// GetByGoatedUsername retrieves a user by their linked Goated username
func (r *UserRepository) GetByGoatedUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(goated_username) = LOWER($1)`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by goated username %s: %w", username, err)
	}
	return user, nil
}

// Create inserts a new user, filling ID and timestamps. The goated_username
// unique constraint turns a duplicate link into ErrUsernameTaken.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (discord_id, telegram_id, platform, display_name, goated_username, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.DiscordID,
		user.TelegramID,
		user.Platform,
		user.DisplayName,
		user.GoatedUsername,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if isUniqueViolation(err) {
		return service.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user for %s: %w", user.GoatedUsername, err)
	}

	return nil
}

// Update applies a typed partial update to the user
func (r *UserRepository) Update(ctx context.Context, id int64, update models.UserUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	query := `
		UPDATE users
		SET display_name = COALESCE($2, display_name),
		    is_active = COALESCE($3, is_active),
		    last_wager_check = COALESCE($4, last_wager_check),
		    last_leaderboard_check = COALESCE($5, last_leaderboard_check),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id,
		update.DisplayName,
		update.IsActive,
		update.LastWagerCheck,
		update.LastLeaderboardCheck,
	)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}

	return nil
}

// Delete removes the user row
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrUserNotFound
	}
	return nil
}

// GetAllActive returns all active users
func (r *UserRepository) GetAllActive(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active ORDER BY created_at`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Count returns the number of active users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
