package repository

import (
	"context"
	"fmt"

	"goatedbot/database"
	"goatedbot/models"

	"github.com/jackc/pgx/v5"
)

// MilestoneRepository implements the MilestoneRepository interface
type MilestoneRepository struct {
	q queryable
}

// NewMilestoneRepository creates a new milestone repository
func NewMilestoneRepository(db *database.DB) *MilestoneRepository {
	return &MilestoneRepository{q: db.Pool}
}

// newMilestoneRepositoryWithTx creates a new milestone repository with a transaction
func newMilestoneRepositoryWithTx(tx queryable) *MilestoneRepository {
	return &MilestoneRepository{q: tx}
}

// GetActiveDefinitions returns active definitions in ascending threshold order
func (r *MilestoneRepository) GetActiveDefinitions(ctx context.Context) ([]*models.MilestoneDefinition, error) {
	query := `
		SELECT milestone_amount, bonus_amount, description, is_active
		FROM milestone_definitions
		WHERE is_active
		ORDER BY milestone_amount
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone definitions: %w", err)
	}
	defer rows.Close()

	var defs []*models.MilestoneDefinition
	for rows.Next() {
		var def models.MilestoneDefinition
		err := rows.Scan(&def.Amount, &def.BonusAmount, &def.Description, &def.IsActive)
		if err != nil {
			return nil, fmt.Errorf("failed to scan milestone definition: %w", err)
		}
		defs = append(defs, &def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate milestone definitions: %w", err)
	}

	return defs, nil
}

// GetAchievedAmounts returns the set of thresholds already credited for
// (username, monthYear)
func (r *MilestoneRepository) GetAchievedAmounts(ctx context.Context, username, monthYear string) (map[int64]bool, error) {
	query := `
		SELECT milestone_amount
		FROM milestone_achievements
		WHERE LOWER(username) = LOWER($1) AND month_year = $2
	`

	rows, err := r.q.Query(ctx, query, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to get achieved milestones for %s: %w", username, err)
	}
	defer rows.Close()

	achieved := make(map[int64]bool)
	for rows.Next() {
		var amount int64
		if err := rows.Scan(&amount); err != nil {
			return nil, fmt.Errorf("failed to scan achieved milestone: %w", err)
		}
		achieved[amount] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achieved milestones: %w", err)
	}

	return achieved, nil
}

// CreateAchievement inserts an achievement row. The uniqueness constraint on
// (username, milestone_amount, month_year) absorbs concurrent evaluations:
// a lost race returns (false, nil), never an error.
func (r *MilestoneRepository) CreateAchievement(ctx context.Context, a *models.MilestoneAchievement) (bool, error) {
	query := `
		INSERT INTO milestone_achievements (username, milestone_amount, bonus_amount, month_year, monthly_wager_at_achievement)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username, milestone_amount, month_year) DO NOTHING
		RETURNING id, achieved_at
	`

	err := r.q.QueryRow(ctx, query,
		a.Username,
		a.Amount,
		a.BonusAmount,
		a.MonthYear,
		a.MonthlyWager,
	).Scan(&a.ID, &a.AchievedAt)

	// DO NOTHING yields no row when the achievement already exists.
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create achievement %d for %s: %w", a.Amount, a.Username, err)
	}

	return true, nil
}

// GetAchievements returns achievements for a user, filtered to one month when
// monthYear is non-empty, in ascending threshold order
func (r *MilestoneRepository) GetAchievements(ctx context.Context, username, monthYear string) ([]*models.MilestoneAchievement, error) {
	query := `
		SELECT id, username, milestone_amount, bonus_amount, month_year, monthly_wager_at_achievement, notified, achieved_at
		FROM milestone_achievements
		WHERE LOWER(username) = LOWER($1)
		  AND ($2 = '' OR month_year = $2)
		ORDER BY month_year, milestone_amount
	`

	rows, err := r.q.Query(ctx, query, username, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to get achievements for %s: %w", username, err)
	}
	defer rows.Close()

	var achievements []*models.MilestoneAchievement
	for rows.Next() {
		var a models.MilestoneAchievement
		err := rows.Scan(
			&a.ID,
			&a.Username,
			&a.Amount,
			&a.BonusAmount,
			&a.MonthYear,
			&a.MonthlyWager,
			&a.Notified,
			&a.AchievedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate achievements: %w", err)
	}

	return achievements, nil
}

// MarkNotified flags the given thresholds as notified for the user within
// one month bucket. Rows for the same thresholds in other months are
// untouched.
func (r *MilestoneRepository) MarkNotified(ctx context.Context, username, monthYear string, amounts []int64) error {
	if len(amounts) == 0 {
		return nil
	}

	query := `
		UPDATE milestone_achievements
		SET notified = TRUE
		WHERE LOWER(username) = LOWER($1) AND month_year = $2 AND milestone_amount = ANY($3)
	`

	_, err := r.q.Exec(ctx, query, username, monthYear, amounts)
	if err != nil {
		return fmt.Errorf("failed to mark achievements notified for %s: %w", username, err)
	}

	return nil
}

// DeleteForUser removes all achievements for the username
func (r *MilestoneRepository) DeleteForUser(ctx context.Context, username string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM milestone_achievements WHERE LOWER(username) = LOWER($1)`, username)
	if err != nil {
		return fmt.Errorf("failed to delete achievements for %s: %w", username, err)
	}
	return nil
}
