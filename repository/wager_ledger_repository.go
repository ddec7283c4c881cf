package repository

import (
	"context"
	"fmt"
	"time"

	"goatedbot/database"
	"goatedbot/models"
)

// WagerLedgerRepository implements the WagerLedgerRepository interface. One
// row exists per (username, calendar date); rewriting a date replaces the
// earlier observation so the last poll of the day wins.
type WagerLedgerRepository struct {
	q queryable
}

// NewWagerLedgerRepository creates a new wager ledger repository
func NewWagerLedgerRepository(db *database.DB) *WagerLedgerRepository {
	return &WagerLedgerRepository{q: db.Pool}
}

// newWagerLedgerRepositoryWithTx creates a new wager ledger repository with a transaction
func newWagerLedgerRepositoryWithTx(tx queryable) *WagerLedgerRepository {
	return &WagerLedgerRepository{q: tx}
}

// Record upserts the (username, date) row, replacing any prior value
func (r *WagerLedgerRepository) Record(ctx context.Context, username string, date time.Time, dailyWager, totalWager float64) error {
	query := `
		INSERT INTO daily_wager_history (username, date, daily_wager, total_wager, recorded_at)
		VALUES ($1, $2::date, $3, $4, NOW())
		ON CONFLICT (username, date) DO UPDATE SET
			daily_wager = EXCLUDED.daily_wager,
			total_wager = EXCLUDED.total_wager,
			recorded_at = EXCLUDED.recorded_at
	`

	_, err := r.q.Exec(ctx, query, username, date, dailyWager, totalWager)
	if err != nil {
		return fmt.Errorf("failed to record daily wager for %s: %w", username, err)
	}

	return nil
}

// RollingSum sums daily amounts for dates in (asOf-windowDays, asOf]. A user
// with no rows in the window sums to zero, not an error.
func (r *WagerLedgerRepository) RollingSum(ctx context.Context, username string, windowDays int, asOf time.Time) (float64, error) {
	query := `
		SELECT COALESCE(SUM(daily_wager), 0)
		FROM daily_wager_history
		WHERE LOWER(username) = LOWER($1)
		  AND date > ($2::date - $3::int)
		  AND date <= $2::date
	`

	var sum float64
	err := r.q.QueryRow(ctx, query, username, asOf, windowDays).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to compute rolling sum for %s: %w", username, err)
	}

	return sum, nil
}

// History returns ledger rows for the trailing N days, newest first
func (r *WagerLedgerRepository) History(ctx context.Context, username string, days int) ([]*models.DailyWagerRecord, error) {
	query := `
		SELECT id, username, date, daily_wager, total_wager, recorded_at
		FROM daily_wager_history
		WHERE LOWER(username) = LOWER($1)
		  AND date > (CURRENT_DATE - $2::int)
		ORDER BY date DESC
	`

	rows, err := r.q.Query(ctx, query, username, days)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager history for %s: %w", username, err)
	}
	defer rows.Close()

	var records []*models.DailyWagerRecord
	for rows.Next() {
		var rec models.DailyWagerRecord
		err := rows.Scan(
			&rec.ID,
			&rec.Username,
			&rec.Date,
			&rec.DailyWager,
			&rec.TotalWager,
			&rec.RecordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager record: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate wager records: %w", err)
	}

	return records, nil
}

// Prune deletes rows older than the retention horizon, returning the count
func (r *WagerLedgerRepository) Prune(ctx context.Context, retentionDays int) (int64, error) {
	query := `DELETE FROM daily_wager_history WHERE date < (CURRENT_DATE - $1::int)`

	result, err := r.q.Exec(ctx, query, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to prune wager history: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteForUser removes all ledger rows for the username
func (r *WagerLedgerRepository) DeleteForUser(ctx context.Context, username string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM daily_wager_history WHERE LOWER(username) = LOWER($1)`, username)
	if err != nil {
		return fmt.Errorf("failed to delete wager history for %s: %w", username, err)
	}
	return nil
}
