package repository

import (
	"context"
	"testing"
	"time"

	"goatedbot/models"
	"goatedbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWagerCacheRepository_Stats(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWagerCacheRepository(testDB.DB)
	ctx := context.Background()

	t.Run("miss on empty cache", func(t *testing.T) {
		stats, err := repo.GetStats(ctx, "CachedPlayer")
		require.NoError(t, err)
		assert.Nil(t, stats)
	})

	t.Run("hit within ttl", func(t *testing.T) {
		stats := testutil.CreateTestWagerStats("CachedPlayer")
		require.NoError(t, repo.PutStats(ctx, stats, time.Hour))

		found, err := repo.GetStats(ctx, "CachedPlayer")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, stats.DailyWager, found.DailyWager)
		assert.Equal(t, stats.MonthlyWager, found.MonthlyWager)
		assert.Equal(t, stats.TotalWager, found.TotalWager)
		assert.False(t, found.CachedAt.IsZero())
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		found, err := repo.GetStats(ctx, "cachedplayer")
		require.NoError(t, err)
		assert.NotNil(t, found)
	})

	t.Run("expired row behaves like a miss", func(t *testing.T) {
		stats := testutil.CreateTestWagerStats("ExpiredPlayer")
		require.NoError(t, repo.PutStats(ctx, stats, -time.Second))

		found, err := repo.GetStats(ctx, "ExpiredPlayer")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("rewrite revives an expired row", func(t *testing.T) {
		stats := testutil.CreateTestWagerStats("ExpiredPlayer")
		stats.MonthlyWager = 123456
		require.NoError(t, repo.PutStats(ctx, stats, time.Hour))

		found, err := repo.GetStats(ctx, "ExpiredPlayer")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, float64(123456), found.MonthlyWager)
	})
}

func TestWagerCacheRepository_Leaderboard(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWagerCacheRepository(testDB.DB)
	ctx := context.Background()

	weekly := 3
	monthly := 7
	pos := &models.LeaderboardPosition{
		Username:        "RankedPlayer",
		WeeklyRank:      &weekly,
		MonthlyRank:     &monthly,
		TotalPlayers:    250,
		PlayerWeekly:    8200.25,
		PlayerMonthly:   32000.75,
		PlayerLast7Days: 9100.00,
	}

	t.Run("miss then hit", func(t *testing.T) {
		found, err := repo.GetLeaderboard(ctx, "RankedPlayer")
		require.NoError(t, err)
		assert.Nil(t, found)

		require.NoError(t, repo.PutLeaderboard(ctx, pos, time.Hour))

		found, err = repo.GetLeaderboard(ctx, "RankedPlayer")
		require.NoError(t, err)
		require.NotNil(t, found)
		require.NotNil(t, found.WeeklyRank)
		assert.Equal(t, 3, *found.WeeklyRank)
		assert.Nil(t, found.DailyRank)
		assert.Equal(t, 250, found.TotalPlayers)
		assert.Equal(t, 9100.00, found.PlayerLast7Days)
	})

	t.Run("expired position behaves like a miss", func(t *testing.T) {
		require.NoError(t, repo.PutLeaderboard(ctx, pos, -time.Second))

		found, err := repo.GetLeaderboard(ctx, "RankedPlayer")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestWagerCacheRepository_DeleteForUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewWagerCacheRepository(testDB.DB)
	ctx := context.Background()

	stats := testutil.CreateTestWagerStats("PurgedPlayer")
	require.NoError(t, repo.PutStats(ctx, stats, time.Hour))
	require.NoError(t, repo.PutLeaderboard(ctx, &models.LeaderboardPosition{Username: "PurgedPlayer"}, time.Hour))

	require.NoError(t, repo.DeleteForUser(ctx, "purgedplayer"))

	foundStats, err := repo.GetStats(ctx, "PurgedPlayer")
	require.NoError(t, err)
	assert.Nil(t, foundStats)

	foundPos, err := repo.GetLeaderboard(ctx, "PurgedPlayer")
	require.NoError(t, err)
	assert.Nil(t, foundPos)
}
