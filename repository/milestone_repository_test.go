package repository

import (
	"context"
	"testing"

	"goatedbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilestoneRepository_GetActiveDefinitions(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMilestoneRepository(testDB.DB)
	ctx := context.Background()

	// The initial migration seeds the static ladder.
	defs, err := repo.GetActiveDefinitions(ctx)
	require.NoError(t, err)
	require.Len(t, defs, 4)

	assert.Equal(t, int64(10000), defs[0].Amount)
	assert.Equal(t, int64(25000), defs[1].Amount)
	assert.Equal(t, int64(50000), defs[2].Amount)
	assert.Equal(t, int64(100000), defs[3].Amount)
	assert.Equal(t, 50.0, defs[3].BonusAmount)

	t.Run("deactivated definitions are excluded", func(t *testing.T) {
		_, err := testDB.DB.Pool.Exec(ctx,
			`UPDATE milestone_definitions SET is_active = FALSE WHERE milestone_amount = 25000`)
		require.NoError(t, err)

		defs, err := repo.GetActiveDefinitions(ctx)
		require.NoError(t, err)
		require.Len(t, defs, 3)
		for _, def := range defs {
			assert.NotEqual(t, int64(25000), def.Amount)
		}
	})
}

func TestMilestoneRepository_CreateAchievement(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMilestoneRepository(testDB.DB)
	ctx := context.Background()

	t.Run("first insert succeeds", func(t *testing.T) {
		a := testutil.CreateTestAchievement("MilestonePlayer", 10000, "2025-07")
		created, err := repo.CreateAchievement(ctx, a)
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotZero(t, a.ID)
		assert.False(t, a.AchievedAt.IsZero())
	})

	t.Run("duplicate insert reports not created without error", func(t *testing.T) {
		a := testutil.CreateTestAchievement("MilestonePlayer", 10000, "2025-07")
		created, err := repo.CreateAchievement(ctx, a)
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("same threshold in a new month is a fresh achievement", func(t *testing.T) {
		a := testutil.CreateTestAchievement("MilestonePlayer", 10000, "2025-08")
		created, err := repo.CreateAchievement(ctx, a)
		require.NoError(t, err)
		assert.True(t, created)
	})
}

func TestMilestoneRepository_GetAchievedAmounts(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMilestoneRepository(testDB.DB)
	ctx := context.Background()

	for _, amount := range []int64{10000, 25000, 150000} {
		a := testutil.CreateTestAchievement("SetPlayer", amount, "2025-07")
		created, err := repo.CreateAchievement(ctx, a)
		require.NoError(t, err)
		require.True(t, created)
	}

	achieved, err := repo.GetAchievedAmounts(ctx, "setplayer", "2025-07")
	require.NoError(t, err)
	assert.Len(t, achieved, 3)
	assert.True(t, achieved[10000])
	assert.True(t, achieved[150000])
	assert.False(t, achieved[50000])

	t.Run("other month is empty", func(t *testing.T) {
		achieved, err := repo.GetAchievedAmounts(ctx, "SetPlayer", "2025-06")
		require.NoError(t, err)
		assert.Empty(t, achieved)
	})
}

func TestMilestoneRepository_GetAchievements(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMilestoneRepository(testDB.DB)
	ctx := context.Background()

	for _, seed := range []struct {
		amount int64
		month  string
	}{
		{50000, "2025-07"},
		{10000, "2025-07"},
		{10000, "2025-06"},
	} {
		a := testutil.CreateTestAchievement("HistoryPlayer", seed.amount, seed.month)
		_, err := repo.CreateAchievement(ctx, a)
		require.NoError(t, err)
	}

	t.Run("month filter", func(t *testing.T) {
		achievements, err := repo.GetAchievements(ctx, "HistoryPlayer", "2025-07")
		require.NoError(t, err)
		require.Len(t, achievements, 2)
		assert.Equal(t, int64(10000), achievements[0].Amount)
		assert.Equal(t, int64(50000), achievements[1].Amount)
	})

	t.Run("empty month returns everything", func(t *testing.T) {
		achievements, err := repo.GetAchievements(ctx, "HistoryPlayer", "")
		require.NoError(t, err)
		assert.Len(t, achievements, 3)
	})
}

func TestMilestoneRepository_MarkNotified(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMilestoneRepository(testDB.DB)
	ctx := context.Background()

	for _, amount := range []int64{10000, 25000} {
		a := testutil.CreateTestAchievement("NotifyPlayer", amount, "2025-07")
		_, err := repo.CreateAchievement(ctx, a)
		require.NoError(t, err)
	}

	require.NoError(t, repo.MarkNotified(ctx, "NotifyPlayer", "2025-07", []int64{10000}))

	achievements, err := repo.GetAchievements(ctx, "NotifyPlayer", "2025-07")
	require.NoError(t, err)
	require.Len(t, achievements, 2)
	assert.True(t, achievements[0].Notified)
	assert.False(t, achievements[1].Notified)

	t.Run("other months keep their own notified flag", func(t *testing.T) {
		a := testutil.CreateTestAchievement("NotifyPlayer", 10000, "2025-08")
		_, err := repo.CreateAchievement(ctx, a)
		require.NoError(t, err)

		require.NoError(t, repo.MarkNotified(ctx, "NotifyPlayer", "2025-08", []int64{10000}))

		july, err := repo.GetAchievements(ctx, "NotifyPlayer", "2025-07")
		require.NoError(t, err)
		require.Len(t, july, 2)
		assert.True(t, july[0].Notified)
		assert.False(t, july[1].Notified)

		august, err := repo.GetAchievements(ctx, "NotifyPlayer", "2025-08")
		require.NoError(t, err)
		require.Len(t, august, 1)
		assert.True(t, august[0].Notified)
	})

	t.Run("empty amount list is a no-op", func(t *testing.T) {
		require.NoError(t, repo.MarkNotified(ctx, "NotifyPlayer", "2025-07", nil))
	})
}

func TestMilestoneRepository_DeleteForUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewMilestoneRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.CreateAchievement(ctx, testutil.CreateTestAchievement("DeletedPlayer", 10000, "2025-07"))
	require.NoError(t, err)
	_, err = repo.CreateAchievement(ctx, testutil.CreateTestAchievement("KeptPlayer", 10000, "2025-07"))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteForUser(ctx, "deletedplayer"))

	gone, err := repo.GetAchievements(ctx, "DeletedPlayer", "")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := repo.GetAchievements(ctx, "KeptPlayer", "")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}
