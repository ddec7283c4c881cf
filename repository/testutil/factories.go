package testutil

import (
	"time"

	"goatedbot/models"
)

// CreateTestUser creates a Discord-linked test user with default values
func CreateTestUser(discordID int64, goatedUsername string) *models.User {
	return &models.User{
		DiscordID:      &discordID,
		Platform:       models.PlatformDiscord,
		DisplayName:    goatedUsername,
		GoatedUsername: goatedUsername,
		IsActive:       true,
	}
}

// CreateTestTelegramUser creates a Telegram-linked test user
func CreateTestTelegramUser(telegramID int64, goatedUsername string) *models.User {
	return &models.User{
		TelegramID:     &telegramID,
		Platform:       models.PlatformTelegram,
		DisplayName:    goatedUsername,
		GoatedUsername: goatedUsername,
		IsActive:       true,
	}
}

// CreateTestWagerStats creates a test wager stats snapshot
func CreateTestWagerStats(username string) *models.WagerStats {
	return &models.WagerStats{
		Username:       username,
		DailyWager:     1500.50,
		WeeklyWager:    8200.25,
		Last7DaysWager: 9100.00,
		MonthlyWager:   32000.75,
		TotalWager:     450000.00,
		CachedAt:       time.Now(),
	}
}

// CreateTestAchievement creates a test milestone achievement
func CreateTestAchievement(username string, amount int64, monthYear string) *models.MilestoneAchievement {
	return &models.MilestoneAchievement{
		Username:     username,
		Amount:       amount,
		BonusAmount:  10.0,
		MonthYear:    monthYear,
		MonthlyWager: float64(amount) + 500,
	}
}

// CreateTestRequest creates a pending test milestone request
func CreateTestRequest(username string, requesterID, amount int64, monthYear string) *models.MilestoneRequest {
	return &models.MilestoneRequest{
		Username:    username,
		RequesterID: requesterID,
		Amount:      amount,
		BonusAmount: 10.0,
		MonthYear:   monthYear,
		Status:      models.RequestStatusPending,
	}
}

// CreateTestLeaderboardEntries creates n ranked test entries
func CreateTestLeaderboardEntries(n int) []*models.LeaderboardEntry {
	entries := make([]*models.LeaderboardEntry, 0, n)
	for i := 1; i <= n; i++ {
		entries = append(entries, &models.LeaderboardEntry{
			Rank:           i,
			Username:       "player" + string(rune('A'+i-1)),
			AffiliateID:    "aff-1",
			DailyWager:     float64(1000 * (n - i + 1)),
			WeeklyWager:    float64(5000 * (n - i + 1)),
			Last7DaysWager: float64(5500 * (n - i + 1)),
			MonthlyWager:   float64(20000 * (n - i + 1)),
			AllTimeWager:   float64(100000 * (n - i + 1)),
			TotalPlayers:   n,
		})
	}
	return entries
}
