package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"goatedbot/models"
	"goatedbot/service"

	"github.com/bwmarrin/discordgo"
)

// resolveUsername picks the target Goated username for a stats command:
// the explicit option if given, otherwise the caller's linked account.
func (b *Bot) resolveUsername(ctx context.Context, i *discordgo.InteractionCreate) (string, error) {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "username" && opt.StringValue() != "" {
			return opt.StringValue(), nil
		}
	}

	discordID, err := interactionUserID(i)
	if err != nil {
		return "", err
	}

	user, err := b.userService.GetByPlatformID(ctx, models.PlatformDiscord, discordID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", service.ErrUserNotFound
	}
	return user.GoatedUsername, nil
}

// fetchStatsAndEvaluate returns the freshest wager snapshot and runs the
// milestone engine over the monthly figure, so any stats check credits a
// just-crossed threshold. Evaluation failures are logged, never surfaced:
// the next check retries from scratch.
func (b *Bot) fetchStatsAndEvaluate(ctx context.Context, username string) (*models.WagerStats, error) {
	stats, err := b.statsService.GetWagerStats(ctx, username)
	if err != nil {
		return nil, err
	}

	if _, err := b.milestoneService.Evaluate(ctx, username, stats.MonthlyWager); err != nil {
		log.WithField("username", username).WithError(err).Warn("Milestone evaluation failed")
	}

	return stats, nil
}

func (b *Bot) handleWagerStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	username, err := b.resolveUsername(ctx, i)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			b.respondWithError(s, i, "You don't have a linked Goated account. Use `/register` or pass a username.")
			return err
		}
		log.WithError(err).Error("Failed to resolve username for wager command")
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return err
	}

	stats, err := b.fetchStatsAndEvaluate(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("No player named **%s** was found in our affiliate network.", username))
			return err
		}
		log.WithField("username", username).WithError(err).Error("Failed to fetch wager stats")
		b.respondWithError(s, i, "Unable to fetch wager stats right now. Please try again later.")
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Wager Stats — %s", stats.Username),
		Color: 0x00b0f4,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Today", Value: FormatWagerAmount(stats.DailyWager), Inline: true},
			{Name: "This Week", Value: FormatWagerAmount(stats.WeeklyWager), Inline: true},
			{Name: "Last 7 Days", Value: FormatWagerAmount(stats.Last7DaysWager), Inline: true},
			{Name: "This Month", Value: FormatWagerAmount(stats.MonthlyWager), Inline: true},
			{Name: "All Time", Value: FormatWagerAmount(stats.TotalWager), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Data refreshes every few minutes",
		},
	}

	b.respondWithEmbed(s, i, embed, nil)
	return nil
}

func (b *Bot) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	username, err := b.resolveUsername(ctx, i)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			b.respondWithError(s, i, "You don't have a linked Goated account. Use `/register` or pass a username.")
			return err
		}
		log.WithError(err).Error("Failed to resolve username for leaderboard command")
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return err
	}

	pos, err := b.statsService.GetLeaderboardPosition(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrPlayerNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("No player named **%s** was found in our affiliate network.", username))
			return err
		}
		log.WithField("username", username).WithError(err).Error("Failed to fetch leaderboard position")
		b.respondWithError(s, i, "Unable to fetch leaderboard data right now. Please try again later.")
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Leaderboard — %s", pos.Username),
		Color: 0xf4c20d,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Today", Value: fmt.Sprintf("%s (%s)", FormatRank(pos.DailyRank), FormatWagerAmount(pos.PlayerDaily)), Inline: true},
			{Name: "This Week", Value: fmt.Sprintf("%s (%s)", FormatRank(pos.WeeklyRank), FormatWagerAmount(pos.PlayerWeekly)), Inline: true},
			{Name: "Last 7 Days", Value: fmt.Sprintf("%s (%s)", FormatRank(pos.Last7DaysRank), FormatWagerAmount(pos.PlayerLast7Days)), Inline: true},
			{Name: "This Month", Value: fmt.Sprintf("%s (%s)", FormatRank(pos.MonthlyRank), FormatWagerAmount(pos.PlayerMonthly)), Inline: true},
			{Name: "All Time", Value: fmt.Sprintf("%s (%s)", FormatRank(pos.AllTimeRank), FormatWagerAmount(pos.PlayerAllTime)), Inline: true},
		},
	}
	if pos.TotalPlayers > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Out of %d tracked players", pos.TotalPlayers),
		}
	}

	b.respondWithEmbed(s, i, embed, nil)
	return nil
}

func (b *Bot) handleWeeklySnapshot(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	snapshots, err := b.snapshotService.Recent(ctx, 1)
	if err != nil {
		log.WithError(err).Error("Failed to load weekly snapshot")
		b.respondWithError(s, i, "Unable to load the weekly leaderboard right now.")
		return err
	}
	if len(snapshots) == 0 {
		b.respondWithMessage(s, i, "No weekly leaderboard has been captured yet. Check back after Sunday evening.")
		return nil
	}

	snapshot := snapshots[0]
	var lines []string
	for _, e := range snapshot.Entries {
		lines = append(lines, fmt.Sprintf("**#%d** %s — %s this week", e.Rank, e.Username, FormatWagerAmount(e.WeeklyWager)))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Weekly Leaderboard — %s", snapshot.SnapshotDate.Format("Jan 2, 2006")),
		Color:       0xf4c20d,
		Description: strings.Join(lines, "\n"),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Captured %s", snapshot.CapturedAt.Format("Jan 2 15:04 MST")),
		},
	}

	b.respondWithEmbed(s, i, embed, nil)
	return nil
}
