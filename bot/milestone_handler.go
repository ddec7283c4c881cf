package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"goatedbot/models"
	"goatedbot/service"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleMilestones(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	discordID, err := interactionUserID(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return err
	}

	user, err := b.userService.GetByPlatformID(ctx, models.PlatformDiscord, discordID)
	if err != nil {
		log.WithField("discordId", discordID).WithError(err).Error("Failed to load user for milestones command")
		b.respondWithError(s, i, "Unable to load your account. Please try again later.")
		return err
	}
	if user == nil {
		b.respondWithError(s, i, "You don't have a linked Goated account. Use `/register` first.")
		return service.ErrUserNotFound
	}

	// Crediting happens on read so the report always reflects the freshest
	// monthly figure.
	stats, err := b.fetchStatsAndEvaluate(ctx, user.GoatedUsername)
	if err != nil {
		log.WithField("username", user.GoatedUsername).WithError(err).Error("Failed to fetch wager stats for milestones")
		b.respondWithError(s, i, "Unable to fetch your wager stats right now. Please try again later.")
		return err
	}

	progress, err := b.milestoneService.ProgressReport(ctx, user.GoatedUsername, stats.MonthlyWager)
	if err != nil {
		log.WithField("username", user.GoatedUsername).WithError(err).Error("Failed to build milestone progress")
		b.respondWithError(s, i, "Unable to load milestone progress. Please try again later.")
		return err
	}

	embed, components := b.buildMilestoneEmbed(user.GoatedUsername, stats.MonthlyWager, progress)
	b.respondWithEmbed(s, i, embed, components)
	return nil
}

// buildMilestoneEmbed renders the monthly progress report and one claim
// button per achieved-but-unrequested milestone.
func (b *Bot) buildMilestoneEmbed(username string, monthlyWager float64, progress *models.MilestoneProgress) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	requested := make(map[int64]models.RequestStatus, len(progress.Requests))
	for _, req := range progress.Requests {
		requested[req.Amount] = req.Status
	}

	var achieved []string
	var buttons []discordgo.MessageComponent
	for _, a := range progress.Achievements {
		line := fmt.Sprintf("✅ **%s** — $%.2f bonus", FormatThreshold(a.Amount), a.BonusAmount)
		if status, ok := requested[a.Amount]; ok {
			line += fmt.Sprintf(" (%s)", status)
		} else if len(buttons) < 5 {
			buttons = append(buttons, discordgo.Button{
				Label:    fmt.Sprintf("Claim %s", FormatThreshold(a.Amount)),
				Style:    discordgo.SuccessButton,
				CustomID: fmt.Sprintf("milestone_claim_%d", a.Amount),
			})
		}
		achieved = append(achieved, line)
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Milestones — %s (%s)", username, progress.MonthYear),
		Color: 0x57f287,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Monthly Wager", Value: FormatWagerAmount(monthlyWager), Inline: true},
		},
	}

	if len(achieved) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Achieved This Month", Value: strings.Join(achieved, "\n"),
		})
	} else {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Achieved This Month", Value: "None yet — keep wagering!",
		})
	}

	if progress.Next != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("Next: %s ($%.2f bonus)", FormatThreshold(progress.Next.Amount), progress.Next.BonusAmount),
			Value: fmt.Sprintf("%s\n%s to go", ProgressBar(progress.Next.Progress), FormatWagerAmount(progress.Next.Remaining)),
		})
	}

	var components []discordgo.MessageComponent
	if len(buttons) > 0 {
		components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		}
	}

	return embed, components
}

// handleMilestoneClaim files a reward request for the milestone encoded in
// the button's custom ID.
func (b *Bot) handleMilestoneClaim(s *discordgo.Session, i *discordgo.InteractionCreate, amountStr string) {
	ctx := context.Background()

	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil {
		b.respondWithError(s, i, "Invalid milestone reference.")
		return
	}

	discordID, err := interactionUserID(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	user, err := b.userService.GetByPlatformID(ctx, models.PlatformDiscord, discordID)
	if err != nil || user == nil {
		b.respondWithError(s, i, "You don't have a linked Goated account. Use `/register` first.")
		return
	}

	progress, err := b.milestoneService.ProgressReport(ctx, user.GoatedUsername, 0)
	if err != nil {
		log.WithField("username", user.GoatedUsername).WithError(err).Error("Failed to load progress for claim")
		b.respondWithError(s, i, "Unable to process your claim right now. Please try again later.")
		return
	}

	var bonus float64
	for _, a := range progress.Achievements {
		if a.Amount == amount {
			bonus = a.BonusAmount
			break
		}
	}

	req, err := b.requestService.Request(ctx, user.GoatedUsername, discordID, amount, bonus, progress.MonthYear)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoAchievement):
			b.respondWithError(s, i, fmt.Sprintf("You haven't reached the %s milestone this month yet.", FormatThreshold(amount)))
		case errors.Is(err, service.ErrAlreadyRequested):
			b.respondWithError(s, i, fmt.Sprintf("You've already requested the %s reward this month.", FormatThreshold(amount)))
		default:
			log.WithField("username", user.GoatedUsername).WithError(err).Error("Reward request failed")
			b.respondWithError(s, i, "Unable to file your reward request. Please try again later.")
		}
		return
	}

	b.respondWithMessage(s, i, fmt.Sprintf(
		"🎁 Reward request **#%d** filed for the **%s** milestone ($%.2f bonus). An admin will review it shortly.",
		req.ID, FormatThreshold(req.Amount), req.BonusAmount))
}
