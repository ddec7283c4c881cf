package bot

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"goatedbot/events"
	"goatedbot/models"
)

// notifyRequestCreated DMs every configured admin about a new pending reward
// request. Best-effort per admin: one unreachable admin does not stop the
// rest, and a fully failed delivery still leaves the request visible under
// `/requests pending`.
func (b *Bot) notifyRequestCreated(e events.RequestCreatedEvent) {
	message := buildRequestCreatedMessage(e)

	for _, adminID := range b.config.AdminDiscordIDs {
		channel, err := b.session.UserChannelCreate(strconv.FormatInt(adminID, 10))
		if err != nil {
			log.WithField("adminId", adminID).WithError(err).Warn("Failed to open DM channel for request alert")
			continue
		}
		if _, err := b.session.ChannelMessageSend(channel.ID, message); err != nil {
			log.WithField("adminId", adminID).WithError(err).Warn("Failed to send request alert")
		}
	}
}

// notifyRequestResolved DMs the requester with the admin's decision.
func (b *Bot) notifyRequestResolved(e events.RequestResolvedEvent) {
	channel, err := b.session.UserChannelCreate(strconv.FormatInt(e.RequesterID, 10))
	if err != nil {
		log.WithField("requestId", e.RequestID).WithError(err).Warn("Failed to open DM channel for request decision")
		return
	}

	if _, err := b.session.ChannelMessageSend(channel.ID, buildRequestResolvedMessage(e)); err != nil {
		log.WithField("requestId", e.RequestID).WithError(err).Warn("Failed to send request decision")
	}
}

func buildRequestCreatedMessage(e events.RequestCreatedEvent) string {
	return fmt.Sprintf(
		"📨 **New reward request**\n**%s** claims the **%s** milestone ($%.2f bonus) for %s.\nReview it with `/requests pending`.",
		e.Username, FormatThreshold(e.Amount), e.BonusAmount, e.MonthYear)
}

func buildRequestResolvedMessage(e events.RequestResolvedEvent) string {
	if e.Status == models.RequestStatusApproved {
		return fmt.Sprintf(
			"✅ Your reward request **#%d** for the **%s** milestone was approved. The $%.2f bonus is on its way!",
			e.RequestID, FormatThreshold(e.Amount), e.BonusAmount)
	}
	return fmt.Sprintf(
		"🚫 Your reward request **#%d** for the **%s** milestone was denied. Reach out to an admin if you have questions.",
		e.RequestID, FormatThreshold(e.Amount))
}
