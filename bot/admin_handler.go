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

func (b *Bot) handleRequestsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	discordID, err := interactionUserID(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return err
	}
	if !b.isAdmin(discordID) {
		b.respondWithError(s, i, "This command is restricted to admins.")
		return fmt.Errorf("user %d is not an admin", discordID)
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		b.respondWithError(s, i, "Please choose a subcommand.")
		return errors.New("missing subcommand")
	}

	sub := options[0]
	switch sub.Name {
	case "pending":
		return b.handleListPending(s, i)
	case "approve":
		return b.handleResolveSubcommand(s, i, sub, models.RequestStatusApproved, discordID)
	case "deny":
		return b.handleResolveSubcommand(s, i, sub, models.RequestStatusDenied, discordID)
	}
	return nil
}

func (b *Bot) handleListPending(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	pending, err := b.requestService.ListPending(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to list pending requests")
		b.respondWithError(s, i, "Unable to list pending requests right now.")
		return err
	}

	if len(pending) == 0 {
		b.respondWithMessage(s, i, "No pending reward requests. 🎉")
		return nil
	}

	var lines []string
	for _, req := range pending {
		lines = append(lines, fmt.Sprintf(
			"**#%d** — %s · %s milestone · $%.2f bonus · filed %s",
			req.ID, req.Username, FormatThreshold(req.Amount), req.BonusAmount,
			FormatDiscordTimestamp(req.RequestedAt, "R")))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Pending Reward Requests (%d)", len(pending)),
		Color:       0xeb459e,
		Description: strings.Join(lines, "\n"),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Use the buttons below or /requests approve|deny <id>",
		},
	}

	// Quick-action buttons for the oldest request only; the rest go
	// through the explicit subcommands.
	oldest := pending[0]
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    fmt.Sprintf("Approve #%d", oldest.ID),
				Style:    discordgo.SuccessButton,
				CustomID: fmt.Sprintf("request_approve_%d", oldest.ID),
			},
			discordgo.Button{
				Label:    fmt.Sprintf("Deny #%d", oldest.ID),
				Style:    discordgo.DangerButton,
				CustomID: fmt.Sprintf("request_deny_%d", oldest.ID),
			},
		}},
	}

	b.respondWithEmbed(s, i, embed, components)
	return nil
}

func (b *Bot) handleResolveSubcommand(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption, decision models.RequestStatus, adminID int64) error {
	ctx := context.Background()

	var requestID int64
	var notes string
	for _, opt := range sub.Options {
		switch opt.Name {
		case "id":
			requestID = opt.IntValue()
		case "notes":
			notes = opt.StringValue()
		}
	}

	if err := b.requestService.Resolve(ctx, requestID, decision, adminID, notes); err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Request #%d doesn't exist or was already resolved.", requestID))
			return err
		}
		log.WithField("requestId", requestID).WithError(err).Error("Failed to resolve request")
		b.respondWithError(s, i, "Unable to resolve the request. Please try again later.")
		return err
	}

	verb := "approved"
	emoji := "✅"
	if decision == models.RequestStatusDenied {
		verb = "denied"
		emoji = "🚫"
	}
	b.respondWithMessage(s, i, fmt.Sprintf("%s Request **#%d** %s.", emoji, requestID, verb))
	return nil
}

// handleRequestDecision resolves a request from a quick-action button.
func (b *Bot) handleRequestDecision(s *discordgo.Session, i *discordgo.InteractionCreate, idStr string, approve bool) {
	ctx := context.Background()

	discordID, err := interactionUserID(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return
	}
	if !b.isAdmin(discordID) {
		b.respondWithError(s, i, "Only admins can resolve reward requests.")
		return
	}

	requestID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.respondWithError(s, i, "Invalid request reference.")
		return
	}

	decision := models.RequestStatusApproved
	if !approve {
		decision = models.RequestStatusDenied
	}

	if err := b.requestService.Resolve(ctx, requestID, decision, discordID, ""); err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			b.respondWithError(s, i, fmt.Sprintf("Request #%d doesn't exist or was already resolved.", requestID))
			return
		}
		log.WithField("requestId", requestID).WithError(err).Error("Failed to resolve request from button")
		b.respondWithError(s, i, "Unable to resolve the request. Please try again later.")
		return
	}

	verb := "approved"
	if !approve {
		verb = "denied"
	}
	b.respondWithMessage(s, i, fmt.Sprintf("Request **#%d** %s.", requestID, verb))
}
