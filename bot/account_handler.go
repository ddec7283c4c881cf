package bot

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"goatedbot/models"
	"goatedbot/service"

	"github.com/bwmarrin/discordgo"
)

func (b *Bot) handleRegister(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	discordID, err := interactionUserID(i)
	if err != nil {
		log.WithError(err).Error("Failed to parse Discord ID")
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return err
	}

	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		b.respondWithError(s, i, "Please provide your Goated username.")
		return errors.New("missing username option")
	}
	username := options[0].StringValue()

	displayName := ""
	if i.Member != nil && i.Member.User != nil {
		displayName = i.Member.User.Username
	} else if i.User != nil {
		displayName = i.User.Username
	}

	user, err := b.userService.Register(ctx, service.Registration{
		Platform:       models.PlatformDiscord,
		DiscordID:      &discordID,
		DisplayName:    displayName,
		GoatedUsername: username,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlayerNotFound):
			b.respondWithError(s, i, fmt.Sprintf("No player named **%s** was found in our affiliate network. Check the spelling and make sure you signed up under our code.", username))
		case errors.Is(err, service.ErrUsernameTaken):
			b.respondWithError(s, i, fmt.Sprintf("**%s** is already linked to another account.", username))
		default:
			log.WithField("username", username).WithError(err).Error("Registration failed")
			b.respondWithError(s, i, "Registration failed. Please try again later.")
		}
		return err
	}

	b.respondWithMessage(s, i, fmt.Sprintf("✅ Linked <@%d> to Goated account **%s**. Use `/wager` to see your stats.", discordID, user.GoatedUsername))
	return nil
}

func (b *Bot) handleUnregister(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	discordID, err := interactionUserID(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return err
	}

	summary, err := b.userService.Unregister(ctx, models.PlatformDiscord, discordID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			b.respondWithError(s, i, "You don't have a linked Goated account.")
			return err
		}
		log.WithField("discordId", discordID).WithError(err).Error("Unregistration failed")
		b.respondWithError(s, i, "Unable to unregister. Please try again later.")
		return err
	}

	message := fmt.Sprintf(
		"🗑️ Unlinked **%s** and deleted your stored data:\n"+
			"• %d milestone achievement%s ($%.2f in bonuses)\n"+
			"• %d reward request%s\n"+
			"• All cached and historical wager data\n\n"+
			"The username is free to register again.",
		summary.GoatedUsername,
		summary.AchievementCount, plural(summary.AchievementCount), summary.TotalBonusEarned,
		summary.RequestCount, plural(summary.RequestCount),
	)
	b.respondWithMessage(s, i, message)
	return nil
}

func (b *Bot) handleProfile(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx := context.Background()

	discordID, err := interactionUserID(i)
	if err != nil {
		b.respondWithError(s, i, "Unable to process request. Please try again.")
		return err
	}

	summary, err := b.userService.DataSummary(ctx, models.PlatformDiscord, discordID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			b.respondWithError(s, i, "You don't have a linked Goated account. Use `/register` first.")
			return err
		}
		log.WithField("discordId", discordID).WithError(err).Error("Profile lookup failed")
		b.respondWithError(s, i, "Unable to load your profile. Please try again later.")
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: "Account Profile",
		Color: 0x00b0f4,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Goated Username", Value: summary.GoatedUsername, Inline: true},
			{Name: "Registered", Value: FormatDiscordTimestamp(summary.RegisteredAt, "D"), Inline: true},
			{Name: "Milestones Earned", Value: fmt.Sprintf("%d ($%.2f in bonuses)", summary.AchievementCount, summary.TotalBonusEarned), Inline: false},
			{Name: "Reward Requests", Value: fmt.Sprintf("%d", summary.RequestCount), Inline: true},
		},
	}
	if summary.LastWagerCheck != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Last Stats Check", Value: FormatDiscordTimestamp(*summary.LastWagerCheck, "R"), Inline: true,
		})
	}

	b.respondWithEmbed(s, i, embed, nil)
	return nil
}
