package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"goatedbot/analytics"
	"goatedbot/events"
	"goatedbot/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token           string
	GuildID         string
	AdminDiscordIDs []int64
}

type Bot struct {
	config           Config
	session          *discordgo.Session
	userService      service.UserService
	statsService     service.WagerStatsService
	milestoneService service.MilestoneService
	requestService   service.RequestService
	snapshotService  service.SnapshotService
	recorder         *analytics.Recorder
	eventBus         *events.Bus
}

func New(config Config, userService service.UserService, statsService service.WagerStatsService, milestoneService service.MilestoneService, requestService service.RequestService, snapshotService service.SnapshotService, recorder *analytics.Recorder, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages

	bot := &Bot{
		config:           config,
		session:          dg,
		userService:      userService,
		statsService:     statsService,
		milestoneService: milestoneService,
		requestService:   requestService,
		snapshotService:  snapshotService,
		recorder:         recorder,
		eventBus:         eventBus,
	}

	// Register slash command handlers
	dg.AddHandler(bot.handleCommands)

	// Register component interaction handlers
	dg.AddHandler(bot.handleComponentInteractions)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	// New achievements trigger a DM to the registered user.
	eventBus.Subscribe(events.EventTypeMilestoneAchieved, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.MilestoneAchievedEvent); ok {
			bot.notifyMilestoneAchieved(ctx, e)
		}
	})

	// New reward requests alert the configured admins; decisions go back
	// to the requester.
	eventBus.Subscribe(events.EventTypeRequestCreated, func(_ context.Context, event events.Event) {
		if e, ok := event.(events.RequestCreatedEvent); ok {
			bot.notifyRequestCreated(e)
		}
	})
	eventBus.Subscribe(events.EventTypeRequestResolved, func(_ context.Context, event events.Event) {
		if e, ok := event.(events.RequestResolvedEvent); ok {
			bot.notifyRequestResolved(e)
		}
	})

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) registerCommands() error {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "register",
			Description: "Link your Goated username to this Discord account",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Your Goated username",
					Required:    true,
				},
			},
		},
		{
			Name:        "unregister",
			Description: "Unlink your Goated account and delete your stored data",
		},
		{
			Name:        "profile",
			Description: "Show your linked account and stored data summary",
		},
		{
			Name:        "wager",
			Description: "Show wager statistics",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Goated username (defaults to your linked account)",
					Required:    false,
				},
			},
		},
		{
			Name:        "leaderboard",
			Description: "Show your position on the affiliate leaderboard",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Goated username (defaults to your linked account)",
					Required:    false,
				},
			},
		},
		{
			Name:        "milestones",
			Description: "Show this month's milestone progress and claim rewards",
		},
		{
			Name:        "weekly",
			Description: "Show the latest weekly leaderboard snapshot",
		},
		{
			Name:        "requests",
			Description: "Manage milestone reward requests (admins only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "pending",
					Description: "List pending reward requests",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "approve",
					Description: "Approve a reward request",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Request ID",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "notes",
							Description: "Notes for the requester",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "deny",
					Description: "Deny a reward request",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "Request ID",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "notes",
							Description: "Reason for denial",
							Required:    false,
						},
					},
				},
			},
		},
	}

	for _, cmd := range commands {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.config.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create '%s' command: %w", cmd.Name, err)
		}
	}

	return nil
}

func (b *Bot) handleCommands(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name

	var err error
	switch name {
	case "register":
		err = b.handleRegister(s, i)
	case "unregister":
		err = b.handleUnregister(s, i)
	case "profile":
		err = b.handleProfile(s, i)
	case "wager":
		err = b.handleWagerStats(s, i)
	case "leaderboard":
		err = b.handleLeaderboard(s, i)
	case "milestones":
		err = b.handleMilestones(s, i)
	case "weekly":
		err = b.handleWeeklySnapshot(s, i)
	case "requests":
		err = b.handleRequestsCommand(s, i)
	default:
		return
	}

	b.recordCommandOutcome(i, name, err)
}

// recordCommandOutcome writes one analytics row for a finished command.
// Failed handlers are logged with their error so usage stats separate
// successes from failures.
func (b *Bot) recordCommandOutcome(i *discordgo.InteractionCreate, command string, handlerErr error) {
	if b.recorder == nil {
		return
	}
	discordID, err := interactionUserID(i)
	if err != nil {
		return
	}

	errMsg := ""
	if handlerErr != nil {
		errMsg = handlerErr.Error()
	}
	b.recorder.Record(discordID, command, handlerErr == nil, errMsg)
}

func (b *Bot) handleComponentInteractions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, "milestone_claim_"):
		b.handleMilestoneClaim(s, i, strings.TrimPrefix(customID, "milestone_claim_"))
	case strings.HasPrefix(customID, "request_approve_"):
		b.handleRequestDecision(s, i, strings.TrimPrefix(customID, "request_approve_"), true)
	case strings.HasPrefix(customID, "request_deny_"):
		b.handleRequestDecision(s, i, strings.TrimPrefix(customID, "request_deny_"), false)
	}
}

// interactionUserID returns the invoking user's Discord ID whether the
// interaction came from a guild channel or a DM.
func interactionUserID(i *discordgo.InteractionCreate) (int64, error) {
	var raw string
	if i.Member != nil && i.Member.User != nil {
		raw = i.Member.User.ID
	} else if i.User != nil {
		raw = i.User.ID
	}
	if raw == "" {
		return 0, fmt.Errorf("interaction carries no user")
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (b *Bot) isAdmin(discordID int64) bool {
	for _, id := range b.config.AdminDiscordIDs {
		if id == discordID {
			return true
		}
	}
	return false
}

// notifyMilestoneAchieved DMs the registered user about their new
// achievements and marks them notified. Best-effort: a failed DM is logged
// and the achievements stay unnotified for a later pass.
func (b *Bot) notifyMilestoneAchieved(ctx context.Context, e events.MilestoneAchievedEvent) {
	user, err := b.userService.GetByGoatedUsername(ctx, e.Username)
	if err != nil || user == nil || user.DiscordID == nil {
		return
	}

	channel, err := b.session.UserChannelCreate(strconv.FormatInt(*user.DiscordID, 10))
	if err != nil {
		log.WithField("username", e.Username).WithError(err).Warn("Failed to open DM channel for milestone notification")
		return
	}

	var lines []string
	amounts := make([]int64, 0, len(e.Achievements))
	for _, a := range e.Achievements {
		lines = append(lines, fmt.Sprintf("🎯 **%s wagered** — $%.2f bonus unlocked", FormatThreshold(a.Amount), a.BonusAmount))
		amounts = append(amounts, a.Amount)
	}

	message := fmt.Sprintf("**New milestone%s reached this month!**\n%s\nUse `/milestones` to claim your reward.",
		plural(len(e.Achievements)), strings.Join(lines, "\n"))

	if _, err := b.session.ChannelMessageSend(channel.ID, message); err != nil {
		log.WithField("username", e.Username).WithError(err).Warn("Failed to send milestone notification")
		return
	}

	if err := b.milestoneService.MarkNotified(ctx, e.Username, e.MonthYear, amounts); err != nil {
		log.WithField("username", e.Username).WithError(err).Warn("Failed to mark achievements notified")
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
