package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"goatedbot/analytics"
	"goatedbot/bot"
	"goatedbot/config"
	"goatedbot/database"
	"goatedbot/events"
	"goatedbot/goated"
	"goatedbot/repository"
	"goatedbot/scheduler"
	"goatedbot/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting goatedbot...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize the Goated API client
	goatedClient := goated.NewClient(goated.Config{
		BaseURL:           cfg.GoatedAPIURL,
		APIKey:            cfg.GoatedAPIKey,
		AffiliateIDs:      cfg.AffiliateIDs,
		RequestsPerMinute: cfg.RequestsPerMinute,
	})

	// Snapshot dates follow the scheduler's calendar, not UTC
	snapshotLoc, err := time.LoadLocation(cfg.SnapshotTimezone)
	if err != nil {
		return fmt.Errorf("invalid snapshot timezone %q: %w", cfg.SnapshotTimezone, err)
	}

	// Initialize services
	log.Println("Initializing services...")
	userService := service.NewUserService(uowFactory, goatedClient)
	statsService := service.NewWagerStatsService(uowFactory, goatedClient, cfg.CacheTTL, cfg.LedgerRetentionDays)
	milestoneService := service.NewMilestoneService(uowFactory)
	requestService := service.NewRequestService(uowFactory)
	snapshotService := service.NewSnapshotService(uowFactory, goatedClient, cfg.SnapshotSize, snapshotLoc)
	log.Println("Services initialized successfully")

	// Best-effort command analytics writer
	recorder := analytics.NewRecorder(repository.NewCommandLogRepository(db), 0)

	// Initialize background jobs
	sched, err := scheduler.New(scheduler.Config{Timezone: cfg.SnapshotTimezone}, statsService, snapshotService)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	sched.Start()
	log.Println("Scheduler started")

	// Initialize Discord bot
	log.Println("Initializing Discord bot...")
	botConfig := bot.Config{
		Token:           cfg.DiscordToken,
		GuildID:         cfg.DiscordGuildID,
		AdminDiscordIDs: cfg.AdminDiscordIDs,
	}
	discordBot, err := bot.New(botConfig, userService, statsService, milestoneService, requestService, snapshotService, recorder, eventBus)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Println("Discord bot initialized successfully")

	// Wait for context cancellation
	log.Printf("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down bot...")

	if err := discordBot.Close(); err != nil {
		log.Printf("Error closing Discord bot: %v", err)
	}

	if err := sched.Stop(); err != nil {
		log.Printf("Error stopping scheduler: %v", err)
	}

	// Flush any queued analytics rows before dropping the pool
	recorder.Close()

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
