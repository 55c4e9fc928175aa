package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disclaude/internal/agent"
	"disclaude/internal/agent/tools"
	"disclaude/internal/config"
	"disclaude/internal/database"
	"disclaude/internal/discord"
	"disclaude/internal/hypixel"
	"disclaude/internal/notify"
	"disclaude/internal/personality"
	"disclaude/internal/schedule"
	"disclaude/internal/timeparse"
	"disclaude/internal/timeutil"
)

func main() {
	cfg := config.LoadFromEnv()

	if cfg.DiscordToken == "" {
		fatal("loading config", fmt.Errorf("DISCORD_TOKEN is required"))
	}

	// Phase 1: Core infrastructure
	db, err := database.New(cfg.DBPath)
	if err != nil {
		fatal("creating database", err)
	}
	defer db.Close()

	loc, ok := timeutil.ResolveLocation(cfg.Timezone)
	if !ok {
		fmt.Printf("Warning: unknown timezone %q, falling back to UTC\n", cfg.Timezone)
	}

	notifyService := initNotifyService(cfg)

	parser := timeparse.New(timeparse.Options{
		TonightHour: cfg.TonightHour,
		Location:    loc,
		MaxLead:     time.Duration(cfg.MaxLeadHours) * time.Hour,
	})

	sched := schedule.New(schedule.Options{
		OnDeliveryError: notifyService.ReportDeliveryFailure,
	})
	defer sched.Stop()

	// Phase 2: Agent and tools
	llm := initAgent(cfg)
	if !llm.IsConfigured() {
		notifyService.ReportStartupIssue("ANTHROPIC_API_KEY not set; chat responses are disabled, reminders still work")
	}
	tracker := personality.NewTracker()

	// Phase 3: Discord transport
	bot, err := discord.NewBot(cfg.DiscordToken)
	if err != nil {
		fatal("creating discord bot", err)
	}

	limiter := discord.NewRateLimiter(cfg.RateLimitMsgs, time.Duration(cfg.RateLimitSecs)*time.Second)
	handler := discord.NewHandler(bot.Sender(), llm, parser, sched, tracker, limiter, discord.HandlerOptions{
		HistorySize: cfg.HistorySize,
		Location:    loc,
		AdminIDs:    cfg.AdminUserIDs,
	})
	bot.AttachHandler(handler)

	registerTools(llm, db, sched, bot.Sender(), cfg)

	if err := bot.Start(); err != nil {
		fatal("connecting to discord", err)
	}

	// Phase 4: Background jobs
	cronJobs := initCron(db, sched, tracker)
	defer cronJobs.Stop()

	waitForShutdown(bot)
}

// initAgent builds the chat agent. Returns an unconfigured agent when no API
// key is set; the handler falls back to reminder-only mode.
func initAgent(cfg *config.Config) *agent.Agent {
	if cfg.AnthropicAPIKey == "" {
		fmt.Println("Warning: ANTHROPIC_API_KEY not set, chat responses disabled")
	} else {
		fmt.Println("Chat agent configured (tool-calling mode)")
	}
	return agent.New(agent.Config{
		APIKey:      cfg.AnthropicAPIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
	})
}

func initNotifyService(cfg *config.Config) *notify.Service {
	var emailNotifier notify.Notifier
	if cfg.ResendAPIKey != "" {
		if n := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom); n != nil && n.IsConfigured() {
			emailNotifier = n
			fmt.Println("Operator alert service configured (Resend)")
		}
	}
	return notify.NewService(emailNotifier, cfg.AlertEmail)
}

// registerTools wires all tool definitions into the agent. The handler passes
// the current user and channel IDs to the model via the system prompt.
func registerTools(llm *agent.Agent, db *database.DB, sched *schedule.Scheduler, sender discord.Sender, cfg *config.Config) {
	hypixelClient := hypixel.NewClient(cfg.HypixelAPIKey)
	if cfg.HypixelAPIKey == "" {
		fmt.Println("Warning: HYPIXEL_API_KEY not set, Skyblock stat lookups will fail")
	}

	send := tools.SendFunc(sender.SendMessage)

	llm.MustRegisterTool(tools.NewSkyblockStatsTool(db, hypixelClient))
	llm.MustRegisterTool(tools.NewLinkAccountTool(db, hypixelClient))
	llm.MustRegisterTool(tools.NewLinkStatusTool(db))
	llm.MustRegisterTool(tools.NewCreateReminderTool(sched, send))
	llm.MustRegisterTool(tools.NewListRemindersTool(sched))
	llm.MustRegisterTool(tools.NewCancelReminderTool(sched))
}

// initCron runs the daily housekeeping job: log a health snapshot at midnight.
func initCron(db *database.DB, sched *schedule.Scheduler, tracker *personality.Tracker) *schedule.Cron {
	c := schedule.NewCron()
	_, err := c.AddDaily(0, 0, func() {
		snap := tracker.Snapshot()
		linked, err := db.CountProfiles()
		if err != nil {
			fmt.Printf("[CRON] Failed to count profiles: %v\n", err)
		}
		fmt.Printf("[CRON] Daily snapshot: %d interactions, %d unique users, %d linked profiles, %d pending reminders\n",
			snap.Interactions, snap.UniqueUsers, linked, sched.Len())
	})
	if err != nil {
		fmt.Printf("Warning: failed to register daily snapshot job: %v\n", err)
	}
	return c
}

func fatal(context string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", context, err)
	os.Exit(1)
}

func waitForShutdown(bot *discord.Bot) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	fmt.Println("Shutting down...")

	if err := bot.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing discord connection: %v\n", err)
	}
}
