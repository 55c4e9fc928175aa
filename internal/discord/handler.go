package discord

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"disclaude/internal/agent"
	"disclaude/internal/personality"
	"disclaude/internal/schedule"
	"disclaude/internal/timeparse"
	"disclaude/internal/timeutil"
)

// Sender posts a message to a Discord channel. Satisfied by the live session
// wrapper in bot.go and by fakes in tests.
type Sender interface {
	SendMessage(channelID, content string) error
}

// LLM runs a conversation turn, possibly with tool calls. Satisfied by
// *agent.Agent.
type LLM interface {
	Execute(ctx context.Context, input agent.Input) (*agent.Output, error)
	IsConfigured() bool
}

// Incoming is the transport-neutral view of a received Discord message.
type Incoming struct {
	ID          string
	ChannelID   string
	AuthorID    string
	AuthorBot   bool
	Content     string
	MentionsBot bool
	IsDM        bool
}

// HandlerOptions tune the handler. Zero values pick sensible defaults.
type HandlerOptions struct {
	// HistorySize caps the per-channel conversation memory. Defaults to 10.
	HistorySize int
	// Location renders fire times in user-facing replies. Defaults to UTC.
	Location *time.Location
	// AdminIDs may use the privileged command surface (global reminder list).
	AdminIDs []string
	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

// Handler implements the bot's message flow: mention gating, rate limiting,
// natural-language reminder requests, reminder list/cancel commands, and the
// LLM fallthrough with per-channel history.
type Handler struct {
	sender  Sender
	llm     LLM
	parser  *timeparse.Parser
	sched   *schedule.Scheduler
	tracker *personality.Tracker
	limiter *RateLimiter

	historySize int
	loc         *time.Location
	admins      map[string]bool
	now         func() time.Time

	mu      sync.Mutex
	botID   string
	botName string
	nameRe  *regexp.Regexp
	history map[string][]agent.Message
}

var cancelCommandRe = regexp.MustCompile(`(?i)^cancel(?:\s+reminder)?\s+(reminder_\d+)\s*$`)

// NewHandler wires the message flow together.
func NewHandler(sender Sender, llm LLM, parser *timeparse.Parser, sched *schedule.Scheduler,
	tracker *personality.Tracker, limiter *RateLimiter, opts HandlerOptions) *Handler {
	h := &Handler{
		sender:      sender,
		llm:         llm,
		parser:      parser,
		sched:       sched,
		tracker:     tracker,
		limiter:     limiter,
		historySize: opts.HistorySize,
		loc:         opts.Location,
		admins:      make(map[string]bool, len(opts.AdminIDs)),
		now:         opts.Now,
		history:     make(map[string][]agent.Message),
	}
	for _, id := range opts.AdminIDs {
		h.admins[id] = true
	}
	if h.historySize <= 0 {
		h.historySize = 10
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// SetIdentity records the bot's own user ID and display name once the gateway
// session is open. The name is used for plain-text mention detection.
func (h *Handler) SetIdentity(botID, botName string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.botID = botID
	h.botName = botName
	h.nameRe = nil
	if botName != "" {
		h.nameRe = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(botName) + `\b[,:]?\s*`)
	}
}

func (h *Handler) identity() (string, string, *regexp.Regexp) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.botID, h.botName, h.nameRe
}

// HandleMessage processes one incoming message end to end. The returned error
// is a transport send failure; user-level problems become reply text instead.
func (h *Handler) HandleMessage(ctx context.Context, msg Incoming) error {
	botID, _, _ := h.identity()
	if msg.AuthorBot || msg.AuthorID == botID {
		return nil
	}
	if !h.isAddressed(msg) {
		return nil
	}

	if !h.limiter.Allow(msg.AuthorID) {
		return h.sender.SendMessage(msg.ChannelID,
			"⏱️ Rate limit exceeded. Please wait before sending more messages.")
	}

	content := h.cleanMention(msg.Content)
	if content == "" {
		return h.sender.SendMessage(msg.ChannelID, "Hi! How can I help you?")
	}

	switch strings.ToLower(strings.TrimSpace(content)) {
	case "clear history", "forget this conversation":
		h.ClearHistory(msg.ChannelID)
		return h.sender.SendMessage(msg.ChannelID, "🗑️ Conversation history cleared!")
	}

	if reply, handled := h.reminderCommand(content, msg.AuthorID); handled {
		return h.sender.SendMessage(msg.ChannelID, reply)
	}

	if h.parser.Detect(content) {
		return h.sender.SendMessage(msg.ChannelID, h.reminderRequest(content, msg))
	}

	return h.chat(ctx, content, msg)
}

// isAddressed reports whether the bot should respond: DM, @mention, or the
// bot's display name appearing in the text.
func (h *Handler) isAddressed(msg Incoming) bool {
	if msg.IsDM || msg.MentionsBot {
		return true
	}
	_, name, _ := h.identity()
	return name != "" && strings.Contains(strings.ToLower(msg.Content), strings.ToLower(name))
}

// cleanMention strips @mention tokens and the bot's display name.
func (h *Handler) cleanMention(content string) string {
	id, _, nameRe := h.identity()
	if id != "" {
		content = strings.ReplaceAll(content, "<@"+id+">", "")
		content = strings.ReplaceAll(content, "<@!"+id+">", "")
	}
	if nameRe != nil {
		content = nameRe.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

// reminderCommand handles the explicit list/cancel command surface.
func (h *Handler) reminderCommand(content, authorID string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(content))

	switch lower {
	case "list reminders", "list my reminders", "my reminders", "show my reminders":
		return h.formatPending(authorID), true
	case "list all reminders":
		if !h.admins[authorID] {
			// Non-admins get their own view, not a refusal.
			return h.formatPending(authorID), true
		}
		return h.formatPending(""), true
	}

	if m := cancelCommandRe.FindStringSubmatch(content); m != nil {
		taskID := strings.ToLower(m[1])
		if h.sched.Cancel(taskID, authorID) {
			return fmt.Sprintf("🗑️ Canceled `%s`.", taskID), true
		}
		return "No such pending reminder.", true
	}

	return "", false
}

func (h *Handler) formatPending(authorID string) string {
	pending := h.sched.Pending(authorID)
	if len(pending) == 0 {
		return "You have no pending reminders."
	}

	now := h.now()
	var b strings.Builder
	if authorID == "" {
		fmt.Fprintf(&b, "📋 %d pending reminder(s) across all users:\n", len(pending))
	} else {
		fmt.Fprintf(&b, "📋 You have %d pending reminder(s):\n", len(pending))
	}
	for _, task := range pending {
		fmt.Fprintf(&b, "• `%s` — %q fires %s (in %s)\n",
			task.ID, task.Message,
			task.FireAt.In(h.loc).Format("Mon, Jan 2 at 3:04 PM"),
			timeutil.FormatUntil(now, task.FireAt))
	}
	return strings.TrimRight(b.String(), "\n")
}

// reminderRequest parses a natural-language reminder and schedules it.
// Parse failures become clarifying replies, never generic errors.
func (h *Handler) reminderRequest(content string, msg Incoming) string {
	now := h.now()
	res, err := h.parser.Parse(content, now)
	switch {
	case errors.Is(err, timeparse.ErrNoTimeExpression):
		return "I can set a reminder, but I couldn't find a time in that. " +
			"Try something like \"remind me in 30 minutes to stretch\"."
	case errors.Is(err, timeparse.ErrInvalidTime):
		return "That time doesn't look valid. Use a clock time like \"at 3pm\" or \"at 15:30\"."
	case errors.Is(err, timeparse.ErrPastTime):
		return "That time has already passed. Give me a time in the future."
	case errors.Is(err, timeparse.ErrTooFarAhead):
		return "That's further ahead than I can schedule. Try something sooner."
	case err != nil:
		return "I couldn't work out when you want that reminder. Try rephrasing the time."
	}

	taskID, err := h.sched.Schedule(res.When, msg.AuthorID, msg.ChannelID, res.Message, h.deliver())
	if err != nil {
		fmt.Printf("[DISCORD] Schedule failed for user %s: %v\n", msg.AuthorID, err)
		return "That time has already passed. Give me a time in the future."
	}

	return fmt.Sprintf("✅ Got it! I'll remind you in %s (%s).\n> %s\n\nSay \"cancel %s\" to cancel.",
		timeutil.FormatUntil(now, res.When),
		res.When.In(h.loc).Format("Mon, Jan 2 at 3:04 PM"),
		res.Message, taskID)
}

// deliver builds the delivery callback for reminders created from chat.
func (h *Handler) deliver() schedule.DeliverFunc {
	return func(_ context.Context, task schedule.Task) error {
		content := fmt.Sprintf("⏰ **Reminder** <@%s>\n\n%s", task.OwnerID, task.Message)
		return h.sender.SendMessage(task.ChannelID, content)
	}
}

// chat runs the LLM path with per-channel history.
func (h *Handler) chat(ctx context.Context, content string, msg Incoming) error {
	h.tracker.RecordInteraction(msg.AuthorID, content)

	if !h.llm.IsConfigured() {
		return h.sender.SendMessage(msg.ChannelID,
			"I'm not connected to my language model right now. Reminders still work, though.")
	}

	messages := h.appendHistory(msg.ChannelID, agent.UserMessage(content))

	system := fmt.Sprintf("%s\n\nCurrent Discord context: user_id=%s, channel_id=%s. "+
		"Pass these IDs to tools that require them.",
		h.tracker.SystemPrompt(), msg.AuthorID, msg.ChannelID)

	out, err := h.llm.Execute(ctx, agent.Input{Messages: messages, System: system, MaxTurns: 5})
	if err != nil {
		fmt.Printf("[DISCORD] Agent call failed in channel %s: %v\n", msg.ChannelID, err)
		return h.sender.SendMessage(msg.ChannelID,
			"Something went wrong talking to the model. Try again in a moment.")
	}

	reply := out.FinalText
	if reply == "" {
		reply = "Hmm, I don't have a response for that."
	}
	h.appendHistory(msg.ChannelID, agent.AssistantMessage(reply))

	for _, chunk := range SplitMessage(reply) {
		if err := h.sender.SendMessage(msg.ChannelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

// appendHistory records a message in the channel's capped history and returns
// a snapshot for the API call.
func (h *Handler) appendHistory(channelID string, m agent.Message) []agent.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	hist := append(h.history[channelID], m)
	if len(hist) > h.historySize {
		hist = hist[len(hist)-h.historySize:]
	}
	h.history[channelID] = hist

	snapshot := make([]agent.Message, len(hist))
	copy(snapshot, hist)
	return snapshot
}

// ClearHistory drops a channel's conversation memory.
func (h *Handler) ClearHistory(channelID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.history, channelID)
}
