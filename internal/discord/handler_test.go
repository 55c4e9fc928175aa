package discord

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disclaude/internal/agent"
	"disclaude/internal/personality"
	"disclaude/internal/schedule"
	"disclaude/internal/timeparse"
)

var handlerRef = time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)

type sentMessage struct {
	ChannelID string
	Content   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeSender) SendMessage(channelID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Content: content})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeSender) last(t *testing.T) sentMessage {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

type fakeLLM struct {
	configured bool
	reply      string
	err        error
	lastInput  agent.Input
	calls      int
}

func (f *fakeLLM) Execute(_ context.Context, input agent.Input) (*agent.Output, error) {
	f.calls++
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return &agent.Output{FinalText: f.reply}, nil
}

func (f *fakeLLM) IsConfigured() bool { return f.configured }

type handlerFixture struct {
	handler *Handler
	sender  *fakeSender
	llm     *fakeLLM
	sched   *schedule.Scheduler
	now     time.Time
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		sender: &fakeSender{},
		llm:    &fakeLLM{configured: true, reply: "sure thing"},
		now:    handlerRef,
	}
	clock := func() time.Time { return f.now }

	f.sched = schedule.New(schedule.Options{Now: clock})
	t.Cleanup(f.sched.Stop)

	f.handler = NewHandler(
		f.sender,
		f.llm,
		timeparse.New(timeparse.Options{}),
		f.sched,
		personality.NewTracker(),
		NewRateLimiter(100, time.Minute),
		HandlerOptions{Now: clock},
	)
	f.handler.SetIdentity("bot123", "DisClaude")
	return f
}

func dm(authorID, content string) Incoming {
	return Incoming{
		ID:        "msg1",
		ChannelID: "chan1",
		AuthorID:  authorID,
		Content:   content,
		IsDM:      true,
	}
}

func TestHandler_IgnoresBots(t *testing.T) {
	f := newHandlerFixture(t)

	msg := dm("otherbot", "remind me in 10 minutes to rest")
	msg.AuthorBot = true
	require.NoError(t, f.handler.HandleMessage(context.Background(), msg))
	assert.Empty(t, f.sender.messages())

	own := dm("bot123", "hello")
	require.NoError(t, f.handler.HandleMessage(context.Background(), own))
	assert.Empty(t, f.sender.messages())
}

func TestHandler_AddressingRules(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	t.Run("guild message without mention is ignored", func(t *testing.T) {
		msg := Incoming{ChannelID: "chan1", AuthorID: "user1", Content: "what time is it"}
		require.NoError(t, f.handler.HandleMessage(ctx, msg))
		assert.Empty(t, f.sender.messages())
	})

	t.Run("explicit mention is handled", func(t *testing.T) {
		msg := Incoming{ChannelID: "chan1", AuthorID: "user1",
			Content: "<@bot123> hello", MentionsBot: true}
		require.NoError(t, f.handler.HandleMessage(ctx, msg))
		assert.NotEmpty(t, f.sender.messages())
	})

	t.Run("display name counts as a mention", func(t *testing.T) {
		before := len(f.sender.messages())
		msg := Incoming{ChannelID: "chan1", AuthorID: "user1",
			Content: "hey DisClaude, how are you"}
		require.NoError(t, f.handler.HandleMessage(ctx, msg))
		assert.Greater(t, len(f.sender.messages()), before)
	})
}

func TestHandler_EmptyAfterCleaningGreets(t *testing.T) {
	f := newHandlerFixture(t)

	msg := Incoming{ChannelID: "chan1", AuthorID: "user1",
		Content: "<@bot123>", MentionsBot: true}
	require.NoError(t, f.handler.HandleMessage(context.Background(), msg))

	assert.Equal(t, "Hi! How can I help you?", f.sender.last(t).Content)
	assert.Zero(t, f.llm.calls)
}

func TestHandler_RateLimit(t *testing.T) {
	f := newHandlerFixture(t)
	f.handler.limiter = NewRateLimiter(1, time.Minute)
	ctx := context.Background()

	require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "hello")))
	require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "hello again")))

	assert.Contains(t, f.sender.last(t).Content, "Rate limit exceeded")
	assert.Equal(t, 1, f.llm.calls)
}

func TestHandler_SchedulesReminderFromNaturalLanguage(t *testing.T) {
	f := newHandlerFixture(t)

	msg := dm("user1", "remind me in 10 minutes to take a break")
	require.NoError(t, f.handler.HandleMessage(context.Background(), msg))

	reply := f.sender.last(t).Content
	assert.Contains(t, reply, "I'll remind you in 10 minutes")
	assert.Contains(t, reply, "take a break")
	assert.Contains(t, reply, "reminder_1")

	pending := f.sched.Pending("user1")
	require.Len(t, pending, 1)
	assert.Equal(t, "take a break", pending[0].Message)
	assert.True(t, handlerRef.Add(10*time.Minute).Equal(pending[0].FireAt))

	assert.Zero(t, f.llm.calls, "reminder requests must not hit the model")
}

func TestHandler_ParseFailureReplies(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "no time expression",
			text: "remind me once 10 minutes have passed",
			want: "couldn't find a time",
		},
		{
			name: "invalid clock",
			text: "remind me at 25:00 to fail",
			want: "doesn't look valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			require.NoError(t, f.handler.HandleMessage(context.Background(), dm("user1", tt.text)))
			assert.Contains(t, f.sender.last(t).Content, tt.want)
			assert.Empty(t, f.sched.Pending("user1"))
		})
	}

	t.Run("past time", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.now = time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC) // past the tonight cutoff

		require.NoError(t, f.handler.HandleMessage(context.Background(),
			dm("user1", "remind me tonight to water the plants")))
		assert.Contains(t, f.sender.last(t).Content, "already passed")
	})
}

func TestHandler_ListAndCancelCommands(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "remind me in 1 hour to ship it")))

	t.Run("list shows the pending reminder", func(t *testing.T) {
		require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "list my reminders")))
		reply := f.sender.last(t).Content
		assert.Contains(t, reply, "reminder_1")
		assert.Contains(t, reply, "ship it")
	})

	t.Run("cancel removes it", func(t *testing.T) {
		require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "cancel reminder_1")))
		assert.Contains(t, f.sender.last(t).Content, "Canceled")
		assert.Empty(t, f.sched.Pending("user1"))
	})

	t.Run("cancel on another user's task does not confirm existence", func(t *testing.T) {
		require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "remind me in 1 hour to ship it")))
		pending := f.sched.Pending("user1")
		require.Len(t, pending, 1)

		require.NoError(t, f.handler.HandleMessage(ctx, dm("user2", "cancel "+pending[0].ID)))
		assert.Equal(t, "No such pending reminder.", f.sender.last(t).Content)
		assert.Len(t, f.sched.Pending("user1"), 1)
	})

	t.Run("empty list", func(t *testing.T) {
		require.NoError(t, f.handler.HandleMessage(ctx, dm("user2", "list reminders")))
		assert.Equal(t, "You have no pending reminders.", f.sender.last(t).Content)
	})
}

func TestHandler_ClearHistoryCommand(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "hello")))
	require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "clear history")))
	assert.Contains(t, f.sender.last(t).Content, "cleared")

	require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "hello again")))
	assert.Len(t, f.llm.lastInput.Messages, 1, "history must restart after clearing")
}

func TestHandler_AdminGlobalList(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	admin := NewHandler(f.sender, f.llm, timeparse.New(timeparse.Options{}), f.sched,
		personality.NewTracker(), NewRateLimiter(100, time.Minute),
		HandlerOptions{AdminIDs: []string{"admin1"}, Now: func() time.Time { return f.now }})
	admin.SetIdentity("bot123", "DisClaude")

	require.NoError(t, admin.HandleMessage(ctx, dm("user1", "remind me in 1 hour to ship it")))
	require.NoError(t, admin.HandleMessage(ctx, dm("user2", "remind me in 2 hours to review")))

	t.Run("admin sees every owner's tasks", func(t *testing.T) {
		require.NoError(t, admin.HandleMessage(ctx, dm("admin1", "list all reminders")))
		reply := f.sender.last(t).Content
		assert.Contains(t, reply, "across all users")
		assert.Contains(t, reply, "ship it")
		assert.Contains(t, reply, "review")
	})

	t.Run("non-admin falls back to their own view", func(t *testing.T) {
		require.NoError(t, admin.HandleMessage(ctx, dm("user1", "list all reminders")))
		reply := f.sender.last(t).Content
		assert.Contains(t, reply, "ship it")
		assert.NotContains(t, reply, "review")
	})
}

func TestHandler_ChatPath(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "what's the capital of France")))

	assert.Equal(t, "sure thing", f.sender.last(t).Content)
	assert.Equal(t, 1, f.llm.calls)
	assert.Contains(t, f.llm.lastInput.System, "user_id=user1")
	assert.Contains(t, f.llm.lastInput.System, "channel_id=chan1")

	// History accumulates: next call carries the prior exchange.
	require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "and of Spain")))
	assert.Len(t, f.llm.lastInput.Messages, 3)
}

func TestHandler_ChatTruncatesHistory(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, f.handler.HandleMessage(ctx, dm("user1", "message")))
	}
	assert.LessOrEqual(t, len(f.llm.lastInput.Messages), 10)
}

func TestHandler_ChatUnconfiguredModel(t *testing.T) {
	f := newHandlerFixture(t)
	f.llm.configured = false

	require.NoError(t, f.handler.HandleMessage(context.Background(), dm("user1", "hello")))
	assert.Contains(t, f.sender.last(t).Content, "not connected")
	assert.Zero(t, f.llm.calls)
}

func TestHandler_ChatModelError(t *testing.T) {
	f := newHandlerFixture(t)
	f.llm.err = assert.AnError

	require.NoError(t, f.handler.HandleMessage(context.Background(), dm("user1", "hello")))
	assert.Contains(t, f.sender.last(t).Content, "Something went wrong")
}

func TestHandler_LongReplyIsSplit(t *testing.T) {
	f := newHandlerFixture(t)
	f.llm.reply = strings.Repeat("long answer\n", 400)

	require.NoError(t, f.handler.HandleMessage(context.Background(), dm("user1", "tell me everything")))

	msgs := f.sender.messages()
	require.Greater(t, len(msgs), 1)
	for _, m := range msgs {
		assert.LessOrEqual(t, len(m.Content), maxMessageLength)
	}
}
