// Package discord hosts the bot's chat transport: the gateway session, the
// message-handling flow, rate limiting, and Discord-specific formatting.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Bot owns the gateway session and feeds incoming messages to a Handler.
type Bot struct {
	session *discordgo.Session
	handler *Handler
}

// NewBot creates the gateway session. The connection is not opened until
// Start; attach a Handler first.
func NewBot(token string) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Bot{session: session}, nil
}

// AttachHandler registers the message flow. Must be called before Start.
func (b *Bot) AttachHandler(handler *Handler) {
	b.handler = handler
	b.session.AddHandler(b.onMessageCreate)
}

// Start opens the gateway connection and records the bot's own identity for
// mention detection.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}

	me := b.session.State.User
	b.handler.SetIdentity(me.ID, me.Username)
	fmt.Printf("[DISCORD] Connected as %s (%s)\n", me.Username, me.ID)
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	return b.session.Close()
}

// Sender returns a channel-message sender bound to this session, for wiring
// into reminder delivery before Start is called.
func (b *Bot) Sender() Sender {
	return sessionSender{session: b.session}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	msg := Incoming{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot,
		Content:   m.Content,
		IsDM:      m.GuildID == "",
	}
	if s.State.User != nil {
		for _, u := range m.Mentions {
			if u.ID == s.State.User.ID {
				msg.MentionsBot = true
				break
			}
		}
	}

	if err := b.handler.HandleMessage(context.Background(), msg); err != nil {
		fmt.Printf("[DISCORD] Failed to handle message %s: %v\n", m.ID, err)
	}
}

// sessionSender adapts the live session to the Sender interface.
type sessionSender struct {
	session *discordgo.Session
}

func (s sessionSender) SendMessage(channelID, content string) error {
	_, err := s.session.ChannelMessageSend(channelID, content)
	return err
}
