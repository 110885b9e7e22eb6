// Package discord is the thin Discord adapter: it forwards mentions and DMs
// to the conductor and renders the reply. All emotional logic lives upstream.
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/keshon/companion/internal/conductor"
)

const platformName = "discord"

// Bot is the Discord adapter.
type Bot struct {
	dg   *discordgo.Session
	cond *conductor.Conductor
	log  zerolog.Logger
}

// StartBot connects and serves until ctx is done.
func StartBot(ctx context.Context, token string, cond *conductor.Conductor, log zerolog.Logger) error {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{dg: dg, cond: cond, log: log}
	dg.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("discord adapter shutting down")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Msg("discord connected")
}

// onMessageCreate reacts to DMs and mentions; everything else is ambient
// noise the companion ignores.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	if !b.addressed(s, m) {
		return
	}

	content := stripMention(m.Content, s.State.User.ID)
	if content == "" {
		return
	}
	s.ChannelTyping(m.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	reply, err := b.cond.HandleMessage(ctx, platformName, m.Author.ID, content)
	switch {
	case err == conductor.ErrRateLimited:
		reply = "Give me a moment, I need to catch my breath."
	case err != nil:
		b.log.Error().Err(err).Msg("handling discord message")
		reply = "Something in me glitched just now. Try me again?"
	}

	for _, chunk := range splitMessage(reply, 2000) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			b.log.Error().Err(err).Str("channel", m.ChannelID).Msg("send failed")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// addressed reports whether the message is for us: a DM or a mention.
func (b *Bot) addressed(s *discordgo.Session, m *discordgo.MessageCreate) bool {
	if m.GuildID == "" {
		return true
	}
	for _, user := range m.Mentions {
		if user.ID == s.State.User.ID {
			return true
		}
	}
	return false
}

func stripMention(content, selfID string) string {
	for _, tag := range []string{"<@" + selfID + ">", "<@!" + selfID + ">"} {
		content = strings.ReplaceAll(content, tag, "")
	}
	return strings.TrimSpace(content)
}

// splitMessage chunks a reply under Discord's message length limit, cutting
// at newlines when possible. A hard cut never lands mid-rune.
func splitMessage(msg string, limit int) []string {
	var result []string
	for len(msg) > limit {
		cut := strings.LastIndex(msg[:limit], "\n")
		if cut == -1 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(msg[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		result = append(result, strings.TrimSpace(msg[:cut]))
		msg = strings.TrimSpace(msg[cut:])
	}
	if msg != "" {
		result = append(result, msg)
	}
	return result
}
