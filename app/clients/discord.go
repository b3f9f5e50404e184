package clients

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/bwmarrin/discordgo"

	"WordLeap/app/sentence"
)

var _ Interface = &DiscordClient{}

// DiscordClient is the chat shell: the bot posts each word pair and the admin
// answers with "safe" or "leap" until the sentence seals.
type DiscordClient struct {
	Client
	session   *discordgo.Session
	channelID string
	adminID   string
}

func NewDiscordClientFromConfig(cfg map[string]string) (*DiscordClient, error) {
	token := cfg["token"]
	if token == "" {
		token = os.Getenv("DISCORD_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("discord client requires a token")
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	channelID := cfg["channel_id"]
	if channelID == "" {
		channelID = os.Getenv("DISCORD_CHANNEL_ID")
	}
	adminID := cfg["admin_id"]
	if adminID == "" {
		adminID = os.Getenv("DISCORD_ADMIN")
	}

	dc := &DiscordClient{
		session:   session,
		channelID: channelID,
		adminID:   adminID,
	}

	session.AddHandler(dc.onMessageCreate)
	session.Identify.Intents = discordgo.IntentsGuildMessages

	return dc, nil
}

func (c *DiscordClient) Subscribe(ctrl *sentence.Controller) {
	c.controller = ctrl
	if err := c.Open(); err != nil {
		log.Printf("❌ Error opening Discord session: %v", err)
	}
}

func (c *DiscordClient) Open() error {
	if err := c.session.Open(); err != nil {
		return err
	}
	log.Println("Discord client started. Listening for word choices...")
	return nil
}

func (c *DiscordClient) Close() error {
	return c.session.Close()
}

func (c *DiscordClient) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if c.adminID != "" && m.Author.ID != c.adminID {
		return
	}
	if c.channelID != "" && m.ChannelID != c.channelID {
		return
	}

	ctx := context.Background()
	raw := strings.TrimSpace(m.Content)
	var err error
	switch input := strings.ToLower(raw); {
	case strings.HasPrefix(input, "!leap key "):
		err = c.controller.SubmitKey(ctx, strings.TrimSpace(raw[len("!leap key "):]))
	case input == "!leap forget":
		err = c.controller.ForgetKey(ctx)
	case input == "safe":
		err = c.controller.Choose(ctx, sentence.SideSafe)
	case input == "leap":
		err = c.controller.Choose(ctx, sentence.SideLeap)
	case input == "restart":
		err = c.controller.Restart(ctx)
	case input == "retry":
		err = c.controller.Retry(ctx)
	case input == "!leap show":
		// fall through to the state message below
	default:
		return
	}

	msg := c.formatState()
	if err != nil {
		msg = fmt.Sprintf("⚠️ %v\n%s", err, msg)
	}
	if sendErr := c.SendMessage(m.ChannelID, msg); sendErr != nil {
		log.Printf("⚠️ Error sending state message: %v", sendErr)
	}
}

func (c *DiscordClient) formatState() string {
	snap := c.controller.Snapshot()
	switch snap.Phase {
	case sentence.PhaseKeyEntry:
		return "🔑 No oracle key. Send `!leap key <key>` to begin."
	case sentence.PhaseWaiting:
		return fmt.Sprintf("… `%s` — fetch failed, send `retry`", strings.Join(snap.Words, " "))
	case sentence.PhaseChoosing:
		return fmt.Sprintf("`%s _` (%d/%d)\n**safe**: %s   **leap**: %s",
			strings.Join(snap.Words, " "), len(snap.Words), snap.TargetLength,
			snap.Pair.Safe, snap.Pair.Leap)
	case sentence.PhaseComplete:
		return fmt.Sprintf("✨ **%s**\nSend `restart` to write another.", strings.Join(snap.Words, " "))
	default:
		return "…"
	}
}

func (c *DiscordClient) SendMessage(channelID, content string) error {
	if channelID == "" {
		return fmt.Errorf("channelID is empty")
	}
	if _, err := c.session.ChannelMessageSend(channelID, content); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
