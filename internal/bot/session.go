package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/logging"
)

// Intents covers messages with content, member roles, audit log entries and
// the channel cache used by lockdowns.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildBans

// Session represents the Discord bot session
type Session struct {
	discord *discordgo.Session
	token   string
	BotID   string
}

// New creates a session for token. It does not connect.
func New(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is empty")
	}

	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	dg.Identify.Intents = Intents
	dg.StateEnabled = true

	return &Session{
		discord: dg,
		token:   token,
	}, nil
}

// Connect opens the gateway connection
func (s *Session) Connect() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}

	if s.discord.State != nil && s.discord.State.User != nil {
		s.BotID = s.discord.State.User.ID
		logging.Info("[BOT] Connected as %s (%s)", s.discord.State.User.Username, s.BotID)
	}
	return nil
}

// Close closes the Discord session
func (s *Session) Close() error {
	if s == nil || s.discord == nil {
		return nil
	}
	return s.discord.Close()
}

// Discord returns the underlying discordgo session
func (s *Session) Discord() *discordgo.Session {
	return s.discord
}

// RegisterCommands registers slash commands globally for the connected
// application, replacing any existing set.
func (s *Session) RegisterCommands(commands []*discordgo.ApplicationCommand) error {
	if s.BotID == "" {
		return fmt.Errorf("session not connected")
	}

	created, err := s.discord.ApplicationCommandBulkOverwrite(s.BotID, "", commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	for _, cmd := range created {
		logging.Info("[BOT] Registered command: /%s", cmd.Name)
	}
	return nil
}

// AddHandler adds an event handler
func (s *Session) AddHandler(handler interface{}) func() {
	return s.discord.AddHandler(handler)
}
