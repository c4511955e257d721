package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/bot"
	"go-raidguard/internal/database"
	"go-raidguard/internal/logging"
	"go-raidguard/internal/models"
)

// Lockdown is the raid state machine as seen by /raid and /status.
type Lockdown interface {
	IsLocked(guildID string) bool
	LockedSince(guildID string) (time.Time, bool)
	Lockdowns(guildID string) uint32
	Lock(ctx context.Context, guildID string) bool
	Unlock(ctx context.Context, guildID string) bool
}

type MuteTracker interface {
	PendingMutes() int
	NextMuteExpiry() (time.Time, bool)
}

type IncidentLog interface {
	RecentIncidents(ctx context.Context, guildID string, limit int) ([]*models.Incident, error)
	CountIncidentsSince(ctx context.Context, guildID string, since time.Time) ([]database.IncidentCount, error)
}

// Deps wires the handler. Incidents may be nil when the database is
// disabled; Latency and HostStats default to the session heartbeat and
// gopsutil.
type Deps struct {
	Lockdown  Lockdown
	Mutes     MuteTracker
	Incidents IncidentLog
	Latency   func() time.Duration
	HostStats func(ctx context.Context) HostStats
	Timeout   time.Duration
}

// Handler manages all command interactions
type Handler struct {
	deps    Deps
	started time.Time
	now     func() time.Time
}

func NewHandler(deps Deps) *Handler {
	if deps.HostStats == nil {
		deps.HostStats = gatherHostStats
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 10 * time.Second
	}
	return &Handler{deps: deps, started: time.Now(), now: time.Now}
}

// Register installs the interaction handler and the command set on a
// connected session.
func (h *Handler) Register(session *bot.Session) error {
	if h.deps.Latency == nil {
		h.deps.Latency = session.Discord().HeartbeatLatency
	}
	session.AddHandler(h.handleInteraction)

	commands := GetAllCommands()
	if err := session.RegisterCommands(commands); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	logging.Info("[COMMANDS] Command handler initialized with %d commands", len(commands))
	return nil
}

// handleInteraction routes slash commands to their handlers
func (h *Handler) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Critical("[COMMANDS] Panic handling /%s: %v", i.ApplicationCommandData().Name, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.deps.Timeout)
	defer cancel()

	data, err := h.Respond(ctx, i)
	if err != nil {
		logging.Error("[COMMANDS] /%s failed: %v", i.ApplicationCommandData().Name, err)
		data = errorResponse(err)
	}

	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx)); err != nil {
		logging.Error("[COMMANDS] Failed to respond to /%s: %v", i.ApplicationCommandData().Name, err)
	}
}

// Respond builds the reply to a slash command.
func (h *Handler) Respond(ctx context.Context, i *discordgo.InteractionCreate) (*discordgo.InteractionResponseData, error) {
	if i.GuildID == "" {
		return ephemeral(&discordgo.MessageEmbed{
			Title:       "Guild only",
			Description: "Commands only work inside a server.",
			Color:       colorNeutral,
		}), nil
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case "ping":
		return h.handlePing(), nil
	case "status":
		return h.handleStatus(ctx, i.GuildID)
	case "raid":
		if !checkPermissions(i) {
			return permissionError("You need the Administrator permission."), nil
		}
		if len(data.Options) == 0 {
			return nil, fmt.Errorf("missing subcommand")
		}
		return h.handleRaid(ctx, i.GuildID, data.Options[0].Name)
	default:
		return nil, fmt.Errorf("unknown command %q", data.Name)
	}
}

const (
	colorNeutral = 0x2B2D31
	colorRed     = 0xFF0000
	colorGreen   = 0x00FF00
	colorYellow  = 0xFFFF00
	colorOrange  = 0xFFA500
)

func ephemeral(embed *discordgo.MessageEmbed) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	}
}

func errorResponse(err error) *discordgo.InteractionResponseData {
	return ephemeral(&discordgo.MessageEmbed{
		Title:       "Command failed",
		Description: err.Error(),
		Color:       colorRed,
	})
}
