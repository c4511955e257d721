package notifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
)

// EmbedSender posts an embed to a channel. ChannelGuild resolves the guild a
// channel belongs to.
type EmbedSender interface {
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
	ChannelGuild(ctx context.Context, channelID string) (string, error)
}

// Notifier posts notices to the moderation log channel. Only notices of the
// guild that owns the channel are posted. Delivery is best effort; a failed
// send never reaches the caller.
type Notifier struct {
	sender    EmbedSender
	channelID string
	timeout   time.Duration

	mu      sync.Mutex
	guildID string
}

// New returns a Notifier for channelID. An empty channelID disables sending.
func New(sender EmbedSender, channelID string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{sender: sender, channelID: channelID, timeout: timeout}
}

func (n *Notifier) Send(ctx context.Context, notice *models.Notice) {
	if n == nil || notice == nil {
		return
	}
	if n.sender == nil || n.channelID == "" {
		logging.Debug("[NOTIFIER] No log channel, dropped %q", notice.Title)
		metrics.NoticesSent.WithLabelValues("dropped").Inc()
		return
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	owner, err := n.channelGuild(ctx)
	if err != nil {
		logging.Warn("[NOTIFIER] Cannot resolve guild of %s, dropped %q: %v", n.channelID, notice.Title, err)
		metrics.NoticesSent.WithLabelValues("dropped").Inc()
		return
	}
	if owner != notice.GuildID {
		logging.Debug("[NOTIFIER] %q is for %s, log channel is in %s; dropped", notice.Title, notice.GuildID, owner)
		metrics.NoticesSent.WithLabelValues("dropped").Inc()
		return
	}

	if err := n.sender.SendEmbed(ctx, n.channelID, Embed(notice)); err != nil {
		logging.Warn("[NOTIFIER] Failed to send %q to %s: %v", notice.Title, n.channelID, err)
		metrics.NoticesSent.WithLabelValues("failed").Inc()
		return
	}
	metrics.NoticesSent.WithLabelValues("sent").Inc()
}

// channelGuild resolves the log channel's guild once; failures are retried on
// the next notice.
func (n *Notifier) channelGuild(ctx context.Context) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.guildID != "" {
		return n.guildID, nil
	}
	id, err := n.sender.ChannelGuild(ctx, n.channelID)
	if err != nil {
		return "", err
	}
	n.guildID = id
	return id, nil
}

// Embed renders a notice. Actor and guild are added as inline fields when set.
func Embed(notice *models.Notice) *discordgo.MessageEmbed {
	color := notice.Color
	if color == 0 {
		color = models.ColorRed
	}
	ts := notice.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       notice.Title,
		Description: notice.Description,
		Color:       color,
		Timestamp:   ts.Format(time.RFC3339),
	}
	if notice.ActorID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Actor",
			Value:  fmt.Sprintf("<@%s> (`%s`)", notice.ActorID, notice.ActorID),
			Inline: true,
		})
	}
	if notice.Rule != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Rule",
			Value:  notice.Rule,
			Inline: true,
		})
	}
	return embed
}
