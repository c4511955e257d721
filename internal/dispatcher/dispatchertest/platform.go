// Package dispatchertest provides in-memory fakes of the platform and the
// scheduler for tests of packages that act on a guild.
package dispatchertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"go-raidguard/internal/dispatcher"
)

// Call is one recorded platform invocation, e.g. {"ban", ["g1", "u1", reason]}.
type Call struct {
	Op   string
	Args []string
}

func (c Call) String() string {
	return c.Op + "(" + strings.Join(c.Args, ",") + ")"
}

// Platform records every call and answers from in-memory guild data.
type Platform struct {
	mu       sync.Mutex
	calls    []Call
	errs     map[string]error
	roles    map[string][]*discordgo.Role
	channels map[string][]*discordgo.Channel
	embeds   []*discordgo.MessageEmbed
	nextID   int
	delays   map[string]time.Duration
	owners   map[string]string
}

var _ dispatcher.Platform = (*Platform)(nil)

func NewPlatform() *Platform {
	return &Platform{
		errs:     make(map[string]error),
		roles:    make(map[string][]*discordgo.Role),
		channels: make(map[string][]*discordgo.Channel),
		delays:   make(map[string]time.Duration),
		owners:   make(map[string]string),
	}
}

// Delay makes every later call of op sleep for d before it is answered,
// widening the window in which concurrent callers overlap.
func (p *Platform) Delay(op string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delays[op] = d
}

// SetChannelGuild places a channel that is not part of the lockable set,
// such as the log channel, in guildID.
func (p *Platform) SetChannelGuild(channelID, guildID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owners[channelID] = guildID
}

// FailOp makes every later call of op return err. A nil err clears it.
func (p *Platform) FailOp(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.errs, op)
		return
	}
	p.errs[op] = err
}

func (p *Platform) AddChannels(guildID string, ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.channels[guildID] = append(p.channels[guildID], &discordgo.Channel{ID: id, GuildID: guildID})
	}
}

func (p *Platform) AddRole(guildID, id, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roles[guildID] = append(p.roles[guildID], &discordgo.Role{ID: id, Name: name})
}

func (p *Platform) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallsTo returns the recorded calls of a single op.
func (p *Platform) CallsTo(op string) []Call {
	var out []Call
	for _, c := range p.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (p *Platform) Embeds() []*discordgo.MessageEmbed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*discordgo.MessageEmbed(nil), p.embeds...)
}

// Titles lists the titles of every embed sent, in order.
func (p *Platform) Titles() []string {
	var out []string
	for _, e := range p.Embeds() {
		out = append(out, e.Title)
	}
	return out
}

func (p *Platform) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
	p.embeds = nil
}

func (p *Platform) record(op string, args ...string) error {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Op: op, Args: args})
	err, d := p.errs[op], p.delays[op]
	p.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	return err
}

func (p *Platform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return p.record("delete", channelID, messageID)
}

func (p *Platform) GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	if err := p.record("roles", guildID); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*discordgo.Role(nil), p.roles[guildID]...), nil
}

func (p *Platform) CreateRole(ctx context.Context, guildID, name string) (*discordgo.Role, error) {
	if err := p.record("create_role", guildID, name); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	role := &discordgo.Role{ID: fmt.Sprintf("role-%d", p.nextID), Name: name}
	p.roles[guildID] = append(p.roles[guildID], role)
	return role, nil
}

func (p *Platform) AddMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return p.record("add_role", guildID, userID, roleID, reason)
}

func (p *Platform) RemoveMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return p.record("remove_role", guildID, userID, roleID, reason)
}

func (p *Platform) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	if err := p.record("channels", guildID); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*discordgo.Channel(nil), p.channels[guildID]...), nil
}

func (p *Platform) SetSendPermission(ctx context.Context, channel *discordgo.Channel, roleID string, deny bool) error {
	return p.record("send_permission", channel.ID, roleID, fmt.Sprint(deny))
}

func (p *Platform) BanMember(ctx context.Context, guildID, userID, reason string) error {
	return p.record("ban", guildID, userID, reason)
}

func (p *Platform) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	if err := p.record("embed", channelID, embed.Title); err != nil {
		return err
	}
	p.mu.Lock()
	p.embeds = append(p.embeds, embed)
	p.mu.Unlock()
	return nil
}

// ChannelGuild answers from SetChannelGuild first, then from the channels
// added with AddChannels. It is not recorded as a call; FailOp("channel_guild")
// still applies.
func (p *Platform) ChannelGuild(ctx context.Context, channelID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.errs["channel_guild"]; err != nil {
		return "", err
	}
	if g, ok := p.owners[channelID]; ok {
		return g, nil
	}
	for g, chs := range p.channels {
		for _, ch := range chs {
			if ch.ID == channelID {
				return g, nil
			}
		}
	}
	return "", dispatcher.ErrNotFound
}
