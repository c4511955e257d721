package correlator

import (
	"context"
	"errors"
	"time"

	"go-raidguard/internal/detectors"
	"go-raidguard/internal/logging"
	"go-raidguard/internal/metrics"
	"go-raidguard/internal/models"
)

// Actions is the part of the executor the classifier needs.
type Actions interface {
	Delete(ctx context.Context, channelID, messageID string) models.Outcome
	Mute(ctx context.Context, guildID, userID string, d time.Duration, reason string) models.Outcome
}

// RaidTrigger is told about every message that pushes a guild over the
// burst threshold.
type RaidTrigger interface {
	Trigger(ctx context.Context, guildID string)
}

type Notifier interface {
	Send(ctx context.Context, notice *models.Notice)
}

type IncidentRecorder interface {
	RecordIncident(ctx context.Context, inc *models.Incident)
}

// Verdict is the classification of one message. Rule is nil when the
// message passed every rule.
type Verdict struct {
	Burst    bool
	Rule     *detectors.Rule
	Outcomes map[models.ActionKind]models.Outcome
	// Skipped lists rules that could not be evaluated and were passed.
	Skipped []string
}

// Matched reports whether a rule fired.
func (v *Verdict) Matched() bool {
	return v != nil && v.Rule != nil
}

// RuleName is the name of the rule that fired, or "".
func (v *Verdict) RuleName() string {
	if !v.Matched() {
		return ""
	}
	return v.Rule.Name
}

const MuteReason = "Spam"

// Correlator runs inbound messages through the rule chain and acts on the
// first rule that matches.
type Correlator struct {
	env       *detectors.Env
	rules     []detectors.Rule
	actions   Actions
	raid      RaidTrigger
	notices   Notifier
	incidents IncidentRecorder
}

type Deps struct {
	Env       *detectors.Env
	Rules     []detectors.Rule
	Actions   Actions
	Raid      RaidTrigger
	Notices   Notifier
	Incidents IncidentRecorder
}

// New builds a Correlator. A nil Rules uses detectors.Chain.
func New(d Deps) *Correlator {
	rules := d.Rules
	if rules == nil {
		rules = detectors.Chain()
	}
	return &Correlator{
		env:       d.Env,
		rules:     rules,
		actions:   d.Actions,
		raid:      d.Raid,
		notices:   d.Notices,
		incidents: d.Incidents,
	}
}

// Classify updates counters for msg and picks the first matching rule. It
// takes no action. Messages outside a guild return nil.
func (c *Correlator) Classify(ctx context.Context, msg *models.Message) *Verdict {
	if msg == nil || !msg.InGuild() {
		return nil
	}
	metrics.MessagesClassified.Inc()

	v := &Verdict{}
	over, _, err := detectors.BurstExceeded(ctx, c.env, msg.GuildID)
	if err != nil {
		c.counterFailure(v, detectors.RuleBurst, err)
	}
	v.Burst = over

	text := msg.Text()
	for i := range c.rules {
		r := &c.rules[i]
		hit, err := r.Check(ctx, c.env, msg, text)
		if err != nil {
			c.counterFailure(v, r.Name, err)
			continue
		}
		if hit {
			v.Rule = r
			break
		}
	}
	return v
}

// Process classifies msg and carries out the verdict: the raid trigger for a
// burst, then the matched rule's actions, notice and incident. Action
// failures are absorbed; the verdict records their outcomes.
func (c *Correlator) Process(ctx context.Context, msg *models.Message) *Verdict {
	start := time.Now()
	defer func() {
		metrics.ClassifyDuration.Observe(time.Since(start).Seconds())
	}()

	v := c.Classify(ctx, msg)
	if v == nil {
		return nil
	}

	if v.Burst && c.raid != nil {
		c.raid.Trigger(ctx, msg.GuildID)
	}
	if !v.Matched() {
		return v
	}

	r := v.Rule
	metrics.RulesTriggered.WithLabelValues(r.Name).Inc()
	v.Outcomes = make(map[models.ActionKind]models.Outcome, len(r.Actions))
	for _, kind := range r.Actions {
		v.Outcomes[kind] = c.act(ctx, kind, msg)
	}

	logging.Info("[CLASSIFIER] %s by %s in %s/%s: %v", r.Name, msg.AuthorID, msg.GuildID, msg.ChannelID, v.Outcomes)

	if c.notices != nil {
		c.notices.Send(ctx, models.NewNotice(msg.GuildID, r.Title, r.Description(msg, c.env.Thresholds)).
			WithActor(msg.AuthorID).WithRule(r.Name))
	}
	if c.incidents != nil {
		outcomes := make([]models.Outcome, 0, len(v.Outcomes))
		for _, o := range v.Outcomes {
			outcomes = append(outcomes, o)
		}
		c.incidents.RecordIncident(ctx, &models.Incident{
			GuildID: msg.GuildID,
			ActorID: msg.AuthorID,
			Rule:    r.Name,
			Action:  r.Actions[len(r.Actions)-1],
			Outcome: models.Worst(outcomes...),
			Detail:  msg.ChannelID + "/" + msg.ID,
		})
	}
	return v
}

func (c *Correlator) act(ctx context.Context, kind models.ActionKind, msg *models.Message) models.Outcome {
	switch kind {
	case models.ActionDelete:
		return c.actions.Delete(ctx, msg.ChannelID, msg.ID)
	case models.ActionMute:
		return c.actions.Mute(ctx, msg.GuildID, msg.AuthorID, c.env.Thresholds.MuteDuration(), MuteReason)
	default:
		logging.Error("[CLASSIFIER] No handler for action %s", kind)
		return models.OutcomeUnknown
	}
}

func (c *Correlator) counterFailure(v *Verdict, rule string, err error) {
	category := rule
	var ce *detectors.CounterError
	if errors.As(err, &ce) {
		category = ce.Category
	}
	metrics.CountStoreErrors.WithLabelValues(category).Inc()
	logging.Warn("[CLASSIFIER] %s skipped: %v", rule, err)
	v.Skipped = append(v.Skipped, rule)
}
