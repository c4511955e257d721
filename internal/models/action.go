package models

import "time"

// ActionKind names a remedial action performed against the platform.
type ActionKind string

const (
	ActionDelete ActionKind = "delete"
	ActionMute   ActionKind = "mute"
	ActionUnmute ActionKind = "unmute"
	ActionBan    ActionKind = "ban"
	ActionLock   ActionKind = "lock"
	ActionUnlock ActionKind = "unlock"
	ActionNone   ActionKind = "none"
)

// Outcome is the result of a best-effort platform call. Callers proceed
// regardless of the value; it is surfaced to logs and metrics only.
type Outcome uint8

const (
	// OutcomeSuccess means the platform acknowledged the call.
	OutcomeSuccess Outcome = iota
	// OutcomeMissing means the target entity no longer exists.
	OutcomeMissing
	// OutcomeUnknown means the call failed (network, permission, rate limit).
	OutcomeUnknown
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// ParseOutcome is the inverse of Outcome.String.
func ParseOutcome(s string) Outcome {
	switch s {
	case "success":
		return OutcomeSuccess
	case "missing":
		return OutcomeMissing
	default:
		return OutcomeUnknown
	}
}

// Worst folds per-item outcomes of a bulk operation into one value.
func Worst(outcomes ...Outcome) Outcome {
	worst := OutcomeSuccess
	for _, o := range outcomes {
		if o > worst {
			worst = o
		}
	}
	return worst
}

// Incident is the audit record of one triggered rule or anti-nuke decision.
type Incident struct {
	ID        int64
	GuildID   string
	ActorID   string
	Rule      string
	Action    ActionKind
	Outcome   Outcome
	Detail    string
	Timestamp time.Time
}
