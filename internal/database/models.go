package database

// BannedUser is an actor banned by the anti-nuke monitor.
type BannedUser struct {
	ID       int64
	GuildID  string
	UserID   string
	Reason   string
	BannedBy string
	BannedAt int64
}

// IncidentCount is the number of incidents per rule over a period.
type IncidentCount struct {
	Rule  string
	Count int
}
