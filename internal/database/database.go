package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"go-raidguard/internal/models"
)

type Database struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dbPath and applies the schema.
func Open(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	d := &Database{db: db}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return d, nil
}

func (d *Database) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS incidents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		actor_id TEXT NOT NULL DEFAULT '',
		rule TEXT NOT NULL,
		action TEXT NOT NULL,
		outcome TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_incidents_guild ON incidents(guild_id);
	CREATE INDEX IF NOT EXISTS idx_incidents_timestamp ON incidents(timestamp);

	CREATE TABLE IF NOT EXISTS banned_users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		banned_by TEXT NOT NULL DEFAULT '',
		banned_at INTEGER NOT NULL,
		UNIQUE(guild_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_banned_users_guild ON banned_users(guild_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// LogIncident stores inc and sets its ID. A zero Timestamp is set to now.
func (d *Database) LogIncident(ctx context.Context, inc *models.Incident) error {
	if inc.Timestamp.IsZero() {
		inc.Timestamp = time.Now()
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO incidents (guild_id, actor_id, rule, action, outcome, detail, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		inc.GuildID, inc.ActorID, inc.Rule, string(inc.Action), inc.Outcome.String(), inc.Detail, inc.Timestamp.UnixMilli(),
	)
	if err != nil {
		return err
	}
	inc.ID, err = res.LastInsertId()
	return err
}

// RecentIncidents returns up to limit incidents of guildID, newest first.
func (d *Database) RecentIncidents(ctx context.Context, guildID string, limit int) ([]*models.Incident, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, guild_id, actor_id, rule, action, outcome, detail, timestamp
		 FROM incidents WHERE guild_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		guildID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Incident
	for rows.Next() {
		var (
			inc     models.Incident
			action  string
			outcome string
			ts      int64
		)
		if err := rows.Scan(&inc.ID, &inc.GuildID, &inc.ActorID, &inc.Rule, &action, &outcome, &inc.Detail, &ts); err != nil {
			return nil, err
		}
		inc.Action = models.ActionKind(action)
		inc.Outcome = models.ParseOutcome(outcome)
		inc.Timestamp = time.UnixMilli(ts)
		out = append(out, &inc)
	}

	return out, rows.Err()
}

// CountIncidentsSince groups the incidents of guildID since the given time
// by rule, most frequent first.
func (d *Database) CountIncidentsSince(ctx context.Context, guildID string, since time.Time) ([]IncidentCount, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT rule, COUNT(*) FROM incidents
		 WHERE guild_id = ? AND timestamp >= ?
		 GROUP BY rule ORDER BY COUNT(*) DESC, rule`,
		guildID, since.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IncidentCount
	for rows.Next() {
		var c IncidentCount
		if err := rows.Scan(&c.Rule, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddBannedUser records a ban. Banning the same user again updates the row.
func (d *Database) AddBannedUser(ctx context.Context, guildID, userID, reason, bannedBy string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO banned_users (guild_id, user_id, reason, banned_by, banned_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(guild_id, user_id) DO UPDATE SET reason = excluded.reason, banned_by = excluded.banned_by, banned_at = excluded.banned_at`,
		guildID, userID, reason, bannedBy, time.Now().Unix(),
	)
	return err
}

func (d *Database) IsBannedUser(ctx context.Context, guildID, userID string) bool {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM banned_users WHERE guild_id = ? AND user_id = ?`,
		guildID, userID,
	).Scan(&count)
	return err == nil && count > 0
}

func (d *Database) GetBannedUsers(ctx context.Context, guildID string) ([]*BannedUser, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, guild_id, user_id, reason, banned_by, banned_at
		 FROM banned_users WHERE guild_id = ? ORDER BY banned_at DESC`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*BannedUser
	for rows.Next() {
		var u BannedUser
		if err := rows.Scan(&u.ID, &u.GuildID, &u.UserID, &u.Reason, &u.BannedBy, &u.BannedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
