package followstore

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"twitbot/internal/model"
)

// DB is the sqlite sink for followed-user records and the engagement
// action log. A nil *DB disables persistence; every method tolerates it.
type DB struct{ sql *sql.DB }

func Open(path string) (*DB, error) {
	d, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := d.Exec(`PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;`); err != nil {
		return nil, err
	}
	db := &DB{sql: d}
	if err := db.migrate(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	if d == nil {
		return nil
	}
	return d.sql.Close()
}

func (d *DB) migrate() error {
	_, err := d.sql.Exec(`
	CREATE TABLE IF NOT EXISTS followed (
	  screen_name TEXT PRIMARY KEY,
	  id TEXT NOT NULL,
	  location TEXT,
	  followers_count INTEGER NOT NULL,
	  friends_count INTEGER NOT NULL,
	  followed_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS actions (
	  id INTEGER PRIMARY KEY AUTOINCREMENT,
	  ts INTEGER NOT NULL,
	  type TEXT NOT NULL,
	  target TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_actions_ts ON actions(ts);
	`)
	return err
}

// PutFollowed upserts a followed-user record keyed by screen name.
func (d *DB) PutFollowed(ctx context.Context, u model.User, at time.Time) error {
	if d == nil {
		return nil
	}
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO followed(screen_name, id, location, followers_count, friends_count, followed_at)
		 VALUES(?,?,?,?,?,?)
		 ON CONFLICT(screen_name) DO UPDATE SET
		   id=excluded.id, location=excluded.location,
		   followers_count=excluded.followers_count,
		   friends_count=excluded.friends_count,
		   followed_at=excluded.followed_at`,
		u.ScreenName, u.ID, u.Location, u.FollowersCount, u.FriendsCount, at.Unix())
	return err
}

// GetFollowed returns the stored record for a screen name, if any.
func (d *DB) GetFollowed(ctx context.Context, screenName string) (model.User, bool, error) {
	var u model.User
	if d == nil {
		return u, false, nil
	}
	row := d.sql.QueryRowContext(ctx,
		`SELECT screen_name, id, location, followers_count, friends_count FROM followed WHERE screen_name=?`,
		screenName)
	err := row.Scan(&u.ScreenName, &u.ID, &u.Location, &u.FollowersCount, &u.FriendsCount)
	if err == sql.ErrNoRows {
		return u, false, nil
	}
	if err != nil {
		return u, false, err
	}
	return u, true, nil
}

// RecordAction appends one engagement action to the log.
func (d *DB) RecordAction(ctx context.Context, ts time.Time, typ, target string) error {
	if d == nil {
		return nil
	}
	_, err := d.sql.ExecContext(ctx, `INSERT INTO actions(ts, type, target) VALUES(?,?,?)`,
		ts.Unix(), typ, target)
	return err
}

// ActionsWithin returns logged actions in [start, end), optionally
// filtered by type.
func (d *DB) ActionsWithin(ctx context.Context, start, end time.Time, typ string) ([]model.EngagementEvent, error) {
	if d == nil {
		return nil, nil
	}
	var rows *sql.Rows
	var err error
	if typ == "" {
		rows, err = d.sql.QueryContext(ctx,
			`SELECT ts, type, target FROM actions WHERE ts>=? AND ts<? ORDER BY ts`,
			start.Unix(), end.Unix())
	} else {
		rows, err = d.sql.QueryContext(ctx,
			`SELECT ts, type, target FROM actions WHERE ts>=? AND ts<? AND type=? ORDER BY ts`,
			start.Unix(), end.Unix(), typ)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.EngagementEvent
	for rows.Next() {
		var ts int64
		var e model.EngagementEvent
		if err := rows.Scan(&ts, &e.Type, &e.Target); err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(ts, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
