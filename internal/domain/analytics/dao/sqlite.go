package dao

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maksim/feather/internal/domain/analytics/entity"
)

// SQLite implements analytics persistence on an embedded sqlite
// database
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the analytics database at path
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_journal=WAL&_timeout=5000&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening analytics db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging analytics db: %w", err)
	}

	_, err = db.Exec(`
	CREATE TABLE IF NOT EXISTS post_metrics (
		remote_id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		post_type TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS response_metrics (
		reply_id TEXT NOT NULL,
		source_id TEXT NOT NULL,
		user_id TEXT,
		kind TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_post_metrics_created ON post_metrics(created_at);
	CREATE INDEX IF NOT EXISTS idx_response_metrics_created ON response_metrics(created_at);
`)
	if err != nil {
		return nil, fmt.Errorf("creating analytics schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// InsertPost records a published post
func (s *SQLite) InsertPost(ctx context.Context, m entity.PostMetric) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_metrics (remote_id, content, post_type, created_at) VALUES (?, ?, ?, ?)`,
		m.RemoteID, m.Content, m.PostType, m.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting post metric: %w", err)
	}
	return nil
}

// InsertResponse records a sent response
func (s *SQLite) InsertResponse(ctx context.Context, m entity.ResponseMetric) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO response_metrics (reply_id, source_id, user_id, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
		m.ReplyID, m.SourceID, m.UserID, m.Kind, m.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting response metric: %w", err)
	}
	return nil
}

// DailyStats aggregates posts and responses per calendar date over the
// trailing number of days
func (s *SQLite) DailyStats(ctx context.Context, days int) ([]entity.DailyStat, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, SUM(posts), SUM(responses) FROM (
			SELECT date(created_at) AS date, COUNT(*) AS posts, 0 AS responses
			FROM post_metrics WHERE created_at >= ? GROUP BY date(created_at)
			UNION ALL
			SELECT date(created_at) AS date, 0 AS posts, COUNT(*) AS responses
			FROM response_metrics WHERE created_at >= ? GROUP BY date(created_at)
		) GROUP BY date ORDER BY date`,
		cutoff, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("querying daily stats: %w", err)
	}
	defer rows.Close()

	var stats []entity.DailyStat
	for rows.Next() {
		var st entity.DailyStat
		if err := rows.Scan(&st.Date, &st.Posts, &st.Responses); err != nil {
			return nil, fmt.Errorf("scanning daily stats: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}
