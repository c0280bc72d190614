// internal/daily/store.go
//
// SQL persistence for the Daily Challenge: one result per player per day,
// plus the leaderboard query.

package daily

import (
	"context"
	"database/sql"
)

// Result is one player's completed daily challenge.
type Result struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Store persists daily results in the daily_results table.
type Store struct{ db *sql.DB }

// NewStore wraps db, which must already carry the daily_results table.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether userID has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?`,
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records a result. A second result for the same user and
// date is ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, attempts, elapsed_ms)
		 VALUES(?,?,?,?)`, r.UserID, r.Date, r.Attempts, r.ElapsedMs,
	)
	return err
}

// LBRow is a leaderboard entry.
type LBRow struct {
	UserID    string `json:"userId"`
	Username  string `json:"username,omitempty"`
	Attempts  int    `json:"attempts"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard returns the best results for date: fewest attempts, then
// fastest, then earliest. limit defaults to 20.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.user_id, COALESCE(u.username, ''), d.attempts, d.elapsed_ms
		 FROM daily_results d
		 LEFT JOIN users u ON u.id = d.user_id
		 WHERE d.date=?
		 ORDER BY d.attempts ASC, d.elapsed_ms ASC, d.created_at ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.Attempts, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
