// internal/auth/users.go
//
// users table repository: signup, login lookup and per-account stats.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"
)

var (
	ErrUsernameTaken = errors.New("username taken")
	ErrUserNotFound  = errors.New("user not found")
)

// Account matches the users table shape.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	Wins         int       `json:"wins"`
	Streak       int       `json:"streak"`
	BestAttempts int       `json:"bestAttempts"`
}

// Users is the users table repository.
type Users struct {
	db   *sql.DB
	cost int
}

// NewUsers wraps db. cost is the bcrypt cost (0 for the default).
func NewUsers(db *sql.DB, cost int) *Users { return &Users{db: db, cost: cost} }

// Create validates input, hashes the password and inserts a new user.
func (u *Users) Create(ctx context.Context, username, pw string) (*Account, error) {
	username = NormalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	h, err := HashPassword(pw, u.cost)
	if err != nil {
		return nil, err
	}
	acc := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: h,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = u.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		acc.ID, acc.Username, acc.PasswordHash, acc.CreatedAt.Format(time.RFC3339))
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	return acc, nil
}

// Authenticate returns the account when username and password match.
func (u *Users) Authenticate(ctx context.Context, username, pw string) (*Account, error) {
	acc, err := u.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if !CheckPassword(acc.PasswordHash, pw) {
		return nil, ErrUserNotFound
	}
	return acc, nil
}

// ByUsername looks up an account case-insensitively; ErrUserNotFound when
// there is none.
func (u *Users) ByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(u.db.QueryRowContext(ctx, selectAccount+` WHERE username=?`, username))
}

// ByID looks up an account by id; ErrUserNotFound when there is none.
func (u *Users) ByID(ctx context.Context, id string) (*Account, error) {
	return scanAccount(u.db.QueryRowContext(ctx, selectAccount+` WHERE id=?`, id))
}

const selectAccount = `SELECT id, username, password_hash, created_at, games_played, wins, streak, best_attempts FROM users`

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	var created string
	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &created,
		&a.GamesPlayed, &a.Wins, &a.Streak, &a.BestAttempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &a, nil
}

// BumpStats records a finished round inside tx: games played always grows;
// a win grows wins and streak and may lower best attempts; a loss (an
// abandoned round) resets the streak.
func BumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool, attempts int) error {
	var gp, wins, streak, best int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak, best_attempts FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak, &best); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
		if best == 0 || attempts < best {
			best = attempts
		}
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE users SET games_played=?, wins=?, streak=?, best_attempts=? WHERE id=?`,
		gp, wins, streak, best, userID)
	return err
}
