// internal/auth/auth.go
//
// Account primitives shared by the HTTP layer.
// Responsibilities:
//   - Username/password validation and bcrypt hashing.
//   - HS256 JWT issue/verify with id + username claims.
//   - Token extraction from the Authorization header or auth cookie.

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrBadUsername  = errors.New("username must be 3-24 chars: letters, numbers, underscore")
	ErrBadPassword  = errors.New("password must be 8-100 chars")
)

// User is the identity carried in request context.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// NormalizeUsername trims whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return ErrBadUsername
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ErrBadUsername
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return ErrBadPassword
	}
	return nil
}

// HashPassword bcrypt-hashes pw at the given cost (bcrypt.DefaultCost when 0).
func HashPassword(pw string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	return string(b), err
}

// CheckPassword is a bcrypt verifier.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Tokens signs and verifies JWTs.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

// NewTokens builds a Tokens with the given HMAC secret and lifetime.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{Secret: []byte(secret), TTL: ttl, now: time.Now}
}

// Sign creates an HS256 JWT for the user and returns it with its expiry.
func (t *Tokens) Sign(u User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.TTL)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       u.ID,
		"username": u.Username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := tok.SignedString(t.Secret)
	return ss, exp, err
}

// Parse verifies a token and returns the user it names.
func (t *Tokens) Parse(tokenStr string) (User, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(tokenStr, claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tk.Header["alg"])
		}
		return t.Secret, nil
	})
	if err != nil || !tok.Valid {
		return User{}, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: id, Username: username}, nil
}

// FromRequest extracts a bearer token from the Authorization header or,
// failing that, the named cookie.
func FromRequest(r *http.Request, cookieName string) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
