// internal/game/secret.go
//
// Secret generation: each digit is drawn independently from Charset through
// a Source, so tests can substitute a deterministic one.

package game

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// Charset is the alphabet secrets are drawn from.
const Charset = "0123456789"

// Source draws uniform integers in [0, n).
type Source interface {
	Intn(n int) int
}

// cryptoSource is the default Source, backed by crypto/rand. A failing
// reader panics rather than yield a biased secret.
type cryptoSource struct{ r io.Reader }

func (c cryptoSource) Intn(n int) int {
	v, err := rand.Int(c.r, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Errorf("game: read random digit: %w", err))
	}
	return int(v.Int64())
}

// DefaultSource returns the crypto/rand backed Source.
func DefaultSource() Source { return cryptoSource{r: rand.Reader} }

// GenerateSecret draws Digits characters from Charset.
// A nil src uses DefaultSource.
func GenerateSecret(src Source) string {
	if src == nil {
		src = DefaultSource()
	}
	b := make([]byte, Digits)
	for i := range b {
		b[i] = Charset[src.Intn(len(Charset))]
	}
	return string(b)
}

// IsSecret reports whether s is exactly Digits decimal digits.
func IsSecret(s string) bool {
	if len(s) != Digits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
