// internal/daily/daily.go
//
// Daily Challenge secret: every player gets the same 4 digits for a UTC
// day, derived from HMAC-SHA256(salt, date).

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"

	"github.com/robalobadob/numguess/internal/game"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// digestSource feeds successive bytes of an HMAC digest to game.GenerateSecret.
type digestSource struct {
	sum []byte
	off int
}

func (d *digestSource) Intn(n int) int {
	// two bytes per draw keeps modulo bias negligible for n=10
	v := binary.BigEndian.Uint16(d.sum[d.off : d.off+2])
	d.off = (d.off + 2) % (len(d.sum) - 1)
	return int(v) % n
}

// Secret returns the deterministic secret for a date: HMAC(salt, YYYY-MM-DD)
// drawn digit by digit.
func Secret(date time.Time, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	return game.GenerateSecret(&digestSource{sum: h.Sum(nil)})
}
