// internal/daily/daily.go
//
// Daily mode: every player gets the same challenge order for a game on a given
// UTC date. The order is derived from HMAC-SHA256(salt, date|gameKey), so it is
// stable for the day and unpredictable without the server's salt.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns the deterministic seed for (date, gameKey).
func Seed(date time.Time, salt, gameKey string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	h.Write([]byte{'|'})
	h.Write([]byte(gameKey))
	sum := h.Sum(nil)
	// first 8 bytes, sign bit cleared
	return int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
}

// Order returns a permutation of [0, n) for (date, gameKey).
func Order(date time.Time, salt, gameKey string, n int) []int {
	if n <= 0 {
		return nil
	}
	return rand.New(rand.NewSource(Seed(date, salt, gameKey))).Perm(n)
}

// Shuffle returns items reordered by Order. The input is not modified.
func Shuffle[T any](items []T, date time.Time, salt, gameKey string) []T {
	out := make([]T, len(items))
	for i, j := range Order(date, salt, gameKey, len(items)) {
		out[i] = items[j]
	}
	return out
}
