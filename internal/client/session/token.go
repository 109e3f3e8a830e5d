package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/psadmin/internal/common"
)

// Token is the session record persisted (encrypted) under admin_token.
// The JSON keys match what the web dashboard wrote, so sessions it
// created keep restoring.
type Token struct {
	Username       string `json:"username"`
	IssuedAtMillis int64  `json:"timestamp"`
	SessionID      string `json:"sessionId"`
}

// IssuedAt returns the issue time.
func (t Token) IssuedAt() time.Time {
	return time.UnixMilli(t.IssuedAtMillis)
}

// Expired reports whether the token is at least ttl old at now.
func (t Token) Expired(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-t.IssuedAtMillis >= ttl.Milliseconds()
}

func (t Token) encode() (string, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeToken(s string) (Token, error) {
	var t Token
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return Token{}, fmt.Errorf("%w: %w", common.ErrInvalidSession, err)
	}
	if t.Username == "" || t.IssuedAtMillis == 0 {
		return Token{}, fmt.Errorf("%w: incomplete token", common.ErrInvalidSession)
	}
	return t, nil
}
