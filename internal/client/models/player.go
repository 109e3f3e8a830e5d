package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Player is one survey/game-session result.
type Player struct {
	ID                string    `json:"-"`
	Username          string    `json:"username"`
	FullName          string    `json:"fullName,omitempty"`
	DateOfBirth       string    `json:"dateOfBirth,omitempty"`
	Gender            string    `json:"gender,omitempty"`
	PhoneNumber       string    `json:"phoneNumber,omitempty"`
	EmailAddress      string    `json:"emailAddress,omitempty"`
	AnxietyPercentage float64   `json:"anxietyPercentage"`
	TotalTime         float64   `json:"totalTime"`
	Timestamp         Timestamp `json:"timestamp"`
}

// PlayerUpdate carries the editable fields of a Player.
type PlayerUpdate struct {
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	DateOfBirth  string `json:"dateOfBirth"`
	Gender       string `json:"gender"`
	PhoneNumber  string `json:"phoneNumber"`
	EmailAddress string `json:"emailAddress"`
}

// UpdateFrom returns the edit form prefilled from p.
func UpdateFrom(p *Player) PlayerUpdate {
	return PlayerUpdate{
		Username:     p.Username,
		FullName:     p.FullName,
		DateOfBirth:  p.DateOfBirth,
		Gender:       p.Gender,
		PhoneNumber:  p.PhoneNumber,
		EmailAddress: p.EmailAddress,
	}
}

// Apply copies the editable fields of u onto p.
func (u PlayerUpdate) Apply(p *Player) {
	p.Username = u.Username
	p.FullName = u.FullName
	p.DateOfBirth = u.DateOfBirth
	p.Gender = u.Gender
	p.PhoneNumber = u.PhoneNumber
	p.EmailAddress = u.EmailAddress
}

// Timestamp is a point in time that decodes from either epoch milliseconds
// or an RFC 3339 string; game clients have written both. It encodes as
// epoch milliseconds.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UnixMilli())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || len(b) == 0 {
		t.Time = time.Time{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}

	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", b, err)
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}
