// Package export uploads JSON snapshots of the player results to an
// S3-compatible bucket.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/logging"
	"github.com/google/uuid"
)

const contentType = "application/json"

// Uploader stores one object.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

type record struct {
	ID string `json:"id"`
	*models.Player
}

// Snapshot is the exported document.
type Snapshot struct {
	ExportedAt time.Time `json:"exportedAt"`
	Total      int       `json:"total"`
	Players    []record  `json:"players"`
}

type Exporter struct {
	uploader Uploader
	logger   logging.Logger
	now      func() time.Time
	newID    func() string
}

func NewExporter(uploader Uploader, logger logging.Logger) *Exporter {
	return &Exporter{uploader: uploader, logger: logger, now: time.Now, newID: uuid.NewString}
}

// ObjectKey returns players/YYYY/MM/DD/<id>.json for t in UTC.
func ObjectKey(t time.Time, id string) string {
	t = t.UTC()
	return fmt.Sprintf("players/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), id)
}

// Export uploads list and returns the object key.
func (e *Exporter) Export(ctx context.Context, list []*models.Player) (string, error) {
	now := e.now()
	snap := Snapshot{ExportedAt: now.UTC(), Total: len(list), Players: make([]record, 0, len(list))}
	for _, p := range list {
		snap.Players = append(snap.Players, record{ID: p.ID, Player: p})
	}

	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal error: %w", err)
	}

	key := ObjectKey(now, e.newID())
	if err := e.uploader.Upload(ctx, key, body, contentType); err != nil {
		e.logger.Error(ctx, "export upload failed", "key", key, "error", err)
		return "", fmt.Errorf("upload error: %w", err)
	}
	e.logger.Info(ctx, "export uploaded", "key", key, "players", len(list))
	return key, nil
}
