// Package players is the dashboard logic over player results: listing
// with a sort state, editing, deleting, and the anxiety classification
// and summary figures.
package players

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/client/remote"
	"github.com/dmitrijs2005/psadmin/internal/common"
	"github.com/dmitrijs2005/psadmin/internal/logging"
)

// Service defines player operations for the CLI. All methods honor
// context cancellation and timeouts.
type Service interface {
	List(ctx context.Context, sort SortState) ([]*models.Player, error)
	Get(ctx context.Context, id string) (*models.Player, error)
	Update(ctx context.Context, id string, u models.PlayerUpdate) error
	Delete(ctx context.Context, id string) error
}

type playerService struct {
	store  remote.PlayerStore
	logger logging.Logger
}

func NewService(store remote.PlayerStore, logger logging.Logger) Service {
	return &playerService{store: store, logger: logger}
}

func (s *playerService) List(ctx context.Context, sort SortState) ([]*models.Player, error) {
	list, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return sort.Sort(list), nil
}

func (s *playerService) Get(ctx context.Context, id string) (*models.Player, error) {
	list, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	for _, p := range list {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrNotFound
}

// Update validates the form and writes it. A blank username is rejected
// with common.ErrUsernameRequired before any remote call.
func (s *playerService) Update(ctx context.Context, id string, u models.PlayerUpdate) error {
	if strings.TrimSpace(u.Username) == "" {
		return common.ErrUsernameRequired
	}
	if err := s.store.UpdatePlayer(ctx, id, u); err != nil {
		s.logger.Error(ctx, "player update failed", "id", id, "error", err)
		return fmt.Errorf("update error: %w", err)
	}
	s.logger.Info(ctx, "player updated", "id", id)
	return nil
}

func (s *playerService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePlayer(ctx, id); err != nil {
		s.logger.Error(ctx, "player delete failed", "id", id, "error", err)
		return fmt.Errorf("delete error: %w", err)
	}
	s.logger.Info(ctx, "player deleted", "id", id)
	return nil
}
