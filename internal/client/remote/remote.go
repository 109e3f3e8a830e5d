// Package remote reads the admin credential and manages player records in
// the remote document store. Two backends are provided: the Firebase
// Realtime Database REST API and PostgreSQL.
package remote

import (
	"context"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
)

// CredentialSource yields the single admin credential record, or
// common.ErrNotFound when none is configured. It never writes.
type CredentialSource interface {
	GetAdminCredential(ctx context.Context) (*models.Credential, error)
}

// PlayerStore is the CRUD surface over player results. UpdatePlayer and
// DeletePlayer return common.ErrNotFound for unknown ids.
type PlayerStore interface {
	ListPlayers(ctx context.Context) ([]*models.Player, error)
	UpdatePlayer(ctx context.Context, id string, u models.PlayerUpdate) error
	DeletePlayer(ctx context.Context, id string) error
}

// Store is a backend serving both concerns.
type Store interface {
	CredentialSource
	PlayerStore
	Close() error
}
