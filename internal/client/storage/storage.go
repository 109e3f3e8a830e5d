// Package storage is the local persistent key/value substrate the session
// layer keeps its encrypted pair in. It plays the role browser localStorage
// plays for a web client: synchronous-looking, profile scoped, survives
// restarts.
package storage

import "context"

// Storage is a string key/value store.
//
// GetItem reports found=false (and a nil error) for absent keys.
// RemoveItem of an absent key is not an error. SetItems writes all pairs
// atomically where the backend supports it.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	SetItem(ctx context.Context, key, value string) error
	SetItems(ctx context.Context, items map[string]string) error
	RemoveItem(ctx context.Context, key string) error
}
