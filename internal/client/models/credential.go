// Package models defines the records the console reads from the remote
// store: the admin credential and the player results.
package models

// Credential is the single admin record. Password holds the lowercase hex
// SHA-256 digest of the plaintext, never the plaintext itself.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
