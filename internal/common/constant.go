package common

// Local storage keys holding the encrypted session pair.
const (
	TokenStorageKey = "admin_token"
	UserStorageKey  = "admin_user"
)

// DefaultSecretKey is the pre-shared passphrase the web dashboard
// shipped with. It is not a confidentiality boundary: anyone holding the
// client holds the key.
const DefaultSecretKey = "PYSCHOSOMATIC_ADMIN_SECRET_KEY_2026"
