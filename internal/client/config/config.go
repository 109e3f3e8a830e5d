package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/psadmin/internal/common"
)

const (
	BackendFirebase = "firebase"
	BackendPostgres = "postgres"
)

// Config holds runtime settings for the admin console.
//
// Backend selects the remote store: BackendFirebase uses FirebaseURL (and
// FirebaseAuth, if set), BackendPostgres uses DatabaseDSN. LocalDBPath is
// the SQLite file holding the encrypted session pair. The S3 fields are
// needed only by the export command.
type Config struct {
	Backend      string
	FirebaseURL  string
	FirebaseAuth string
	DatabaseDSN  string
	LocalDBPath  string

	SecretKey      string
	SessionTTL     time.Duration
	RequestTimeout time.Duration

	LogLevel  string
	LogFormat string

	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
	S3Bucket       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendFirebase
	c.LocalDBPath = "admin.db"
	c.SecretKey = common.DefaultSecretKey
	c.SessionTTL = 24 * time.Hour
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.S3Region = "us-east-1"
}

// Validate reports settings that would make the console unusable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFirebase:
		if c.FirebaseURL == "" {
			return fmt.Errorf("firebase backend requires firebase_url (-f)")
		}
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("postgres backend requires database_dsn (-d)")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret_key must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// LoadConfig applies defaults, then overlays values from JSON (if a file is
// named) and command-line flags. Later sources take precedence. args
// excludes the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
