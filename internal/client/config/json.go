package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/psadmin/internal/flagx"
	"github.com/dmitrijs2005/psadmin/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// use timex.Duration so they can be strings like "10s" or nanoseconds.
type JsonConfig struct {
	Backend      string `json:"backend"`
	FirebaseURL  string `json:"firebase_url"`
	FirebaseAuth string `json:"firebase_auth"`
	DatabaseDSN  string `json:"database_dsn"`
	LocalDBPath  string `json:"local_db_path"`

	SecretKey      string         `json:"secret_key"`
	SessionTTL     timex.Duration `json:"session_ttl"`
	RequestTimeout timex.Duration `json:"request_timeout"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
}

func toJson(c *Config) JsonConfig {
	return JsonConfig{
		Backend:        c.Backend,
		FirebaseURL:    c.FirebaseURL,
		FirebaseAuth:   c.FirebaseAuth,
		DatabaseDSN:    c.DatabaseDSN,
		LocalDBPath:    c.LocalDBPath,
		SecretKey:      c.SecretKey,
		SessionTTL:     timex.Duration{Duration: c.SessionTTL},
		RequestTimeout: timex.Duration{Duration: c.RequestTimeout},
		LogLevel:       c.LogLevel,
		LogFormat:      c.LogFormat,
		S3Region:       c.S3Region,
		S3BaseEndpoint: c.S3BaseEndpoint,
		S3AccessKey:    c.S3AccessKey,
		S3SecretKey:    c.S3SecretKey,
		S3Bucket:       c.S3Bucket,
	}
}

func (jc JsonConfig) apply(c *Config) {
	c.Backend = jc.Backend
	c.FirebaseURL = jc.FirebaseURL
	c.FirebaseAuth = jc.FirebaseAuth
	c.DatabaseDSN = jc.DatabaseDSN
	c.LocalDBPath = jc.LocalDBPath
	c.SecretKey = jc.SecretKey
	c.SessionTTL = jc.SessionTTL.Duration
	c.RequestTimeout = jc.RequestTimeout.Duration
	c.LogLevel = jc.LogLevel
	c.LogFormat = jc.LogFormat
	c.S3Region = jc.S3Region
	c.S3BaseEndpoint = jc.S3BaseEndpoint
	c.S3AccessKey = jc.S3AccessKey
	c.S3SecretKey = jc.S3SecretKey
	c.S3Bucket = jc.S3Bucket
}

// parseJson overlays cfg with the JSON file named by -c/-config or
// $PSADMIN_CONFIG. Keys absent from the file keep their current value.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	jc := toJson(cfg)
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	jc.apply(cfg)
	return nil
}
