// Package config loads runtime configuration for the admin console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by -c/-config or $PSADMIN_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-b string     remote backend: firebase (default) or postgres
//	-f string     Firebase Realtime Database URL
//	-d string     PostgreSQL DSN
//	-l string     local SQLite file (default "admin.db"; empty keeps the
//	              session in memory only)
//	-k string     session encryption passphrase
//	-r duration   remote request timeout (default 10s)
//	-v string     log level (default info)
//
// # JSON schema
//
// Durations are timex.Duration values, either strings like "10s" or
// integer nanoseconds. Every key is optional:
//
//	{
//	  "backend": "firebase",
//	  "firebase_url": "https://example-rtdb.firebaseio.com",
//	  "firebase_auth": "",
//	  "database_dsn": "",
//	  "local_db_path": "admin.db",
//	  "secret_key": "...",
//	  "session_ttl": "24h",
//	  "request_timeout": "10s",
//	  "log_level": "info",
//	  "log_format": "text",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "http://localhost:9000",
//	  "s3_access_key": "minioadmin",
//	  "s3_secret_key": "minioadmin",
//	  "s3_bucket": "exports"
//	}
package config
