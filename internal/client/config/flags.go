package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/psadmin/internal/flagx"
)

var knownFlags = []string{"-b", "-f", "-d", "-l", "-k", "-r", "-v"}

// parseFlags populates Config fields from command-line flags:
//
//	-b string     remote backend: firebase or postgres
//	-f string     Firebase Realtime Database URL
//	-d string     PostgreSQL DSN
//	-l string     local SQLite file for the session pair
//	-k string     session encryption passphrase
//	-r duration   timeout for each remote request
//	-v string     log level: debug, info, warn, error
//
// Args are filtered with flagx.FilterArgs first, so -c/-config and
// anything unknown are ignored here.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "remote backend (firebase|postgres)")
	fs.StringVar(&cfg.FirebaseURL, "f", cfg.FirebaseURL, "firebase database url")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "postgres dsn")
	fs.StringVar(&cfg.LocalDBPath, "l", cfg.LocalDBPath, "local session database")
	fs.StringVar(&cfg.SecretKey, "k", cfg.SecretKey, "session encryption key")
	fs.DurationVar(&cfg.RequestTimeout, "r", cfg.RequestTimeout, "remote request timeout")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
