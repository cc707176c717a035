package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/accounts/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string   base URL of the accounts API
//	-t int      request timeout (in seconds)
//	-s string   path of the local session database
//	-i int      online check interval (in seconds)
//
// Unknown arguments are ignored so -c/-config can share os.Args.
func parseFlags(cfg *Config) {
	if err := parseArgs(cfg, os.Args[1:]); err != nil {
		panic(err)
	}
}

func parseArgs(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("accounts-cli", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the accounts API")
	fs.StringVar(&cfg.SessionDB, "s", cfg.SessionDB, "path of the local session database")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := flagx.ParseKnown(fs, args); err != nil {
		return err
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	return nil
}
