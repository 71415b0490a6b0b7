package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-s", "-f", "-t", "-r", "-store", "-redis", "-l"}

// parseFlags overlays Config with command-line flags.
//
//	-a string     HTTP bind address (e.g. ":3000")
//	-g string     gRPC health bind address, empty disables it
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-f string     refresh fingerprint HMAC key
//	-t int        access token validity, minutes
//	-r int        refresh token validity, minutes
//	-store string fingerprint store: postgres|redis
//	-redis string Redis address
//	-l int        signup/login requests per minute per client
//
// Durations are given in whole minutes.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrHTTP, "a", cfg.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&cfg.EndpointAddrGRPC, "g", cfg.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "JWT secret key")
	fs.StringVar(&cfg.FingerprintKey, "f", cfg.FingerprintKey, "refresh fingerprint key")

	access := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refresh := fs.Int("r", int(cfg.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.StringVar(&cfg.FingerprintStore, "store", cfg.FingerprintStore, "fingerprint store (postgres|redis)")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address")
	fs.IntVar(&cfg.RateLimitPerMinute, "l", cfg.RateLimitPerMinute, "signup/login requests per minute per client")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	// only explicit flags override, so sub-minute JSON values survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
		case "r":
			cfg.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
		}
	})
	return nil
}
