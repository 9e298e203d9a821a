package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/trustkeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-m string   metrics/health HTTP bind address
//	-d string   PostgreSQL DSN
//	-k string   Redis URL
//	-b string   ephemeral backend: redis | memory
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-v int      verification code TTL, minutes
//	-p int      password reset code TTL, minutes
//	-w int      attempt counter window, minutes
//	-l string   log level
//
// Only the flags listed here are picked out of os.Args (flagx.FilterArgs),
// so -c/-config and unknown flags do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-d", "-k", "-b", "-s", "-t", "-r", "-v", "-p", "-w", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run gRPC server")
	fs.StringVar(&config.EndpointAddrHTTP, "m", config.EndpointAddrHTTP, "address and port for metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "k", config.RedisURL, "redis URL")
	fs.StringVar(&config.EphemeralBackend, "b", config.EphemeralBackend, "ephemeral backend (redis|memory)")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	accessTokenValidity := fs.Int("t", minutes(config.AccessTokenValidityDuration), "access token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", minutes(config.RefreshTokenValidityDuration), "refresh token validity (in minutes)")
	verificationCodeTTL := fs.Int("v", minutes(config.VerificationCodeTTL), "verification code ttl (in minutes)")
	resetCodeTTL := fs.Int("p", minutes(config.ResetCodeTTL), "reset code ttl (in minutes)")
	attemptWindow := fs.Int("w", minutes(config.AttemptWindow), "attempt counter window (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
	config.VerificationCodeTTL = time.Duration(*verificationCodeTTL) * time.Minute
	config.ResetCodeTTL = time.Duration(*resetCodeTTL) * time.Minute
	config.AttemptWindow = time.Duration(*attemptWindow) * time.Minute
}

func minutes(d time.Duration) int {
	return int(d / time.Minute)
}
