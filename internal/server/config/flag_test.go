package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-m", ":9100", "-d", "db", "-k", "redis://cache:6379/1", "-b", "memory",
			"-s", "secret", "-t", "1", "-r", "3", "-v", "5", "-p", "7", "-w", "60", "-l", "debug",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrGRPC:             "127.0.0.1:9090",
				EndpointAddrHTTP:             ":9100",
				DatabaseDSN:                  "db",
				RedisURL:                     "redis://cache:6379/1",
				EphemeralBackend:             "memory",
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  1 * time.Minute,
				RefreshTokenValidityDuration: 3 * time.Minute,
				VerificationCodeTTL:          5 * time.Minute,
				ResetCodeTTL:                 7 * time.Minute,
				AttemptWindow:                60 * time.Minute,
				LogLevel:                     "debug",
			}},
		{name: "unknown flags are ignored", args: []string{"cmd", "-x", "1", "-c", "cfg.json", "-s", "only"},
			expected: &Config{SecretKey: "only"}},
		{name: "non-numeric duration panics", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
