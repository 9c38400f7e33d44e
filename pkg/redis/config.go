package redis

import "time"

// Config describes the connection used by the Redis backup backend.
// Env names are relative; the root package loads them with the FLAGSYNC_ prefix.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                                      // redis://:password@localhost:6379/0
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"flagsync:backup:"` // prefix of the backup key
	TTL            time.Duration `env:"REDIS_TTL"`                                      // zero keeps the backup forever
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
