// Package config loads configuration structs from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for tag based parsing and
// github.com/joho/godotenv for reading dotenv files. Dotenv files are read
// into the lookup table only; the process environment is never modified, so
// loading has no side effects and can run concurrently.
//
//	type Settings struct {
//	    URL      string        `env:"URL,required"`
//	    Interval time.Duration `env:"INTERVAL" envDefault:"15s"`
//	}
//
//	s, err := config.Load[Settings](
//	    config.WithPrefix("FLAGSYNC_"),
//	    config.WithEnvFiles(".env"),
//	)
//
// Errors wrap ErrParsingConfig, ErrReadingEnvFile or ErrNilPointer.
package config
