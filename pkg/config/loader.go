package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option configures a load.
type Option func(*loader)

type loader struct {
	files   []string
	prefix  string
	environ map[string]string
}

// WithEnvFiles reads variables from dotenv files. Later files override
// earlier ones; the process environment overrides them all. A missing file is
// an error.
func WithEnvFiles(paths ...string) Option {
	return func(l *loader) {
		l.files = append(l.files, paths...)
	}
}

// WithPrefix prepends prefix to every env tag.
func WithPrefix(prefix string) Option {
	return func(l *loader) {
		l.prefix = prefix
	}
}

// WithEnvironment replaces the process environment as the source of values.
func WithEnvironment(vars map[string]string) Option {
	return func(l *loader) {
		l.environ = maps.Clone(vars)
	}
}

// Load parses the environment into a new T using its env and envDefault tags.
//
// Example:
//
//	type RedisConfig struct {
//		URL string `env:"REDIS_URL,required"`
//	}
//
//	cfg, err := config.Load[RedisConfig](config.WithEnvFiles(".env"))
func Load[T any](opts ...Option) (T, error) {
	var v T
	err := Parse(&v, opts...)
	return v, err
}

// MustLoad works like Load but panics on failure.
func MustLoad[T any](opts ...Option) T {
	v, err := Load[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
	return v
}

// Parse fills v from the environment. Fields already set keep their value
// unless a variable or default applies to them.
func Parse[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	l := &loader{}
	for _, opt := range opts {
		opt(l)
	}

	environ, err := l.environment()
	if err != nil {
		return err
	}

	if err := env.ParseWithOptions(v, env.Options{
		Prefix:      l.prefix,
		Environment: environ,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

func (l *loader) environment() (map[string]string, error) {
	merged := make(map[string]string)
	for _, path := range l.files {
		vars, err := godotenv.Read(path)
		if err != nil {
			return nil, errors.Join(ErrReadingEnvFile, err)
		}
		maps.Copy(merged, vars)
	}

	if l.environ != nil {
		maps.Copy(merged, l.environ)
		return merged, nil
	}
	for _, kv := range os.Environ() {
		if k, val, ok := strings.Cut(kv, "="); ok {
			merged[k] = val
		}
	}
	return merged, nil
}
