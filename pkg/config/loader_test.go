package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/flagsync/pkg/config"
)

type settings struct {
	URL      string        `env:"URL,required"`
	Interval time.Duration `env:"INTERVAL" envDefault:"15s"`
	Tags     []string      `env:"TAGS" envSeparator:","`
	Disabled bool          `env:"DISABLED"`
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("from environment map", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load[settings](config.WithEnvironment(map[string]string{
			"URL":      "http://toggles.local",
			"TAGS":     "a,b",
			"DISABLED": "true",
		}))
		require.NoError(t, err)
		assert.Equal(t, "http://toggles.local", cfg.URL)
		assert.Equal(t, 15*time.Second, cfg.Interval)
		assert.Equal(t, []string{"a", "b"}, cfg.Tags)
		assert.True(t, cfg.Disabled)
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load[settings](
			config.WithPrefix("FLAGSYNC_"),
			config.WithEnvironment(map[string]string{"FLAGSYNC_URL": "http://a", "URL": "http://b"}),
		)
		require.NoError(t, err)
		assert.Equal(t, "http://a", cfg.URL)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load[settings](config.WithEnvironment(map[string]string{}))
		require.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("env files with precedence", func(t *testing.T) {
		t.Parallel()
		base := writeEnvFile(t, "URL=http://file\nINTERVAL=1m\n")
		override := writeEnvFile(t, "INTERVAL=2m\nTAGS=\"x,y\"\n")

		cfg, err := config.Load[settings](
			config.WithEnvFiles(base, override),
			config.WithEnvironment(map[string]string{"TAGS": "z"}),
		)
		require.NoError(t, err)
		assert.Equal(t, "http://file", cfg.URL)
		assert.Equal(t, 2*time.Minute, cfg.Interval)
		assert.Equal(t, []string{"z"}, cfg.Tags)
	})

	t.Run("missing env file", func(t *testing.T) {
		t.Parallel()
		_, err := config.Load[settings](config.WithEnvFiles(filepath.Join(t.TempDir(), "nope.env")))
		require.ErrorIs(t, err, config.ErrReadingEnvFile)
	})
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("FLAGSYNC_TEST_URL", "http://process")
	cfg, err := config.Load[settings](config.WithPrefix("FLAGSYNC_TEST_"))
	require.NoError(t, err)
	assert.Equal(t, "http://process", cfg.URL)
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("nil pointer", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, config.Parse[settings](nil), config.ErrNilPointer)
	})

	t.Run("keeps preset values", func(t *testing.T) {
		t.Parallel()
		cfg := settings{Tags: []string{"preset"}}
		require.NoError(t, config.Parse(&cfg, config.WithEnvironment(map[string]string{"URL": "http://a"})))
		assert.Equal(t, []string{"preset"}, cfg.Tags)
		assert.Equal(t, "http://a", cfg.URL)
	})
}

func TestMustLoad(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		config.MustLoad[settings](config.WithEnvironment(map[string]string{}))
	})
	assert.NotPanics(t, func() {
		config.MustLoad[settings](config.WithEnvironment(map[string]string{"URL": "u"}))
	})
}
