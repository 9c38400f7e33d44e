package flagsync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/flagsync/pkg/config"
	"github.com/dmitrymomot/flagsync/pkg/httpclient"
	"github.com/dmitrymomot/flagsync/pkg/redis"
)

// EnvPrefix prefixes every variable read by LoadConfig.
const EnvPrefix = "FLAGSYNC_"

// Config holds the settings of a Client.
type Config struct {
	URL             string            `env:"URL,required"`
	AppName         string            `env:"APP_NAME,required"`
	InstanceID      string            `env:"INSTANCE_ID"` // defaults to <user>-<host>
	Environment     string            `env:"ENVIRONMENT" envDefault:"default"`
	RefreshInterval time.Duration     `env:"REFRESH_INTERVAL" envDefault:"15s"` // zero or less fetches once
	MetricsInterval time.Duration     `env:"METRICS_INTERVAL" envDefault:"60s"` // zero or less disables metrics transport
	DisableMetrics  bool              `env:"DISABLE_METRICS"`
	Timeout         time.Duration     `env:"TIMEOUT"` // zero means no request timeout
	CustomHeaders   map[string]string `env:"CUSTOM_HEADERS"`
	BackupPath      string            `env:"BACKUP_PATH"` // directory; defaults to the system temp dir
	BootstrapFile   string            `env:"BOOTSTRAP_FILE"`
	Log             bool              `env:"LOG"` // log with the environment preset unless WithLogger is used

	Redis redis.Config
}

// LoadConfig reads a Config from FLAGSYNC_ prefixed environment variables.
func LoadConfig(opts ...config.Option) (Config, error) {
	opts = append([]config.Option{config.WithPrefix(EnvPrefix)}, opts...)
	cfg, err := config.Load[Config](opts...)
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate checks the settings New requires.
func (c Config) Validate() error {
	var errs []error
	if _, err := httpclient.NormalizeURL(c.URL); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.AppName) == "" {
		errs = append(errs, errors.New("app name is required"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout %s is negative", c.Timeout))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
