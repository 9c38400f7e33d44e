package flagsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/dmitrymomot/flagsync/pkg/feature"
	"github.com/dmitrymomot/flagsync/pkg/httpclient"
	"github.com/dmitrymomot/flagsync/pkg/instrumentation"
	"github.com/dmitrymomot/flagsync/pkg/logger"
	"github.com/dmitrymomot/flagsync/pkg/metrics"
	"github.com/dmitrymomot/flagsync/pkg/redis"
	"github.com/dmitrymomot/flagsync/pkg/repository"
	"github.com/dmitrymomot/flagsync/pkg/storage"
)

// Hooks receives events from every component. Callbacks may run on
// background goroutines and must not block.
type Hooks struct {
	OnReady      func()
	OnData       func(defs []feature.Definition)
	OnError      func(err error)
	OnWarn       func(msg string)
	OnRegistered func(reg metrics.Registration)
	OnSent       func(payload metrics.Payload)
}

// Option configures a Client beyond what Config expresses.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	collector  instrumentation.Collector
	hooks      Hooks
	strategies []feature.Strategy
	httpClient *http.Client
	headerFunc httpclient.HeaderFunc
	backend    storage.Backend
	fs         afero.Fs
	bootstrap  []feature.Definition
	clock      clockwork.Clock
}

// WithLogger sets the logger shared by all components.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCollector sets the operational metrics collector.
func WithCollector(c instrumentation.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithHooks sets the event callbacks.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// WithStrategies registers custom strategies next to the built-ins. A custom
// strategy replaces a built-in with the same name.
func WithStrategies(s ...feature.Strategy) Option {
	return func(o *options) { o.strategies = append(o.strategies, s...) }
}

// WithHTTPClient sets the *http.Client used for every request.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithHeaderFunc computes custom headers per request, replacing Config.CustomHeaders.
func WithHeaderFunc(fn httpclient.HeaderFunc) Option {
	return func(o *options) { o.headerFunc = fn }
}

// WithBackend overrides the backup backend chosen from Config.
func WithBackend(b storage.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithFilesystem sets the filesystem for the backup file and the bootstrap file.
func WithFilesystem(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithBootstrap seeds toggles used until a backup or a sync provides data.
// They are added to those read from Config.BootstrapFile.
func WithBootstrap(defs ...feature.Definition) Option {
	return func(o *options) { o.bootstrap = append(o.bootstrap, defs...) }
}

// WithClock sets the clock that schedules syncs and metrics deliveries.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// Client evaluates toggles kept in sync with the toggle service and reports
// their usage. Evaluation methods are safe for concurrent use.
type Client struct {
	cfg        Config
	static     feature.Context
	hooks      Hooks
	logger     *slog.Logger
	registry   *feature.Registry
	repo       *repository.Repository
	reporter   *metrics.Reporter
	evaluator  *feature.Client
	redis      *goredis.Client
	ready      atomic.Bool
	instanceID string
}

// New validates cfg and wires the repository, the evaluator and the metrics
// reporter. Nothing is fetched until Start. ctx bounds the Redis connection
// attempt when a Redis backup is configured.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}
	if o.collector == nil {
		o.collector = instrumentation.NewNop()
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.logger == nil {
		o.logger = logger.Nop()
		if cfg.Log {
			o.logger = logger.New(logger.WithEnvironment(cfg.Environment, cfg.AppName))
		}
	}

	c := &Client{
		cfg:        cfg,
		static:     feature.Context{AppName: cfg.AppName, Environment: cfg.Environment},
		hooks:      o.hooks,
		instanceID: cfg.InstanceID,
	}
	if c.instanceID == "" {
		c.instanceID = DefaultInstanceID()
	}
	c.logger = o.logger.With(logger.AppName(cfg.AppName), logger.InstanceID(c.instanceID))

	if strings.HasSuffix(strings.TrimSuffix(cfg.URL, "/"), "/features") {
		c.warn(fmt.Sprintf("toggle service URL %q should not link directly to /features", cfg.URL))
	}

	hc, err := httpclient.New(cfg.URL, cfg.AppName,
		httpclient.WithInstanceID(c.instanceID),
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithHeaders(cfg.CustomHeaders),
		httpclient.WithHeaderFunc(o.headerFunc),
		httpclient.WithHTTPClient(o.httpClient),
		httpclient.WithLogger(c.logger),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	if c.registry, err = feature.NewDefaultRegistry(o.strategies...); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	bootstrap, err := c.loadBootstrap(o.fs)
	if err != nil {
		return nil, err
	}
	bootstrap = append(bootstrap, o.bootstrap...)

	backend := o.backend
	if backend == nil {
		if backend, err = c.openBackend(ctx, o.fs); err != nil {
			return nil, err
		}
	}

	c.repo, err = repository.New(hc,
		repository.WithRefreshInterval(cfg.RefreshInterval),
		repository.WithClock(o.clock),
		repository.WithBackend(backend),
		repository.WithBootstrap(bootstrap...),
		repository.WithLogger(c.logger),
		repository.WithCollector(o.collector),
		repository.WithHooks(repository.Hooks{
			OnReady: c.onReady,
			OnData:  o.hooks.OnData,
			OnError: func(err error) { c.fail(fmt.Errorf("repository: %w", err)) },
			OnWarn:  c.warn,
		}),
	)
	if err != nil {
		return nil, err
	}

	c.reporter, err = metrics.New(hc,
		metrics.WithInterval(cfg.MetricsInterval),
		metrics.WithDisabled(cfg.DisableMetrics),
		metrics.WithStrategies(c.registry.Names()...),
		metrics.WithClock(o.clock),
		metrics.WithLogger(c.logger),
		metrics.WithCollector(o.collector),
		metrics.WithHooks(metrics.Hooks{
			OnRegistered: o.hooks.OnRegistered,
			OnSent:       o.hooks.OnSent,
			OnWarn:       c.warn,
			OnError:      func(err error) { c.fail(fmt.Errorf("metrics: %w", err)) },
		}),
	)
	if err != nil {
		return nil, err
	}

	c.evaluator, err = feature.NewClient(c.repo, c.registry,
		feature.WithLogger(c.logger),
		feature.WithCollector(o.collector),
		feature.WithHooks(feature.Hooks{OnError: c.fail, OnWarn: c.warn}),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) loadBootstrap(fs afero.Fs) ([]feature.Definition, error) {
	if c.cfg.BootstrapFile == "" {
		return nil, nil
	}
	data, err := afero.ReadFile(fs, c.cfg.BootstrapFile)
	if err != nil {
		return nil, errors.Join(ErrBootstrap, err)
	}
	defs, err := feature.DecodeDefinitions(data, feature.FormatFromPath(c.cfg.BootstrapFile))
	if err != nil {
		return nil, errors.Join(ErrBootstrap, err)
	}
	return defs, nil
}

func (c *Client) openBackend(ctx context.Context, fs afero.Fs) (storage.Backend, error) {
	if !c.cfg.Redis.Enabled() {
		return storage.NewFileBackend(fs, c.cfg.BackupPath, c.cfg.AppName), nil
	}

	client, err := redis.Connect(ctx, c.cfg.Redis)
	if err != nil {
		return nil, errors.Join(ErrBackend, err)
	}
	c.redis = client
	redisOpts := []storage.RedisOption{storage.WithTTL(c.cfg.Redis.TTL)}
	if c.cfg.Redis.KeyPrefix != "" {
		redisOpts = append(redisOpts, storage.WithKeyPrefix(c.cfg.Redis.KeyPrefix))
	}
	return storage.NewRedisBackend(client, c.cfg.AppName, redisOpts...), nil
}

// Start restores the backup, begins syncing toggles and, unless disabled,
// starts reporting usage.
func (c *Client) Start(ctx context.Context) error {
	if err := c.repo.Start(ctx); err != nil {
		return err
	}
	return c.reporter.Start(ctx)
}

// Close stops syncing and reporting, waits for pending backup writes and
// closes the Redis connection opened by New.
func (c *Client) Close() error {
	c.repo.Stop()
	c.reporter.Stop()
	c.repo.Wait()
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// Ready reports whether toggles have been loaded from the backup or the service.
func (c *Client) Ready() bool {
	return c.ready.Load()
}

// IsEnabled evaluates the named toggle for ctx merged over the static
// context (app name and environment). Before the client is ready the
// fallback decides. Every call is counted.
func (c *Client) IsEnabled(name string, ctx feature.Context, fallback feature.FallbackFunc) bool {
	var enabled bool
	if c.Ready() {
		enabled = c.evaluator.IsEnabled(name, ctx.Merge(c.static), fallback)
	} else {
		if fallback != nil {
			enabled = fallback()
		}
		c.warn(fmt.Sprintf("client is not ready yet, IsEnabled(%s) defaulted to %t", name, enabled))
	}
	c.reporter.Count(name, enabled)
	return enabled
}

// GetVariant returns the variant of the named toggle for ctx merged over the
// static context. Before the client is ready the fallback is returned. The
// returned variant is counted.
func (c *Client) GetVariant(name string, ctx feature.Context, fallback feature.Variant) feature.Variant {
	var v feature.Variant
	if c.Ready() {
		v = c.evaluator.GetVariant(name, ctx.Merge(c.static), fallback)
	} else {
		v = fallback
		if v.Name == "" {
			v = feature.DefaultVariant()
		}
		c.warn(fmt.Sprintf("client is not ready yet, GetVariant(%s) defaulted to %s", name, v.Name))
	}
	c.reporter.CountVariant(name, v.Name)
	return v
}

// GetToggle returns the definition of the named toggle.
func (c *Client) GetToggle(name string) (feature.Definition, bool) {
	return c.repo.GetToggle(name)
}

// GetToggles returns every known toggle sorted by name.
func (c *Client) GetToggles() []feature.Definition {
	return c.repo.GetToggles()
}

// URL returns the endpoint toggles are fetched from.
func (c *Client) URL() string {
	return c.repo.URL()
}

// InstanceID returns the identifier sent with every request.
func (c *Client) InstanceID() string {
	return c.instanceID
}

// Registry returns the strategy registry.
func (c *Client) Registry() *feature.Registry {
	return c.registry
}

// Repository returns the underlying toggle repository.
func (c *Client) Repository() *repository.Repository {
	return c.repo
}

// Metrics returns the underlying usage reporter.
func (c *Client) Metrics() *metrics.Reporter {
	return c.reporter
}

func (c *Client) onReady() {
	c.ready.Store(true)
	c.logger.Info("toggles ready", logger.Count(len(c.repo.GetToggles())))
	if c.hooks.OnReady != nil {
		c.hooks.OnReady()
	}
}

func (c *Client) fail(err error) {
	if c.hooks.OnError != nil {
		c.hooks.OnError(err)
	}
}

func (c *Client) warn(msg string) {
	if c.hooks.OnWarn != nil {
		c.hooks.OnWarn(msg)
	}
}
